/*
 * @Description: 统一配置管理 (手动加载 ini + 环境变量覆盖)
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 11:02:36
 * @LastEditors: 安知鱼
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// DefaultFilePath 默认配置文件路径
const DefaultFilePath = "data/conf.ini"

// EnvPrefix 环境变量前缀，例如 ANHEYU_FILTER_ENABLED
const EnvPrefix = "ANHEYU"

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyFilterEnabled, KeyFilterCacheCapacity, KeyFilterCacheTTL, KeyFilterSweepSpec,
	KeyEditorVisualEditorActive, KeyEditorLibraryPostType, KeyEditorEditModeMetaKey,
	KeyRateLimitPerMinute, KeyRateLimitBurst,
}

const (
	KeyServerPort    = "System.Port"
	KeyServerDebug   = "System.Debug"
	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyFilterEnabled       = "Filter.Enabled"
	KeyFilterCacheCapacity = "Filter.CacheCapacity"
	KeyFilterCacheTTL      = "Filter.CacheTTL"
	KeyFilterSweepSpec     = "Filter.SweepSpec"

	KeyEditorVisualEditorActive = "Editor.VisualEditorActive"
	KeyEditorLibraryPostType    = "Editor.LibraryPostType"
	KeyEditorEditModeMetaKey    = "Editor.EditModeMetaKey"

	KeyRateLimitPerMinute = "RateLimit.PerMinute"
	KeyRateLimitBurst     = "RateLimit.Burst"
)

// 内部默认值，配置文件和环境变量都没有提供时使用
var defaults = map[string]interface{}{
	KeyServerPort:               8091,
	KeyServerDebug:              false,
	KeyRedisDB:                  10,
	KeyFilterEnabled:            true,
	KeyFilterCacheCapacity:      500,
	KeyFilterCacheTTL:           "30m",
	KeyFilterSweepSpec:          "0 */5 * * * *",
	KeyEditorVisualEditorActive: true,
	KeyEditorLibraryPostType:    "elementor_library",
	KeyEditorEditModeMetaKey:    "_elementor_edit_mode",
	KeyRateLimitPerMinute:       120,
	KeyRateLimitBurst:           30,
}

type Config struct {
	vp *viper.Viper
}

// NewConfig 从默认路径加载配置
func NewConfig() (*Config, error) {
	return NewConfigFromFile(DefaultFilePath)
}

// NewConfigFromFile 手动加载配置，确保可靠性：
// 内部默认值 < ini 文件 < 环境变量
func NewConfigFromFile(filePath string) (*Config, error) {
	vp := viper.New()
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}

	// --- 步骤 1: 使用 go-ini 从文件加载配置 ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			// 文件存在但格式错误
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				// 特殊处理默认分区 "DEFAULT"
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				// 空值不覆盖默认值
				if strings.TrimSpace(key.Value()) == "" {
					continue
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了配置。", filePath)
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// GetDuration 解析形如 "30m"、"1h" 的时长配置
func (c *Config) GetDuration(key string) time.Duration {
	return c.vp.GetDuration(key)
}

// Set 在运行时覆盖某个配置项（主要用于测试与命令行参数）
func (c *Config) Set(key string, value interface{}) {
	c.vp.Set(key, value)
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false

# Redis 配置（可选）
# 如果不配置或留空 Addr，系统将自动使用内存缓存
[Redis]
Addr =
Password =
DB = 10

# 标题加粗过滤
[Filter]
Enabled = true
CacheCapacity = 500
CacheTTL = 30m
# cron 表达式（含秒），定期清理过期的本地缓存
SweepSpec = 0 */5 * * * *

# 可视化编辑器检测：由该编辑器生成的文章不做处理
[Editor]
VisualEditorActive = true
LibraryPostType = elementor_library
EditModeMetaKey = _elementor_edit_mode

[RateLimit]
PerMinute = 120
Burst = 30
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
