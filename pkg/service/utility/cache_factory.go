/*
 * @Description: 过滤结果共享缓存的后端选择，Redis 不可用时降级为内存缓存
 * @Author: 安知鱼
 * @Date: 2025-10-05 00:00:00
 * @LastEditTime: 2026-10-19 21:20:37
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPingTimeout 启动时 ping Redis 的最长等待时间
const redisPingTimeout = 2 * time.Second

// CacheServiceType 缓存服务类型
type CacheServiceType string

const (
	CacheTypeRedis   CacheServiceType = "redis"
	CacheTypeMemory  CacheServiceType = "memory"
	CacheTypeUnknown CacheServiceType = "unknown"
)

// NewCacheServiceWithFallback 为过滤结果选择共享缓存后端。
// redisClient 为 nil，或在 redisPingTimeout 内 ping 不通时，使用进程内缓存。
func NewCacheServiceWithFallback(ctx context.Context, redisClient *redis.Client) CacheService {
	if redisClient == nil {
		log.Println("🔄 未配置 Redis，过滤结果缓存使用内存实现")
		return NewMemoryCacheService()
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	addr := redisClient.Options().Addr
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("⚠️  Redis(%s) 不可用: %v，过滤结果缓存降级到内存实现", addr, err)
		return NewMemoryCacheService()
	}

	log.Printf("✅ 过滤结果缓存使用 Redis(%s)", addr)
	return NewCacheService(redisClient)
}

// GetCacheServiceType 获取缓存实现的类型，非本包实现返回 CacheTypeUnknown
func GetCacheServiceType(svc CacheService) CacheServiceType {
	switch svc.(type) {
	case *redisCacheService:
		return CacheTypeRedis
	case *memoryCacheService:
		return CacheTypeMemory
	default:
		return CacheTypeUnknown
	}
}

// StopCacheService 释放缓存实现持有的后台资源。
// 内存实现需要停止清理协程；Redis 连接由调用方关闭。
func StopCacheService(svc CacheService) {
	if stopper, ok := svc.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}
