// pkg/service/filter/service.go
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/parser"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/config"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/utility"
)

// 共享缓存与统计计数使用的键
const (
	sharedCachePrefix = "filter:heading:"

	StatsKeyProcessed = "filter:stats:processed"
	StatsKeySkipped   = "filter:stats:skipped"
	StatsKeyChanged   = "filter:stats:changed"
)

// 缓存配置默认值
const (
	defaultCacheCapacity = 500
	defaultCacheTTL      = 30 * time.Minute
)

// Options 过滤服务的可调参数
type Options struct {
	Enabled       bool
	CacheCapacity int
	CacheTTL      time.Duration
}

// OptionsFromConfig 从配置中读取过滤服务参数，非法值回退到默认值
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Enabled:       cfg.GetBool(config.KeyFilterEnabled),
		CacheCapacity: cfg.GetInt(config.KeyFilterCacheCapacity),
		CacheTTL:      cfg.GetDuration(config.KeyFilterCacheTTL),
	}
	if opts.CacheCapacity < 0 {
		opts.CacheCapacity = defaultCacheCapacity
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return opts
}

// Result 是一次过滤的结果
type Result struct {
	Content    string     `json:"content"`
	Processed  bool       `json:"processed"`
	Changed    bool       `json:"changed"`
	SkipReason SkipReason `json:"skip_reason,omitempty"`
}

// FilterEvent 是 FilterProcessed / FilterSkipped 事件的负载
type FilterEvent struct {
	DocumentID   uint64
	DocumentType string
	Changed      bool
	Reason       SkipReason
}

// HeadingSummary 描述片段中的一个标题
type HeadingSummary struct {
	Level       int    `json:"level"`
	Attributes  string `json:"attributes"`
	Text        string `json:"text"`
	HasEmphasis bool   `json:"has_emphasis"`
}

// Stats 过滤统计
type Stats struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Changed   int64 `json:"changed"`
}

// Service 是渲染管线中的 "the_content" 过滤器：
// 先询问 Gate 是否处理该文档，再移除标题中的加粗标签。
type Service struct {
	gate       Gate
	cacheSvc   utility.CacheService
	bus        *event.EventBus
	localCache *LRUCache
	enabled    bool
	ttl        time.Duration
	logger     *slog.Logger
}

// NewService 创建过滤服务。cacheSvc 与 bus 可以为 nil。
func NewService(gate Gate, cacheSvc utility.CacheService, bus *event.EventBus, opts Options) *Service {
	if gate == nil {
		gate = AlwaysProcess
	}
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Service{
		gate:       gate,
		cacheSvc:   cacheSvc,
		bus:        bus,
		localCache: NewLRUCache(opts.CacheCapacity, opts.CacheTTL),
		enabled:    opts.Enabled,
		ttl:        opts.CacheTTL,
		logger:     slog.New(slogHandler).With("system", "content_filter"),
	}
}

// Apply 对一篇文档的渲染结果执行过滤。
// 过滤被禁用或 Gate 拒绝时原样返回内容。
func (s *Service) Apply(ctx context.Context, doc Document, content string) Result {
	reason := SkipDisabled
	if s.enabled {
		reason = skipReasonOf(s.gate, doc)
	}
	if reason != SkipNone {
		s.publish(event.FilterSkipped, FilterEvent{DocumentID: doc.ID, DocumentType: doc.Type, Reason: reason})
		return Result{Content: content, SkipReason: reason}
	}

	out := s.strip(ctx, content)
	changed := out != content
	s.publish(event.FilterProcessed, FilterEvent{DocumentID: doc.ID, DocumentType: doc.Type, Changed: changed})
	return Result{Content: out, Processed: true, Changed: changed}
}

// RenderMarkdown 先将 Markdown 渲染为安全的 HTML，再执行过滤
func (s *Service) RenderMarkdown(ctx context.Context, doc Document, markdown string) (Result, error) {
	rendered, err := parser.MarkdownToHTML(markdown)
	if err != nil {
		return Result{}, fmt.Errorf("渲染 Markdown 失败: %w", err)
	}
	return s.Apply(ctx, doc, rendered), nil
}

// Headings 列出片段中所有会被处理的标题
func (s *Service) Headings(content string) []HeadingSummary {
	matches := parser.FindHeadings(content)
	summaries := make([]HeadingSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, HeadingSummary{
			Level:       m.Level,
			Attributes:  m.Attributes,
			Text:        m.Text(),
			HasEmphasis: parser.HasEmphasis(m.Inner),
		})
	}
	return summaries
}

// strip 执行转换，结果先查本地 LRU，再查共享缓存。
// 缓存出错只记录日志，转换结果总是可以重新计算。
func (s *Service) strip(ctx context.Context, content string) string {
	if strings.TrimSpace(content) == "" {
		return content
	}

	key := computeCacheKey(content)
	if cached, hit := s.localCache.Get(key); hit {
		return cached
	}

	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.Get(ctx, sharedCachePrefix+key)
		if err != nil {
			s.logger.Warn("读取共享缓存失败", slog.Any("error", err))
		} else if cached != "" {
			s.localCache.Set(key, cached)
			return cached
		}
	}

	out := parser.StripHeadingEmphasis(content)

	s.localCache.Set(key, out)
	if s.cacheSvc != nil {
		if err := s.cacheSvc.Set(ctx, sharedCachePrefix+key, out, s.ttl); err != nil {
			s.logger.Warn("写入共享缓存失败", slog.Any("error", err))
		}
	}
	return out
}

func (s *Service) publish(topic event.Topic, evt FilterEvent) {
	if s.bus != nil {
		s.bus.Publish(topic, evt)
	}
}

// ClearCache 清空本地与共享的过滤结果缓存
func (s *Service) ClearCache(ctx context.Context) error {
	s.localCache.Clear()
	if s.cacheSvc == nil {
		return nil
	}
	keys, err := s.cacheSvc.Scan(ctx, sharedCachePrefix+"*")
	if err != nil {
		return fmt.Errorf("扫描共享缓存失败: %w", err)
	}
	if err := s.cacheSvc.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("删除共享缓存失败: %w", err)
	}
	s.logger.Info("已清空过滤结果缓存", slog.Int("shared_keys", len(keys)))
	return nil
}

// PurgeExpired 删除本地缓存中的过期条目
func (s *Service) PurgeExpired() int {
	return s.localCache.Purge()
}

// Stats 读取由 FilterStatsListener 累计的计数
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s.cacheSvc == nil {
		return stats, nil
	}
	for key, dst := range map[string]*int64{
		StatsKeyProcessed: &stats.Processed,
		StatsKeySkipped:   &stats.Skipped,
		StatsKeyChanged:   &stats.Changed,
	} {
		val, err := s.cacheSvc.Get(ctx, key)
		if err != nil {
			return Stats{}, fmt.Errorf("读取统计 '%s' 失败: %w", key, err)
		}
		if val == "" {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return Stats{}, fmt.Errorf("统计 '%s' 的值 '%s' 不是整数: %w", key, val, err)
		}
		*dst = n
	}
	return stats, nil
}
