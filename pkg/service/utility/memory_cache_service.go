/*
 * @Description: 内存缓存服务实现（用于 Redis 不可用时的降级方案）
 * @Author: 安知鱼
 * @Date: 2025-10-05 00:00:00
 * @LastEditTime: 2026-10-19 11:52:06
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// cacheItem 缓存项结构
type cacheItem struct {
	value      string
	expiration time.Time
	hasExpiry  bool
}

func (item *cacheItem) isExpired() bool {
	if !item.hasExpiry {
		return false
	}
	return time.Now().After(item.expiration)
}

// memoryCacheService 是基于内存的缓存服务实现
type memoryCacheService struct {
	data     sync.Map
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCacheService 创建内存缓存服务实例，并启动每分钟一次的过期清理
func NewMemoryCacheService() CacheService {
	svc := &memoryCacheService{
		ticker: time.NewTicker(1 * time.Minute),
		done:   make(chan struct{}),
	}
	go svc.cleanupExpired()
	return svc
}

func (s *memoryCacheService) cleanupExpired() {
	for {
		select {
		case <-s.ticker.C:
			s.data.Range(func(key, value interface{}) bool {
				if item, ok := value.(*cacheItem); ok && item.isExpired() {
					s.data.Delete(key)
				}
				return true
			})
		case <-s.done:
			return
		}
	}
}

// Stop 停止清理任务，可重复调用
func (s *memoryCacheService) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	item := &cacheItem{
		value:     fmt.Sprintf("%v", value),
		hasExpiry: expiration > 0,
	}
	if expiration > 0 {
		item.expiration = time.Now().Add(expiration)
	}
	s.data.Store(key, item)
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data.Load(key)
	if !ok {
		return "", nil
	}
	item, ok := value.(*cacheItem)
	if !ok {
		return "", nil
	}
	if item.isExpired() {
		s.data.Delete(key)
		return "", nil
	}
	return item.value, nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.data.Delete(key)
	}
	return nil
}

// Increment 使用 LoadOrStore + CompareAndSwap 实现原子递增
func (s *memoryCacheService) Increment(ctx context.Context, key string) (int64, error) {
	for {
		value, loaded := s.data.LoadOrStore(key, &cacheItem{value: "1"})
		if !loaded {
			return 1, nil
		}

		item := value.(*cacheItem)
		if item.isExpired() {
			if s.data.CompareAndSwap(key, value, &cacheItem{value: "1"}) {
				return 1, nil
			}
			continue
		}

		currentVal, err := strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("键 '%s' 的值不是整数: %w", key, err)
		}
		newItem := &cacheItem{
			value:      strconv.FormatInt(currentVal+1, 10),
			expiration: item.expiration,
			hasExpiry:  item.hasExpiry,
		}
		if s.data.CompareAndSwap(key, value, newItem) {
			return currentVal + 1, nil
		}
		// CAS 失败，重试
	}
}

func (s *memoryCacheService) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	s.data.Range(func(key, value interface{}) bool {
		keyStr := key.(string)
		if !matchPattern(keyStr, pattern) {
			return true
		}
		if item, ok := value.(*cacheItem); ok && !item.isExpired() {
			keys = append(keys, keyStr)
		}
		return true
	})
	return keys, nil
}

// matchPattern 简单的模式匹配（只支持 * 通配符）
func matchPattern(s, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return s == pattern
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	idx := len(parts[0])
	last := len(parts) - 1
	for _, part := range parts[1:last] {
		if part == "" {
			continue
		}
		pos := strings.Index(s[idx:], part)
		if pos == -1 {
			return false
		}
		idx += pos + len(part)
	}
	return len(s)-idx >= len(parts[last]) && strings.HasSuffix(s, parts[last])
}
