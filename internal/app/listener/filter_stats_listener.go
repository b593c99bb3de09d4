/*
 * @Description: 监听过滤事件，把处理结果累计到缓存中的统计计数
 * @Author: 安知鱼
 * @Date: 2026-10-19 13:20:45
 * @LastEditTime: 2026-10-19 13:58:12
 * @LastEditors: 安知鱼
 */
package listener

import (
	"context"
	"log"
	"time"

	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/filter"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/utility"
)

// FilterStatsListener 订阅 FilterProcessed / FilterSkipped 事件并累计计数
type FilterStatsListener struct {
	cacheSvc utility.CacheService
	timeout  time.Duration
}

// NewFilterStatsListener 是 FilterStatsListener 的构造函数，创建时即完成订阅
func NewFilterStatsListener(eventBus *event.EventBus, cacheSvc utility.CacheService) *FilterStatsListener {
	l := &FilterStatsListener{
		cacheSvc: cacheSvc,
		timeout:  3 * time.Second,
	}
	eventBus.Subscribe(event.FilterProcessed, l.handleProcessed)
	eventBus.Subscribe(event.FilterSkipped, l.handleSkipped)
	return l
}

func (l *FilterStatsListener) handleProcessed(payload interface{}) {
	evt, ok := payload.(filter.FilterEvent)
	if !ok {
		log.Printf("[FilterStatsListener] 错误：收到的 FilterProcessed 事件负载类型不正确")
		return
	}
	l.increment(filter.StatsKeyProcessed)
	if evt.Changed {
		l.increment(filter.StatsKeyChanged)
	}
}

func (l *FilterStatsListener) handleSkipped(payload interface{}) {
	evt, ok := payload.(filter.FilterEvent)
	if !ok {
		log.Printf("[FilterStatsListener] 错误：收到的 FilterSkipped 事件负载类型不正确")
		return
	}
	l.increment(filter.StatsKeySkipped)
	if evt.Reason == filter.SkipVisualEditor {
		log.Printf("[FilterStatsListener] 文档 %d 由可视化编辑器构建，已跳过", evt.DocumentID)
	}
}

func (l *FilterStatsListener) increment(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if _, err := l.cacheSvc.Increment(ctx, key); err != nil {
		log.Printf("[FilterStatsListener] 错误: 累计统计 '%s' 失败: %v", key, err)
	}
}
