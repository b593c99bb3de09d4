/*
 * @Description: 过滤结果缓存的维护任务
 * @Author: 安知鱼
 * @Date: 2026-10-19 15:02:44
 * @LastEditTime: 2026-10-19 15:40:10
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/filter"
)

// statsReader 读取过滤统计
type statsReader interface {
	Stats(ctx context.Context) (filter.Stats, error)
}

// FilterCacheSweepJob 删除本地 LRU 中过期的过滤结果。
// 共享缓存中的条目由 Redis 的过期时间自行回收。
type FilterCacheSweepJob struct {
	svc    cacheMaintainer
	logger *slog.Logger
}

func NewFilterCacheSweepJob(svc cacheMaintainer, logger *slog.Logger) *FilterCacheSweepJob {
	return &FilterCacheSweepJob{svc: svc, logger: logger}
}

func (j *FilterCacheSweepJob) Run() {
	removed := j.svc.PurgeExpired()
	if removed > 0 {
		j.logger.Info("清理过期的过滤结果", slog.Int("removed", removed))
	}
}

func (j *FilterCacheSweepJob) Name() string {
	return "FilterCacheSweepJob"
}

// FilterStatsReportJob 定期把累计的过滤统计写入日志
type FilterStatsReportJob struct {
	svc    statsReader
	logger *slog.Logger
}

func NewFilterStatsReportJob(svc statsReader, logger *slog.Logger) *FilterStatsReportJob {
	return &FilterStatsReportJob{svc: svc, logger: logger}
}

func (j *FilterStatsReportJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := j.svc.Stats(ctx)
	if err != nil {
		j.logger.Error("读取过滤统计失败", slog.Any("error", err))
		return
	}
	j.logger.Info("过滤统计",
		slog.Int64("processed", stats.Processed),
		slog.Int64("skipped", stats.Skipped),
		slog.Int64("changed", stats.Changed),
	)
}

func (j *FilterStatsReportJob) Name() string {
	return "FilterStatsReportJob"
}
