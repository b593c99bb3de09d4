// internal/app/task/broker.go
package task

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/robfig/cron/v3"
)

// cacheMaintainer 是任务需要的过滤服务能力
type cacheMaintainer interface {
	PurgeExpired() int
}

// Broker 是后台任务模块的协调者：周期任务交给 cron，一次性任务交给 worker 池。
type Broker struct {
	cron      *cron.Cron
	logger    *slog.Logger
	jobQueue  chan Job
	wg        sync.WaitGroup
	stopOnce  sync.Once
	filterSvc cacheMaintainer
	statsSvc  statsReader
	sweepSpec string
}

// NewBroker 是 Broker 的构造函数。sweepSpec 为含秒的 cron 表达式。
func NewBroker(filterSvc cacheMaintainer, statsSvc statsReader, sweepSpec string) *Broker {
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "task_broker")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	broker := &Broker{
		cron:      c,
		logger:    logger,
		jobQueue:  make(chan Job, 100),
		filterSvc: filterSvc,
		statsSvc:  statsSvc,
		sweepSpec: sweepSpec,
	}
	broker.startWorkerPool()
	return broker
}

// startWorkerPool 启动固定数量的 worker goroutine 来处理派发的任务。
func (b *Broker) startWorkerPool() {
	workerCount := runtime.NumCPU()
	if workerCount > 4 {
		workerCount = 4
	}
	b.logger.Info("Starting task worker pool", "concurrency", workerCount)

	chain := cron.NewChain(NewPanicRecoveryWrapper(b.logger), NewLoggingWrapper(b.logger))
	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for job := range b.jobQueue {
				chain.Then(job).Run()
			}
			b.logger.Info("Worker stopped", "worker_id", workerID)
		}()
	}
}

// RegisterCronJobs 注册所有周期性任务。
func (b *Broker) RegisterCronJobs() error {
	b.logger.Info("Registering all periodic jobs...")

	sweepJob := NewFilterCacheSweepJob(b.filterSvc, b.logger)
	if _, err := b.cron.AddJob(b.sweepSpec, sweepJob); err != nil {
		return fmt.Errorf("注册 '%s' 失败: %w", sweepJob.Name(), err)
	}
	b.logger.Info("-> Successfully registered 'FilterCacheSweepJob'", "schedule", b.sweepSpec)

	if b.statsSvc != nil {
		reportJob := NewFilterStatsReportJob(b.statsSvc, b.logger)
		if _, err := b.cron.AddJob("0 0 * * * *", reportJob); err != nil { // 每小时整点
			return fmt.Errorf("注册 '%s' 失败: %w", reportJob.Name(), err)
		}
		b.logger.Info("-> Successfully registered 'FilterStatsReportJob'", "schedule", "every hour")
	}

	b.logger.Info("All periodic jobs registered.")
	return nil
}

// Dispatch 将任务发送到队列中，Stop 之后的派发会被丢弃。
func (b *Broker) Dispatch(job Job) {
	defer func() {
		if recover() != nil {
			b.logger.Warn("Task broker stopped, job dropped", "job_name", job.Name())
		}
	}()
	b.jobQueue <- job
}

// DispatchCacheSweep 立即在后台执行一次缓存清理。
func (b *Broker) DispatchCacheSweep() {
	b.Dispatch(NewFilterCacheSweepJob(b.filterSvc, b.logger))
	b.logger.Info("Successfully queued filter cache sweep job")
}

// Start 启动 cron 调度器。
func (b *Broker) Start() {
	b.logger.Info("Task broker started.")
	b.cron.Start()
}

// Stop 优雅地停止 cron 调度器和所有 worker。
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		b.logger.Info("Stopping task broker...")
		ctx := b.cron.Stop()
		<-ctx.Done()
		close(b.jobQueue)
		b.wg.Wait()
		b.logger.Info("Task broker gracefully stopped.")
	})
}
