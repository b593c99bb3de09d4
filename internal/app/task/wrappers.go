/*
 * @Description: cron 任务的装饰器：结构化日志与 panic 恢复
 * @Author: 安知鱼
 * @Date: 2025-06-29 22:36:09
 * @LastEditTime: 2026-10-19 15:12:31
 * @LastEditors: 安知鱼
 */
package task

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// NewLoggingWrapper 记录每次执行的开始与结束，每次执行带一个唯一的 execution_id。
func NewLoggingWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			runLogger := logger.With(
				slog.String("job_name", getJobName(j)),
				slog.String("execution_id", uuid.NewString()),
			)

			start := time.Now()
			runLogger.Info("Job execution started")
			j.Run()
			runLogger.Info("Job execution finished", slog.Duration("duration", time.Since(start)))
		})
	}
}

// NewPanicRecoveryWrapper 捕获任务中的 panic 并连同堆栈写入日志，进程继续运行。
func NewPanicRecoveryWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job panicked",
						slog.String("job_name", getJobName(j)),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)
				}
			}()
			j.Run()
		})
	}
}

// getJobName 优先使用任务的 Name()，否则退回到类型名
func getJobName(j cron.Job) string {
	if named, ok := j.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(j)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
