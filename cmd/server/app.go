/*
 * @Description: 应用装配：配置、缓存、过滤服务、事件、后台任务与 HTTP 路由
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 17:22:05
 * @LastEditors: 安知鱼
 */
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-content-filter/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/app/middleware"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/app/task"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/infra/router"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/config"
	filter_handler "github.com/anzhiyu-c/anheyu-content-filter/pkg/handler/filter"
	version_handler "github.com/anzhiyu-c/anheyu-content-filter/pkg/handler/version"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/filter"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/service/utility"
)

// shutdownTimeout 等待进行中请求结束的最长时间
const shutdownTimeout = 10 * time.Second

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg        *config.Config
	engine     *gin.Engine
	server     *http.Server
	taskBroker *task.Broker
	filterSvc  *filter.Service
	cacheSvc   utility.CacheService
	eventBus   *event.EventBus
	stopOnce   sync.Once
}

func (a *App) PrintBanner() {
	log.Println("--------------------------------------------------------")
	log.Printf(" Anheyu Content Filter: %s", version.GetBuildInfo())
	log.Println("--------------------------------------------------------")
}

// NewApp 从默认配置文件构建应用
func NewApp() (*App, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig 是应用的构造函数，它执行所有的初始化和依赖注入工作。
// 返回的 cleanup 负责关闭外部连接，应在 Stop 之后调用。
func NewAppWithConfig(cfg *config.Config) (*App, func(), error) {
	// --- Phase 1: 基础设施 ---
	// Redis 不可用时自动降级到内存缓存
	redisClient := database.NewRedisClient(context.Background(), cfg)
	cacheSvc := utility.NewCacheServiceWithFallback(context.Background(), redisClient)
	log.Printf("过滤结果缓存后端: %s", utility.GetCacheServiceType(cacheSvc))
	eventBus := event.NewEventBus()

	// --- Phase 2: 业务服务 ---
	filterSvc := filter.NewService(filter.NewEditorGate(cfg), cacheSvc, eventBus, filter.OptionsFromConfig(cfg))
	listener.NewFilterStatsListener(eventBus, cacheSvc)

	taskBroker := task.NewBroker(filterSvc, filterSvc, cfg.GetString(config.KeyFilterSweepSpec))
	if err := taskBroker.RegisterCronJobs(); err != nil {
		taskBroker.Stop()
		eventBus.Shutdown()
		utility.StopCacheService(cacheSvc)
		closeRedis(redisClient)
		return nil, nil, fmt.Errorf("注册后台任务失败: %w", err)
	}

	// --- Phase 3: HTTP ---
	if !cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	appRouter := router.NewRouter(
		filter_handler.NewHandler(filterSvc, taskBroker),
		version_handler.NewHandler(),
		middleware.CustomRateLimit(cfg.GetInt(config.KeyRateLimitPerMinute), cfg.GetInt(config.KeyRateLimitBurst)),
	)
	appRouter.Setup(engine)

	port := cfg.GetString(config.KeyServerPort)
	if port == "" {
		port = "8091"
	}

	app := &App{
		cfg:    cfg,
		engine: engine,
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		taskBroker: taskBroker,
		filterSvc:  filterSvc,
		cacheSvc:   cacheSvc,
		eventBus:   eventBus,
	}

	cleanup := func() {
		utility.StopCacheService(cacheSvc)
		closeRedis(redisClient)
	}
	return app, cleanup, nil
}

func closeRedis(client *redis.Client) {
	if client == nil {
		return
	}
	log.Println("关闭 Redis 连接...")
	if err := client.Close(); err != nil {
		log.Printf("关闭 Redis 连接失败: %v", err)
	}
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

// FilterService 返回过滤服务，供嵌入到其它渲染管线中使用
func (a *App) FilterService() *filter.Service {
	return a.filterSvc
}

func (a *App) CacheService() utility.CacheService {
	return a.cacheSvc
}

func (a *App) EventBus() *event.EventBus {
	return a.eventBus
}

// Run 启动后台任务并开始监听，直到 Shutdown 被调用或监听失败
func (a *App) Run() error {
	a.taskBroker.Start()
	log.Printf("应用程序启动成功，正在监听: %s", a.server.Addr)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP 服务异常退出: %w", err)
	}
	return nil
}

// Shutdown 停止接收新请求并等待进行中的请求结束
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Stop 停止后台任务与事件总线，可重复调用
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			log.Printf("HTTP 服务关闭失败: %v", err)
		}
		if a.taskBroker != nil {
			a.taskBroker.Stop()
			log.Println("任务调度器已停止。")
		}
		if a.eventBus != nil {
			a.eventBus.Shutdown()
		}
	})
}
