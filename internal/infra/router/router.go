/*
 * @Description: 路由注册
 * @Author: 安知鱼
 * @Date: 2025-06-15 11:30:55
 * @LastEditTime: 2026-10-19 16:40:12
 * @LastEditors: 安知鱼
 */
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-content-filter/internal/app/middleware"
	filter_handler "github.com/anzhiyu-c/anheyu-content-filter/pkg/handler/filter"
	version_handler "github.com/anzhiyu-c/anheyu-content-filter/pkg/handler/version"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/response"
)

// NoCacheMiddleware 全局反缓存中间件，过滤结果不应被 CDN 缓存
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	filterHandler  *filter_handler.Handler
	versionHandler *version_handler.Handler
	rateLimit      gin.HandlerFunc
}

// NewRouter 是 Router 的构造函数。rateLimit 作用于会执行过滤的接口。
func NewRouter(
	filterHandler *filter_handler.Handler,
	versionHandler *version_handler.Handler,
	rateLimit gin.HandlerFunc,
) *Router {
	return &Router{
		filterHandler:  filterHandler,
		versionHandler: versionHandler,
		rateLimit:      rateLimit,
	}
}

// Setup 将所有路由注册到 Gin 引擎。
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID(), middleware.Cors())
	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "接口不存在")
	})

	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	r.registerFilterRoutes(apiGroup)
	r.registerVersionRoutes(apiGroup)
}

func (r *Router) registerFilterRoutes(api *gin.RouterGroup) {
	filterGroup := api.Group("/filter")
	{
		filterGroup.POST("/apply", r.rateLimit, r.filterHandler.Apply)
		filterGroup.POST("/headings", r.rateLimit, r.filterHandler.Headings)
		filterGroup.GET("/stats", r.filterHandler.Stats)
		filterGroup.DELETE("/cache", r.filterHandler.ClearCache)
		filterGroup.POST("/cache/sweep", r.rateLimit, r.filterHandler.SweepCache)
	}
}

func (r *Router) registerVersionRoutes(api *gin.RouterGroup) {
	api.GET("/public/version", r.versionHandler.GetVersion)
}
