/*
 * @Description: 按客户端 IP 的频率限制中间件
 * @Author: 安知鱼
 * @Date: 2025-11-08 00:00:00
 * @LastEditTime: 2026-10-19 15:36:50
 * @LastEditors: 安知鱼
 */
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anzhiyu-c/anheyu-content-filter/pkg/response"
)

// 超过该时长未访问的限流器会被回收
const limiterIdleTimeout = 10 * time.Minute

// ipRateLimiter 为每个 IP 维护一个令牌桶
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterInfo
	every    rate.Limit
	burst    int
	now      func() time.Time
}

type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

func newIPRateLimiter(requestsPerMinute, burst int) *ipRateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: make(map[string]*limiterInfo),
		every:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
		now:      time.Now,
	}
}

// allow 取得该 IP 的限流器并消耗一个令牌，顺带回收闲置的限流器
func (i *ipRateLimiter) allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	info, ok := i.limiters[ip]
	if !ok {
		i.evictIdle(now)
		info = &limiterInfo{limiter: rate.NewLimiter(i.every, i.burst)}
		i.limiters[ip] = info
	}
	info.lastAccessed = now
	return info.limiter.AllowN(now, 1)
}

func (i *ipRateLimiter) evictIdle(now time.Time) {
	for ip, info := range i.limiters {
		if now.Sub(info.lastAccessed) > limiterIdleTimeout {
			delete(i.limiters, ip)
		}
	}
}

// getClientIP 获取客户端真实IP地址
func getClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	// X-Forwarded-For 格式为 client, proxy1, proxy2
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return ip
	}
	return c.Request.RemoteAddr
}

// CustomRateLimit 创建一个频率限制中间件
// requestsPerMinute: 每分钟允许的请求数
// burst: 突发请求数
func CustomRateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	return newIPRateLimiter(requestsPerMinute, burst).handler()
}

func (i *ipRateLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.allow(getClientIP(c)) {
			response.Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
