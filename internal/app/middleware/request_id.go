package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anzhiyu-c/anheyu-content-filter/pkg/response"
)

// RequestIDHeader 请求与响应中携带请求 ID 的头部
const RequestIDHeader = "X-Request-ID"

// RequestID 沿用调用方传入的合法 UUID，否则生成一个新的，
// 写入响应头和 gin.Context，统一响应结构会带上它。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
