package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全 HTTP 头中间件
// 服务只返回 JSON 与文件下载，CSP 禁止一切内容加载
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
