package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmadms/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数（如 1<<20 = 1MB）
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		// 处理器未写响应时补写 413
		if c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			var maxErr *http.MaxBytesError
			if errors.As(err.Err, &maxErr) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				return
			}
		}
	}
}
