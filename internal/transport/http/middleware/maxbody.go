package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes 限制请求体大小；multipart 上传单独给一个上限。超限时 bind 失败，返回 413
func MaxBodyBytes(n, multipart int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := n
			if multipart > 0 && strings.HasPrefix(c.ContentType(), "multipart/") {
				limit = multipart
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
