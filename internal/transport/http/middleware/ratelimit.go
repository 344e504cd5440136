package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	resp "portfolio-site/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速（单实例）
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "")
	}
}

// RedisRateLimit 按 IP + 路由的固定窗口计数，多实例共享；rdb 为 nil 时不限流
func RedisRateLimit(rdb *redis.Client, l *zap.Logger, max int, window time.Duration) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()

		// 每次命中刷新过期：持续请求时窗口不会重置
		pipe := rdb.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis 不可用时放行，只记录
			l.Warn("rate limit redis failed", zap.Error(err))
			c.Next()
			return
		}
		n := incr.Val()
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		if n > int64(max) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			resp.Abort(c, http.StatusTooManyRequests, "Too many attempts, please try again later")
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(max)-n, 10))
		c.Next()
	}
}
