package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/domain"
	resp "portfolio-site/internal/transport/http/response"
)

var guardDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "site_guard_denied_total",
	Help: "Requests stopped by the authorization guard",
}, []string{"outcome"})

func init() { prometheus.MustRegister(guardDenied) }

// Guard 需挂在 Session 之后；拒绝时终止请求，handler 不会执行
func Guard(g *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery, SessionOf(c))
		if render(c, d) {
			c.Next()
		}
	}
}

// RequireRole 路由级校验，用于 Guard 不覆盖的 GET 接口（如 /api/admin/*）
func RequireRole(g *auth.Guard, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if render(c, g.Require(SessionOf(c), role)) {
			c.Next()
		}
	}
}

func render(c *gin.Context, d auth.Decision) bool {
	switch d.Outcome {
	case auth.RedirectSignIn, auth.RedirectDenied:
		guardDenied.WithLabelValues("redirect").Inc()
		c.Redirect(http.StatusFound, d.Location)
		c.Abort()
	case auth.Unauthorized:
		guardDenied.WithLabelValues("unauthorized").Inc()
		resp.Abort(c, http.StatusUnauthorized, d.Message)
	case auth.Forbidden:
		guardDenied.WithLabelValues("forbidden").Inc()
		resp.Abort(c, http.StatusForbidden, d.Message)
	default:
		return true
	}
	return false
}
