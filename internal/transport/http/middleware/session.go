package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/core/auth"
)

const KeySession = "session"

// Session 依次从 cookie、Authorization: Bearer 解析会话；失败不拦截，交给 Guard 判定
func Session(j *auth.JWTer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, _ := c.Cookie(cookieName)
		if tok == "" {
			if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
				tok = strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
			}
		}
		if s := j.SessionFromToken(tok); s != nil {
			c.Set(KeySession, s)
		}
		c.Next()
	}
}

// SessionOf 未登录返回 nil
func SessionOf(c *gin.Context) *auth.Session {
	if v, ok := c.Get(KeySession); ok {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return nil
}
