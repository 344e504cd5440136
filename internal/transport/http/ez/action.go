package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/domain"
	mdw "portfolio-site/internal/transport/http/middleware"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string      // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string      // 例："/search"、"/users/:id/role"
	Op      string      // 日志里的操作名
	Binder  Binder      // 绑定方式
	Role    domain.Role // 非空时先经 Guard.Require 校验
	Status  int         // 成功状态码，默认 200
	Before  []gin.HandlerFunc
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	if a.Op == "" {
		a.Op = strings.ToLower(a.Method) + " " + a.Path
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			WriteError(c, e.log, a.Op, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			WriteError(c, e.log, a.Op, err)
			return
		}
		writeOK(c, a.Status, out)
	}

	var chain []gin.HandlerFunc
	if a.Role != "" {
		chain = append(chain, mdw.RequireRole(e.guard, a.Role))
	}
	chain = append(chain, a.Before...)
	chain = append(chain, h)

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, chain...)
	case http.MethodPut:
		e.g.PUT(a.Path, chain...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, chain...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, chain...)
	default: // 默认 POST
		e.g.POST(a.Path, chain...)
	}
}
