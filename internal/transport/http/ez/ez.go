// Package ez 把 handler 写成 "入参 → 出参/错误" 的纯函数，统一绑定、鉴权与错误映射。
package ez

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-site/internal/core/auth"
)

type EZ struct {
	g     *gin.RouterGroup
	log   *zap.Logger
	guard *auth.Guard
}

func New(g *gin.RouterGroup, l *zap.Logger, guard *auth.Guard) EZ {
	return EZ{g: g, log: l, guard: guard}
}

// Group 派生子分组，沿用 logger 与 guard
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log, guard: e.guard}
}

func (e EZ) Router() *gin.RouterGroup { return e.g }

// POSTFILES 处理 multipart/form-data 多文件上传
func POSTFILES[O any](e EZ, path, op, fieldName string, h func(c *gin.Context, files []*multipart.FileHeader) (O, error)) {
	e.g.POST(path, func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			WriteError(c, e.log, op, BadRequest("invalid multipart form"))
			return
		}
		files := form.File[fieldName]
		if len(files) == 0 {
			WriteError(c, e.log, op, BadRequest("no files uploaded"))
			return
		}
		out, err := h(c, files)
		if err != nil {
			WriteError(c, e.log, op, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	})
}

func writeOK(c *gin.Context, status int, out any) {
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, out)
}
