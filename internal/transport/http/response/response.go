package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FieldDetail 单个字段的校验失败原因
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody 所有失败响应的统一结构
type ErrorBody struct {
	Error   string        `json:"error"`
	Details []FieldDetail `json:"details,omitempty"`
}

// Error 构造失败响应体（msg 为空时取默认文案；5xx 强制通用文案）
func Error(status int, msg string) ErrorBody {
	if msg == "" || status >= http.StatusInternalServerError {
		msg = CodeMsgMap[status]
		if msg == "" {
			msg = http.StatusText(status)
		}
	}
	return ErrorBody{Error: msg}
}

// Invalid 400 + 字段明细
func Invalid(msg string, details []FieldDetail) ErrorBody {
	b := Error(http.StatusBadRequest, msg)
	b.Details = details
	return b
}

// OK 成功响应直接输出数据本身
func OK(c *gin.Context, data any) { c.JSON(http.StatusOK, data) }

func Created(c *gin.Context, data any) { c.JSON(http.StatusCreated, data) }

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Error(status, msg))
}

// Abort 中间件使用：中断后续 handler
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
