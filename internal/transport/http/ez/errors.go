package ez

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio-site/internal/domain"
	resp "portfolio-site/internal/transport/http/response"
)

// AErr 动作错误：Code 为 HTTP 状态码，Msg 对外可见，Err 只进日志
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: http.StatusConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

func init() {
	// 校验明细里用 json/form 名而不是 Go 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// WriteError 统一错误映射；5xx 与未知错误带 op 记日志，响应体只给通用文案
func WriteError(c *gin.Context, l *zap.Logger, op string, err error) {
	var (
		ae  *AErr
		ve  *domain.ValidationError
		vs  validator.ValidationErrors
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ae):
		if ae.Code >= http.StatusInternalServerError {
			l.Error("action failed", zap.String("op", op), zap.String("msg", ae.Msg), zap.Error(ae.Err))
		}
		c.JSON(ae.Code, resp.Error(ae.Code, ae.Msg))
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, resp.Invalid("Validation failed", fromDomain(ve)))
	case errors.As(err, &vs):
		c.JSON(http.StatusBadRequest, resp.Invalid("Validation failed", fromValidator(vs)))
	case errors.As(err, &mbe):
		c.JSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, ""))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, resp.Error(http.StatusNotFound, "Not found"))
	case errors.Is(err, domain.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, resp.Error(http.StatusConflict, "Already exists"))
	default:
		l.Error("action failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp.Error(http.StatusInternalServerError, ""))
	}
}

// bindError 绑定阶段的错误：校验失败给明细，其它（JSON 语法、类型不符）给通用 400
func bindError(err error) error {
	var vs validator.ValidationErrors
	var mbe *http.MaxBytesError
	if errors.As(err, &vs) || errors.As(err, &mbe) {
		return err
	}
	return BadRequest("Invalid request")
}

func fromDomain(ve *domain.ValidationError) []resp.FieldDetail {
	out := make([]resp.FieldDetail, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, resp.FieldDetail{Field: f.Field, Message: f.Message})
	}
	return out
}

func fromValidator(vs validator.ValidationErrors) []resp.FieldDetail {
	out := make([]resp.FieldDetail, 0, len(vs))
	for _, fe := range vs {
		out = append(out, resp.FieldDetail{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
