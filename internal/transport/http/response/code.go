package response

import "net/http"

// 对外错误文案集中管理；500 永远只返回通用文案
const (
	MsgBadRequest   = "Bad Request"
	MsgUnauthorized = "Unauthorized"
	MsgForbidden    = "Forbidden: admin access required"
	MsgNotFound     = "Not Found"
	MsgConflict     = "Conflict"
	MsgTooMany      = "Too Many Requests"
	MsgServerError  = "Internal Server Error"
	MsgTimeout      = "Gateway Timeout"
	MsgBusy         = "Server Busy"
)

// CodeMsgMap status → 默认文案
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            MsgBadRequest,
	http.StatusUnauthorized:          MsgUnauthorized,
	http.StatusForbidden:             MsgForbidden,
	http.StatusNotFound:              MsgNotFound,
	http.StatusConflict:              MsgConflict,
	http.StatusRequestEntityTooLarge: "Request body too large",
	http.StatusTooManyRequests:       MsgTooMany,
	http.StatusInternalServerError:   MsgServerError,
	http.StatusServiceUnavailable:    MsgBusy,
	http.StatusGatewayTimeout:        MsgTimeout,
}
