package response

// Response 统一响应结构
type Response struct {
	Code int    `json:"code" example:"0"`                    // 业务状态码
	Msg  string `json:"msg" example:"success"`               // 提示消息
	Data any    `json:"data,omitempty" swaggertype:"object"` // 响应数据
}

// 业务状态码定义
// 使用说明：
// - 中间件层：使用 HTTP 状态码（401/403/500）
// - 参数错误：HTTP 400
// - 业务层：HTTP 200 + 业务状态码
const (
	CodeSuccess         = 0     // 成功
	CodeParamError      = 10001 // 参数错误
	CodeNotFound        = 10002 // 记录不存在
	CodeTokenInvalid    = 10004 // Token 无效/过期
	CodePermissionDeny  = 10005 // 权限不足
	CodeNoRecipients    = 20001 // 没有圈到任何收件人
	CodeDispatchPartial = 20002 // 部分通道投递失败（data 里有完整结果）
	CodeInternalError   = 99999 // 内部错误
)

// Success 成功响应
func Success(data any, args ...string) *Response {
	msg := "success"
	for _, arg := range args {
		msg = arg
	}
	return &Response{
		Code: CodeSuccess,
		Msg:  msg,
		Data: data,
	}
}

// Error 错误响应
func Error(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

// ErrorWithData 失败但仍需要带回数据（例如部分投递失败的派发结果）
func ErrorWithData(code int, msg string, data any) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
		Data: data,
	}
}
