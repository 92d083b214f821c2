package models

// Response 统一响应信封
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(data interface{}, message string) Response {
	if message == "" {
		message = "Success"
	}
	return Response{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorResponse 错误响应
func ErrorResponse(message string, code int) Response {
	return Response{
		Status:  "error",
		Message: message,
		Code:    code,
	}
}
