package serverutils

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) Response {
	return Response{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// ErrorResponseWithDetails attaches per-field problems, e.g. validation
// failures or a rejected resume payload.
func ErrorResponseWithDetails(code int, message string, details interface{}) Response {
	res := ErrorResponse(code, message)
	res.Errors = details
	return res
}
