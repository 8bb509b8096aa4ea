package serverutils

// BaseResponse is the envelope every JSON endpoint answers with.
type BaseResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Code:  code,
		Error: message,
	}
}

// ErrorResponseKind carries the failure kind code alongside the message so
// capture clients can tell a bad upload from a provider outage.
func ErrorResponseKind(code int, kind, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Code:    code,
		Message: kind,
		Error:   message,
	}
}
