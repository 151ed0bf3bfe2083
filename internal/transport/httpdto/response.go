package httpdto

import chitchat_errors "chitchat/pkg/errors"

// Response is the JSON envelope every endpoint returns.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// FromError builds the error envelope and status for a domain error. Server
// errors are reported without their detail.
func FromError(err error) (int, Response[any]) {
	status := chitchat_errors.StatusFromError(err)
	message := err.Error()
	if status >= 500 {
		message = "internal server error"
	}
	return status, NewErrorResponse(message, chitchat_errors.CodeFromError(err))
}
