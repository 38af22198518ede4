package types

import "fmt"

// Error type vocabulary of the Messages API error envelope.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypePermission     = "permission_error"
	ErrorTypeNotFound       = "not_found_error"
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeAPIError       = "api_error"
	ErrorTypeOverloaded     = "overloaded_error"
)

// Error is the inner error object of the Messages API error envelope.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse is the envelope returned for failed requests:
//
//	{"type": "error", "error": {"type": "...", "message": "..."}}
type ErrorResponse struct {
	Type string `json:"type"`
	Err  Error  `json:"error"`
}

func NewErrorResponse(errorType, message string) *ErrorResponse {
	return &ErrorResponse{Type: "error", Err: Error{Type: errorType, Message: message}}
}

func (e *ErrorResponse) Error() string {
	return e.Err.Error()
}
