package openaichat

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType classifies upstream failures by their originating status code.
type ErrorType string

const (
	ErrorTypeBadRequest          ErrorType = "bad_request"
	ErrorTypeAuthentication      ErrorType = "authentication"
	ErrorTypePermissionDenied    ErrorType = "permission_denied"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeConflict            ErrorType = "conflict"
	ErrorTypeUnprocessableEntity ErrorType = "unprocessable_entity"
	ErrorTypeRateLimit           ErrorType = "rate_limit"
	ErrorTypeInternalServer      ErrorType = "internal_server"
	ErrorTypeGeneric             ErrorType = "generic"
)

// APIError is the single error surfaced for upstream failures, carrying the
// classification, the numeric status code and the extracted human-readable
// message. The raw response body is retained for logging.
type APIError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
}

// newAPIError classifies a non-2xx upstream response. The message is taken
// from {"error": {"message": ...}}, then {"error": "..."}, then
// {"message": ...}, falling back to a generic placeholder.
func newAPIError(statusCode int, body []byte) *APIError {
	return &APIError{
		Type:       errorTypeForStatus(statusCode),
		StatusCode: statusCode,
		Message:    extractErrorMessage(body),
		Body:       body,
	}
}

// wrapTransportError maps a connection-level failure onto the internal
// server class, same as an upstream 5xx.
func wrapTransportError(err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
	}
}

func errorTypeForStatus(statusCode int) ErrorType {
	if statusCode >= 500 {
		return ErrorTypeInternalServer
	}
	switch statusCode {
	case http.StatusBadRequest:
		return ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case http.StatusForbidden:
		return ErrorTypePermissionDenied
	case http.StatusNotFound:
		return ErrorTypeNotFound
	case http.StatusConflict:
		return ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return ErrorTypeUnprocessableEntity
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	default:
		return ErrorTypeGeneric
	}
}

func extractErrorMessage(body []byte) string {
	const fallback = "Unknown error"
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fallback
	}
	if len(envelope.Error) > 0 {
		var detail struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
		return fallback
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return fallback
}
