package openaichat

import (
	"net/http"
	"testing"
)

func TestErrorTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{400, ErrorTypeBadRequest},
		{401, ErrorTypeAuthentication},
		{403, ErrorTypePermissionDenied},
		{404, ErrorTypeNotFound},
		{409, ErrorTypeConflict},
		{422, ErrorTypeUnprocessableEntity},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeInternalServer},
		{502, ErrorTypeInternalServer},
		{503, ErrorTypeInternalServer},
		// Unlisted 4xx codes collapse to the generic class.
		{418, ErrorTypeGeneric},
		{402, ErrorTypeGeneric},
		{302, ErrorTypeGeneric},
	}
	for _, tt := range tests {
		if got := errorTypeForStatus(tt.status); got != tt.want {
			t.Errorf("errorTypeForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestNewAPIErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "nested error object", body: `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`, want: "quota exceeded"},
		{name: "error as string", body: `{"error":"teapot"}`, want: "teapot"},
		{name: "top-level message", body: `{"message":"not found"}`, want: "not found"},
		{name: "error object without message", body: `{"error":{"code":"x"}}`, want: "Unknown error"},
		{name: "not json", body: `<html>502 Bad Gateway</html>`, want: "Unknown error"},
		{name: "empty body", body: ``, want: "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(http.StatusBadRequest, []byte(tt.body))
			if err.Message != tt.want {
				t.Errorf("Message = %q, want %q", err.Message, tt.want)
			}
			if err.StatusCode != http.StatusBadRequest {
				t.Errorf("StatusCode = %d", err.StatusCode)
			}
		})
	}
}

func TestWrapTransportError(t *testing.T) {
	err := wrapTransportError(http.ErrHandlerTimeout)
	if err.Type != ErrorTypeInternalServer || err.StatusCode != http.StatusInternalServerError {
		t.Errorf("wrapped = %+v", err)
	}
	if err.Message == "" {
		t.Error("message should carry the underlying error text")
	}
}
