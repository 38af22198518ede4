package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/openaichat"
	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", slog.Any("error", err))
	}
}

func writeJSONMessagesError(ctx context.Context, w http.ResponseWriter, errResp *types.ErrorResponse, status int) {
	writeJSON(ctx, w, errResp, status)
}

// messagesErrorResponse converts an adapter error into the Messages API
// error envelope and the HTTP status to serve it with. Upstream failures map
// by their classification; anything else surfaces as a generic api_error.
func messagesErrorResponse(err error) (*types.ErrorResponse, int) {
	var apiErr *openaichat.APIError
	if !errors.As(err, &apiErr) {
		return types.NewErrorResponse(types.ErrorTypeAPIError, http.StatusText(http.StatusInternalServerError)),
			http.StatusInternalServerError
	}

	var errorType string
	var status int
	switch apiErr.Type {
	case openaichat.ErrorTypeBadRequest:
		errorType, status = types.ErrorTypeInvalidRequest, http.StatusBadRequest
	case openaichat.ErrorTypeUnprocessableEntity:
		errorType, status = types.ErrorTypeInvalidRequest, http.StatusUnprocessableEntity
	case openaichat.ErrorTypeConflict:
		errorType, status = types.ErrorTypeInvalidRequest, http.StatusConflict
	case openaichat.ErrorTypeAuthentication:
		errorType, status = types.ErrorTypeAuthentication, http.StatusUnauthorized
	case openaichat.ErrorTypePermissionDenied:
		errorType, status = types.ErrorTypePermission, http.StatusForbidden
	case openaichat.ErrorTypeNotFound:
		errorType, status = types.ErrorTypeNotFound, http.StatusNotFound
	case openaichat.ErrorTypeRateLimit:
		errorType, status = types.ErrorTypeRateLimit, http.StatusTooManyRequests
	default:
		errorType, status = types.ErrorTypeAPIError, http.StatusInternalServerError
	}
	return types.NewErrorResponse(errorType, apiErr.Message), status
}
