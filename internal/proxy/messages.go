package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter"
	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateMessageHandler handles POST /v1/messages for streaming and
// non-streaming requests.
type CreateMessageHandler struct {
	Adapter   anthropicadapter.CreateMessageAdapter
	Transport http.RoundTripper
}

var _ http.Handler = (*CreateMessageHandler)(nil)

func (h *CreateMessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", slog.Int64("limit_bytes", maxBytesErr.Limit))
			writeJSONMessagesError(ctx, w,
				types.NewErrorResponse(types.ErrorTypeInvalidRequest, http.StatusText(http.StatusRequestEntityTooLarge)),
				http.StatusRequestEntityTooLarge)
			return
		}
		slog.ErrorContext(ctx, "failed to decode request", slog.Any("error", err))
		writeJSONMessagesError(ctx, w,
			types.NewErrorResponse(types.ErrorTypeInvalidRequest, "Request body is not valid JSON"),
			http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		slog.WarnContext(ctx, "request failed validation", slog.Any("error", err))
		writeJSONMessagesError(ctx, w,
			types.NewErrorResponse(types.ErrorTypeInvalidRequest, err.Error()),
			http.StatusBadRequest)
		return
	}

	if req.Stream != nil && *req.Stream {
		h.streamResponse(ctx, w, req)
	} else {
		h.writeResponse(ctx, w, req)
	}
}

// writeResponse handles the buffered path.
func (h *CreateMessageHandler) writeResponse(ctx context.Context, w http.ResponseWriter, req types.CreateMessageRequest) {
	if ctx.Err() != nil {
		return
	}
	message, err := h.Adapter.ProcessRequest(ctx, req, h.Transport)
	if err != nil {
		slog.ErrorContext(ctx, "request failed", slog.Any("error", err))
		errResp, status := messagesErrorResponse(err)
		writeJSONMessagesError(ctx, w, errResp, status)
		return
	}
	writeJSON(ctx, w, message, http.StatusOK)
}

// streamResponse handles the streaming path. Errors before the first event
// become a JSON error response; errors mid-stream become a terminal SSE error
// event since the status line is already gone.
func (h *CreateMessageHandler) streamResponse(ctx context.Context, w http.ResponseWriter, req types.CreateMessageRequest) {
	if ctx.Err() != nil {
		return
	}
	stream, err := h.Adapter.ProcessStreamingRequest(ctx, req, h.Transport)
	if err != nil {
		slog.ErrorContext(ctx, "streaming request failed", slog.Any("error", err))
		errResp, status := messagesErrorResponse(err)
		writeJSONMessagesError(ctx, w, errResp, status)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", slog.Any("error", err))
		writeJSONMessagesError(ctx, w,
			types.NewErrorResponse(types.ErrorTypeAPIError, http.StatusText(http.StatusInternalServerError)),
			http.StatusInternalServerError)
		return
	}

	for event, err := range stream {
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "client disconnected during stream")
			return
		}
		if err != nil {
			slog.ErrorContext(ctx, "stream error", slog.Any("error", err))
			errResp, _ := messagesErrorResponse(err)
			if writeErr := sse.WriteEvent("error", errResp); writeErr != nil {
				slog.ErrorContext(ctx, "failed to write error event", slog.Any("error", writeErr))
			}
			return
		}
		name, payload := encodeStreamingEvent(event)
		if writeErr := sse.WriteEvent(name, payload); writeErr != nil {
			slog.ErrorContext(ctx, "failed to write event", slog.Any("error", writeErr))
			return
		}
	}
}
