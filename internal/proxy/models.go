package proxy

import (
	"log/slog"
	"net/http"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/openaichat"
)

// listModelsHandler proxies the upstream model catalog, translated to the
// Messages API list shape so Anthropic clients can populate model pickers.
func listModelsHandler(baseURL string, transport http.RoundTripper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := openaichat.ListModels(ctx, baseURL, transport)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list upstream models", slog.Any("error", err))
			errResp, status := messagesErrorResponse(err)
			writeJSONMessagesError(ctx, w, errResp, status)
			return
		}
		writeJSON(ctx, w, list, http.StatusOK)
	}
}
