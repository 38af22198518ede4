package openaichat

import (
	"context"
	"iter"
	"net/http"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter"
	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// CreateMessageAdapter serves Messages API requests against an
// OpenAI-compatible chat completion endpoint.
type CreateMessageAdapter struct {
	// BaseURL is the upstream API root, e.g. "https://api.openai.com/v1".
	BaseURL string
}

var _ anthropicadapter.CreateMessageAdapter = (*CreateMessageAdapter)(nil)

func (a *CreateMessageAdapter) ProcessRequest(ctx context.Context, clientReq types.CreateMessageRequest, transport http.RoundTripper) (*types.Message, error) {
	c, err := newClient(a.BaseURL, transport)
	if err != nil {
		return nil, err
	}
	upstreamReq := fromCreateMessageRequest(clientReq)
	upstreamReq.Stream = false

	completion, err := c.createChatCompletion(ctx, upstreamReq)
	if err != nil {
		return nil, err
	}
	return toMessage(completion), nil
}

func (a *CreateMessageAdapter) ProcessStreamingRequest(ctx context.Context, clientReq types.CreateMessageRequest, transport http.RoundTripper) (iter.Seq2[*types.StreamingEvent, error], error) {
	c, err := newClient(a.BaseURL, transport)
	if err != nil {
		return nil, err
	}
	upstreamReq := fromCreateMessageRequest(clientReq)
	upstreamReq.Stream = true

	resp, err := c.postChatCompletions(ctx, upstreamReq)
	if err != nil {
		return nil, err
	}

	events := transduceStream(scanChunks(ctx, resp.Body))
	return func(yield func(*types.StreamingEvent, error) bool) {
		defer resp.Body.Close()
		for event, err := range events {
			if !yield(event, err) {
				return
			}
		}
	}, nil
}
