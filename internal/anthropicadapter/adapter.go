// Package anthropicadapter defines the contract for serving the Anthropic
// Messages API on top of other provider APIs, together with the frontdoor
// request, response and streaming event types.
package anthropicadapter

import (
	"context"
	"iter"
	"net/http"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// Adapter transforms client requests into provider API calls and provider
// responses back into the client's protocol.
//
// Implementations receive the transport to use for upstream calls; the chain
// is expected to handle authentication.
type Adapter[TRequest any, TResponse any, TChunk any] interface {
	// ProcessRequest handles a buffered (non-streaming) request.
	ProcessRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (*TResponse, error)

	// ProcessStreamingRequest handles a streaming request. The returned
	// sequence yields chunks in arrival order and stops after the terminal
	// chunk or the first error; abandoning the iteration releases the
	// underlying connection.
	ProcessStreamingRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (iter.Seq2[*TChunk, error], error)
}

type (
	CreateMessageRequest = types.CreateMessageRequest
	Message              = types.Message
	StreamingEvent       = types.StreamingEvent

	Error         = types.Error
	ErrorResponse = types.ErrorResponse

	// CreateMessageAdapter serves POST /v1/messages.
	CreateMessageAdapter = Adapter[CreateMessageRequest, Message, StreamingEvent]
)
