package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// client issues calls against one OpenAI-compatible endpoint. Authentication
// is left to the transport chain.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, transport http.RoundTripper) (*client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: streaming responses stay open for the duration
		// of a generation. Cancellation comes from the request context.
		httpClient: &http.Client{Transport: transport},
	}, nil
}

// postChatCompletions sends the request and returns the response with its
// body unread. Non-2xx responses and transport failures come back as
// *APIError.
func (c *client) postChatCompletions(ctx context.Context, req *chatCompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, newAPIError(resp.StatusCode, errBody)
	}
	return resp, nil
}

func (c *client) createChatCompletion(ctx context.Context, req *chatCompletionRequest) (*chatCompletionResponse, error) {
	resp, err := c.postChatCompletions(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, wrapTransportError(fmt.Errorf("decode upstream response: %w", err))
	}
	return &completion, nil
}

func (c *client) listModels(ctx context.Context) (*modelList, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, newAPIError(resp.StatusCode, errBody)
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, wrapTransportError(fmt.Errorf("decode upstream response: %w", err))
	}
	return &list, nil
}
