package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/openaichat"
	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// mockUpstreamTransport serves a canned upstream response.
type mockUpstreamTransport struct {
	status      int
	body        string
	contentType string
}

func (m *mockUpstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		io.Copy(io.Discard, req.Body)
		req.Body.Close()
	}
	header := http.Header{}
	if m.contentType != "" {
		header.Set("Content-Type", m.contentType)
	}
	return &http.Response{
		StatusCode: m.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(m.body)),
		Request:    req,
	}, nil
}

func newMessagesHandler(transport http.RoundTripper) *CreateMessageHandler {
	return &CreateMessageHandler{
		Adapter:   &openaichat.CreateMessageAdapter{BaseURL: "https://upstream.test/v1"},
		Transport: transport,
	}
}

func postMessages(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// The buffered response must parse with the official Anthropic SDK types.
func TestMessagesHandlerBuffered(t *testing.T) {
	handler := newMessagesHandler(&mockUpstreamTransport{
		status:      http.StatusOK,
		contentType: "application/json",
		body: `{
			"id": "chatcmpl-42",
			"model": "gpt-4o",
			"choices": [{"message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 3}
		}`,
	})

	rec := postMessages(t, handler, `{
		"model": "gpt-4o",
		"max_tokens": 64,
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var msg anthropic.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("SDK failed to parse response: %v", err)
	}
	if msg.ID != "chatcmpl-42" || msg.Model != "gpt-4o" {
		t.Errorf("identity: %+v", msg)
	}
	if len(msg.Content) != 1 || msg.Content[0].Text != "Hello there" {
		t.Errorf("content = %+v", msg.Content)
	}
	if msg.StopReason != anthropic.StopReasonEndTurn {
		t.Errorf("stop reason = %v", msg.StopReason)
	}
	if msg.Usage.InputTokens != 9 || msg.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v", msg.Usage)
	}
}

// The streamed events must decode and accumulate with the official SDK.
func TestMessagesHandlerStreaming(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"id":"chatcmpl-7","model":"gpt-4o","choices":[{"delta":{"role":"assistant"}}]}`,
		"",
		`data: {"choices":[{"delta":{"content":"Let me check. "}}]}`,
		"",
		`data: {"choices":[{"delta":{"tool_calls":[{"id":"call_1","function":{"name":"get_weather","arguments":"{\"city\":\"Berlin\"}"}}]}}]}`,
		"",
		`data: {"choices":[{"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":11,"completion_tokens":6}}`,
		"",
		"data: [DONE]",
		"",
	}, "\n")

	handler := newMessagesHandler(&mockUpstreamTransport{
		status:      http.StatusOK,
		contentType: "text/event-stream",
		body:        upstream,
	})

	rec := postMessages(t, handler, `{
		"model": "gpt-4o",
		"max_tokens": 64,
		"stream": true,
		"messages": [{"role": "user", "content": "weather in berlin?"}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	stream := ssestream.NewStream[anthropic.MessageStreamEventUnion](ssestream.NewDecoder(rec.Result()), nil)
	var message anthropic.Message
	var eventNames []string
	for stream.Next() {
		event := stream.Current()
		eventNames = append(eventNames, event.Type)
		if err := message.Accumulate(event); err != nil {
			t.Fatalf("accumulate %s: %v", event.Type, err)
		}
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream err: %v", err)
	}

	want := []string{
		"message_start",
		"content_block_start",
		"content_block_delta",
		"content_block_start",
		"content_block_delta",
		"content_block_stop",
		"content_block_stop",
		"message_delta",
		"message_stop",
	}
	if strings.Join(eventNames, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", eventNames, want)
	}

	if message.ID != "chatcmpl-7" || message.Model != "gpt-4o" {
		t.Errorf("accumulated identity: %+v", message)
	}
	if len(message.Content) != 2 {
		t.Fatalf("accumulated content = %+v", message.Content)
	}
	if message.Content[0].Text != "Let me check. " {
		t.Errorf("text block = %+v", message.Content[0])
	}
	tool := message.Content[1]
	if tool.Name != "get_weather" {
		t.Errorf("tool block = %+v", tool)
	}
	if message.StopReason != anthropic.StopReasonToolUse {
		t.Errorf("stop reason = %v", message.StopReason)
	}
	if message.Usage.OutputTokens != 6 {
		t.Errorf("usage = %+v", message.Usage)
	}
}

func TestMessagesHandlerInvalidJSON(t *testing.T) {
	handler := newMessagesHandler(&mockUpstreamTransport{status: http.StatusOK})

	rec := postMessages(t, handler, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if envelope.Type != "error" || envelope.Err.Type != types.ErrorTypeInvalidRequest {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestMessagesHandlerValidation(t *testing.T) {
	handler := newMessagesHandler(&mockUpstreamTransport{status: http.StatusOK})

	// max_tokens missing
	rec := postMessages(t, handler, `{"model":"m","messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var envelope types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if envelope.Err.Type != types.ErrorTypeInvalidRequest {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestMessagesHandlerUpstreamError(t *testing.T) {
	tests := []struct {
		name           string
		upstreamStatus int
		wantStatus     int
		wantType       string
	}{
		{name: "rate limited", upstreamStatus: 429, wantStatus: 429, wantType: types.ErrorTypeRateLimit},
		{name: "unauthorized", upstreamStatus: 401, wantStatus: 401, wantType: types.ErrorTypeAuthentication},
		{name: "server error", upstreamStatus: 502, wantStatus: 500, wantType: types.ErrorTypeAPIError},
		{name: "teapot is generic", upstreamStatus: 418, wantStatus: 500, wantType: types.ErrorTypeAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newMessagesHandler(&mockUpstreamTransport{
				status: tt.upstreamStatus,
				body:   `{"error":{"message":"upstream says no"}}`,
			})
			rec := postMessages(t, handler, `{"model":"m","max_tokens":1,"messages":[{"role":"user","content":"hi"}]}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var envelope types.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("parse envelope: %v", err)
			}
			if envelope.Err.Type != tt.wantType {
				t.Errorf("error type = %s, want %s", envelope.Err.Type, tt.wantType)
			}
			if envelope.Err.Message != "upstream says no" {
				t.Errorf("message = %q", envelope.Err.Message)
			}
		})
	}
}
