package openaichat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

func chunkSeq(chunks ...*chatCompletionChunk) iter.Seq2[*chatCompletionChunk, error] {
	return func(yield func(*chatCompletionChunk, error) bool) {
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func collectEvents(t *testing.T, seq iter.Seq2[*types.StreamingEvent, error]) []*types.StreamingEvent {
	t.Helper()
	var events []*types.StreamingEvent
	for event, err := range seq {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		events = append(events, event)
	}
	return events
}

func eventTypes(events []*types.StreamingEvent) []string {
	out := make([]string, len(events))
	for i, event := range events {
		out[i] = event.Type
	}
	return out
}

func roleChunk(id, model string) *chatCompletionChunk {
	return &chatCompletionChunk{
		ID:      id,
		Model:   model,
		Choices: []chatCompletionChunkChoice{{Delta: chatCompletionDelta{Role: roleAssistant}}},
	}
}

func textChunk(text string) *chatCompletionChunk {
	return &chatCompletionChunk{
		Choices: []chatCompletionChunkChoice{{Delta: chatCompletionDelta{Content: text}}},
	}
}

func finishChunk(reason string, usage *chatCompletionUsage) *chatCompletionChunk {
	return &chatCompletionChunk{
		Choices: []chatCompletionChunkChoice{{FinishReason: reason}},
		Usage:   usage,
	}
}

func TestTransduceStreamTextLifecycle(t *testing.T) {
	events := collectEvents(t, transduceStream(chunkSeq(
		roleChunk("chatcmpl-1", "gpt-4o"),
		textChunk("Hel"),
		textChunk("lo"),
		finishChunk("stop", &chatCompletionUsage{PromptTokens: 3, CompletionTokens: 2}),
	)))

	want := []string{
		"message_start",
		"content_block_start",
		"content_block_delta",
		"content_block_delta",
		"content_block_stop",
		"message_delta",
		"message_stop",
	}
	got := eventTypes(events)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}

	start := events[0]
	if start.Message == nil || start.Message.ID != "chatcmpl-1" || start.Message.Model != "gpt-4o" {
		t.Errorf("message_start = %+v", start.Message)
	}
	if start.Message.Role != "assistant" || start.Message.StopReason != nil {
		t.Errorf("message_start message = %+v", start.Message)
	}
	if len(start.Message.Content) != 0 {
		t.Errorf("message_start content = %+v", start.Message.Content)
	}

	if events[1].Index != 0 || events[1].ContentBlock == nil || events[1].ContentBlock.Type != "text" {
		t.Errorf("content_block_start = %+v", events[1])
	}
	if events[2].Delta.Text != "Hel" || events[3].Delta.Text != "lo" {
		t.Errorf("text deltas = %+v, %+v", events[2].Delta, events[3].Delta)
	}

	messageDelta := events[5]
	if messageDelta.Delta == nil || messageDelta.Delta.StopReason != types.StopReasonEndTurn {
		t.Errorf("message_delta = %+v", messageDelta.Delta)
	}
	if messageDelta.Usage == nil || messageDelta.Usage.InputTokens != 3 || messageDelta.Usage.OutputTokens != 2 {
		t.Errorf("usage = %+v", messageDelta.Usage)
	}
}

func TestTransduceStreamToolCalls(t *testing.T) {
	toolChunk := &chatCompletionChunk{
		Choices: []chatCompletionChunkChoice{{Delta: chatCompletionDelta{
			ToolCalls: []wireToolCall{{
				ID:       "call_1",
				Function: wireFunctionCall{Name: "get_weather", Arguments: `{"city":"Berlin"}`},
			}},
		}}},
	}

	events := collectEvents(t, transduceStream(chunkSeq(
		roleChunk("chatcmpl-2", "gpt-4o"),
		textChunk("Checking"),
		toolChunk,
		finishChunk("tool_calls", nil),
	)))

	want := []string{
		"message_start",
		"content_block_start", // text at index 0
		"content_block_delta",
		"content_block_start", // tool_use at index 1
		"content_block_delta",
		"content_block_stop", // index 0
		"content_block_stop", // index 1
		"message_delta",
		"message_stop",
	}
	got := eventTypes(events)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}

	toolStart := events[3]
	if toolStart.Index != 1 {
		t.Errorf("tool block index = %d, want 1", toolStart.Index)
	}
	if toolStart.ContentBlock.Type != "tool_use" || toolStart.ContentBlock.Name != "get_weather" {
		t.Errorf("tool block = %+v", toolStart.ContentBlock)
	}
	if toolStart.ContentBlock.Input["city"] != "Berlin" {
		t.Errorf("tool input = %+v", toolStart.ContentBlock.Input)
	}
	if events[4].Index != 1 || events[4].Delta.Input["city"] != "Berlin" {
		t.Errorf("tool delta = %+v", events[4])
	}

	// Stops close in ascending index order.
	if events[5].Index != 0 || events[6].Index != 1 {
		t.Errorf("stop order = %d, %d", events[5].Index, events[6].Index)
	}

	if events[7].Delta.StopReason != types.StopReasonToolUse {
		t.Errorf("stop reason = %v", events[7].Delta.StopReason)
	}
	if events[7].Usage != nil {
		t.Errorf("usage = %+v, want nil without upstream counts", events[7].Usage)
	}
}

// A truncated stream just stops: no synthesized terminal events.
func TestTransduceStreamTruncated(t *testing.T) {
	events := collectEvents(t, transduceStream(chunkSeq(
		roleChunk("chatcmpl-3", "m"),
		textChunk("partial"),
	)))

	got := eventTypes(events)
	want := []string{"message_start", "content_block_start", "content_block_delta"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("event types = %v, want %v", got, want)
	}
}

// Chunks after the finish reason are not processed.
func TestTransduceStreamStopsAfterFinish(t *testing.T) {
	events := collectEvents(t, transduceStream(chunkSeq(
		roleChunk("chatcmpl-4", "m"),
		textChunk("a"),
		finishChunk("stop", nil),
		textChunk("ignored"),
	)))

	for _, event := range events {
		if event.Type == "content_block_delta" && event.Delta.Text == "ignored" {
			t.Fatal("chunk after finish was processed")
		}
	}
	if events[len(events)-1].Type != "message_stop" {
		t.Errorf("last event = %s", events[len(events)-1].Type)
	}
}

func TestTransduceStreamChunksWithoutChoices(t *testing.T) {
	events := collectEvents(t, transduceStream(chunkSeq(
		roleChunk("chatcmpl-5", "m"),
		&chatCompletionChunk{Choices: nil},
		textChunk("x"),
		finishChunk("stop", nil),
	)))
	if len(events) != 6 {
		t.Errorf("len(events) = %d, want 6: %v", len(events), eventTypes(events))
	}
}

func TestTransduceStreamMalformedToolArguments(t *testing.T) {
	toolChunk := &chatCompletionChunk{
		Choices: []chatCompletionChunkChoice{{Delta: chatCompletionDelta{
			ToolCalls: []wireToolCall{{
				ID:       "call_1",
				Function: wireFunctionCall{Name: "f", Arguments: `{"bad json`},
			}},
		}}},
	}
	events := collectEvents(t, transduceStream(chunkSeq(roleChunk("c", "m"), toolChunk)))

	var start *types.StreamingEvent
	for _, event := range events {
		if event.Type == "content_block_start" {
			start = event
		}
	}
	if start == nil {
		t.Fatal("no content_block_start")
	}
	if input := start.ContentBlock.Input; input == nil || len(input) != 0 {
		t.Errorf("input = %+v, want empty object", input)
	}
}

func TestTransduceStreamSourceError(t *testing.T) {
	sourceErr := errors.New("connection reset")
	source := func(yield func(*chatCompletionChunk, error) bool) {
		if !yield(roleChunk("c", "m"), nil) {
			return
		}
		yield(nil, sourceErr)
	}

	var events []string
	var gotErr error
	for event, err := range transduceStream(source) {
		if err != nil {
			gotErr = err
			continue
		}
		events = append(events, event.Type)
	}
	if !errors.Is(gotErr, sourceErr) {
		t.Errorf("err = %v, want %v", gotErr, sourceErr)
	}
	if len(events) != 1 || events[0] != "message_start" {
		t.Errorf("events before error = %v", events)
	}
}

func TestScanChunks(t *testing.T) {
	body := strings.Join([]string{
		`data: {"id":"c1","choices":[{"delta":{"role":"assistant"}}]}`,
		"",
		": keep-alive comment",
		"",
		`data: not json at all`,
		"",
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		"",
		"data: [DONE]",
		"",
		`data: {"choices":[{"delta":{"content":"after done"}}]}`,
		"",
	}, "\n")

	var chunks []*chatCompletionChunk
	for chunk, err := range scanChunks(context.Background(), strings.NewReader(body)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}

	// Comment and malformed records are skipped, [DONE] terminates.
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].ID != "c1" {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	if chunks[1].Choices[0].Delta.Content != "hi" {
		t.Errorf("second chunk = %+v", chunks[1])
	}
}

func TestScanChunksCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range scanChunks(ctx, strings.NewReader("data: {}\n\n")) {
		gotErr = err
	}
	var apiErr *APIError
	if !errors.As(gotErr, &apiErr) {
		t.Fatalf("err = %v, want *APIError", gotErr)
	}
}
