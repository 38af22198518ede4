package types

// Streaming event type discriminators, in lifecycle order.
const (
	EventTypeMessageStart      = "message_start"
	EventTypeContentBlockStart = "content_block_start"
	EventTypeContentBlockDelta = "content_block_delta"
	EventTypeContentBlockStop  = "content_block_stop"
	EventTypeMessageDelta      = "message_delta"
	EventTypeMessageStop       = "message_stop"
)

// StreamingMessage is the in-progress message a stream builds up. Content
// grows append-only; StopReason and Usage stay nil until the stream finishes.
type StreamingMessage struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *StopReason    `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        *Usage         `json:"usage,omitempty"`
}

// StreamingEvent is one lifecycle event of a message stream, discriminated by
// Type. Which payload fields are set depends on the event type; an event is
// never mutated after it has been produced.
type StreamingEvent struct {
	Type string `json:"type"`

	// Message accompanies message_start.
	Message *StreamingMessage `json:"message,omitempty"`

	// Index addresses the content block for content_block_* events.
	Index int `json:"index"`

	// ContentBlock accompanies content_block_start.
	ContentBlock *ContentBlock `json:"content_block,omitempty"`

	// Delta accompanies content_block_delta and message_delta.
	Delta *EventDelta `json:"delta,omitempty"`

	// Usage accompanies message_delta when the upstream reported counts.
	Usage *Usage `json:"usage,omitempty"`
}

// EventDelta carries the incremental payload of a delta event. Text is set
// for text block deltas, Input for tool_use block deltas and StopReason for
// the final message_delta.
type EventDelta struct {
	Text       string         `json:"text,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	StopReason StopReason     `json:"stop_reason,omitempty"`
}
