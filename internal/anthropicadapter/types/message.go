package types

import "encoding/json"

// StopReason classifies why generation ended.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonToolUse      StopReason = "tool_use"
)

// Content block type discriminators.
const (
	ContentBlockTypeText       = "text"
	ContentBlockTypeToolUse    = "tool_use"
	ContentBlockTypeToolResult = "tool_result"
)

// ContentBlock is one addressable unit of assistant output, discriminated by
// Type. Text blocks carry Text; tool_use blocks carry ID, Name and Input.
type ContentBlock struct {
	Type string `json:"type"`

	// Text content (type "text").
	Text string `json:"text,omitempty"`

	// Tool invocation (type "tool_use").
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// MarshalJSON emits only the fields that belong to the block's variant. A
// tool_use block always carries an input object, even when empty.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case ContentBlockTypeToolUse:
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		return json.Marshal(struct {
			Type  string         `json:"type"`
			ID    string         `json:"id"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		}{b.Type, b.ID, b.Name, input})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{ContentBlockTypeText, b.Text})
	}
}

// Usage reports token accounting for a message.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Message is a completed assistant turn in the Messages API shape.
type Message struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *StopReason    `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}
