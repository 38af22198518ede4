package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CreateMessageRequest is the request surface of POST /v1/messages.
type CreateMessageRequest struct {
	Model         string         `json:"model" validate:"required"`
	Messages      []InputMessage `json:"messages" validate:"required,min=1,dive"`
	MaxTokens     int            `json:"max_tokens" validate:"required,min=1"`
	System        *SystemPrompt  `json:"system,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty" validate:"omitempty,min=0"`
	TopP          *float64       `json:"top_p,omitempty" validate:"omitempty,min=0,max=1"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Stream        *bool          `json:"stream,omitempty"`
	Tools         []Tool         `json:"tools,omitempty" validate:"omitempty,dive"`
	ToolChoice    *ToolChoice    `json:"tool_choice,omitempty"`

	// ExtraBody carries caller-supplied parameters that are passed through to
	// the upstream request verbatim, overriding mapped fields on key collision.
	ExtraBody map[string]any `json:"extra_body,omitempty"`
}

// InputMessage is one conversation turn supplied by the caller.
type InputMessage struct {
	Role    string         `json:"role" validate:"required,oneof=user assistant"`
	Content MessageContent `json:"content"`
}

// MessageContent is the string-or-block-list union used for message content.
// Exactly one of Text and Blocks is set after unmarshalling.
type MessageContent struct {
	Text   *string
	Blocks []InputContentBlock
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = MessageContent{}
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = MessageContent{Text: &text}
		return nil
	}
	var blocks []InputContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("message content must be a string or an array of content blocks: %w", err)
	}
	*c = MessageContent{Blocks: blocks}
	return nil
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Text != nil {
		return json.Marshal(*c.Text)
	}
	return json.Marshal(c.Blocks)
}

// InputContentBlock is a request-side content block: text, tool_use or
// tool_result, discriminated by Type.
type InputContentBlock struct {
	Type string `json:"type"`

	// Text content (type "text").
	Text string `json:"text,omitempty"`

	// Tool invocation echoed back by the caller (type "tool_use").
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// Tool outcome (type "tool_result"). Content is kept raw because callers
	// send either a plain string or nested blocks.
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// SystemPrompt is the string-or-block-list union used for the system field.
type SystemPrompt struct {
	Text   *string
	Blocks []InputContentBlock
}

func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	var content MessageContent
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	*s = SystemPrompt{Text: content.Text, Blocks: content.Blocks}
	return nil
}

func (s SystemPrompt) MarshalJSON() ([]byte, error) {
	return MessageContent{Text: s.Text, Blocks: s.Blocks}.MarshalJSON()
}

// Prompt flattens the union to a single string, joining text blocks with
// newlines. Non-text blocks contribute nothing.
func (s SystemPrompt) Prompt() string {
	if s.Text != nil {
		return *s.Text
	}
	parts := make([]string, 0, len(s.Blocks))
	for _, block := range s.Blocks {
		if block.Type == ContentBlockTypeText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Tool declares a callable tool offered to the model.
type Tool struct {
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// ToolChoice is the string-or-object union steering tool selection. A bare
// string sets Value; an object sets Type and, for {"type":"tool"}, Name.
type ToolChoice struct {
	Value string
	Type  string `json:"type,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (t *ToolChoice) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*t = ToolChoice{Value: value}
		return nil
	}
	type plain ToolChoice
	var choice plain
	if err := json.Unmarshal(data, &choice); err != nil {
		return fmt.Errorf("tool_choice must be a string or an object: %w", err)
	}
	*t = ToolChoice(choice)
	return nil
}

func (t ToolChoice) MarshalJSON() ([]byte, error) {
	if t.Value != "" {
		return json.Marshal(t.Value)
	}
	type plain ToolChoice
	return json.Marshal(plain(t))
}
