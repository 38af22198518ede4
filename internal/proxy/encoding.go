package proxy

import (
	"encoding/json"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// Wire shapes for the Messages streaming protocol. The adapter's events carry
// deltas as plain values; the wire frames text deltas as text_delta objects
// and tool input deltas as input_json_delta objects with a serialized
// partial_json payload.
type (
	wireMessageStart struct {
		Type    string              `json:"type"`
		Message wireMessageSnapshot `json:"message"`
	}

	wireMessageSnapshot struct {
		ID           string               `json:"id"`
		Type         string               `json:"type"`
		Role         string               `json:"role"`
		Content      []types.ContentBlock `json:"content"`
		Model        string               `json:"model"`
		StopReason   *types.StopReason    `json:"stop_reason"`
		StopSequence *string              `json:"stop_sequence"`
		Usage        types.Usage          `json:"usage"`
	}

	wireContentBlockStart struct {
		Type         string             `json:"type"`
		Index        int                `json:"index"`
		ContentBlock types.ContentBlock `json:"content_block"`
	}

	wireContentBlockDelta struct {
		Type  string         `json:"type"`
		Index int            `json:"index"`
		Delta wireBlockDelta `json:"delta"`
	}

	wireBlockDelta struct {
		Type        string `json:"type"`
		Text        string `json:"text,omitempty"`
		PartialJSON string `json:"partial_json,omitempty"`
	}

	wireContentBlockStop struct {
		Type  string `json:"type"`
		Index int    `json:"index"`
	}

	wireMessageDelta struct {
		Type  string               `json:"type"`
		Delta wireMessageDeltaBody `json:"delta"`
		Usage types.Usage          `json:"usage"`
	}

	wireMessageDeltaBody struct {
		StopReason   types.StopReason `json:"stop_reason"`
		StopSequence *string          `json:"stop_sequence"`
	}

	wireMessageStop struct {
		Type string `json:"type"`
	}
)

// encodeStreamingEvent converts an adapter event into its wire event name and
// payload.
func encodeStreamingEvent(event *types.StreamingEvent) (string, any) {
	switch event.Type {
	case types.EventTypeMessageStart:
		snapshot := wireMessageSnapshot{Type: "message", Content: []types.ContentBlock{}}
		if event.Message != nil {
			snapshot.ID = event.Message.ID
			snapshot.Role = event.Message.Role
			snapshot.Model = event.Message.Model
			snapshot.StopReason = event.Message.StopReason
			snapshot.StopSequence = event.Message.StopSequence
			if event.Message.Content != nil {
				snapshot.Content = event.Message.Content
			}
			if event.Message.Usage != nil {
				snapshot.Usage = *event.Message.Usage
			}
		}
		return event.Type, wireMessageStart{Type: event.Type, Message: snapshot}

	case types.EventTypeContentBlockStart:
		var block types.ContentBlock
		if event.ContentBlock != nil {
			block = *event.ContentBlock
		}
		// On the wire a tool_use block starts with an empty input; the full
		// object arrives through input_json_delta and is assembled client-side.
		if block.Type == types.ContentBlockTypeToolUse {
			block.Input = nil
		}
		return event.Type, wireContentBlockStart{Type: event.Type, Index: event.Index, ContentBlock: block}

	case types.EventTypeContentBlockDelta:
		delta := wireBlockDelta{Type: "text_delta"}
		if event.Delta != nil {
			if event.Delta.Input != nil {
				delta.Type = "input_json_delta"
				delta.PartialJSON = marshalPartialJSON(event.Delta.Input)
			} else {
				delta.Text = event.Delta.Text
			}
		}
		return event.Type, wireContentBlockDelta{Type: event.Type, Index: event.Index, Delta: delta}

	case types.EventTypeContentBlockStop:
		return event.Type, wireContentBlockStop{Type: event.Type, Index: event.Index}

	case types.EventTypeMessageDelta:
		body := wireMessageDeltaBody{}
		if event.Delta != nil {
			body.StopReason = event.Delta.StopReason
		}
		var usage types.Usage
		if event.Usage != nil {
			usage = *event.Usage
		}
		return event.Type, wireMessageDelta{Type: event.Type, Delta: body, Usage: usage}

	default:
		return types.EventTypeMessageStop, wireMessageStop{Type: types.EventTypeMessageStop}
	}
}

func marshalPartialJSON(input map[string]any) string {
	encoded, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
