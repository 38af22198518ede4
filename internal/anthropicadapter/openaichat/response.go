package openaichat

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// toMessage maps a buffered chat completion response onto a Messages API
// message. Only the first choice is considered. Missing identity fields are
// synthesized so the result is always well-formed.
func toMessage(resp *chatCompletionResponse) *types.Message {
	var choice chatCompletionChoice
	if len(resp.Choices) > 0 {
		choice = resp.Choices[0]
	}

	content := make([]types.ContentBlock, 0, 1+len(choice.Message.ToolCalls))
	if choice.Message.Content != "" {
		content = append(content, types.ContentBlock{
			Type: types.ContentBlockTypeText,
			Text: choice.Message.Content,
		})
	}
	for _, call := range choice.Message.ToolCalls {
		content = append(content, types.ContentBlock{
			Type:  types.ContentBlockTypeToolUse,
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: parseArguments(call.Function.Arguments),
		})
	}

	msg := &types.Message{
		ID:         resp.ID,
		Type:       "message",
		Role:       roleAssistant,
		Content:    content,
		Model:      resp.Model,
		StopReason: toStopReason(choice.FinishReason),
		Usage:      toUsage(resp.Usage),
	}
	if msg.ID == "" {
		msg.ID = newMessageID()
	}
	if msg.Model == "" {
		msg.Model = "unknown"
	}
	return msg
}

// toStopReason translates a finish reason into the Messages API stop-reason
// vocabulary. Unknown values collapse to end_turn; an absent finish reason
// stays unset.
func toStopReason(finishReason string) *types.StopReason {
	if finishReason == "" {
		return nil
	}
	reason := types.StopReasonEndTurn
	switch finishReason {
	case finishReasonLength:
		reason = types.StopReasonMaxTokens
	case finishReasonToolCalls, finishReasonFunctionCall:
		reason = types.StopReasonToolUse
	case finishReasonStop, finishReasonContentFilter:
		reason = types.StopReasonEndTurn
	}
	return &reason
}

// parseArguments decodes a tool-call arguments payload. Absent or malformed
// arguments degrade to an empty object rather than failing the response.
func parseArguments(raw string) map[string]any {
	input := map[string]any{}
	if raw == "" {
		return input
	}
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return map[string]any{}
	}
	return input
}

// newMessageID generates a fallback message ID for upstream responses that
// lack one.
func newMessageID() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "msg_" + base64.RawURLEncoding.EncodeToString(b)
}
