package openaichat

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// fromCreateMessageRequest maps a Messages API request onto the chat
// completion wire shape. Sampling parameters pass through unchanged; the
// message list is rebuilt because the two protocols disagree on how tool
// interactions are threaded through a conversation.
func fromCreateMessageRequest(req types.CreateMessageRequest) *chatCompletionRequest {
	out := &chatCompletionRequest{
		Model:       req.Model,
		Messages:    fromInputMessages(req.Messages, req.System),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		extra:       req.ExtraBody,
	}
	if len(req.StopSequences) > 0 {
		out.Stop = req.StopSequences
	}
	if req.Stream != nil {
		out.Stream = *req.Stream
	}
	if len(req.Tools) > 0 {
		out.Tools = fromTools(req.Tools)
	}
	if req.ToolChoice != nil {
		out.ToolChoice = fromToolChoice(*req.ToolChoice)
	}
	return out
}

// fromInputMessages flattens the conversation. A system prompt becomes a
// leading system message; each input message then expands to zero or more
// wire messages depending on its content blocks.
func fromInputMessages(msgs []types.InputMessage, system *types.SystemPrompt) []wireMessage {
	out := make([]wireMessage, 0, len(msgs)+1)
	if system != nil {
		if prompt := system.Prompt(); prompt != "" {
			out = append(out, wireMessage{Role: roleSystem, Content: prompt})
		}
	}
	for _, msg := range msgs {
		if msg.Content.Text != nil {
			out = append(out, wireMessage{Role: msg.Role, Content: *msg.Content.Text})
			continue
		}
		out = append(out, fromContentBlocks(msg.Role, msg.Content.Blocks)...)
	}
	return out
}

// fromContentBlocks partitions a block list into a primary message and
// trailing tool-result messages. Text blocks join into one content string,
// tool_use blocks become tool calls on the primary message, and each
// tool_result becomes its own tool-role message since that is the only form
// the chat completion protocol accepts tool output in. A message whose blocks
// produce neither text nor tool calls is dropped.
func fromContentBlocks(role string, blocks []types.InputContentBlock) []wireMessage {
	var textParts []string
	var toolCalls []wireToolCall
	var toolResults []wireMessage
	for _, block := range blocks {
		switch block.Type {
		case types.ContentBlockTypeText:
			textParts = append(textParts, block.Text)
		case types.ContentBlockTypeToolUse:
			toolCalls = append(toolCalls, wireToolCall{
				ID:   block.ID,
				Type: "function",
				Function: wireFunctionCall{
					Name:      block.Name,
					Arguments: marshalArguments(block.Input),
				},
			})
		case types.ContentBlockTypeToolResult:
			toolResults = append(toolResults, wireMessage{
				Role:       roleTool,
				ToolCallID: block.ToolUseID,
				Content:    stringifyToolResult(block.Content),
			})
		}
	}
	var out []wireMessage
	if len(textParts) > 0 || len(toolCalls) > 0 {
		out = append(out, wireMessage{
			Role:      role,
			Content:   strings.Join(textParts, "\n"),
			ToolCalls: toolCalls,
		})
	}
	return append(out, toolResults...)
}

// marshalArguments serializes a tool input object for the wire, where
// arguments travel as a JSON string. A nil input serializes as an empty
// object.
func marshalArguments(input map[string]any) string {
	if input == nil {
		return "{}"
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// stringifyToolResult renders a tool_result payload as the single content
// string the tool role requires. String payloads pass through unquoted;
// anything else is re-encoded as compact JSON.
func stringifyToolResult(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return plain
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, content); err != nil {
		return string(content)
	}
	return compact.String()
}
