package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// scanChunks reads a server-sent-event body and yields decoded chat
// completion chunks. Comment records and records without data are skipped, as
// are data payloads that fail to decode. The sequence ends at the [DONE]
// sentinel, at end of stream, or on the first read error.
func scanChunks(ctx context.Context, body io.Reader) iter.Seq2[*chatCompletionChunk, error] {
	return func(yield func(*chatCompletionChunk, error) bool) {
		scanner := newSSEScanner(body)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, wrapTransportError(err))
				return
			}
			raw, err := scanner.next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(nil, wrapTransportError(fmt.Errorf("read stream: %w", err)))
				return
			}
			record := decodeSSERecord(raw)
			if record == nil || len(record.data) == 0 {
				if record != nil && record.done {
					return
				}
				continue
			}
			var chunk chatCompletionChunk
			if err := json.Unmarshal(record.data, &chunk); err != nil {
				slog.DebugContext(ctx, "skipping undecodable stream chunk", slog.Any("error", err))
				continue
			}
			if !yield(&chunk, nil) {
				return
			}
		}
	}
}

// transduceStream re-synthesizes the Messages streaming lifecycle from chat
// completion chunks: message_start on the first role delta, content block
// events as content arrives, and the message_delta/message_stop pair on the
// finish reason. The sequence ends after message_stop even if the source has
// more chunks; a source error is yielded once and ends the sequence.
func transduceStream(chunks iter.Seq2[*chatCompletionChunk, error]) iter.Seq2[*types.StreamingEvent, error] {
	return func(yield func(*types.StreamingEvent, error) bool) {
		state := newStreamState()
		for chunk, err := range chunks {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, event := range state.apply(chunk) {
				if !yield(event, nil) {
					return
				}
			}
			if state.finished {
				return
			}
		}
	}
}

// streamState is the accumulation state of one stream: the in-progress
// message, its open content blocks and the mapping from upstream tool-call
// identities to block indices.
type streamState struct {
	message    types.StreamingMessage
	blocks     []types.ContentBlock
	toolBlocks map[string]int
	started    bool
	finished   bool
}

func newStreamState() *streamState {
	return &streamState{
		message:    types.StreamingMessage{Type: "message", Content: []types.ContentBlock{}},
		toolBlocks: map[string]int{},
	}
}

// apply folds one chunk into the state and returns the events it produced.
// Chunks without choices (such as trailing usage reports) produce nothing.
func (s *streamState) apply(chunk *chatCompletionChunk) []*types.StreamingEvent {
	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]
	var events []*types.StreamingEvent

	if choice.Delta.Role != "" && !s.started {
		s.started = true
		s.message.ID = chunk.ID
		s.message.Model = chunk.Model
		s.message.Role = choice.Delta.Role
		snapshot := s.message
		events = append(events, &types.StreamingEvent{
			Type:    types.EventTypeMessageStart,
			Message: &snapshot,
		})
	}

	if choice.Delta.Content != "" {
		events = append(events, s.applyText(choice.Delta.Content)...)
	}
	for pos, call := range choice.Delta.ToolCalls {
		events = append(events, s.applyToolCall(pos, call)...)
	}
	if choice.FinishReason != "" {
		events = append(events, s.finish(choice.FinishReason, chunk.Usage)...)
	}
	return events
}

// applyText routes a text fragment to block 0. The block is opened on the
// first fragment; if index 0 was already claimed by a tool block the fragment
// still produces a delta but does not reshape the message.
func (s *streamState) applyText(text string) []*types.StreamingEvent {
	var events []*types.StreamingEvent
	if len(s.blocks) == 0 {
		block := types.ContentBlock{Type: types.ContentBlockTypeText}
		s.blocks = append(s.blocks, block)
		s.message.Content = append(s.message.Content, block)
		started := block
		events = append(events, &types.StreamingEvent{
			Type:         types.EventTypeContentBlockStart,
			Index:        0,
			ContentBlock: &started,
		})
	}
	if s.blocks[0].Type == types.ContentBlockTypeText {
		s.blocks[0].Text += text
		s.message.Content[0] = s.blocks[0]
	}
	return append(events, &types.StreamingEvent{
		Type:  types.EventTypeContentBlockDelta,
		Index: 0,
		Delta: &types.EventDelta{Text: text},
	})
}

// applyToolCall routes one tool-call delta to its block. Blocks are opened in
// first-seen order after any text block, keyed by the call ID (or by delta
// position when the upstream omits IDs). Arguments are expected whole per
// delta, so every delta carries the full input object.
func (s *streamState) applyToolCall(pos int, call wireToolCall) []*types.StreamingEvent {
	if call.Function.Name == "" && call.Function.Arguments == "" {
		return nil
	}
	key := call.ID
	if key == "" {
		key = fmt.Sprintf("#%d", pos)
	}
	input := parseArguments(call.Function.Arguments)

	var events []*types.StreamingEvent
	index, open := s.toolBlocks[key]
	if !open {
		block := types.ContentBlock{
			Type:  types.ContentBlockTypeToolUse,
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		}
		index = len(s.blocks)
		s.toolBlocks[key] = index
		s.blocks = append(s.blocks, block)
		s.message.Content = append(s.message.Content, block)
		started := block
		events = append(events, &types.StreamingEvent{
			Type:         types.EventTypeContentBlockStart,
			Index:        index,
			ContentBlock: &started,
		})
	} else {
		s.blocks[index].Input = input
		s.message.Content[index] = s.blocks[index]
	}
	return append(events, &types.StreamingEvent{
		Type:  types.EventTypeContentBlockDelta,
		Index: index,
		Delta: &types.EventDelta{Input: input},
	})
}

// finish closes every open block in ascending index order and emits the
// terminal message_delta/message_stop pair.
func (s *streamState) finish(finishReason string, usage *chatCompletionUsage) []*types.StreamingEvent {
	s.finished = true
	var events []*types.StreamingEvent
	for index := range s.blocks {
		events = append(events, &types.StreamingEvent{
			Type:  types.EventTypeContentBlockStop,
			Index: index,
		})
	}
	s.message.StopReason = toStopReason(finishReason)
	if usage != nil {
		converted := toUsage(usage)
		s.message.Usage = &converted
	}
	events = append(events, &types.StreamingEvent{
		Type:  types.EventTypeMessageDelta,
		Delta: &types.EventDelta{StopReason: *s.message.StopReason},
		Usage: s.message.Usage,
	})
	return append(events, &types.StreamingEvent{Type: types.EventTypeMessageStop})
}
