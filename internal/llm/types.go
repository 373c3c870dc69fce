// Package llm provides the client for the answer-generating model.
// The transcript types mirror the Anthropic messages API content-block
// format: text, tool_use, and tool_result blocks.
package llm

import (
	"context"
	"encoding/json"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons reported by the provider.
const (
	StopReasonEndTurn = "end_turn"
	StopReasonToolUse = "tool_use"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock represents one block in a message.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"` // text blocks

	ID    string                 `json:"id,omitempty"`    // tool_use blocks
	Name  string                 `json:"name,omitempty"`  // tool_use blocks
	Input map[string]interface{} `json:"input,omitempty"` // tool_use blocks

	ToolUseID string `json:"tool_use_id,omitempty"` // tool_result blocks
	Content   string `json:"content,omitempty"`     // tool_result blocks
	IsError   bool   `json:"is_error,omitempty"`    // tool_result blocks
}

// MarshalJSON emits tool_use blocks with an explicit input object. The
// messages API requires the input field even when the model called the
// tool with no arguments, which omitempty would otherwise drop.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if b.Type == BlockToolUse {
		input := b.Input
		if input == nil {
			input = map[string]interface{}{}
		}
		return json.Marshal(struct {
			Type  string                 `json:"type"`
			ID    string                 `json:"id"`
			Name  string                 `json:"name"`
			Input map[string]interface{} `json:"input"`
		}{b.Type, b.ID, b.Name, input})
	}
	type plain ContentBlock
	return json.Marshal(plain(b))
}

// Message is one turn in the transcript.
type Message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// TextMessage builds a single-text-block message.
func TextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	}
}

// ToolDefinition describes a tool the model can invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// Usage captures token usage metrics.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is one model reply: ordered content blocks plus the stop reason
// that tells the caller whether the model chose to use a tool.
type Response struct {
	Content    []ContentBlock
	StopReason string
	Usage      Usage
}

// FirstText returns the first text block's content, or "" if none exists.
func (r *Response) FirstText() (string, bool) {
	for _, block := range r.Content {
		if block.Type == BlockText {
			return block.Text, true
		}
	}
	return "", false
}

// ToolCalls returns the tool_use blocks in content order.
func (r *Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	return calls
}

// Client is the interface the generation controller depends on. Tools may be
// nil, which forbids tool use for that call.
type Client interface {
	Converse(ctx context.Context, system string, messages []Message, tools []ToolDefinition) (*Response, error)
}
