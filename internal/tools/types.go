package tools

import (
	"context"

	"coursemind/internal/llm"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolSchema defines the JSON schema for tool arguments.
// This enables LLM tool calling with proper validation.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// InputSchema renders the schema in the wire shape the messages API expects.
func (s ToolSchema) InputSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Tool is a capability the model can invoke during generation.
// Execute returns the result string handed back to the model; an error
// means the tool itself failed, not that it found nothing.
type Tool interface {
	Definition() llm.ToolDefinition
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Source is a citation surfaced to the user alongside an answer.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// SourceTracker is implemented by tools that record where their results
// came from. Sources accumulate per execution until reset.
type SourceTracker interface {
	LastSources() []Source
	ResetSources()
}
