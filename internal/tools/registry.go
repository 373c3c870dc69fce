package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coursemind/internal/llm"
	"coursemind/internal/logging"
)

// Registry holds all available tools and provides lookup and dispatch.
// It is thread-safe and supports registration at runtime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool

	// order preserves registration order for stable Definitions output.
	order []string
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. Re-registering a name replaces
// the previous tool; the name keeps its original position in the
// definition order.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if def.Name == "" {
		return ErrToolNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = tool

	logging.ToolsDebug("Registered tool: %s", def.Name)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at startup.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns the wire definitions of all registered tools,
// in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a named invocation. An unknown tool name is reported
// as result data rather than an error so the model can read it and
// recover; registered tool failures propagate as errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		logging.Tools("Unknown tool requested: %s", name)
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	elapsed := time.Since(start)
	if err != nil {
		logging.Tools("Tool %s failed after %s: %v", name, elapsed, err)
		return "", err
	}
	logging.ToolsDebug("Tool %s completed in %s (%d bytes)", name, elapsed, len(result))
	return result, nil
}

// LastSources aggregates the sources recorded by all tracking tools,
// in registration order.
func (r *Registry) LastSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sources []Source
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			sources = append(sources, tracker.LastSources()...)
		}
	}
	return sources
}

// ResetSources clears the recorded sources on all tracking tools.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tool := range r.tools {
		if tracker, ok := tool.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}
