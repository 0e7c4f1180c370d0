package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/BaSui01/colloquy/types"
)

// ToolFunc executes one tool call.
type ToolFunc func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// ToolRegistry holds the tools available to the conversation. Which of them a
// given persona may actually invoke is decided by the persona's allow-list,
// enforced in the runtime, not here.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]ToolFunc
	schemas map[string]types.ToolSchema
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:   make(map[string]ToolFunc),
		schemas: make(map[string]types.ToolSchema),
	}
}

// Register adds a tool. Re-registering a name replaces the previous handler.
func (r *ToolRegistry) Register(schema types.ToolSchema, fn ToolFunc) error {
	if schema.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if fn == nil {
		return fmt.Errorf("tool %q: handler is required", schema.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[schema.Name] = fn
	r.schemas[schema.Name] = schema
	return nil
}

// Schemas returns the schemas for the named tools, skipping unknown names.
func (r *ToolRegistry) Schemas(names []string) []types.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ToolSchema, 0, len(names))
	for _, name := range names {
		if s, ok := r.schemas[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Execute runs the named tool.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}
	return fn(ctx, args)
}
