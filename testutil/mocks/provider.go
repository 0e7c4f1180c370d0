// Package mocks provides test doubles for the chat provider, memory store,
// speech synthesizer and embedder interfaces.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/types"
)

// ScriptedProvider replays a fixed sequence of responses. After the script is
// exhausted it keeps returning the last entry, so long-running session loops
// do not need scripts sized to the exact turn count.
type ScriptedProvider struct {
	mu       sync.Mutex
	script   []scriptEntry
	next     int
	delay    time.Duration
	requests []*llm.ChatRequest
}

type scriptEntry struct {
	text      string
	toolCalls []types.ToolCall
	err       error
}

// NewScriptedProvider creates a provider that answers with the given texts in
// order.
func NewScriptedProvider(texts ...string) *ScriptedProvider {
	p := &ScriptedProvider{}
	for _, t := range texts {
		p.script = append(p.script, scriptEntry{text: t})
	}
	return p
}

// WithToolCalls appends a response that requests the given tool calls.
func (p *ScriptedProvider) WithToolCalls(calls ...types.ToolCall) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, scriptEntry{toolCalls: calls})
	return p
}

// WithText appends a plain text response.
func (p *ScriptedProvider) WithText(text string) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, scriptEntry{text: text})
	return p
}

// WithError appends a failing response.
func (p *ScriptedProvider) WithError(err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, scriptEntry{err: err})
	return p
}

// WithDelay makes every completion wait before answering, honoring
// cancellation. Useful for pause/stop mid-turn tests.
func (p *ScriptedProvider) WithDelay(d time.Duration) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// Completion implements llm.Provider.
func (p *ScriptedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	var entry scriptEntry
	if len(p.script) > 0 {
		idx := p.next
		if idx >= len(p.script) {
			idx = len(p.script) - 1
		}
		entry = p.script[idx]
		p.next++
	}
	delay := p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if entry.err != nil {
		return nil, entry.err
	}

	return &llm.ChatResponse{
		Model: req.Model,
		Choices: []llm.ChatChoice{{
			Message: llm.Message{
				Role:      llm.RoleAssistant,
				Content:   entry.text,
				ToolCalls: entry.toolCalls,
			},
		}},
	}, nil
}

// Name implements llm.Provider.
func (p *ScriptedProvider) Name() string { return "scripted" }

// Calls returns how many completions were requested.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of every recorded request.
func (p *ScriptedProvider) Requests() []*llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (p *ScriptedProvider) LastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}
