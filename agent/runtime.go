package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/history"
	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/llm/speech"
	"github.com/BaSui01/colloquy/llm/tokenizer"
	"github.com/BaSui01/colloquy/memory"
	"github.com/BaSui01/colloquy/types"
)

// PlaceholderResponse is returned when generation fails or yields nothing;
// the loop continues rather than aborting the session.
const PlaceholderResponse = "..."

// memoryQueryTurns is how many recent history turns season the retrieval query.
const memoryQueryTurns = 3

// Utterance is one generated response.
type Utterance struct {
	Text  string
	Audio string // path of synthesized speech, empty when voice is off or failed
}

// Runtime wraps one persona and produces its utterances. Memory writes are
// NOT performed during Generate; the session controller calls RememberMessage
// explicitly to keep write ordering under its control.
type Runtime struct {
	persona  Persona
	provider llm.Provider
	store    memory.Store       // nil disables retrieval and writes
	tts      speech.Synthesizer // nil disables voice
	tools    *ToolRegistry      // nil disables tool calling
	tok      tokenizer.Tokenizer
	logger   *zap.Logger
}

// NewRuntime creates a runtime for the persona.
func NewRuntime(persona Persona, provider llm.Provider, store memory.Store, tts speech.Synthesizer, tools *ToolRegistry, tok tokenizer.Tokenizer, logger *zap.Logger) *Runtime {
	if tok == nil {
		tok = tokenizer.NewEstimator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		persona:  persona,
		provider: provider,
		store:    store,
		tts:      tts,
		tools:    tools,
		tok:      tok,
		logger:   logger.With(zap.String("component", "agent_runtime"), zap.String("agent", persona.Name)),
	}
}

// Name returns the persona's internal identifier.
func (r *Runtime) Name() string { return r.persona.Name }

// DisplayName returns the persona's display name.
func (r *Runtime) DisplayName() string { return r.persona.Display() }

// Persona returns the persona configuration.
func (r *Runtime) Persona() Persona { return r.persona }

// Generate produces the persona's next utterance for the topic and history.
// It always returns non-empty text; provider and voice failures degrade
// locally instead of propagating.
func (r *Runtime) Generate(ctx context.Context, topic string, hist []types.Message) Utterance {
	text := r.generateText(ctx, topic, hist)
	if strings.TrimSpace(text) == "" {
		text = PlaceholderResponse
	}

	audio := ""
	if r.tts != nil && r.persona.Voice.Enabled && text != PlaceholderResponse {
		audio = r.synthesize(ctx, text)
	}
	return Utterance{Text: text, Audio: audio}
}

func (r *Runtime) generateText(ctx context.Context, topic string, hist []types.Message) string {
	msgs := r.buildPrompt(ctx, topic, hist)

	req := &llm.ChatRequest{
		Model:       r.persona.Model,
		Messages:    msgs,
		Temperature: r.persona.Temperature,
		MaxTokens:   r.persona.MaxTokens,
	}
	if r.tools != nil && len(r.persona.AllowedTools) > 0 {
		req.Tools = r.tools.Schemas(r.persona.AllowedTools)
	}

	resp, err := r.provider.Completion(ctx, req)
	if err != nil {
		r.logger.Warn("generation failed", zap.Error(err))
		return ""
	}

	reply, ok := llm.FirstMessage(resp)
	if !ok {
		return ""
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content
	}
	return r.resolveToolCalls(ctx, req, reply)
}

// resolveToolCalls executes (or rejects) the requested tools and issues a
// follow-up completion with the same sampling parameters so the model can
// phrase a natural-language response around the results.
func (r *Runtime) resolveToolCalls(ctx context.Context, req *llm.ChatRequest, reply llm.Message) string {
	results := make([]types.ToolResult, 0, len(reply.ToolCalls))
	for _, tc := range reply.ToolCalls {
		results = append(results, r.runTool(ctx, tc))
	}

	followup := *req
	followup.Messages = append(append([]llm.Message{}, req.Messages...), reply)
	for _, tr := range results {
		followup.Messages = append(followup.Messages, llm.NewToolMessage(tr.ToolCallID, tr.Name, tr.Text()))
	}
	// No tools on the follow-up turn: we want text, not another round.
	followup.Tools = nil
	followup.ToolChoice = ""

	resp, err := r.provider.Completion(ctx, &followup)
	if err != nil {
		r.logger.Warn("tool follow-up failed", zap.Error(err))
		return ""
	}
	return llm.FirstText(resp)
}

// runTool enforces the allow-list absolutely: a tool name outside the
// persona's set is rejected before execution regardless of what the model
// requested. Failures become result text; the conversation continues.
func (r *Runtime) runTool(ctx context.Context, tc types.ToolCall) types.ToolResult {
	start := time.Now()
	res := types.ToolResult{ToolCallID: tc.ID, Name: tc.Name}

	if !r.persona.ToolAllowed(tc.Name) {
		r.logger.Warn("unauthorized tool rejected", zap.String("tool", tc.Name))
		res.Error = fmt.Sprintf("tool %q is not allowed for this agent", tc.Name)
		res.Duration = time.Since(start)
		return res
	}

	out, err := r.tools.Execute(ctx, tc.Name, tc.Arguments)
	res.Duration = time.Since(start)
	if err != nil {
		r.logger.Warn("tool execution failed", zap.String("tool", tc.Name), zap.Error(err))
		res.Error = fmt.Sprintf("tool %q failed: %s", tc.Name, err.Error())
		return res
	}
	res.Result = out
	return res
}

// buildPrompt assembles system prompt + memory retrieval + rendered history
// + respond-as instruction, trimmed to the persona's context budget.
func (r *Runtime) buildPrompt(ctx context.Context, topic string, hist []types.Message) []llm.Message {
	system := r.persona.FullPrompt()
	if memories := r.recall(ctx, topic, hist); len(memories) > 0 {
		var sb strings.Builder
		sb.WriteString(system)
		sb.WriteString("\n\nRelevant memories:\n")
		for _, m := range memories {
			sb.WriteString("- ")
			sb.WriteString(m.Text)
			sb.WriteString("\n")
		}
		system = sb.String()
	}

	var user strings.Builder
	user.WriteString("Topic: ")
	user.WriteString(topic)
	user.WriteString("\n\nConversation so far:\n")
	if len(hist) == 0 {
		user.WriteString("(no messages yet)\n")
	}
	for _, m := range hist {
		user.WriteString(m.Sender)
		user.WriteString(": ")
		user.WriteString(m.Content)
		user.WriteString("\n")
	}
	user.WriteString("\nRespond as ")
	user.WriteString(r.persona.Display())
	user.WriteString(".")

	msgs := []llm.Message{
		llm.NewSystemMessage(system),
		llm.NewUserMessage(user.String()),
	}
	if r.persona.MaxContextTokens > 0 {
		msgs = history.TrimToBudget(msgs, r.persona.MaxContextTokens, r.tok)
	}
	return msgs
}

// recall queries the persona's memory namespace; failures are treated as "no
// relevant memories".
func (r *Runtime) recall(ctx context.Context, topic string, hist []types.Message) []types.MemoryEntry {
	if r.store == nil || r.persona.MemoryTopK <= 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(topic)
	start := len(hist) - memoryQueryTurns
	if start < 0 {
		start = 0
	}
	for _, m := range hist[start:] {
		sb.WriteString("\n")
		sb.WriteString(m.Content)
	}

	entries, err := r.store.Query(ctx, sb.String(), r.persona.MemoryTopK, memory.Filter{AgentID: r.persona.Name})
	if err != nil {
		r.logger.Warn("memory query failed", zap.Error(err))
		return nil
	}
	return entries
}

// RememberMessage appends one entry to this agent's memory namespace.
// Fire-and-forget: failures are logged and never propagated to the turn loop.
func (r *Runtime) RememberMessage(ctx context.Context, sender, content, sessionID, topic string) {
	if r.store == nil {
		return
	}
	entry := types.MemoryEntry{
		Text:      fmt.Sprintf("%s: %s", sender, content),
		SessionID: sessionID,
		AgentID:   r.persona.Name,
		Topic:     topic,
		Tags:      []string{sender},
	}
	if err := r.store.Add(ctx, entry); err != nil {
		r.logger.Warn("memory write dropped",
			zap.String("sender", sender),
			zap.Error(err))
	}
}

// PurgeMemory deletes this agent's long-term memory, optionally restricted to
// one session. This is the explicit purge operation; clearing a session's
// history never touches long-term memory.
func (r *Runtime) PurgeMemory(ctx context.Context, sessionID string) error {
	if r.store == nil {
		return nil
	}
	return r.store.Clear(ctx, memory.Filter{AgentID: r.persona.Name, SessionID: sessionID})
}

func (r *Runtime) synthesize(ctx context.Context, text string) string {
	format := r.persona.Voice.Format
	if format == "" {
		format = "mp3"
	}
	dir := r.persona.Voice.OutputDir
	if dir == "" {
		dir = "audio"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", r.persona.Name, uuid.NewString(), format))

	err := r.tts.SynthesizeToFile(ctx, &speech.Request{
		Text:   text,
		Voice:  r.persona.Voice.Voice,
		Model:  r.persona.Voice.Model,
		Format: format,
	}, path)
	if err != nil {
		// Voice failure must never fail the turn.
		r.logger.Warn("speech synthesis failed", zap.Error(err))
		return ""
	}
	return path
}
