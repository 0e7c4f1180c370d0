// Package quick provides a convenience entry point for assembling a
// conversation with minimal boilerplate. It delegates to session.New and
// providers/openaicompat internally.
//
// Usage:
//
//	c, err := quick.New(
//	    quick.WithOpenAI("gpt-4o-mini"),
//	    quick.WithPersona("alice", "You are Alice, a curious physicist."),
//	    quick.WithPersona("bob", "You are Bob, a skeptical economist."),
//	)
//	c.Start("the economics of fusion power")
package quick

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/agent"
	"github.com/BaSui01/colloquy/control"
	"github.com/BaSui01/colloquy/filter"
	"github.com/BaSui01/colloquy/history"
	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/providers/openaicompat"
	"github.com/BaSui01/colloquy/session"
	"github.com/BaSui01/colloquy/types"
)

// Option configures the conversation created by New.
type Option func(*options)

type options struct {
	personas []agent.Persona
	provider llm.Provider
	logger   *zap.Logger
	cfg      session.Config
	filter   *filter.Filter

	// Provider shortcut fields, used when provider is nil.
	baseURL string
	apiKey  string
	model   string
}

// WithProvider sets a pre-built chat provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAI uses the OpenAI API with the given model. The API key is read
// from the OPENAI_API_KEY environment variable.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.baseURL = "https://api.openai.com"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithAPIKey overrides the provider API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithPersona adds one agent to the roster, in turn order.
func WithPersona(name, systemPrompt string) Option {
	return func(o *options) {
		o.personas = append(o.personas, agent.Persona{
			Name:         name,
			SystemPrompt: systemPrompt,
		})
	}
}

// WithBlocklist enables a censoring content filter over the given terms.
func WithBlocklist(terms ...string) Option {
	return func(o *options) {
		o.filter = filter.New(filter.Config{
			Enabled:   true,
			Blocklist: terms,
			Action:    filter.ActionCensor,
		})
	}
}

// WithTurnDelay sets the inter-turn pause at rate 1.0.
func WithTurnDelay(d time.Duration) Option {
	return func(o *options) { o.cfg.BaseTurnDelay = d }
}

// WithLogger sets the logger; defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New assembles a session controller from the options. At least one persona
// and a provider (or an OpenAI shortcut) are required.
func New(opts ...Option) (*session.Controller, error) {
	o := &options{cfg: session.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.personas) == 0 {
		return nil, types.NewConfigError("at least one persona is required")
	}
	if len(o.personas) == 1 {
		o.cfg.Mode = session.ModeSolo
	}

	provider := o.provider
	if provider == nil {
		if o.model == "" {
			return nil, types.NewConfigError("a provider or an OpenAI model is required")
		}
		provider = openaicompat.New(openaicompat.Config{
			Name:    "openai",
			BaseURL: o.baseURL,
			APIKey:  o.apiKey,
			Model:   o.model,
		}, o.logger)
	}

	runtimes := make([]*agent.Runtime, 0, len(o.personas))
	for _, p := range o.personas {
		if p.Model == "" {
			p.Model = o.model
		}
		runtimes = append(runtimes, agent.NewRuntime(p, provider, nil, nil, nil, nil, o.logger))
	}

	return session.New(session.Options{
		Config:  o.cfg,
		Agents:  runtimes,
		Tracker: control.NewTracker(control.Config{}, o.logger),
		Filter:  o.filter,
		Compressor: history.NewCompressor(
			history.NewLLMSummarizer(provider, o.model),
			history.DefaultCompressorConfig(),
			o.logger,
		),
		Logger: o.logger,
	}), nil
}
