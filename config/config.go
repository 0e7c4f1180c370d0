// Package config loads the colloquy configuration from defaults, a YAML file
// and environment variable overrides, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/colloquy/agent"
	"github.com/BaSui01/colloquy/filter"
)

// Config is the complete colloquy configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Session   SessionConfig   `yaml:"session" env:"SESSION"`
	Filter    FilterConfig    `yaml:"filter" env:"FILTER"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`
	TTS       TTSConfig       `yaml:"tts" env:"TTS"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`

	// Personas defines the conversation roster, in turn order.
	Personas []agent.Persona `yaml:"personas" env:"-"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// SessionConfig configures the conversation loop.
type SessionConfig struct {
	// Mode is solo or peer.
	Mode string `yaml:"mode" env:"MODE"`
	// HistoryMaxMessages triggers history compression past this length.
	HistoryMaxMessages int `yaml:"history_max_messages" env:"HISTORY_MAX_MESSAGES"`
	// LastMessages bounds the recent window reported by status.
	LastMessages int `yaml:"last_messages" env:"LAST_MESSAGES"`
	// BaseTurnDelay is the inter-turn pause at rate 1.0.
	BaseTurnDelay time.Duration `yaml:"base_turn_delay" env:"BASE_TURN_DELAY"`
	// MinRate and MaxRate clamp the pacing multiplier.
	MinRate float64 `yaml:"min_rate" env:"MIN_RATE"`
	MaxRate float64 `yaml:"max_rate" env:"MAX_RATE"`
	// DelayFloor bounds how short the inter-turn delay can get.
	DelayFloor time.Duration `yaml:"delay_floor" env:"DELAY_FLOOR"`
}

// FilterConfig configures the content filter.
type FilterConfig struct {
	Enabled   bool     `yaml:"enabled" env:"ENABLED"`
	Blocklist []string `yaml:"blocklist" env:"BLOCKLIST"`
	// Action is one of block, censor, warn.
	Action           string `yaml:"action" env:"ACTION"`
	RejectionMessage string `yaml:"rejection_message" env:"REJECTION_MESSAGE"`
	Mask             string `yaml:"mask" env:"MASK"`
}

// LLMConfig configures the chat provider.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	Model    string        `yaml:"model" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// EmbeddingConfig configures the embedder backing long-term memory.
type EmbeddingConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// RedisConfig configures the transcript store. Disabled when Addr is empty.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	// TranscriptTTL expires idle transcripts; zero keeps them forever.
	TranscriptTTL time.Duration `yaml:"transcript_ttl" env:"TRANSCRIPT_TTL"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Session: SessionConfig{
			Mode:               "peer",
			HistoryMaxMessages: 40,
			LastMessages:       8,
			BaseTurnDelay:      2 * time.Second,
			MinRate:            0.1,
			MaxRate:            5.0,
			DelayFloor:         50 * time.Millisecond,
		},
		Filter: FilterConfig{
			Enabled: true,
			Action:  string(filter.ActionCensor),
			Mask:    "*",
		},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "https://api.openai.com",
			Model:   "text-embedding-3-small",
			Timeout: 30 * time.Second,
		},
		TTS: TTSConfig{
			BaseURL: "https://api.openai.com",
			Model:   "tts-1",
			Timeout: 60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "colloquy",
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Validate checks the configuration for problems a run would trip over.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	switch c.Session.Mode {
	case "solo", "peer":
	default:
		errs = append(errs, fmt.Sprintf("unknown session mode %q", c.Session.Mode))
	}
	if c.Session.MinRate <= 0 || c.Session.MaxRate < c.Session.MinRate {
		errs = append(errs, "session rate bounds must satisfy 0 < min_rate <= max_rate")
	}

	switch filter.Action(c.Filter.Action) {
	case filter.ActionBlock, filter.ActionCensor, filter.ActionWarn, "":
	default:
		errs = append(errs, fmt.Sprintf("unknown filter action %q", c.Filter.Action))
	}

	if len(c.Personas) == 0 {
		errs = append(errs, "at least one persona is required")
	}
	seen := make(map[string]bool, len(c.Personas))
	for i, p := range c.Personas {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Sprintf("persona %d: name is required", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("persona %q: duplicate name", p.Name))
		}
		seen[p.Name] = true
		if strings.TrimSpace(p.SystemPrompt) == "" {
			errs = append(errs, fmt.Sprintf("persona %q: system_prompt is required", p.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// FilterConfig converts the section into the filter package's configuration.
func (c *Config) FilterConfigValue() filter.Config {
	mask := '*'
	if c.Filter.Mask != "" {
		mask = []rune(c.Filter.Mask)[0]
	}
	return filter.Config{
		Enabled:          c.Filter.Enabled,
		Blocklist:        c.Filter.Blocklist,
		Action:           filter.Action(c.Filter.Action),
		RejectionMessage: c.Filter.RejectionMessage,
		MaskRune:         mask,
	}
}
