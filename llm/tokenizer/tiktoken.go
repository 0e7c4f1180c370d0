package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/llm"
)

// Tiktoken is a precise Tokenizer backed by tiktoken encodings. When the
// encoder fails it falls back to character estimation and logs a warning, so
// callers never observe an error.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	fallback *Estimator
	logger   *zap.Logger
}

// NewTiktoken creates a tiktoken-backed Tokenizer for the given model
// (e.g. "gpt-4o", "gpt-3.5-turbo").
func NewTiktoken(model string, logger *zap.Logger) (*Tiktoken, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("create tiktoken encoder: %w", err)
	}
	return &Tiktoken{
		enc:      enc,
		fallback: NewEstimator(),
		logger:   logger.With(zap.String("component", "tokenizer_tiktoken")),
	}, nil
}

func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(t.enc.Encode(text, nil, nil))
	if n == 0 {
		n = t.fallback.CountTokens(text)
		t.logger.Debug("tiktoken returned no tokens, using estimate", zap.Int("estimate", n))
	}
	return n
}

func (t *Tiktoken) CountMessageTokens(msg llm.Message) int {
	tokens := messageOverhead
	tokens += t.CountTokens(msg.Content)
	if msg.Name != "" {
		tokens += t.CountTokens(msg.Name)
	}
	for _, tc := range msg.ToolCalls {
		tokens += t.CountTokens(tc.Name)
		tokens += len(tc.Arguments) / 4
	}
	if msg.ToolCallID != "" {
		tokens++
	}
	return tokens
}

func (t *Tiktoken) CountMessagesTokens(msgs []llm.Message) int {
	total := 0
	for _, msg := range msgs {
		total += t.CountMessageTokens(msg)
	}
	return total
}
