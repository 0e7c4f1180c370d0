// Package tokenizer provides approximate and precise token counting used for
// context budget enforcement. Exactness is not required, only monotonic
// behavior adequate for trimming decisions.
package tokenizer

import (
	"github.com/BaSui01/colloquy/llm"
)

// Tokenizer counts tokens for budget enforcement.
type Tokenizer interface {
	// CountTokens returns the token count of a text fragment. Non-empty
	// strings count as at least 1.
	CountTokens(text string) int

	// CountMessageTokens counts one chat message including role/name overhead.
	CountMessageTokens(msg llm.Message) int

	// CountMessagesTokens counts a message list.
	CountMessagesTokens(msgs []llm.Message) int
}

const (
	// Average 1 token per ~4 chars for Latin text, ~1.5 for CJK.
	latinCharsPerToken = 4.0
	cjkCharsPerToken   = 1.5

	// Fixed per-message overhead for role and formatting.
	messageOverhead = 4
)

// Estimator is a character-count based Tokenizer. It needs no encoding data
// and works for any model.
type Estimator struct{}

// NewEstimator creates an estimate-based Tokenizer.
func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	var cjk, latin int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			cjk++
		} else {
			latin++
		}
	}

	tokens := float64(cjk)/cjkCharsPerToken + float64(latin)/latinCharsPerToken
	return int(tokens) + 1 // minimum 1 for non-empty input
}

func (e *Estimator) CountMessageTokens(msg llm.Message) int {
	tokens := messageOverhead
	tokens += e.CountTokens(msg.Content)
	if msg.Name != "" {
		tokens += e.CountTokens(msg.Name)
	}
	for _, tc := range msg.ToolCalls {
		tokens += e.CountTokens(tc.Name)
		tokens += len(tc.Arguments) / 4
	}
	if msg.ToolCallID != "" {
		tokens++
	}
	return tokens
}

func (e *Estimator) CountMessagesTokens(msgs []llm.Message) int {
	total := 0
	for _, msg := range msgs {
		total += e.CountMessageTokens(msg)
	}
	return total
}
