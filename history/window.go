// Package history bounds conversational context: per-turn prompt trimming
// against a token budget, and session-level compression that folds the oldest
// half of the history into one synthetic summary message.
package history

import (
	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/llm/tokenizer"
)

// TrimToBudget removes messages until the approximate token count fits within
// maxTokens, or only one message remains. The first message is never evicted
// (it carries the system prompt); the second-oldest goes first, so the most
// recent context survives under pressure.
func TrimToBudget(msgs []llm.Message, maxTokens int, tok tokenizer.Tokenizer) []llm.Message {
	if maxTokens <= 0 || len(msgs) <= 1 {
		return msgs
	}

	trimmed := make([]llm.Message, len(msgs))
	copy(trimmed, msgs)

	for len(trimmed) > 1 && tok.CountMessagesTokens(trimmed) > maxTokens {
		trimmed = append(trimmed[:1], trimmed[2:]...)
	}
	return trimmed
}
