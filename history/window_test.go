package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/llm/tokenizer"
)

func msgsOfLen(n int) []llm.Message {
	out := make([]llm.Message, n)
	out[0] = llm.NewSystemMessage("system prompt")
	for i := 1; i < n; i++ {
		out[i] = llm.NewUserMessage(fmt.Sprintf("message number %d with some padding text", i))
	}
	return out
}

func TestTrimToBudgetNoopWhenUnderBudget(t *testing.T) {
	tok := tokenizer.NewEstimator()
	msgs := msgsOfLen(3)

	trimmed := TrimToBudget(msgs, 100000, tok)
	assert.Equal(t, msgs, trimmed)
}

func TestTrimToBudgetEvictsSecondOldestFirst(t *testing.T) {
	tok := tokenizer.NewEstimator()
	msgs := msgsOfLen(10)
	budget := tok.CountMessagesTokens(msgs) - 1

	trimmed := TrimToBudget(msgs, budget, tok)

	require.Less(t, len(trimmed), len(msgs))
	assert.Equal(t, msgs[0], trimmed[0], "first message must survive")
	assert.Equal(t, msgs[2], trimmed[1], "index 1 is evicted first")
	assert.Equal(t, msgs[len(msgs)-1], trimmed[len(trimmed)-1], "newest message survives")
}

func TestTrimToBudgetNeverEvictsFirstMessage(t *testing.T) {
	tok := tokenizer.NewEstimator()
	msgs := msgsOfLen(5)

	// Budget too small even for the first message alone.
	trimmed := TrimToBudget(msgs, 1, tok)
	require.Len(t, trimmed, 1)
	assert.Equal(t, msgs[0], trimmed[0])
}

func TestTrimToBudgetDoesNotMutateInput(t *testing.T) {
	tok := tokenizer.NewEstimator()
	msgs := msgsOfLen(6)
	orig := make([]llm.Message, len(msgs))
	copy(orig, msgs)

	TrimToBudget(msgs, 10, tok)
	assert.Equal(t, orig, msgs)
}

func TestTrimToBudgetProperties(t *testing.T) {
	tok := tokenizer.NewEstimator()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		budget := rapid.IntRange(1, 2000).Draw(t, "budget")
		msgs := msgsOfLen(n)

		trimmed := TrimToBudget(msgs, budget, tok)

		if len(trimmed) == 0 {
			t.Fatal("trim must keep at least one message")
		}
		if trimmed[0].Role != msgs[0].Role || trimmed[0].Content != msgs[0].Content {
			t.Fatal("first message must survive")
		}
		if len(trimmed) > 1 && tok.CountMessagesTokens(trimmed) > budget {
			t.Fatalf("still over budget with %d messages", len(trimmed))
		}
	})
}
