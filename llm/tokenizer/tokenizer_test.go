package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/colloquy/llm"
)

func TestEstimatorEmptyTextIsZero(t *testing.T) {
	e := NewEstimator()
	assert.Zero(t, e.CountTokens(""))
}

func TestEstimatorNonEmptyTextIsAtLeastOne(t *testing.T) {
	e := NewEstimator()
	assert.GreaterOrEqual(t, e.CountTokens("a"), 1)
	assert.GreaterOrEqual(t, e.CountTokens("!"), 1)
}

func TestEstimatorScalesWithLength(t *testing.T) {
	e := NewEstimator()

	short := e.CountTokens("hello")
	long := e.CountTokens(strings.Repeat("hello ", 100))
	assert.Greater(t, long, short)
}

func TestEstimatorCJKCountsDenser(t *testing.T) {
	e := NewEstimator()

	latin := e.CountTokens(strings.Repeat("a", 30))
	cjk := e.CountTokens(strings.Repeat("中", 30))
	assert.Greater(t, cjk, latin, "CJK text yields more tokens per rune")
}

func TestEstimatorMessageOverhead(t *testing.T) {
	e := NewEstimator()

	content := "some content"
	msg := llm.NewUserMessage(content)
	assert.Equal(t, e.CountTokens(content)+4, e.CountMessageTokens(msg))
}

func TestEstimatorMessagesSum(t *testing.T) {
	e := NewEstimator()

	msgs := []llm.Message{
		llm.NewSystemMessage("you are a helper"),
		llm.NewUserMessage("hello there"),
	}
	want := e.CountMessageTokens(msgs[0]) + e.CountMessageTokens(msgs[1])
	assert.Equal(t, want, e.CountMessagesTokens(msgs))
}

func TestEstimatorMonotonicInPrefix(t *testing.T) {
	e := NewEstimator()
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`[ -~]{0,100}`).Draw(t, "base")
		extra := rapid.StringMatching(`[ -~]{1,50}`).Draw(t, "extra")

		if e.CountTokens(base+extra) < e.CountTokens(base) {
			t.Fatalf("adding text reduced the count: %q + %q", base, extra)
		}
	})
}
