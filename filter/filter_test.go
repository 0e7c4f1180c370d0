package filter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDisabledFilterAllowsEverything(t *testing.T) {
	f := New(Config{Enabled: false, Blocklist: []string{"bad"}, Action: ActionBlock})

	res := f.Evaluate("this is bad")
	assert.True(t, res.Allowed)
	assert.Equal(t, "this is bad", res.Content)
	assert.Equal(t, ActionAllow, res.Action)
}

func TestEmptyBlocklistAllowsEverything(t *testing.T) {
	f := New(Config{Enabled: true, Action: ActionBlock})

	res := f.Evaluate("anything at all")
	assert.True(t, res.Allowed)
	assert.Equal(t, ActionAllow, res.Action)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		text        string
		wantAllowed bool
		wantContent string
		wantAction  Action
	}{
		{
			name:        "clean text allowed",
			cfg:         Config{Enabled: true, Blocklist: []string{"badword"}, Action: ActionBlock},
			text:        "a perfectly fine sentence",
			wantAllowed: true,
			wantContent: "a perfectly fine sentence",
			wantAction:  ActionAllow,
		},
		{
			name:        "block replaces content with rejection",
			cfg:         Config{Enabled: true, Blocklist: []string{"badword"}, Action: ActionBlock, RejectionMessage: "removed"},
			text:        "contains badword here",
			wantAllowed: false,
			wantContent: "removed",
			wantAction:  ActionBlock,
		},
		{
			name:        "matching is case-insensitive",
			cfg:         Config{Enabled: true, Blocklist: []string{"badword"}, Action: ActionBlock, RejectionMessage: "removed"},
			text:        "contains BadWord here",
			wantAllowed: false,
			wantContent: "removed",
			wantAction:  ActionBlock,
		},
		{
			name:        "censor masks the term",
			cfg:         Config{Enabled: true, Blocklist: []string{"secret"}, Action: ActionCensor, MaskRune: '*'},
			text:        "the secret plan",
			wantAllowed: true,
			wantContent: "the ****** plan",
			wantAction:  ActionCensor,
		},
		{
			name:        "censor masks mixed case occurrences",
			cfg:         Config{Enabled: true, Blocklist: []string{"secret"}, Action: ActionCensor, MaskRune: '*'},
			text:        "SECRET and Secret and secret",
			wantAllowed: true,
			wantContent: "****** and ****** and ******",
			wantAction:  ActionCensor,
		},
		{
			name:        "warn passes content through",
			cfg:         Config{Enabled: true, Blocklist: []string{"iffy"}, Action: ActionWarn},
			text:        "a bit iffy maybe",
			wantAllowed: true,
			wantContent: "a bit iffy maybe",
			wantAction:  ActionWarn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.cfg).Evaluate(tt.text)
			assert.Equal(t, tt.wantAllowed, res.Allowed)
			assert.Equal(t, tt.wantContent, res.Content)
			assert.Equal(t, tt.wantAction, res.Action)
		})
	}
}

func TestEvaluateReportsAllMatches(t *testing.T) {
	f := New(Config{Enabled: true, Blocklist: []string{"alpha", "beta"}, Action: ActionWarn})

	res := f.Evaluate("alpha and beta both appear")
	assert.ElementsMatch(t, []string{"alpha", "beta"}, res.Matched)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	f := New(Config{Enabled: true, Blocklist: []string{"x"}, Action: ActionCensor, MaskRune: '*'})

	first := f.Evaluate("x marks the spot")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.Evaluate("x marks the spot"))
	}
}

func TestCensorPreservesLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		term := rapid.StringMatching(`[a-z]{2,8}`).Draw(t, "term")
		prefix := rapid.StringMatching(`[ -~]{0,20}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[ -~]{0,20}`).Draw(t, "suffix")
		text := prefix + term + suffix

		f := New(Config{Enabled: true, Blocklist: []string{term}, Action: ActionCensor, MaskRune: '*'})
		res := f.Evaluate(text)

		if utf8.RuneCountInString(res.Content) != utf8.RuneCountInString(text) {
			t.Fatalf("censoring changed length: %q -> %q", text, res.Content)
		}
		if strings.Contains(strings.ToLower(res.Content), term) {
			t.Fatalf("term %q survived censoring in %q", term, res.Content)
		}
	})
}
