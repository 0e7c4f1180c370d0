// Package filter implements the content filter: a deterministic, pure mapping
// from candidate text to a disposition (allow/block/censor/warn) plus
// possibly-modified content, driven by a configured blocklist.
package filter

import (
	"fmt"
	"strings"
	"unicode"
)

// Action is the disposition applied to a candidate utterance.
type Action string

const (
	ActionAllow  Action = "allow"
	ActionBlock  Action = "block"
	ActionCensor Action = "censor"
	ActionWarn   Action = "warn"
)

// Config configures the filter. A disabled filter or an empty blocklist
// always allows with the original text unchanged.
type Config struct {
	Enabled          bool
	Blocklist        []string
	Action           Action
	RejectionMessage string
	MaskRune         rune
}

// DefaultConfig returns the default filter configuration: censor with '*'.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Action:           ActionCensor,
		RejectionMessage: "[message removed by content filter]",
		MaskRune:         '*',
	}
}

// Result is the outcome of evaluating one candidate text.
type Result struct {
	Allowed bool
	Content string
	Action  Action
	Matched []string
	Message string
}

// Filter evaluates candidate text against a blocklist. It holds no mutable
// state: the same input and configuration always yield the same result.
type Filter struct {
	cfg       Config
	blocklist []string // lower-cased, empty terms removed
}

// New creates a Filter. Blocklist terms are matched case-insensitively.
func New(cfg Config) *Filter {
	if cfg.Action == "" {
		cfg.Action = ActionCensor
	}
	if cfg.RejectionMessage == "" {
		cfg.RejectionMessage = DefaultConfig().RejectionMessage
	}
	if cfg.MaskRune == 0 {
		cfg.MaskRune = '*'
	}
	lowered := make([]string, 0, len(cfg.Blocklist))
	for _, term := range cfg.Blocklist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lowered = append(lowered, term)
		}
	}
	return &Filter{cfg: cfg, blocklist: lowered}
}

// Evaluate maps raw candidate text to a disposition and content.
func (f *Filter) Evaluate(text string) Result {
	if !f.cfg.Enabled || len(f.blocklist) == 0 {
		return Result{Allowed: true, Content: text, Action: ActionAllow}
	}

	lower := strings.ToLower(text)
	var matched []string
	for _, term := range f.blocklist {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) == 0 {
		return Result{Allowed: true, Content: text, Action: ActionAllow}
	}

	switch f.cfg.Action {
	case ActionBlock:
		return Result{
			Allowed: false,
			Content: f.cfg.RejectionMessage,
			Action:  ActionBlock,
			Matched: matched,
			Message: fmt.Sprintf("blocked content matching: %s", strings.Join(matched, ", ")),
		}
	case ActionWarn:
		return Result{
			Allowed: true,
			Content: text,
			Action:  ActionWarn,
			Matched: matched,
			Message: fmt.Sprintf("content matched blocklist terms: %s", strings.Join(matched, ", ")),
		}
	default: // censor
		return Result{
			Allowed: true,
			Content: f.censor(text, matched),
			Action:  ActionCensor,
			Matched: matched,
			Message: fmt.Sprintf("censored terms: %s", strings.Join(matched, ", ")),
		}
	}
}

// censor replaces every case-insensitive occurrence of each matched term with
// a mask of equal rune length, preserving overall text length.
func (f *Filter) censor(text string, terms []string) string {
	runes := []rune(text)
	// Lowercase rune-by-rune so indexes stay aligned with the original.
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	for _, term := range terms {
		termRunes := []rune(term)
		for i := 0; i+len(termRunes) <= len(lower); i++ {
			if string(lower[i:i+len(termRunes)]) != term {
				continue
			}
			for j := 0; j < len(termRunes); j++ {
				runes[i+j] = f.cfg.MaskRune
				lower[i+j] = f.cfg.MaskRune
			}
			i += len(termRunes) - 1
		}
	}
	return string(runes)
}
