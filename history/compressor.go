package history

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/colloquy/llm"
	"github.com/BaSui01/colloquy/types"
)

// SummaryMarker prefixes every synthetic summary message.
const SummaryMarker = "[Summary]"

// SummarizeFunc produces a short summary of the given history slice.
type SummarizeFunc func(ctx context.Context, msgs []types.Message) (string, error)

// CompressorConfig configures session-level compression.
type CompressorConfig struct {
	// MaxMessages triggers compression when the history grows past it.
	MaxMessages int
}

// DefaultCompressorConfig returns the default compression configuration.
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{MaxMessages: 40}
}

// Compressor replaces the oldest half of a session history with a single
// synthetic system message containing an LLM-generated summary. When the
// summarization call fails it degrades to a generic placeholder rather than
// leaving history unbounded.
type Compressor struct {
	summarize SummarizeFunc
	cfg       CompressorConfig
	logger    *zap.Logger
}

// NewCompressor creates a Compressor. summarize may be nil, in which case the
// placeholder is always used.
func NewCompressor(summarize SummarizeFunc, cfg CompressorConfig, logger *zap.Logger) *Compressor {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultCompressorConfig().MaxMessages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{
		summarize: summarize,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "history_compressor")),
	}
}

// ShouldCompress reports whether the history has grown past the threshold.
func (c *Compressor) ShouldCompress(history []types.Message) bool {
	return len(history) > c.cfg.MaxMessages
}

// Compress folds the oldest half of history into one summary message
// prepended to the newer half. Returns the input unchanged (and false) when
// below the threshold. After compression:
//
//	len(result) == 1 + len(history) - summarized
func (c *Compressor) Compress(ctx context.Context, history []types.Message) ([]types.Message, bool) {
	if !c.ShouldCompress(history) {
		return history, false
	}

	half := (len(history) + 1) / 2
	oldest := history[:half]
	rest := history[half:]

	summary := c.generateSummary(ctx, oldest)
	summaryMsg := types.NewSystemMessage(fmt.Sprintf("%s %s", SummaryMarker, summary))

	result := make([]types.Message, 0, len(rest)+1)
	result = append(result, summaryMsg)
	result = append(result, rest...)

	c.logger.Info("history compressed",
		zap.Int("before", len(history)),
		zap.Int("after", len(result)),
		zap.Int("summarized", half))
	return result, true
}

func (c *Compressor) generateSummary(ctx context.Context, msgs []types.Message) string {
	if c.summarize != nil {
		summary, err := c.summarize(ctx, msgs)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		if err != nil {
			c.logger.Warn("summarization failed, using placeholder", zap.Error(err))
		}
	}
	return fmt.Sprintf("[%d previous messages]", len(msgs))
}

// NewLLMSummarizer builds a SummarizeFunc on top of a chat provider. It asks
// for a concise few-sentence summary at a fixed low temperature.
func NewLLMSummarizer(provider llm.Provider, model string) SummarizeFunc {
	return func(ctx context.Context, msgs []types.Message) (string, error) {
		var sb strings.Builder
		for _, m := range msgs {
			sb.WriteString(m.Sender)
			sb.WriteString(": ")
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}

		req := &llm.ChatRequest{
			Model: model,
			Messages: []llm.Message{
				llm.NewSystemMessage("Summarize the following conversation in a few concise sentences. Keep the key points and decisions."),
				llm.NewUserMessage(sb.String()),
			},
			Temperature: 0.2,
			MaxTokens:   256,
		}

		resp, err := provider.Completion(ctx, req)
		if err != nil {
			return "", err
		}
		text := llm.FirstText(resp)
		if text == "" {
			return "", fmt.Errorf("summarization returned empty response")
		}
		return text, nil
	}
}
