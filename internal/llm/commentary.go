package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/factorlab/screener/internal/core"
	"github.com/factorlab/screener/internal/report"
	"go.uber.org/zap"
)

const commentarySystem = "You are an equity research assistant. " +
	"Given cross-sectional factor scores for a stock universe, write a short, " +
	"factual summary (3-5 sentences) of which names screen well and poorly on " +
	"value, profitability, and growth. Do not give investment advice."

// Commentator turns a finished report into a short natural-language
// summary via the configured LLM provider.
type Commentator struct {
	provider  Provider
	maxTokens int
	log       *zap.Logger
}

// NewCommentator wires a provider. A nil logger is replaced with a
// no-op one.
func NewCommentator(provider Provider, log *zap.Logger) *Commentator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Commentator{provider: provider, maxTokens: 1024, log: log}
}

// Generate produces commentary for the report. Failures here never
// abort a run; callers log the error and ship the report without
// commentary.
func (c *Commentator) Generate(ctx context.Context, rep report.Report) (string, error) {
	resp, err := c.provider.Complete(ctx, Request{
		System:    commentarySystem,
		Prompt:    commentaryPrompt(rep),
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", core.WrapError(core.ErrLLMFailed, err)
	}

	c.log.Debug("commentary generated",
		zap.String("provider", c.provider.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))

	return strings.TrimSpace(resp.Content), nil
}

func commentaryPrompt(rep report.Report) string {
	var b strings.Builder
	b.WriteString("Factor screen results (composite z-scores; blank means not scored):\n\n")
	b.WriteString("ticker | weight | value | profitability | growth\n")

	for _, row := range rep.Rows {
		fmt.Fprintf(&b, "%s | %.3f | %s | %s | %s\n",
			row.Symbol, row.Weight,
			compositeCell(row.ValueScore),
			compositeCell(row.ProfitabilityScore),
			compositeCell(row.GrowthScore))
	}

	if len(rep.Failures) > 0 {
		b.WriteString("\nTickers with no data:")
		for _, f := range rep.Failures {
			fmt.Fprintf(&b, " %s", f.Symbol)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func compositeCell(gs *core.GroupScore) string {
	if gs == nil || gs.Composite == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *gs.Composite)
}
