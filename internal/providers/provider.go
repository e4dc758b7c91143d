// Package providers implements the per-provider extraction adapters and the
// registry that dispatches to them.
package providers

import (
	"context"
	"time"

	"github.com/minjae-lee/settlescan/internal/pages"
)

// Provider identifies one of the supported extraction services.
type Provider string

const (
	Gemini  Provider = "gemini"
	OpenAI  Provider = "openai"
	Upstage Provider = "upstage"
)

// All returns every supported provider in display order.
func All() []Provider {
	return []Provider{Gemini, OpenAI, Upstage}
}

// Valid reports whether p names a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case Gemini, OpenAI, Upstage:
		return true
	}
	return false
}

// Models returns the fixed model list for a provider. The first entry is the
// provider's default model.
func (p Provider) Models() []string {
	switch p {
	case Gemini:
		return []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-2.5-flash", "gemini-2.5-pro"}
	case OpenAI:
		return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"}
	case Upstage:
		return []string{"solar-pro", "document-parse"}
	}
	return nil
}

// DefaultModel returns the provider's default model id.
func (p Provider) DefaultModel() string {
	models := p.Models()
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// HasModel reports whether model belongs to the provider's fixed model list.
func (p Provider) HasModel(model string) bool {
	for _, m := range p.Models() {
		if m == model {
			return true
		}
	}
	return false
}

// Extractor is the capability every provider adapter implements: turn one
// page image into a best-effort raw field object.
type Extractor interface {
	// Name returns the provider identifier.
	Name() Provider

	// Extract sends the page to the provider and returns the raw decoded
	// answer. Failures are classified (see Error) so the orchestrator can
	// attribute them per page.
	Extract(ctx context.Context, page *pages.Page, model string) (*Result, error)
}

// Result is the raw outcome of one provider call, before normalization.
type Result struct {
	// Raw is the decoded field object handed to record.Normalize.
	Raw map[string]any

	// RawText is the provider's answer text, kept for token estimation and
	// call auditing.
	RawText string

	// Provider and Model record what produced this result.
	Provider Provider
	Model    string

	// Duration is the wall time of the provider call.
	Duration time.Duration

	// Token estimates. Providers do not consistently report usage for these
	// endpoints, so input is approximated from the image plus instruction
	// length and output from the answer length.
	InputTokens  int
	OutputTokens int
}

// imageTokenBase approximates the token cost of one inline page image.
const imageTokenBase = 1000

// estimateInputTokens approximates tokens for an image-plus-instruction
// request. textLen is the instruction length in bytes.
func estimateInputTokens(textLen int) int {
	return imageTokenBase + textLen/4
}

// estimateOutputTokens approximates tokens for a text answer.
func estimateOutputTokens(text string) int {
	return len(text) / 4
}
