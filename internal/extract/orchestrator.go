// Package extract runs extraction over the selected pages and assembles the
// result table.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minjae-lee/settlescan/internal/ledger"
	"github.com/minjae-lee/settlescan/internal/pages"
	"github.com/minjae-lee/settlescan/internal/providers"
	"github.com/minjae-lee/settlescan/internal/record"
)

// Row is one extracted page in the result table.
type Row struct {
	PageID     string        `json:"pageId"`
	SourceFile string        `json:"sourceFile"`
	PageIndex  int           `json:"pageIndex"`
	Record     record.Record `json:"record"`
}

// PageError attributes a failure to the page it happened on.
type PageError struct {
	PageID     string `json:"pageId"`
	SourceFile string `json:"sourceFile"`
	PageIndex  int    `json:"pageIndex"`
	Message    string `json:"message"`
}

// Outcome is the result of one extraction run. A run always completes: pages
// that fail are reported in Errors and the rest still produce rows.
type Outcome struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	Rows   []Row       `json:"rows"`
	Errors []PageError `json:"errors"`

	SuccessCount int `json:"successCount"`
	TotalCount   int `json:"totalCount"`

	// OfferRating signals that at least one page succeeded and the run was
	// logged, so the caller may prompt for a rating.
	OfferRating bool `json:"offerRating"`

	Duration time.Duration `json:"-"`
}

// Orchestrator drives sequential extraction and logs usage.
type Orchestrator struct {
	registry *providers.Registry
	ledger   *ledger.Ledger
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(registry *providers.Registry, lgr *ledger.Ledger, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{registry: registry, ledger: lgr, logger: logger}
}

// Run extracts every selected page in order with the chosen provider and
// model. Pages go out one at a time; a page failure is recorded against that
// page and the run moves on. The run is refused up front, before any network
// traffic, when nothing is selected or the provider is not configured.
func (o *Orchestrator) Run(ctx context.Context, selected []*pages.Page, provider providers.Provider, model string) (*Outcome, error) {
	if len(selected) == 0 {
		return nil, fmt.Errorf("no pages selected")
	}
	if !provider.Valid() {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	extractor, err := o.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = provider.DefaultModel()
	}
	if !provider.HasModel(model) {
		return nil, fmt.Errorf("model %q is not available for %s", model, provider)
	}

	start := time.Now()
	outcome := &Outcome{
		Provider:   string(provider),
		Model:      model,
		Rows:       make([]Row, 0, len(selected)),
		Errors:     make([]PageError, 0),
		TotalCount: len(selected),
	}

	var inputTokens, outputTokens int
	for _, page := range selected {
		res, err := extractor.Extract(ctx, page, model)
		if err != nil {
			o.logger.Warn("page extraction failed",
				"provider", provider,
				"file", page.SourceFile,
				"page", page.PageIndex,
				"err", err)
			outcome.Errors = append(outcome.Errors, PageError{
				PageID:     page.ID,
				SourceFile: page.SourceFile,
				PageIndex:  page.PageIndex,
				Message:    err.Error(),
			})
			continue
		}

		// Shape drift is logged but never blocks: Normalize repairs
		// whatever arrived.
		if err := record.ValidateRaw(res.Raw); err != nil {
			o.logger.Warn("provider output off schema",
				"provider", provider,
				"file", page.SourceFile,
				"page", page.PageIndex,
				"err", err)
		}

		outcome.Rows = append(outcome.Rows, Row{
			PageID:     page.ID,
			SourceFile: page.SourceFile,
			PageIndex:  page.PageIndex,
			Record:     record.Normalize(res.Raw),
		})
		outcome.SuccessCount++
		inputTokens += res.InputTokens
		outputTokens += res.OutputTokens
	}

	outcome.Duration = time.Since(start)

	// Every started run leaves a ledger entry, including one where all
	// pages failed. Only rateable runs offer a rating.
	if o.ledger != nil {
		_, err := o.ledger.Record(ledger.Usage{
			Provider:       string(provider),
			Model:          model,
			Duration:       outcome.Duration,
			PagesProcessed: outcome.SuccessCount,
			InputTokens:    inputTokens,
			OutputTokens:   outputTokens,
		})
		if err != nil {
			o.logger.Error("failed to record usage", "err", err)
		} else {
			outcome.OfferRating = outcome.SuccessCount > 0
		}
	}

	o.logger.Info("extraction run finished",
		"provider", provider,
		"model", model,
		"success", outcome.SuccessCount,
		"total", outcome.TotalCount,
		"duration", outcome.Duration)
	return outcome, nil
}
