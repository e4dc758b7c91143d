package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Ledger is the usage log facade. Entries are append-only; the only mutation
// ever applied is rating, and only to the most recent entry.
type Ledger struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a ledger over an open store.
func New(store *Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Usage describes one finished extraction run for recording.
type Usage struct {
	Provider       string
	Model          string
	Duration       time.Duration
	PagesProcessed int
	InputTokens    int
	OutputTokens   int
}

// Record appends a usage entry, pricing it from the model table.
func (l *Ledger) Record(u Usage) (*Entry, error) {
	entry := &Entry{
		ID:             uuid.NewString(),
		Timestamp:      l.now(),
		Provider:       u.Provider,
		Model:          u.Model,
		DurationMs:     u.Duration.Milliseconds(),
		PagesProcessed: u.PagesProcessed,
		InputTokens:    u.InputTokens,
		OutputTokens:   u.OutputTokens,
		CostUSD:        Cost(u.Model, u.InputTokens, u.OutputTokens),
	}
	if err := l.store.Append(entry); err != nil {
		return nil, err
	}
	l.logger.Info("recorded usage",
		"provider", entry.Provider,
		"model", entry.Model,
		"pages", entry.PagesProcessed,
		"costUSD", entry.CostUSD)
	return entry, nil
}

// RateMostRecent attaches a rating to the latest entry. Rating again
// overwrites the previous rating on that same entry; older entries are never
// touched.
func (l *Ledger) RateMostRecent(rating string) (*Entry, error) {
	if rating != RatingLike && rating != RatingDislike {
		return nil, fmt.Errorf("invalid rating %q", rating)
	}
	now := l.now()
	entry, err := l.store.UpdateLast(func(e *Entry) {
		e.Rating = rating
		e.RatedAt = now
	})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("no usage recorded yet")
	}
	return entry, nil
}

// Entries returns the full ledger in insertion order.
func (l *Ledger) Entries() ([]*Entry, error) {
	return l.store.List()
}
