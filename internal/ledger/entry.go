// Package ledger records provider usage, estimates call cost and aggregates
// model preference statistics.
package ledger

import "time"

// Rating values an entry can carry.
const (
	RatingLike    = "like"
	RatingDislike = "dislike"
)

// Entry is one append-only usage record, written after every extraction run.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Provider string `json:"provider"`
	Model    string `json:"model"`

	DurationMs     int64 `json:"durationMs"`
	PagesProcessed int   `json:"pagesProcessed"`

	// Token counts are estimates, comparable across entries but not billing
	// grade.
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`

	CostUSD float64 `json:"costUSD"`

	// Rating is "", "like" or "dislike". RatedAt is zero until rated.
	Rating  string    `json:"rating,omitempty"`
	RatedAt time.Time `json:"ratedAt,omitempty"`
}
