package ledger

import "sort"

// ModelStats aggregates ledger entries for one provider/model pair.
type ModelStats struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	TotalUsage int     `json:"totalUsage"`
	TotalPages int     `json:"totalPages"`
	TotalCost  float64 `json:"totalCostUSD"`

	TotalInputTokens  int `json:"totalInputTokens"`
	TotalOutputTokens int `json:"totalOutputTokens"`

	// AvgDurationMs is the running average run duration for the model.
	AvgDurationMs float64 `json:"avgDurationMs"`

	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`

	// PreferenceScore is (likes - dislikes) / totalUsage, in [-1, 1].
	PreferenceScore float64 `json:"preferenceScore"`
}

// Aggregate folds entries into per-model statistics, sorted by preference
// score descending with total usage as the tiebreaker.
func Aggregate(entries []*Entry) []ModelStats {
	type key struct{ provider, model string }

	byModel := make(map[key]*ModelStats)
	order := make([]key, 0)

	for _, e := range entries {
		k := key{e.Provider, e.Model}
		st, ok := byModel[k]
		if !ok {
			st = &ModelStats{Provider: e.Provider, Model: e.Model}
			byModel[k] = st
			order = append(order, k)
		}
		st.TotalUsage++
		st.TotalPages += e.PagesProcessed
		st.TotalCost += e.CostUSD
		st.TotalInputTokens += e.InputTokens
		st.TotalOutputTokens += e.OutputTokens
		// Running average over the entries folded so far.
		st.AvgDurationMs += (float64(e.DurationMs) - st.AvgDurationMs) / float64(st.TotalUsage)
		switch e.Rating {
		case RatingLike:
			st.Likes++
		case RatingDislike:
			st.Dislikes++
		}
	}

	out := make([]ModelStats, 0, len(order))
	for _, k := range order {
		st := byModel[k]
		if st.TotalUsage > 0 {
			st.PreferenceScore = float64(st.Likes-st.Dislikes) / float64(st.TotalUsage)
		}
		out = append(out, *st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PreferenceScore != out[j].PreferenceScore {
			return out[i].PreferenceScore > out[j].PreferenceScore
		}
		return out[i].TotalUsage > out[j].TotalUsage
	})
	return out
}
