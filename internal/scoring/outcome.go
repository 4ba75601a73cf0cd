// Package scoring aggregates per-prompt-per-model scan outcomes into
// normalized visibility scores, competitor rankings, and a rule-based
// confidence assessment.
package scoring

import (
	"math"

	"github.com/localsignal/visibility-cli/internal/model"
)

// Outcome is the scoring view of a single prompt-model result.
type Outcome struct {
	Layer       model.Layer
	Mentioned   bool
	Recommended bool
	Position    *int
	Competitors []string
}

// maxOutcomePoints caps a single prompt-model outcome.
const maxOutcomePoints = 3.0

// OutcomePoints scores one outcome: 0 if not mentioned, 1 if mentioned,
// 2 if recommended, plus a positional bonus of +1 for rank 1 and +0.5
// for rank 2 or 3, capped at 3.
func OutcomePoints(o Outcome) float64 {
	if !o.Mentioned {
		return 0
	}
	points := 1.0
	if o.Recommended {
		points = 2.0
	}
	if o.Position != nil {
		switch *o.Position {
		case 1:
			points += 1.0
		case 2, 3:
			points += 0.5
		}
	}
	return math.Min(points, maxOutcomePoints)
}

// RawScore sums outcome points across all prompt-model outcomes.
func RawScore(outcomes []Outcome) float64 {
	var total float64
	for _, o := range outcomes {
		total += OutcomePoints(o)
	}
	return total
}

// NormalizedScore maps the raw score onto 0-100 against the maximum
// possible for the given prompt and model counts.
func NormalizedScore(outcomes []Outcome, prompts, models int) int {
	maxPossible := float64(prompts) * float64(models) * maxOutcomePoints
	if maxPossible <= 0 {
		return 0
	}
	score := int(math.Round(RawScore(outcomes) / maxPossible * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusFor labels a normalized score. Boundaries are inclusive of the
// lower bound: 29 is "Not Mentioned", 30 is "Mentioned Occasionally",
// 70 is "Frequently Recommended".
func StatusFor(score int) model.VisibilityStatus {
	switch {
	case score < 30:
		return model.StatusNotMentioned
	case score < 70:
		return model.StatusMentionedOccasionally
	default:
		return model.StatusFrequentlyRecommended
	}
}

// topCompetitors is how many ranked competitors a score carries.
const topCompetitors = 5

// RankCompetitors counts competitor mentions across all outcomes and
// returns the top five by count. Ties break by first-seen order.
func RankCompetitors(outcomes []Outcome) []model.CompetitorRank {
	counts := make(map[string]int)
	var order []string
	for _, o := range outcomes {
		for _, name := range o.Competitors {
			if _, ok := counts[name]; !ok {
				order = append(order, name)
			}
			counts[name]++
		}
	}

	ranked := make([]model.CompetitorRank, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, model.CompetitorRank{Name: name, Mentions: counts[name]})
	}

	// Stable insertion sort preserves first-seen order among ties.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Mentions > ranked[j-1].Mentions; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > topCompetitors {
		ranked = ranked[:topCompetitors]
	}
	return ranked
}
