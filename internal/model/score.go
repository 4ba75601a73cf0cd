package model

import "time"

// VisibilityStatus is the user-facing label derived from the normalized
// score: <30 "Not Mentioned", <70 "Mentioned Occasionally", otherwise
// "Frequently Recommended".
type VisibilityStatus string

const (
	StatusNotMentioned          VisibilityStatus = "Not Mentioned"
	StatusMentionedOccasionally VisibilityStatus = "Mentioned Occasionally"
	StatusFrequentlyRecommended VisibilityStatus = "Frequently Recommended"
)

// LayerBreakdown holds per-taxonomy-layer rates for the authority-run
// scoring path. Rates are percentages in [0,100].
type LayerBreakdown struct {
	GeoRate         float64 `json:"geo_rate"`
	ImplicitRate    float64 `json:"implicit_rate"`
	AssociationRate float64 `json:"association_rate"`
	ShareOfVoicePct float64 `json:"share_of_voice_pct"`
}

// CompetitorRank is one entry in the ranked competitor list.
type CompetitorRank struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
}

// ConfidenceLevel is a qualitative trust rating on a score, derived from
// error counts and data completeness, not a statistical interval.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceReport pairs a level with the verbatim reasons that produced
// it. The reasons list is never empty.
type ConfidenceReport struct {
	Level   ConfidenceLevel `json:"level"`
	Reasons []string        `json:"reasons"`
}

// ScoreRecord is the aggregated outcome of a completed run. Computed once
// per run and immutable thereafter; a re-score requires a new run.
type ScoreRecord struct {
	ID              string           `json:"id"`
	RunID           string           `json:"run_id"`
	TotalScore      int              `json:"total_score"`
	Status          VisibilityStatus `json:"status"`
	Breakdown       LayerBreakdown   `json:"breakdown"`
	Competitors     []CompetitorRank `json:"competitors"`
	Recommendations []string         `json:"recommendations"`
	Confidence      ConfidenceReport `json:"confidence"`
	CreatedAt       time.Time        `json:"created_at"`
}
