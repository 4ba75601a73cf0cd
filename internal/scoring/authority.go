package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/localsignal/visibility-cli/internal/model"
)

// BuildScore runs the authority scoring path over a completed run's
// outcomes: the single normalized total plus the per-layer breakdown,
// ranked competitors, and actionable recommendations. Confidence is
// assessed separately (see Assess) and attached by the caller.
func BuildScore(runID string, outcomes []Outcome, prompts, models int) *model.ScoreRecord {
	total := NormalizedScore(outcomes, prompts, models)
	breakdown := layerBreakdown(outcomes)
	competitors := RankCompetitors(outcomes)

	return &model.ScoreRecord{
		ID:              uuid.New().String(),
		RunID:           runID,
		TotalScore:      total,
		Status:          StatusFor(total),
		Breakdown:       breakdown,
		Competitors:     competitors,
		Recommendations: recommendations(total, breakdown, competitors),
		CreatedAt:       time.Now().UTC(),
	}
}

// layerBreakdown computes per-taxonomy-layer rates:
// geo and implicit are mention rates within their layers, association is
// the recommendation rate on problem-intent prompts, and share of voice
// is business mentions against business plus competitor mentions.
func layerBreakdown(outcomes []Outcome) model.LayerBreakdown {
	var (
		geoTotal, geoMentioned           int
		implicitTotal, implicitMentioned int
		intentTotal, intentRecommended   int
		businessMentions, rivalMentions  int
	)

	for _, o := range outcomes {
		switch o.Layer {
		case model.LayerGeoCluster:
			geoTotal++
			if o.Mentioned {
				geoMentioned++
			}
		case model.LayerImplicit:
			implicitTotal++
			if o.Mentioned {
				implicitMentioned++
			}
		case model.LayerProblemIntent:
			intentTotal++
			if o.Recommended {
				intentRecommended++
			}
		}
		if o.Mentioned {
			businessMentions++
		}
		rivalMentions += len(o.Competitors)
	}

	return model.LayerBreakdown{
		GeoRate:         rate(geoMentioned, geoTotal),
		ImplicitRate:    rate(implicitMentioned, implicitTotal),
		AssociationRate: rate(intentRecommended, intentTotal),
		ShareOfVoicePct: rate(businessMentions, businessMentions+rivalMentions),
	}
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

// recommendations derives next-step guidance from the weakest signals.
func recommendations(total int, b model.LayerBreakdown, competitors []model.CompetitorRank) []string {
	var recs []string

	if total < 30 {
		recs = append(recs, "Your business is rarely surfaced by AI assistants; build out location pages and structured business data so models can find you.")
	}
	if b.GeoRate < 50 {
		recs = append(recs, "Strengthen city-level signals: claim local listings and keep your address consistent across directories.")
	}
	if b.ImplicitRate < 30 {
		recs = append(recs, "Grow non-geographic reputation signals such as reviews and industry mentions; assistants rarely surface you without a location cue.")
	}
	if b.AssociationRate < 30 {
		recs = append(recs, "Publish content around urgent and same-day service queries to win problem-intent recommendations.")
	}
	if len(competitors) > 0 && b.ShareOfVoicePct < 25 {
		recs = append(recs, fmt.Sprintf("Competitors such as %s dominate share of voice; target the comparison queries they win.", competitors[0].Name))
	}
	if len(recs) == 0 {
		recs = append(recs, "Visibility is strong; maintain review velocity and fresh content to hold your position.")
	}
	return recs
}
