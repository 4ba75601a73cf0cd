package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsignal/visibility-cli/internal/model"
)

func TestBuildScore_Breakdown(t *testing.T) {
	outcomes := []Outcome{
		{Layer: model.LayerGeoCluster, Mentioned: true, Recommended: true, Position: pos(1), Competitors: []string{"Rival A"}},
		{Layer: model.LayerGeoCluster, Mentioned: false},
		{Layer: model.LayerImplicit, Mentioned: true},
		{Layer: model.LayerImplicit, Mentioned: false},
		{Layer: model.LayerProblemIntent, Mentioned: true, Recommended: true},
		{Layer: model.LayerProblemIntent, Mentioned: true, Recommended: false},
	}

	score := BuildScore("run-1", outcomes, 6, 1)
	require.NotNil(t, score)

	assert.Equal(t, "run-1", score.RunID)
	assert.Equal(t, 50.0, score.Breakdown.GeoRate)
	assert.Equal(t, 50.0, score.Breakdown.ImplicitRate)
	assert.Equal(t, 50.0, score.Breakdown.AssociationRate)
	// 4 business mentions vs 1 competitor mention.
	assert.Equal(t, 80.0, score.Breakdown.ShareOfVoicePct)
	assert.Equal(t, StatusFor(score.TotalScore), score.Status)
	assert.NotEmpty(t, score.Recommendations)
	assert.NotEmpty(t, score.ID)
}

func TestBuildScore_EmptyOutcomes(t *testing.T) {
	score := BuildScore("run-2", nil, 0, 0)
	assert.Equal(t, 0, score.TotalScore)
	assert.Equal(t, model.StatusNotMentioned, score.Status)
	assert.Zero(t, score.Breakdown.GeoRate)
	assert.Empty(t, score.Competitors)
	assert.NotEmpty(t, score.Recommendations)
}

func TestBuildScore_StrongRunGetsMaintenanceAdvice(t *testing.T) {
	var outcomes []Outcome
	for range 10 {
		outcomes = append(outcomes,
			Outcome{Layer: model.LayerGeoCluster, Mentioned: true, Recommended: true, Position: pos(1)},
			Outcome{Layer: model.LayerImplicit, Mentioned: true, Recommended: true},
			Outcome{Layer: model.LayerProblemIntent, Mentioned: true, Recommended: true},
		)
	}

	score := BuildScore("run-3", outcomes, 30, 1)
	assert.Equal(t, model.StatusFrequentlyRecommended, score.Status)
	require.Len(t, score.Recommendations, 1)
	assert.Contains(t, score.Recommendations[0], "maintain")
}
