package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/scan"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4", truncateID("a1b2c3d4-e5f6-7890-abcd-ef0123456789"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestFormatLayerCounts(t *testing.T) {
	var buf bytes.Buffer
	formatLayerCounts(&buf, map[model.Layer]int{
		model.LayerGeoCluster:    4,
		model.LayerImplicit:      3,
		model.LayerProblemIntent: 2,
	})

	out := buf.String()
	assert.Contains(t, out, "geo_cluster:")
	assert.Contains(t, out, "radius_neighborhood:")
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "9")
}

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)

	var buf bytes.Buffer
	formatRunsList(&buf, []model.ScanRun{
		{
			ID:         "a1b2c3d4-e5f6-7890-abcd-ef0123456789",
			ProfileID:  "f0e1d2c3-b4a5-6978-1234-567890abcdef",
			Status:     model.RunStatusComplete,
			Models:     []string{"chatgpt", "claude"},
			ErrorCount: 1,
			StartedAt:  started,
			FinishedAt: &finished,
		},
		{
			ID:        "99998888-0000-0000-0000-000000000000",
			ProfileID: "f0e1d2c3-b4a5-6978-1234-567890abcdef",
			Status:    model.RunStatusRunning,
			Models:    []string{"chatgpt"},
			StartedAt: started,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "a1b2c3d4")
	assert.NotContains(t, out, "e5f6-7890")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "42s")
	assert.Contains(t, out, "2026-03-14 09:30")
	// Running run has no duration yet
	assert.Contains(t, out, "running")
}

func TestFormatRunDetail(t *testing.T) {
	detail := &scan.RunDetail{
		Profile: &model.BusinessProfile{Name: "Acme Plumbing"},
		Run: &model.ScanRun{
			ID:     "a1b2c3d4-e5f6-7890-abcd-ef0123456789",
			Status: model.RunStatusComplete,
		},
		Score: &model.ScoreRecord{
			TotalScore: 62,
			Status:     model.StatusMentionedOccasionally,
			Confidence: model.ConfidenceReport{
				Level:   model.ConfidenceMedium,
				Reasons: []string{"2 of 24 model calls failed"},
			},
			Recommendations: []string{"Add neighborhood pages for your service area"},
		},
		Highlights:     []string{"Mentioned in 14 of 24 answers"},
		TopCompetitors: []model.CompetitorRank{{Name: "Rapid Rooter", Mentions: 9}},
	}

	var buf bytes.Buffer
	formatRunDetail(&buf, detail)

	out := buf.String()
	assert.Contains(t, out, "Acme Plumbing")
	assert.Contains(t, out, "62/100")
	assert.Contains(t, out, "Mentioned Occasionally")
	assert.Contains(t, out, "medium")
	assert.Contains(t, out, "2 of 24 model calls failed")
	assert.Contains(t, out, "Rapid Rooter")
	assert.Contains(t, out, "9 mentions")
	assert.Contains(t, out, "Add neighborhood pages")
}

func TestFormatRunDetail_NoScore(t *testing.T) {
	detail := &scan.RunDetail{
		Profile: &model.BusinessProfile{Name: "Acme Plumbing"},
		Run: &model.ScanRun{
			ID:     "a1b2c3d4-e5f6-7890-abcd-ef0123456789",
			Status: model.RunStatusRunning,
		},
	}

	var buf bytes.Buffer
	formatRunDetail(&buf, detail)

	out := buf.String()
	assert.Contains(t, out, "running")
	assert.NotContains(t, out, "Score:")
	assert.NotContains(t, out, "Confidence:")
}

func TestFormatScanError(t *testing.T) {
	err := &scan.Error{
		Kind:    scan.KindValidation,
		Message: "profile is invalid",
		Fields: []model.FieldError{
			{Field: "name", Message: "business name is required"},
			{Field: "location.city", Message: "city is required"},
		},
	}

	got := formatScanError(err)
	assert.Contains(t, got.Error(), "profile is invalid")
	assert.Contains(t, got.Error(), "name: business name is required")
	assert.Contains(t, got.Error(), "location.city: city is required")
}

func TestFormatScanError_PassesThroughOtherErrors(t *testing.T) {
	err := eris.New("boom")
	assert.Equal(t, err, formatScanError(err))
}
