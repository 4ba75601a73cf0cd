package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/scan"
)

func exportTestResults() []model.ScanResult {
	pos := 2
	return []model.ScanResult{
		{
			Model:       "chatgpt",
			Layer:       model.LayerGeoCluster,
			Mentioned:   true,
			Recommended: true,
			Position:    &pos,
			Competitors: []string{"Rapid Rooter", "Drain Kings"},
			Response:    "1. Acme Plumbing ...",
			Citations: []model.Citation{
				{URL: "https://www.yelp.com/biz/acme", Domain: "yelp.com", Accessible: true, HTTPStatus: 200},
				{URL: "https://dead.example.com/x", Domain: "dead.example.com", Accessible: false, HTTPStatus: 0, ValidationError: "connection refused"},
			},
		},
		{
			Model:    "claude",
			Layer:    model.LayerImplicit,
			Response: "Here are some options ...",
		},
	}
}

func TestWriteResultsSheet(t *testing.T) {
	file := xlsx.NewFile()
	require.NoError(t, writeResultsSheet(file, exportTestResults()))

	sheet, ok := file.Sheet["Results"]
	require.True(t, ok)

	// Header plus one row per result
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Model", sheet.Rows[0].Cells[0].Value)

	first := sheet.Rows[1]
	assert.Equal(t, "chatgpt", first.Cells[0].Value)
	assert.Equal(t, "geo_cluster", first.Cells[1].Value)
	assert.Equal(t, "true", first.Cells[2].Value)
	assert.Equal(t, "2", first.Cells[4].Value)
	assert.Equal(t, "Rapid Rooter, Drain Kings", first.Cells[5].Value)

	second := sheet.Rows[2]
	assert.Equal(t, "claude", second.Cells[0].Value)
	assert.Equal(t, "false", second.Cells[2].Value)
	assert.Equal(t, "", second.Cells[4].Value)
}

func TestWriteCitationsSheet(t *testing.T) {
	file := xlsx.NewFile()
	require.NoError(t, writeCitationsSheet(file, exportTestResults()))

	sheet, ok := file.Sheet["Citations"]
	require.True(t, ok)

	// Header plus one row per citation; the citation-free result adds none
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "https://www.yelp.com/biz/acme", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "true", sheet.Rows[1].Cells[3].Value)
	assert.Equal(t, "connection refused", sheet.Rows[2].Cells[5].Value)
}

func TestWriteSummarySheet(t *testing.T) {
	detail := &scan.RunDetail{
		Profile: &model.BusinessProfile{Name: "Acme Plumbing", Domain: "acmeplumbing.com"},
		Run: &model.ScanRun{
			ID:     "a1b2c3d4-e5f6-7890-abcd-ef0123456789",
			Status: model.RunStatusComplete,
			Models: []string{"chatgpt", "claude"},
		},
		Score: &model.ScoreRecord{
			TotalScore:      62,
			Status:          model.StatusMentionedOccasionally,
			Confidence:      model.ConfidenceReport{Level: model.ConfidenceHigh},
			Competitors:     []model.CompetitorRank{{Name: "Rapid Rooter", Mentions: 9}},
			Recommendations: []string{"Add neighborhood pages"},
		},
	}

	file := xlsx.NewFile()
	require.NoError(t, writeSummarySheet(file, detail))

	sheet, ok := file.Sheet["Summary"]
	require.True(t, ok)

	values := map[string]string{}
	for _, row := range sheet.Rows {
		if len(row.Cells) >= 2 {
			values[row.Cells[0].Value] = row.Cells[1].Value
		}
	}
	assert.Equal(t, "Acme Plumbing", values["Business"])
	assert.Equal(t, "chatgpt, claude", values["Models"])
	assert.Equal(t, "62", values["Score"])
	assert.Equal(t, "Mentioned Occasionally", values["Visibility"])
	assert.Equal(t, "Rapid Rooter", values["Competitor"])
	assert.Equal(t, "Add neighborhood pages", values["Recommendation"])
}
