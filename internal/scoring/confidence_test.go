package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsignal/visibility-cli/internal/model"
)

func TestAssess_HighWithDefaultReason(t *testing.T) {
	run := &model.ScanRun{ErrorCount: 0}
	report := Assess(run, 20)

	assert.Equal(t, model.ConfidenceHigh, report.Level)
	require.Len(t, report.Reasons, 1)
	assert.Equal(t, "Full scan completed successfully", report.Reasons[0])
}

func TestAssess_MediumOnFewErrors(t *testing.T) {
	for _, errs := range []int{1, 3, 5} {
		run := &model.ScanRun{ErrorCount: errs}
		report := Assess(run, 20)
		assert.Equal(t, model.ConfidenceMedium, report.Level, "error_count=%d", errs)
		require.Len(t, report.Reasons, 1)
		assert.Contains(t, report.Reasons[0], "model calls failed")
	}
}

func TestAssess_LowOnManyErrors(t *testing.T) {
	run := &model.ScanRun{ErrorCount: 7}
	report := Assess(run, 15)
	assert.Equal(t, model.ConfidenceLow, report.Level)
	assert.Contains(t, report.Reasons[0], "7 model calls failed")
}

func TestAssess_LowOnThinResults(t *testing.T) {
	run := &model.ScanRun{}
	report := Assess(run, 9)
	assert.Equal(t, model.ConfidenceLow, report.Level)
	assert.Contains(t, report.Reasons[0], "only 9 results")
}

func TestAssess_LowOnPartialFlag(t *testing.T) {
	run := &model.ScanRun{Quality: model.QualityFlags{PartialResults: true}}
	report := Assess(run, 20)
	assert.Equal(t, model.ConfidenceLow, report.Level)
	assert.Contains(t, report.Reasons, "results are marked partial")
}

func TestAssess_ReasonsAccumulate(t *testing.T) {
	run := &model.ScanRun{
		ErrorCount: 2,
		Quality:    model.QualityFlags{PartialResults: true},
	}
	report := Assess(run, 5)

	// Worst downgrade wins the level, but every reason is recorded.
	assert.Equal(t, model.ConfidenceLow, report.Level)
	assert.Len(t, report.Reasons, 3)
}

func TestAssess_ReasonsNeverEmpty(t *testing.T) {
	for _, run := range []*model.ScanRun{
		{},
		{ErrorCount: 1},
		{ErrorCount: 10},
	} {
		report := Assess(run, 50)
		assert.NotEmpty(t, report.Reasons)
	}
}
