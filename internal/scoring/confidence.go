package scoring

import (
	"fmt"

	"github.com/localsignal/visibility-cli/internal/model"
)

// minResults is the result-count floor below which confidence drops to
// low regardless of error counts.
const minResults = 10

// Assess derives a qualitative confidence level from run metadata. It is
// a rule pass, not a statistical estimate: confidence starts high and is
// downgraded by recorded errors, thin results, or partial-data flags.
// Every downgrade appends its reason verbatim; with no downgrades a
// single reassuring reason is emitted, so the list is never empty.
func Assess(run *model.ScanRun, resultCount int) model.ConfidenceReport {
	level := model.ConfidenceHigh
	var reasons []string

	downgrade := func(to model.ConfidenceLevel, reason string) {
		if worse(to, level) {
			level = to
		}
		reasons = append(reasons, reason)
	}

	switch {
	case run.ErrorCount > 5:
		downgrade(model.ConfidenceLow, fmt.Sprintf("%d model calls failed during the scan", run.ErrorCount))
	case run.ErrorCount >= 1:
		downgrade(model.ConfidenceMedium, fmt.Sprintf("%d model calls failed during the scan", run.ErrorCount))
	}

	if resultCount < minResults {
		downgrade(model.ConfidenceLow, fmt.Sprintf("only %d results were collected", resultCount))
	}
	if run.Quality.PartialResults {
		downgrade(model.ConfidenceLow, "results are marked partial")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Full scan completed successfully")
	}

	return model.ConfidenceReport{Level: level, Reasons: reasons}
}

func worse(a, b model.ConfidenceLevel) bool {
	return severity(a) > severity(b)
}

func severity(l model.ConfidenceLevel) int {
	switch l {
	case model.ConfidenceLow:
		return 2
	case model.ConfidenceMedium:
		return 1
	default:
		return 0
	}
}
