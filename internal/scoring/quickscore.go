package scoring

import (
	"fmt"

	"github.com/localsignal/visibility-cli/internal/fingerprint"
	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/simulate"
)

// quickModels is the fixed model matrix for the standalone quick score.
var quickModels = []string{"chatgpt", "claude", "gemini"}

// quickPromptForms builds the fixed six-prompt matrix.
var quickPromptForms = []string{
	"best %s in %s",
	"most trusted %s near %s",
	"top rated %s in %s",
	"recommended %s companies in %s",
	"affordable %s in %s",
	"emergency %s available in %s",
}

// QuickScore is the standalone deterministic visibility score used by
// demo and sales paths: one flat 0-100 number from a fixed 6-prompt by
// 3-model simulated matrix. It shares the outcome-scoring primitive with
// the richer authority path but is a distinct strategy, not a substitute.
type QuickScore struct {
	Fingerprint string                 `json:"fingerprint"`
	Score       int                    `json:"score"`
	Status      model.VisibilityStatus `json:"status"`
	Mentions    int                    `json:"mentions"`
	Prompts     int                    `json:"prompts"`
	Models      int                    `json:"models"`
}

// ComputeQuickScore simulates the fixed matrix for a business. Pure and
// deterministic: identical inputs always produce identical scores, which
// is what makes the fingerprint a safe cache key.
func ComputeQuickScore(name, website, city, category string) QuickScore {
	prompts := make([]string, len(quickPromptForms))
	for i, form := range quickPromptForms {
		prompts[i] = fmt.Sprintf(form, category, city)
	}

	var outcomes []Outcome
	mentions := 0
	for _, prompt := range prompts {
		for _, m := range quickModels {
			resp := simulate.Respond(name, prompt, m)
			if resp.Mentioned {
				mentions++
			}
			outcomes = append(outcomes, Outcome{
				Mentioned:   resp.Mentioned,
				Recommended: resp.Recommended,
				Position:    resp.Position,
				Competitors: resp.Competitors,
			})
		}
	}

	score := NormalizedScore(outcomes, len(prompts), len(quickModels))
	return QuickScore{
		Fingerprint: fingerprint.Token(name, website, city, category),
		Score:       score,
		Status:      StatusFor(score),
		Mentions:    mentions,
		Prompts:     len(prompts),
		Models:      len(quickModels),
	}
}
