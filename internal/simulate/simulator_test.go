package simulate

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_Deterministic(t *testing.T) {
	a := Respond("Acme Local Pro", "best plumber near me in Austin", "ChatGPT")
	b := Respond("Acme Local Pro", "best plumber near me in Austin", "ChatGPT")

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(aj), string(bj))
}

func TestRespond_VariesByInput(t *testing.T) {
	base := Respond("Acme Plumbing", "best plumber in Austin", "ChatGPT")
	byModel := Respond("Acme Plumbing", "best plumber in Austin", "Claude")
	byPrompt := Respond("Acme Plumbing", "most trusted plumber in Dallas", "ChatGPT")

	// Not all fields must differ, but the full outcomes should.
	baseJSON, _ := json.Marshal(base)
	modelJSON, _ := json.Marshal(byModel)
	promptJSON, _ := json.Marshal(byPrompt)
	assert.NotEqual(t, string(baseJSON), string(modelJSON))
	assert.NotEqual(t, string(baseJSON), string(promptJSON))
}

func TestRespond_CompetitorsDistinctAndBounded(t *testing.T) {
	prompts := []string{
		"best plumber in Austin",
		"top rated dentist in Denver",
		"emergency hvac repair tonight",
		"reliable bakery downtown", // no category keyword: generic pool
	}
	for _, prompt := range prompts {
		out := Respond("Acme", prompt, "ChatGPT")
		require.GreaterOrEqual(t, len(out.Competitors), 2, prompt)
		require.LessOrEqual(t, len(out.Competitors), 4, prompt)

		seen := make(map[string]bool)
		for _, c := range out.Competitors {
			assert.False(t, seen[c], "duplicate competitor %q for %q", c, prompt)
			seen[c] = true
		}
	}
}

func TestRespond_PositionOnlyWhenMentioned(t *testing.T) {
	// Sweep a range of prompts; positions must only accompany mentions
	// and always fall in 1..5.
	for _, prompt := range []string{
		"best plumber in Austin", "plumber near Hyde Park", "same-day plumber",
		"who fixes leaks fast", "trusted plumber reviews", "cheap plumber quotes",
	} {
		out := Respond("Acme Plumbing", prompt, "ChatGPT")
		if out.Mentioned {
			require.NotNil(t, out.Position, prompt)
			assert.GreaterOrEqual(t, *out.Position, 1)
			assert.LessOrEqual(t, *out.Position, 5)
		} else {
			assert.Nil(t, out.Position, prompt)
			assert.False(t, out.Recommended, prompt)
		}
	}
}

func TestRespond_TrustKeywordsRaiseVisibility(t *testing.T) {
	mentions := func(name string) int {
		n := 0
		for i := range 400 {
			if Respond(name, fmt.Sprintf("best plumber in city %d", i), "ChatGPT").Mentioned {
				n++
			}
		}
		return n
	}

	// Names carrying locality/trust keywords get a higher mention
	// threshold; over a wide prompt sweep that dominates hash noise.
	assert.Greater(t, mentions("Austin City Pro Plumbing Local"), mentions("Hargrove & Sons"))
}

func TestRespond_ResponseTextMatchesOutcome(t *testing.T) {
	out := Respond("Acme Local Pro Plumbing", "best plumber in Austin", "ChatGPT")
	if out.Mentioned {
		assert.Contains(t, out.Response, "Acme Local Pro Plumbing")
	}
	for _, c := range out.Competitors {
		assert.Contains(t, out.Response, c)
	}
}

func TestRespond_CitationsBounded(t *testing.T) {
	out := Respond("Acme", "best plumber in Austin", "ChatGPT")
	assert.LessOrEqual(t, len(out.Citations), 2)
	for _, c := range out.Citations {
		assert.NotEmpty(t, c.URL)
		assert.NotEmpty(t, c.Domain)
	}
}
