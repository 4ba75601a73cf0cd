package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsignal/visibility-cli/internal/model"
)

func testProfile() *model.BusinessProfile {
	return &model.BusinessProfile{
		ID:                 "p1",
		Name:               "Acme Plumbing",
		Domain:             "acme.com",
		Location:           model.Location{City: "Austin", State: "TX"},
		Categories:         []string{"plumber"},
		Neighborhoods:      []string{"Hyde Park", "Zilker", "Mueller", "Crestview", "Allandale", "Brentwood"},
		ServiceRadiusMiles: 25,
	}
}

func TestGenerate_AllLayersPresent(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	templates := g.Generate(testProfile())
	counts := CountByLayer(templates)

	assert.Equal(t, 5, counts[model.LayerGeoCluster])
	assert.Equal(t, 4, counts[model.LayerImplicit])
	// 4 neighborhoods x 2 phrasings + 2 radius phrasings.
	assert.Equal(t, 10, counts[model.LayerRadiusNeighborhood])
	assert.Equal(t, 4, counts[model.LayerProblemIntent])
}

func TestGenerate_NeighborhoodsCappedAtFour(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	templates := g.Generate(testProfile())
	for _, tpl := range templates {
		assert.NotContains(t, tpl.Text, "Allandale")
		assert.NotContains(t, tpl.Text, "Brentwood")
	}
}

func TestGenerate_NoRadiusPromptsWithoutRadius(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	p := testProfile()
	p.ServiceRadiusMiles = 0
	p.Neighborhoods = nil

	counts := CountByLayer(g.Generate(p))
	assert.Zero(t, counts[model.LayerRadiusNeighborhood])
}

func TestGenerate_DeterministicOrder(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	first := g.Generate(testProfile())
	second := g.Generate(testProfile())
	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].Layer, second[i].Layer)
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Intent, second[i].Intent)
	}
}

func TestGenerate_GlobalCaseInsensitiveDedup(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	p := testProfile()
	p.Categories = []string{"plumber", "Plumber"}

	templates := g.Generate(p)
	seen := make(map[string]bool)
	for _, tpl := range templates {
		key := strings.ToLower(tpl.Text)
		assert.False(t, seen[key], "duplicate prompt text: %s", tpl.Text)
		seen[key] = true
	}
}

func TestGenerate_FirstOccurrenceKeepsLayer(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	p := testProfile()
	p.Categories = []string{"plumber", "PLUMBER"}

	templates := g.Generate(p)
	// The second category produces only duplicates, so counts match the
	// single-category profile exactly.
	single := g.Generate(testProfile())
	assert.Equal(t, len(single), len(templates))
}

func TestGenerate_SubstitutesProfileFields(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	templates := g.Generate(testProfile())
	require.NotEmpty(t, templates)

	var sawCity, sawRadius bool
	for _, tpl := range templates {
		assert.NotContains(t, tpl.Text, "{", "unreplaced placeholder in %q", tpl.Text)
		if strings.Contains(tpl.Text, "Austin") {
			sawCity = true
		}
		if strings.Contains(tpl.Text, "25 mile") {
			sawRadius = true
		}
	}
	assert.True(t, sawCity)
	assert.True(t, sawRadius)
}
