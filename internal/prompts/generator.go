// Package prompts expands a business profile into the four-layer prompt
// taxonomy used by scan runs.
package prompts

import (
	_ "embed"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/localsignal/visibility-cli/internal/model"
)

//go:embed templates.yaml
var templatesYAML []byte

// maxNeighborhoods caps how many configured neighborhoods get
// location-scoped variants.
const maxNeighborhoods = 4

// phrasing is one templated prompt with its intent tag.
type phrasing struct {
	Text   string `yaml:"text"`
	Intent string `yaml:"intent"`
}

// templateFile mirrors templates.yaml.
type templateFile struct {
	RecommendationMarkers []string `yaml:"recommendation_markers"`
	Layers                struct {
		GeoCluster         []phrasing `yaml:"geo_cluster"`
		Implicit           []phrasing `yaml:"implicit"`
		RadiusNeighborhood struct {
			Neighborhood []phrasing `yaml:"neighborhood"`
			Radius       []phrasing `yaml:"radius"`
		} `yaml:"radius_neighborhood"`
		ProblemIntent []phrasing `yaml:"problem_intent"`
	} `yaml:"layers"`
}

// Generator expands profiles into prompt templates.
type Generator struct {
	tpl templateFile
}

// NewGenerator parses the embedded phrasing families.
func NewGenerator() (*Generator, error) {
	var tpl templateFile
	if err := yaml.Unmarshal(templatesYAML, &tpl); err != nil {
		return nil, eris.Wrap(err, "prompts: parse templates")
	}
	return &Generator{tpl: tpl}, nil
}

// Generate produces the deduplicated, deterministically ordered prompt
// set for a profile. Dedup is case-insensitive and global across layers:
// a text seen once is never added again, and the first occurrence keeps
// its layer and intent tag. Calling Generate twice with the same profile
// yields the same ordered set.
func (g *Generator) Generate(p *model.BusinessProfile) []model.PromptTemplate {
	now := time.Now().UTC()
	seen := make(map[string]bool)
	var out []model.PromptTemplate

	add := func(layer model.Layer, text, intent string) {
		key := strings.ToLower(strings.TrimSpace(text))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, model.PromptTemplate{
			ID:        uuid.New().String(),
			ProfileID: p.ID,
			Layer:     layer,
			Text:      strings.TrimSpace(text),
			Intent:    intent,
			Active:    true,
			CreatedAt: now,
		})
	}

	for _, category := range p.Categories {
		for _, ph := range g.tpl.Layers.GeoCluster {
			add(model.LayerGeoCluster, g.render(ph.Text, p, category, ""), ph.Intent)
		}
	}

	for _, category := range p.Categories {
		for _, ph := range g.tpl.Layers.Implicit {
			add(model.LayerImplicit, g.render(ph.Text, p, category, ""), ph.Intent)
		}
	}

	for _, category := range p.Categories {
		neighborhoods := p.Neighborhoods
		if len(neighborhoods) > maxNeighborhoods {
			neighborhoods = neighborhoods[:maxNeighborhoods]
		}
		for _, n := range neighborhoods {
			for _, ph := range g.tpl.Layers.RadiusNeighborhood.Neighborhood {
				add(model.LayerRadiusNeighborhood, g.render(ph.Text, p, category, n), ph.Intent)
			}
		}
		if p.ServiceRadiusMiles > 0 {
			for _, ph := range g.tpl.Layers.RadiusNeighborhood.Radius {
				add(model.LayerRadiusNeighborhood, g.render(ph.Text, p, category, ""), ph.Intent)
			}
		}
	}

	for _, category := range p.Categories {
		for _, ph := range g.tpl.Layers.ProblemIntent {
			add(model.LayerProblemIntent, g.render(ph.Text, p, category, ""), ph.Intent)
		}
	}

	return out
}

func (g *Generator) render(text string, p *model.BusinessProfile, category, neighborhood string) string {
	r := strings.NewReplacer(
		"{category}", category,
		"{city}", p.Location.City,
		"{state}", p.Location.State,
		"{neighborhood}", neighborhood,
		"{radius}", strconv.Itoa(p.ServiceRadiusMiles),
	)
	return r.Replace(text)
}

// CountByLayer tallies templates per layer, the shape returned by the
// generatePrompts operation.
func CountByLayer(templates []model.PromptTemplate) map[model.Layer]int {
	counts := make(map[model.Layer]int, len(model.Layers))
	for _, l := range model.Layers {
		counts[l] = 0
	}
	for _, t := range templates {
		counts[t.Layer]++
	}
	return counts
}
