package model

import "time"

// Layer identifies the semantic family a prompt was generated from.
type Layer string

const (
	LayerGeoCluster         Layer = "geo_cluster"
	LayerImplicit           Layer = "implicit"
	LayerRadiusNeighborhood Layer = "radius_neighborhood"
	LayerProblemIntent      Layer = "problem_intent"
)

// Layers lists every prompt layer in generation order.
var Layers = []Layer{LayerGeoCluster, LayerImplicit, LayerRadiusNeighborhood, LayerProblemIntent}

// PromptTemplate is one natural-language question asked of each AI model
// during a scan. The active set for a profile is replaced wholesale each
// time generation runs; templates have no independent lifecycle.
type PromptTemplate struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Layer     Layer     `json:"layer"`
	Text      string    `json:"text"`
	Intent    string    `json:"intent"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
