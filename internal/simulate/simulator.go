// Package simulate produces reproducible AI-response outcomes for demo
// and sales-tool paths where no live model integration is wired in.
//
// Every decision is derived by hashing the (business, prompt, model)
// triple with a per-purpose salt, so identical inputs always yield
// byte-identical outcomes across processes. There is no package-level
// random state.
package simulate

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/localsignal/visibility-cli/internal/model"
)

// Outcome is the structured result of one simulated prompt-model call.
type Outcome struct {
	Mentioned   bool
	Recommended bool
	Position    *int
	Competitors []string
	Response    string
	Citations   []model.Citation
}

// Branding keywords that nudge simulated visibility upward. Businesses
// whose names lean on generic locality/trust words tend to rank in
// generic local queries; the simulator models that weak correlation.
var trustKeywords = []string{"local", "city", "pro"}

// competitorPools maps category keywords (matched against the prompt
// text) to plausible competitor names.
var competitorPools = map[string][]string{
	"plumb":      {"Rapid Rooter", "BlueFlow Plumbing", "Anchor Drain & Pipe", "Cityline Plumbing Co", "TruFlow Services", "Hargrove Plumbing"},
	"dentist":    {"Bright Smile Dental", "Lakeside Family Dentistry", "Pearl District Dental", "Summit Dental Group", "Gentle Care Dentistry"},
	"hvac":       {"Polar Air Heating & Cooling", "Comfort Zone HVAC", "AirFlow Masters", "Evergreen Climate Control", "Peak Heating & Air"},
	"roof":       {"Ridgeline Roofing", "StormGuard Roofing Co", "Apex Roof Systems", "Heritage Roofing", "Ironclad Roofing"},
	"electric":   {"Voltline Electric", "Beacon Electrical Services", "Current Solutions", "Amped Electric Co", "Brightwire Electricians"},
	"landscap":   {"GreenScape Design", "Terra Firma Landscaping", "Bloom & Stone", "Evergreen Lawn Co", "Rootworks Landscaping"},
	"restaurant": {"The Copper Kettle", "Harvest Table", "Marlowe's Kitchen", "The Brass Fork", "Juniper & Vine"},
	"lawyer":     {"Caldwell & Reyes LLP", "Hartman Legal Group", "Stonebridge Law", "Pinnacle Legal", "Marsh & Whitfield"},
}

// poolKeywords fixes the match order; ranging over the map directly
// would make pool selection depend on map iteration order.
var poolKeywords = []string{"plumb", "dentist", "hvac", "roof", "electric", "landscap", "restaurant", "lawyer"}

var (
	genericAdjectives = []string{"Premier", "Metro", "Summit", "Reliant", "First Choice", "Blue Ribbon", "Hometown", "Capital"}
	genericNouns      = []string{"Services Group", "Service Pros", "Solutions Co", "Experts", "Works", "Partners"}
)

// unit hashes the inputs plus a salt into [0, 1). The salt isolates
// independent sub-decisions so they do not correlate.
func unit(business, prompt, modelName, salt string) float64 {
	sum := sha256.Sum256([]byte(business + "||" + prompt + "||" + modelName + salt))
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / math.MaxUint64
}

// Respond simulates one prompt-model call. Pure: the same triple always
// returns an identical Outcome.
func Respond(business, prompt, modelName string) Outcome {
	mentionThreshold := 0.45
	recommendThreshold := 0.50
	if hasTrustKeyword(business) {
		mentionThreshold = 0.65
		recommendThreshold = 0.60
	}

	out := Outcome{
		Mentioned: unit(business, prompt, modelName, "") < mentionThreshold,
	}
	if out.Mentioned {
		out.Recommended = unit(business, prompt, modelName, "-rec") < recommendThreshold
		pos := 1 + int(unit(business, prompt, modelName, "-pos")*5)
		out.Position = &pos
	}

	out.Competitors = pickCompetitors(business, prompt, modelName)
	out.Response = renderResponse(business, prompt, out)
	out.Citations = renderCitations(business, prompt, modelName)
	return out
}

func hasTrustKeyword(business string) bool {
	name := strings.ToLower(business)
	for _, kw := range trustKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// pickCompetitors draws 2-4 distinct names from the category pool
// matching the prompt, or from generated generic names when no category
// keyword is recognized.
func pickCompetitors(business, prompt, modelName string) []string {
	pool := poolForPrompt(business, prompt, modelName)

	count := 2 + int(unit(business, prompt, modelName, "-comp-n")*3)
	if count > len(pool) {
		count = len(pool)
	}

	picked := make([]string, 0, count)
	used := make(map[int]bool, count)
	for i := 0; len(picked) < count; i++ {
		idx := int(unit(business, prompt, modelName, fmt.Sprintf("-comp-%d", i)) * float64(len(pool)))
		if idx >= len(pool) {
			idx = len(pool) - 1
		}
		if used[idx] {
			// Deterministic linear probe keeps picks distinct.
			for used[idx] {
				idx = (idx + 1) % len(pool)
			}
		}
		used[idx] = true
		picked = append(picked, pool[idx])
	}
	return picked
}

func poolForPrompt(business, prompt, modelName string) []string {
	lowered := strings.ToLower(prompt)
	for _, keyword := range poolKeywords {
		if strings.Contains(lowered, keyword) {
			return competitorPools[keyword]
		}
	}

	// Unknown category: generate generic names, still seeded.
	names := make([]string, 0, 6)
	for i := range 6 {
		a := int(unit(business, prompt, modelName, fmt.Sprintf("-gen-a-%d", i)) * float64(len(genericAdjectives)))
		n := int(unit(business, prompt, modelName, fmt.Sprintf("-gen-n-%d", i)) * float64(len(genericNouns)))
		if a >= len(genericAdjectives) {
			a = len(genericAdjectives) - 1
		}
		if n >= len(genericNouns) {
			n = len(genericNouns) - 1
		}
		name := genericAdjectives[a] + " " + genericNouns[n]
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

func renderResponse(business, prompt string, out Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For %q, here are some options to consider. ", prompt)
	if out.Recommended {
		fmt.Fprintf(&b, "%s stands out as a top choice in the area. ", business)
	} else if out.Mentioned {
		fmt.Fprintf(&b, "%s is one provider worth looking at. ", business)
	}
	if len(out.Competitors) > 0 {
		fmt.Fprintf(&b, "Others frequently mentioned include %s.", strings.Join(out.Competitors, ", "))
	}
	return strings.TrimSpace(b.String())
}

// renderCitations attaches 0-2 plausible source URLs so the citation
// verifier has realistic input on simulated runs.
func renderCitations(business, prompt, modelName string) []model.Citation {
	count := int(unit(business, prompt, modelName, "-cite") * 3)
	if count == 0 {
		return nil
	}

	sources := []model.Citation{
		{URL: "https://www.yelp.com/search?find_desc=" + slug(prompt), Domain: "www.yelp.com", Title: "Yelp search results"},
		{URL: "https://www.bbb.org/search?find_text=" + slug(business), Domain: "www.bbb.org", Title: "Better Business Bureau"},
	}
	return sources[:count]
}

func slug(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) > 5 {
		fields = fields[:5]
	}
	return strings.Join(fields, "+")
}
