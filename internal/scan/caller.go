package scan

import (
	"context"
	"regexp"
	"strings"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/simulate"
)

// Response is the structured answer from asking one model one prompt.
type Response struct {
	Mentioned   bool
	Recommended bool
	Position    *int
	Competitors []string
	Text        string
	Citations   []model.Citation
}

// ModelCaller asks one AI model a prompt on behalf of a business and
// reports whether and how the business surfaced in the answer.
type ModelCaller interface {
	Call(ctx context.Context, profile *model.BusinessProfile, prompt string) (Response, error)
}

// CallerFunc adapts a function to the ModelCaller interface.
type CallerFunc func(ctx context.Context, profile *model.BusinessProfile, prompt string) (Response, error)

func (f CallerFunc) Call(ctx context.Context, profile *model.BusinessProfile, prompt string) (Response, error) {
	return f(ctx, profile, prompt)
}

// Registry resolves model names to callers. Names without a registered
// live caller fall back to the deterministic simulator, so a scan never
// fails for lack of an API key.
type Registry struct {
	callers map[string]ModelCaller
}

func NewRegistry() *Registry {
	return &Registry{callers: make(map[string]ModelCaller)}
}

// Register installs a live caller for a model name, replacing the
// simulator fallback for that name.
func (r *Registry) Register(name string, c ModelCaller) {
	r.callers[name] = c
}

// For returns the caller for a model name.
func (r *Registry) For(name string) ModelCaller {
	if c, ok := r.callers[name]; ok {
		return c
	}
	return SimulatorCaller(name)
}

// SimulatorCaller returns a ModelCaller backed by the deterministic
// simulator, posing as the named model.
func SimulatorCaller(modelName string) ModelCaller {
	return CallerFunc(func(_ context.Context, profile *model.BusinessProfile, prompt string) (Response, error) {
		out := simulate.Respond(profile.Name, prompt, modelName)
		return Response{
			Mentioned:   out.Mentioned,
			Recommended: out.Recommended,
			Position:    out.Position,
			Competitors: out.Competitors,
			Text:        out.Response,
			Citations:   out.Citations,
		}, nil
	})
}

var listItemRe = regexp.MustCompile(`(?m)^\s*(\d+)[.)]\s+(.+)$`)

// AnalyzeText derives a structured Response from a live model's raw
// answer: mention detection against the business name and its brand
// synonyms, list position from numbered-list lines, and competitor
// names from the remaining list entries.
func AnalyzeText(profile *model.BusinessProfile, text string, citations []model.Citation) Response {
	resp := Response{Text: text, Citations: citations}
	lower := strings.ToLower(text)

	names := append([]string{profile.Name}, profile.BrandSynonyms...)
	var matched string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			resp.Mentioned = true
			matched = strings.ToLower(n)
			break
		}
	}

	for _, m := range listItemRe.FindAllStringSubmatch(text, -1) {
		entry := strings.TrimSpace(m[2])
		entryLower := strings.ToLower(entry)
		if resp.Mentioned && matched != "" && strings.Contains(entryLower, matched) {
			if resp.Position == nil {
				pos := parseListIndex(m[1])
				resp.Position = &pos
			}
			continue
		}
		if name := listEntryName(entry); name != "" {
			resp.Competitors = append(resp.Competitors, name)
		}
	}

	if resp.Mentioned {
		if resp.Position != nil && *resp.Position <= 3 {
			resp.Recommended = true
		} else if strings.Contains(lower, "recommend") {
			resp.Recommended = true
		}
	}
	return resp
}

func parseListIndex(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// listEntryName trims a numbered-list entry down to the leading name,
// cutting at the first separator models tend to use after it.
func listEntryName(entry string) string {
	for _, sep := range []string{" - ", " – ", ": ", " ("} {
		if i := strings.Index(entry, sep); i > 0 {
			entry = entry[:i]
			break
		}
	}
	entry = strings.Trim(entry, "*_`\" ")
	if entry == "" || len(entry) > 80 {
		return ""
	}
	return entry
}
