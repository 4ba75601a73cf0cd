package scan

import (
	"context"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/pkg/anthropic"
	"github.com/localsignal/visibility-cli/pkg/perplexity"
)

const liveSystemPrompt = "You are answering a consumer searching for local businesses. " +
	"Answer directly and, when comparing providers, use a numbered list with the business name first on each line."

// NewAnthropicCaller returns a ModelCaller that asks Claude live and
// derives the structured outcome from the answer text. Claude does not
// return source citations, so responses carry none.
func NewAnthropicCaller(client anthropic.Client, modelID string, maxTokens int64) ModelCaller {
	return CallerFunc(func(ctx context.Context, profile *model.BusinessProfile, prompt string) (Response, error) {
		text, err := anthropic.Ask(ctx, client, modelID, maxTokens, liveSystemPrompt, prompt)
		if err != nil {
			return Response{}, err
		}
		return AnalyzeText(profile, text, nil), nil
	})
}

// NewPerplexityCaller returns a ModelCaller that asks Perplexity live.
// Perplexity grounds answers on web sources, so its citation URLs feed
// the accessibility verifier.
func NewPerplexityCaller(client perplexity.Client) ModelCaller {
	return CallerFunc(func(ctx context.Context, profile *model.BusinessProfile, prompt string) (Response, error) {
		text, urls, err := perplexity.Ask(ctx, client, prompt)
		if err != nil {
			return Response{}, err
		}
		citations := make([]model.Citation, 0, len(urls))
		for _, u := range urls {
			citations = append(citations, model.Citation{URL: u})
		}
		return AnalyzeText(profile, text, citations), nil
	})
}

// BuildRegistry wires live callers for every model whose API key is
// configured. Models without a key keep the simulator fallback.
func BuildRegistry(anthropicKey, anthropicModel string, anthropicMaxTokens int64, perplexityKey string, perplexityOpts ...perplexity.Option) *Registry {
	r := NewRegistry()
	if anthropicKey != "" {
		r.Register("claude", NewAnthropicCaller(anthropic.NewClient(anthropicKey), anthropicModel, anthropicMaxTokens))
	}
	if perplexityKey != "" {
		r.Register("perplexity", NewPerplexityCaller(perplexity.NewClient(perplexityKey, perplexityOpts...)))
	}
	return r
}
