package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsignal/visibility-cli/internal/model"
)

func TestRegistry_FallsBackToSimulator(t *testing.T) {
	r := NewRegistry()
	profile := &model.BusinessProfile{Name: "Acme Plumbing"}

	resp1, err := r.For("chatgpt").Call(context.Background(), profile, "best plumber in austin")
	require.NoError(t, err)
	resp2, err := r.For("chatgpt").Call(context.Background(), profile, "best plumber in austin")
	require.NoError(t, err)
	assert.Equal(t, resp1, resp2)
}

func TestRegistry_RegisteredCallerWins(t *testing.T) {
	r := NewRegistry()
	r.Register("chatgpt", CallerFunc(func(context.Context, *model.BusinessProfile, string) (Response, error) {
		return Response{Mentioned: true, Text: "live"}, nil
	}))

	resp, err := r.For("chatgpt").Call(context.Background(), &model.BusinessProfile{Name: "X"}, "p")
	require.NoError(t, err)
	assert.Equal(t, "live", resp.Text)
}

func TestAnalyzeText_MentionAndPosition(t *testing.T) {
	profile := &model.BusinessProfile{Name: "Acme Plumbing"}
	text := "Here are the top plumbers in Austin:\n" +
		"1. Rapid Rooter - known for fast service\n" +
		"2. Acme Plumbing - a solid local choice\n" +
		"3. BlueFlow Plumbing: good reviews\n"

	resp := AnalyzeText(profile, text, nil)
	assert.True(t, resp.Mentioned)
	assert.True(t, resp.Recommended)
	require.NotNil(t, resp.Position)
	assert.Equal(t, 2, *resp.Position)
	assert.Equal(t, []string{"Rapid Rooter", "BlueFlow Plumbing"}, resp.Competitors)
}

func TestAnalyzeText_BrandSynonymCountsAsMention(t *testing.T) {
	profile := &model.BusinessProfile{Name: "Acme Plumbing", BrandSynonyms: []string{"Acme Pros"}}
	resp := AnalyzeText(profile, "Many locals recommend Acme Pros for drain work.", nil)
	assert.True(t, resp.Mentioned)
	assert.True(t, resp.Recommended)
	assert.Nil(t, resp.Position)
}

func TestAnalyzeText_NoMention(t *testing.T) {
	profile := &model.BusinessProfile{Name: "Acme Plumbing"}
	resp := AnalyzeText(profile, "1. Rapid Rooter\n2. BlueFlow Plumbing", nil)
	assert.False(t, resp.Mentioned)
	assert.False(t, resp.Recommended)
	assert.Nil(t, resp.Position)
	assert.Len(t, resp.Competitors, 2)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNoPrompts, KindOf(&Error{Kind: KindNoPrompts}))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
	assert.Equal(t, Kind(""), KindOf(nil))
}
