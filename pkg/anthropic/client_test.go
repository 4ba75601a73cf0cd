package anthropic

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient is a testify mock implementation of Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestAsk(t *testing.T) {
	m := new(MockClient)
	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.System == "You answer consumer questions." &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == "user" &&
			req.Messages[0].Content == "best plumber in Austin?"
	})).Return(&MessageResponse{
		ID:    "msg_1",
		Model: "claude-haiku-4-5-20251001",
		Content: []ContentBlock{
			{Type: "text", Text: "1. Acme Plumbing\n"},
			{Type: "text", Text: "2. Rapid Rooter\n"},
		},
		StopReason: "end_turn",
		Usage:      TokenUsage{InputTokens: 12, OutputTokens: 30},
	}, nil)

	text, err := Ask(context.Background(), m, "claude-haiku-4-5-20251001", 1024, "You answer consumer questions.", "best plumber in Austin?")
	require.NoError(t, err)
	assert.Equal(t, "1. Acme Plumbing\n2. Rapid Rooter\n", text)
	m.AssertExpectations(t)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "hello "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "hello world", resp.Text())
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		usage    TokenUsage
		expected float64
	}{
		{
			name:     "haiku small request",
			model:    "claude-haiku-4-5-20251001",
			usage:    TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			expected: 4.80,
		},
		{
			name:     "sonnet mixed usage",
			model:    "claude-sonnet-4-5-20250929",
			usage:    TokenUsage{InputTokens: 500_000, OutputTokens: 100_000},
			expected: 3.00,
		},
		{
			name:     "unknown model",
			model:    "claude-unknown",
			usage:    TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			expected: 0,
		},
		{
			name:     "zero usage",
			model:    "claude-haiku-4-5-20251001",
			usage:    TokenUsage{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.usage.EstimateCost(tt.model), 0.0001)
		})
	}
}

func TestFromSDKMessage(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_abc",
		Model: "claude-haiku-4-5-20251001",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "first"},
			{Type: "text", Text: "second"},
		},
		StopReason: "end_turn",
		Usage: sdk.Usage{
			InputTokens:  100,
			OutputTokens: 250,
		},
	}

	resp := fromSDKMessage(msg)

	assert.Equal(t, "msg_abc", resp.ID)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
	require.Len(t, resp.Content, 2)
	assert.Equal(t, "first", resp.Content[0].Text)
	assert.Equal(t, "second", resp.Content[1].Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(100), resp.Usage.InputTokens)
	assert.Equal(t, int64(250), resp.Usage.OutputTokens)
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, msgs[1].Role)
}
