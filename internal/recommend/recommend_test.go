package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

type mockConverse struct {
	response string
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.response}},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(8),
			TotalTokens:  aws.Int32(20),
		},
	}, nil
}

type stubClient struct {
	text  string
	err   error
	calls int
	last  LLMRequest
}

func (s *stubClient) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text}, nil
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &mockConverse{response: "  Try Kiko's Kitchen, 10 minutes away.  "}
	client := NewBedrockLLMClient(api, "anthropic.test-model")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System: []string{"be brief"},
		Messages: []ChatMessage{
			{Role: ChatRoleSystem, Content: "extra rule"},
			{Role: ChatRoleUser, Content: "dinner?"},
			{Role: ChatRoleAssistant, Content: ""},
		},
		MaxTokens:   100,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Try Kiko's Kitchen, 10 minutes away.", resp.Text)
	assert.Equal(t, int32(20), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.test-model", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	assert.Len(t, api.input.Messages, 1)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(100), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	_, err := NewBedrockLLMClient(&mockConverse{}, "").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.Error(t, err)

	client := NewBedrockLLMClient(&mockConverse{err: errors.New("throttled")}, "m")
	_, err = client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "throttled")

	_, err = client.Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)

	_, err = NewBedrockLLMClient(&mockConverse{response: "   "}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestFallbackLLMClient(t *testing.T) {
	primary := &stubClient{err: errors.New("bedrock down")}
	secondary := &stubClient{text: "fallback answer"}
	chain := NewFallbackLLMClient(logging.Default(),
		Provider{Name: "bedrock", Client: primary},
		Provider{Name: "nil", Client: nil},
		Provider{Name: "gemini", Client: secondary},
	)
	assert.Equal(t, 2, chain.Len())

	resp, err := chain.Complete(context.Background(), LLMRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)

	secondary.err = errors.New("quota")
	_, err = chain.Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bedrock: bedrock down")
	assert.Contains(t, err.Error(), "gemini: quota")

	_, err = NewFallbackLLMClient(nil).Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)
}

func TestFallbackLLMClient_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := &stubClient{err: context.Canceled}
	second := &stubClient{text: "unused"}
	_, err := NewFallbackLLMClient(nil,
		Provider{Name: "a", Client: first},
		Provider{Name: "b", Client: second},
	).Complete(ctx, LLMRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}

func TestLLMRecommender(t *testing.T) {
	stub := &stubClient{text: "**Kiko's Kitchen** is a local favorite.\n- 8 min drive"}
	rec := NewLLMRecommender(stub, nil)

	text, err := rec.GetRecommendations(context.Background(), RecommendationRequest{
		Query:           "somewhere for dinner",
		PropertyName:    "Sunny Villa",
		PropertyAddress: "7593 Gathering Dr, Kissimmee, FL",
		RequestType:     "ask_food_recommendations",
		Vibe:            "casual",
		RejectedOptions: []string{"Olive Garden"},
		Single:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Kiko's Kitchen is a local favorite.\n8 min drive", text)

	prompt := stub.last.Messages[0].Content
	assert.Contains(t, prompt, "Do not suggest: Olive Garden")
	assert.Contains(t, prompt, "exactly ONE")
	assert.Contains(t, prompt, "Preferred vibe: casual")
	assert.Equal(t, []string{systemPrompt}, stub.last.System)

	stub.text = "   "
	_, err = rec.GetRecommendations(context.Background(), RecommendationRequest{Query: "x"})
	assert.Error(t, err)

	stub.err = errors.New("boom")
	_, err = rec.GetRecommendations(context.Background(), RecommendationRequest{Query: "x"})
	assert.Error(t, err)
}

func TestBuildPrompt_TravelMode(t *testing.T) {
	prompt := BuildPrompt(RecommendationRequest{Query: "coffee near the airport"})
	assert.Contains(t, prompt, "has not shared an address")
	assert.Contains(t, prompt, "two or three options")
	assert.True(t, strings.HasSuffix(prompt, "Guest message: coffee near the airport"))
}
