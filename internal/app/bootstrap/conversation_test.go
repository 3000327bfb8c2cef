package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/mchlbschmdt/ai-concierge/internal/config"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

func TestBuildRecommenderRequiresConfig(t *testing.T) {
	_, release, err := BuildRecommender(context.Background(), nil, nil, nil)
	assert.Error(t, err)
	release()
}

func TestBuildRecommenderWithoutProvidersIsNil(t *testing.T) {
	cfg := &appconfig.Config{BedrockModelID: "anthropic.claude-3-haiku"}

	rec, release, err := BuildRecommender(context.Background(), cfg, nil, logging.New("error"))
	require.NoError(t, err)
	defer release()
	// Bedrock needs an AWS config; without one the chain is empty.
	assert.Nil(t, rec)
}

func TestBuildConversationService(t *testing.T) {
	_, err := BuildConversationService(nil, nil, &appconfig.Config{}, nil, nil)
	assert.Error(t, err)

	rt, err := BuildRuntime(context.Background(), &appconfig.Config{UseMemoryStore: true, PropertiesFile: seedFile(t)}, logging.New("error"))
	require.NoError(t, err)
	defer rt.Close()

	svc, err := BuildConversationService(rt, nil, &appconfig.Config{SMSSegmentLength: 160}, nil, logging.New("error"))
	require.NoError(t, err)

	resp, err := svc.ProcessMessage(context.Background(), conversation.MessageRequest{PhoneNumber: "+14075550100", Message: "1434"})
	require.NoError(t, err)
	assert.Equal(t, conversation.StateConfirmed, resp.State)
}

func TestBuildReplyMessenger(t *testing.T) {
	m, kind, err := BuildReplyMessenger(&appconfig.Config{}, logging.New("error"))
	require.NoError(t, err)
	assert.Equal(t, "log", kind)
	assert.NoError(t, m.SendReply(context.Background(), conversation.OutboundReply{To: "+14075550100", Body: "hi"}))

	_, _, err = BuildReplyMessenger(&appconfig.Config{Env: "production"}, logging.New("error"))
	assert.Error(t, err)

	_, kind, err = BuildReplyMessenger(&appconfig.Config{
		TwilioAccountSID: "AC1", TwilioAuthToken: "tok", TwilioFromNumber: "+18885550000",
	}, logging.New("error"))
	require.NoError(t, err)
	assert.Equal(t, "twilio", kind)
}

func TestBuildQueue(t *testing.T) {
	q, err := BuildQueue(&appconfig.Config{UseMemoryQueue: true}, nil)
	require.NoError(t, err)
	assert.IsType(t, &conversation.MemoryQueue{}, q)

	_, err = BuildQueue(&appconfig.Config{}, nil)
	assert.ErrorContains(t, err, "CONVERSATION_QUEUE_URL")

	_, err = BuildQueue(&appconfig.Config{ConversationQueueURL: "http://localhost:4566/000/q"}, nil)
	assert.Error(t, err)
}
