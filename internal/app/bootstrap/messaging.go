package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/mchlbschmdt/ai-concierge/internal/config"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// BuildReplyMessenger returns the Twilio sender when credentials are set.
// Outside production a missing account falls back to a messenger that only
// logs replies; the second return value names the choice.
func BuildReplyMessenger(cfg *appconfig.Config, logger *logging.Logger) (conversation.ReplyMessenger, string, error) {
	if cfg == nil {
		return nil, "", errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger,
			messaging.WithBaseURL(cfg.TwilioBaseURL),
		), "twilio", nil
	}
	if cfg.Production() {
		return nil, "", errors.New("bootstrap: twilio credentials are required in production")
	}
	logger.Warn("twilio not configured; replies will only be logged")
	return &logMessenger{logger: logger}, "log", nil
}

// BuildQueue returns the in-memory queue or the SQS queue named by config.
func BuildQueue(cfg *appconfig.Config, awsCfg *aws.Config) (conversation.Queue, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if cfg.UseMemoryQueue {
		return conversation.NewMemoryQueue(1024), nil
	}
	if strings.TrimSpace(cfg.ConversationQueueURL) == "" {
		return nil, errors.New("bootstrap: CONVERSATION_QUEUE_URL is required unless USE_MEMORY_QUEUE is set")
	}
	if awsCfg == nil {
		return nil, errors.New("bootstrap: aws config is required for SQS")
	}
	return conversation.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.ConversationQueueURL), nil
}

type logMessenger struct {
	logger *logging.Logger
}

func (m *logMessenger) SendReply(_ context.Context, reply conversation.OutboundReply) error {
	m.logger.Info("reply (not sent)",
		"to", logging.MaskPhone(reply.To),
		"segment", reply.Part,
		"segments", reply.Parts,
		"body", reply.Body,
	)
	return nil
}
