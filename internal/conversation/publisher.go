package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// Publisher enqueues guest messages for the worker.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueMessage publishes a guest message job and returns its id.
func (p *Publisher) EnqueueMessage(ctx context.Context, req MessageRequest) (string, error) {
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return "", ErrPhoneRequired
	}
	payload, body, err := encodePayload(queuePayload{Kind: jobKindGuestMessage, Message: req})
	if err != nil {
		return "", err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return "", fmt.Errorf("conversation: failed to enqueue job: %w", err)
	}
	p.logger.Debug("conversation job enqueued",
		"job_id", payload.ID,
		"phone", logging.MaskPhone(req.PhoneNumber),
		"message_id", req.MessageID,
	)
	return payload.ID, nil
}
