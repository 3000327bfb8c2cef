// Package messaging is the SMS carrier surface: it accepts inbound Twilio
// webhooks, queues them for the conversation worker, and sends replies.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging/compliance"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

var twilioTracer = otel.Tracer("ai-concierge.messaging.twilio")

const (
	providerTwilio = "twilio"
	publishTimeout = 3 * time.Second

	emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
	mediaTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response><Message>` +
		`I can only read text messages. Please type your question and I'll help right away.` +
		`</Message></Response>`
)

type messagePublisher interface {
	EnqueueMessage(ctx context.Context, req conversation.MessageRequest) (string, error)
}

type processedStore interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	Forget(ctx context.Context, provider, eventID string) error
}

// Handler handles messaging webhook requests.
type Handler struct {
	publisher messagePublisher
	processed processedStore
	keywords  *compliance.Detector
	metrics   *metrics.MessagingMetrics
	logger    *logging.Logger
}

// NewHandler creates a webhook handler. processed and m may be nil; without a
// processed store carrier retries are not deduplicated.
func NewHandler(publisher messagePublisher, processed processedStore, m *metrics.MessagingMetrics, logger *logging.Logger) *Handler {
	if publisher == nil {
		panic("messaging: publisher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		publisher: publisher,
		processed: processed,
		keywords:  compliance.NewDetector(),
		metrics:   m,
		logger:    logger,
	}
}

// TwilioWebhook handles POST /messaging/twilio/webhook requests. The reply
// is sent later by the worker, so the webhook answers with empty TwiML.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		h.metrics.ObserveInbound("invalid")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	from := NormalizeE164(webhook.From)
	span.SetAttributes(
		attribute.String("concierge.twilio.message_sid", webhook.MessageSid),
		attribute.String("concierge.twilio.from", logging.MaskPhone(from)),
	)

	if webhook.MessageSid == "" || from == "" {
		err := errors.New("missing required twilio fields")
		h.logger.Error("invalid twilio payload", "error", err)
		h.metrics.ObserveInbound("invalid")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	body := strings.TrimSpace(webhook.Body)
	if body == "" {
		h.metrics.ObserveInbound("ignored")
		if webhook.HasMedia() {
			h.logger.Info("media-only message ignored", "from", logging.MaskPhone(from), "message_sid", webhook.MessageSid)
			writeTwiML(w, mediaTwiML)
			return
		}
		writeTwiML(w, emptyTwiML)
		return
	}

	// The carrier answers STOP/START itself.
	if h.keywords.IsCarrierKeyword(body) {
		h.logger.Info("carrier keyword received", "from", logging.MaskPhone(from), "stop", h.keywords.IsStop(body))
		h.metrics.ObserveInbound("carrier_keyword")
		writeTwiML(w, emptyTwiML)
		return
	}

	if h.processed != nil {
		fresh, err := h.processed.MarkProcessed(ctx, providerTwilio, webhook.MessageSid)
		switch {
		case err != nil:
			// A dedupe outage must not drop guest messages.
			h.logger.Warn("dedupe check failed", "error", err, "message_sid", webhook.MessageSid)
		case !fresh:
			h.logger.Info("duplicate twilio webhook", "message_sid", webhook.MessageSid)
			h.metrics.ObserveInbound("duplicate")
			writeTwiML(w, emptyTwiML)
			return
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	jobID, err := h.publisher.EnqueueMessage(publishCtx, conversation.MessageRequest{
		PhoneNumber: from,
		Message:     body,
		MessageID:   webhook.MessageSid,
	})
	if err != nil {
		h.logger.Error("failed to enqueue conversation job", "error", err, "message_sid", webhook.MessageSid)
		h.metrics.ObserveInbound("failed")
		span.RecordError(err)
		h.forget(ctx, webhook.MessageSid)
		http.Error(w, "Failed to schedule reply", http.StatusInternalServerError)
		return
	}

	h.logger.Info("twilio webhook accepted", "job_id", jobID, "from", logging.MaskPhone(from))
	h.metrics.ObserveInbound("accepted")
	writeTwiML(w, emptyTwiML)
}

// forget releases the dedupe marker so the carrier's retry is processed.
func (h *Handler) forget(ctx context.Context, sid string) {
	if h.processed == nil {
		return
	}
	if err := h.processed.Forget(context.WithoutCancel(ctx), providerTwilio, sid); err != nil {
		h.logger.Warn("failed to release dedupe marker", "error", err, "message_sid", sid)
	}
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
