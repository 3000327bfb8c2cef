package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/events"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

type stubPublisher struct {
	mu   sync.Mutex
	reqs []conversation.MessageRequest
	err  error
}

func (p *stubPublisher) EnqueueMessage(_ context.Context, req conversation.MessageRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.reqs = append(p.reqs, req)
	return "job-" + req.MessageID, nil
}

type brokenDedupe struct{}

func (brokenDedupe) MarkProcessed(context.Context, string, string) (bool, error) {
	return false, errors.New("db down")
}

func (brokenDedupe) Forget(context.Context, string, string) error { return nil }

func webhookRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/messaging/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func guestForm(sid, body string) url.Values {
	return url.Values{
		"MessageSid": {sid},
		"AccountSid": {"AC123"},
		"From":       {"(407) 555-0100"},
		"To":         {"+18885550000"},
		"Body":       {body},
	}
}

func newTestHandler(pub messagePublisher, processed processedStore) (*Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewHandler(pub, processed, metrics.NewMessagingMetrics(reg), logging.New("error")), reg
}

func inbound(reg *prometheus.Registry, status string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != "concierge_messaging_inbound_webhook_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestTwilioWebhook_EnqueuesGuestMessage(t *testing.T) {
	pub := &stubPublisher{}
	h, m := newTestHandler(pub, events.NewMemoryProcessedStore())

	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM1", "  wifi password? ")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, emptyTwiML, rec.Body.String())
	require.Len(t, pub.reqs, 1)
	assert.Equal(t, conversation.MessageRequest{
		PhoneNumber: "+14075550100",
		Message:     "wifi password?",
		MessageID:   "SM1",
	}, pub.reqs[0])
	assert.Equal(t, 1.0, inbound(m, "accepted"))
}

func TestTwilioWebhook_DuplicateIsAcknowledgedOnce(t *testing.T) {
	pub := &stubPublisher{}
	h, m := newTestHandler(pub, events.NewMemoryProcessedStore())

	for range 2 {
		rec := httptest.NewRecorder()
		h.TwilioWebhook(rec, webhookRequest(guestForm("SM2", "hello")))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Len(t, pub.reqs, 1)
	assert.Equal(t, 1.0, inbound(m, "duplicate"))
}

func TestTwilioWebhook_EnqueueFailureAllowsRetry(t *testing.T) {
	pub := &stubPublisher{err: errors.New("queue unavailable")}
	h, m := newTestHandler(pub, events.NewMemoryProcessedStore())

	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM3", "hello")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, inbound(m, "failed"))

	pub.err = nil
	rec = httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM3", "hello")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.reqs, 1)
}

func TestTwilioWebhook_DedupeOutageFailsOpen(t *testing.T) {
	pub := &stubPublisher{}
	h, _ := newTestHandler(pub, brokenDedupe{})

	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM4", "hello")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.reqs, 1)
}

func TestTwilioWebhook_RejectsMissingFields(t *testing.T) {
	pub := &stubPublisher{}
	h, m := newTestHandler(pub, nil)

	noSid := guestForm("", "hello")
	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(noSid))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	noFrom := guestForm("SM5", "hello")
	noFrom.Del("From")
	rec = httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(noFrom))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, pub.reqs)
	assert.Equal(t, 2.0, inbound(m, "invalid"))
}

func TestTwilioWebhook_EmptyBodies(t *testing.T) {
	pub := &stubPublisher{}
	h, m := newTestHandler(pub, nil)

	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM6", "   ")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, emptyTwiML, rec.Body.String())

	media := guestForm("SM7", "")
	media.Set("NumMedia", "1")
	rec = httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(media))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "only read text messages")

	assert.Empty(t, pub.reqs)
	assert.Equal(t, 2.0, inbound(m, "ignored"))
}

func TestTwilioWebhook_CarrierKeywordsAreNotQueued(t *testing.T) {
	pub := &stubPublisher{}
	h, m := newTestHandler(pub, nil)

	for _, body := range []string{"STOP", "start"} {
		rec := httptest.NewRecorder()
		h.TwilioWebhook(rec, webhookRequest(guestForm("SM-"+body, body)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, emptyTwiML, rec.Body.String())
	}
	assert.Empty(t, pub.reqs)
	assert.Equal(t, 2.0, inbound(m, "carrier_keyword"))

	rec := httptest.NewRecorder()
	h.TwilioWebhook(rec, webhookRequest(guestForm("SM8", "stop by the pool later?")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.reqs, 1)
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(&stubPublisher{}, nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNormalizeE164(t *testing.T) {
	tests := map[string]string{
		"+1 (407) 555-0100": "+14075550100",
		"(407) 555-0100":    "+14075550100",
		"14075550100":       "+14075550100",
		"+447700900123":     "+447700900123",
		"   ":               "",
		"abc":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeE164(in), in)
	}
}
