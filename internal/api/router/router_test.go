package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

type echoProcessor struct{}

func (echoProcessor) ProcessMessage(_ context.Context, req conversation.MessageRequest) (*conversation.Response, error) {
	return &conversation.Response{PhoneNumber: req.PhoneNumber, Message: "echo: " + req.Message}, nil
}

func newTestRouter(t *testing.T, cfg Config) (http.Handler, *conversation.MemoryQueue) {
	t.Helper()

	logger := logging.New("error")
	queue := conversation.NewMemoryQueue(10)
	cfg.Logger = logger
	cfg.MessagingHandler = messaging.NewHandler(conversation.NewPublisher(queue, logger), nil, nil, logger)
	cfg.ConversationHandler = conversation.NewHandler(echoProcessor{}, nil, logger)
	cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return New(&cfg), queue
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics" {
		t.Fatalf("unexpected metrics response %d %q", rr.Code, rr.Body.String())
	}
}

func postWebhook(router http.Handler, sid, from string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("MessageSid", sid)
	form.Set("From", from)
	form.Set("To", "+18885550000")
	form.Set("Body", "Hi there")

	req := httptest.NewRequest(http.MethodPost, "/messaging/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterMessagingWebhookEndpoint(t *testing.T) {
	router, queue := newTestRouter(t, Config{})

	rr := postWebhook(router, "SM123", "+14075550100")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected XML response, got %s", ct)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 queued job, got %d", queue.Len())
	}
}

func TestRouterWebhookRateLimitedPerSender(t *testing.T) {
	router, _ := newTestRouter(t, Config{WebhookRatePerSecond: 0.01, WebhookBurst: 1})

	if rr := postWebhook(router, "SM1", "+14075550100"); rr.Code != http.StatusOK {
		t.Fatalf("first message: expected 200, got %d", rr.Code)
	}
	if rr := postWebhook(router, "SM2", "+14075550100"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second message: expected 429, got %d", rr.Code)
	}
	if rr := postWebhook(router, "SM3", "+14075550199"); rr.Code != http.StatusOK {
		t.Fatalf("other sender: expected 200, got %d", rr.Code)
	}
}

func TestRouterConversationAPIRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, Config{AdminToken: "s3cret"})
	body := `{"phoneNumber":"+14075550100","message":"wifi"}`

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/conversations/process", strings.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/process", strings.NewReader(body))
	req.Header.Set(adminTokenHeader, "s3cret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "echo: wifi") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouterTranscriptDisabledWithoutStore(t *testing.T) {
	router, _ := newTestRouter(t, Config{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/conversations/+14075550100/transcript", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when transcripts are disabled, got %d", rr.Code)
	}
}
