package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, concierge, messaging := setupMetrics()
	if handler == nil || concierge == nil || messaging == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	messaging.ObserveInbound("accepted")
	concierge.ObserveTurn("greeting", "greeting", 25*time.Millisecond)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"concierge_messaging_inbound_webhook_total",
		"concierge_conversation_turns_total",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s to be exported", name)
		}
	}
}
