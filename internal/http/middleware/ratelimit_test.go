package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(1, 2, clock.now)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	clock.t = clock.t.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_EvictsStaleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(1, 1, clock.now)
	rl.Allow("old")

	clock.t = clock.t.Add(staleAfter + time.Minute)
	rl.Allow("new")

	assert.Len(t, rl.buckets, 1)
	assert.Contains(t, rl.buckets, "new")
}

func TestRateLimit_KeysOnSender(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	h := rateLimit(newRateLimiter(0.1, 1, clock.now), ByFormValue("From"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	post := func(from string) int {
		form := url.Values{"From": {from}}
		req := httptest.NewRequest(http.MethodPost, "/messaging/twilio/webhook", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, post("+14075550100"))
	assert.Equal(t, http.StatusTooManyRequests, post("+14075550100"))
	assert.Equal(t, http.StatusNoContent, post("+14075550199"))
}
