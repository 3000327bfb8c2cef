package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

func newTestSender(url string) *TwilioSender {
	return NewTwilioSender("AC123", "secret", "+18885550000", logging.New("error"),
		WithBaseURL(url),
		WithRetryBackoff(func(int) time.Duration { return time.Millisecond }),
	)
}

func TestTwilioSender_PostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+14075550100", r.PostForm.Get("To"))
		assert.Equal(t, "+18885550000", r.PostForm.Get("From"))
		assert.Equal(t, "Network: SunnyNet", r.PostForm.Get("Body"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM900","status":"queued"}`))
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).SendReply(context.Background(), conversation.OutboundReply{
		To: "+14075550100", Body: "Network: SunnyNet", Part: 1, Parts: 1,
	})
	require.NoError(t, err)
}

func TestTwilioSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).SendReply(context.Background(), conversation.OutboundReply{To: "+14075550100", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTwilioSender_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).SendReply(context.Background(), conversation.OutboundReply{To: "+1", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400 code 21211: Invalid 'To' Phone Number")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTwilioSender_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).SendReply(context.Background(), conversation.OutboundReply{To: "+14075550100", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Equal(t, int32(maxSendAttempts), calls.Load())
}

func TestTwilioSender_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewTwilioSender("", "", "+1888", nil).SendReply(ctx, conversation.OutboundReply{To: "+1407", Body: "x"}))
	assert.Error(t, NewTwilioSender("AC", "tok", "", nil).SendReply(ctx, conversation.OutboundReply{To: "+1407", Body: "x"}))
	assert.Error(t, NewTwilioSender("AC", "tok", "+1888", nil).SendReply(ctx, conversation.OutboundReply{Body: "x"}))
	assert.Error(t, NewTwilioSender("AC", "tok", "+1888", nil).SendReply(ctx, conversation.OutboundReply{To: "+1407", Body: " "}))
}

func TestFormatTwilioError(t *testing.T) {
	assert.Equal(t, "status 500", formatTwilioError(500, nil))
	assert.Equal(t, "status 401: Authenticate", formatTwilioError(401, []byte(`{"message":"Authenticate"}`)))
	assert.Equal(t, "status 502: bad gateway", formatTwilioError(502, []byte(" bad gateway ")))
}
