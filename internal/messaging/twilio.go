package messaging

import (
	"fmt"
	"net/http"
	"strings"
)

// TwilioWebhookRequest is the subset of an inbound SMS webhook the concierge reads.
type TwilioWebhookRequest struct {
	MessageSid string
	AccountSid string
	From       string
	To         string
	Body       string
	NumMedia   string
}

// HasMedia reports whether the guest attached MMS media.
func (r *TwilioWebhookRequest) HasMedia() bool {
	n := strings.TrimSpace(r.NumMedia)
	return n != "" && n != "0"
}

// ParseTwilioWebhook parses a Twilio webhook form post.
func ParseTwilioWebhook(r *http.Request) (*TwilioWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	return &TwilioWebhookRequest{
		MessageSid: strings.TrimSpace(r.FormValue("MessageSid")),
		AccountSid: strings.TrimSpace(r.FormValue("AccountSid")),
		From:       r.FormValue("From"),
		To:         r.FormValue("To"),
		Body:       r.FormValue("Body"),
		NumMedia:   r.FormValue("NumMedia"),
	}, nil
}
