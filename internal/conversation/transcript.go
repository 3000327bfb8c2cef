package conversation

import (
	"context"
	"time"
)

// Transcript roles.
const (
	RoleGuest     = "guest"
	RoleConcierge = "concierge"
)

// TranscriptMessage is one SMS in either direction.
type TranscriptMessage struct {
	ID                string    `json:"id"`
	PhoneNumber       string    `json:"phone_number"`
	Role              string    `json:"role"`
	Body              string    `json:"body"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Intent            string    `json:"intent,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

type transcriptSink interface {
	Append(ctx context.Context, msg TranscriptMessage) error
}

// TranscriptLister reads back a phone number's recent messages, oldest first.
type TranscriptLister interface {
	List(ctx context.Context, phone string, limit int) ([]TranscriptMessage, error)
}
