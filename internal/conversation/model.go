package conversation

import (
	"errors"
	"time"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

// State is where a conversation sits in the property binding lifecycle.
type State string

const (
	StateAwaitingPropertyID   State = "AWAITING_PROPERTY_ID"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateConfirmed            State = "CONFIRMED"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateAwaitingPropertyID, StateAwaitingConfirmation, StateConfirmed:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned by a Store when no conversation exists for a phone number.
	ErrNotFound = errors.New("conversation: not found")
	// ErrPhoneRequired is returned when a message arrives without a sender.
	ErrPhoneRequired = errors.New("conversation: phone number required")
)

// Conversation is the persisted per-phone-number dialog state.
type Conversation struct {
	ID                  string         `json:"id"`
	PhoneNumber         string         `json:"phoneNumber"`
	State               State          `json:"state"`
	PropertyID          string         `json:"propertyId,omitempty"`
	Context             memory.Context `json:"context"`
	LastRecommendations string         `json:"lastRecommendations,omitempty"`
	LastMessageType     intent.Intent  `json:"lastMessageType,omitempty"`
	Timezone            string         `json:"timezone,omitempty"`
	LastInteractionAt   time.Time      `json:"lastInteractionAt"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// Confirmed reports whether the conversation is bound to a property.
func (c *Conversation) Confirmed() bool {
	return c != nil && c.State == StateConfirmed && c.PropertyID != ""
}

// Paused reports whether more than after has elapsed since the last turn.
// It is informational only.
func (c *Conversation) Paused(now time.Time, after time.Duration) bool {
	if c == nil || c.LastInteractionAt.IsZero() || after <= 0 {
		return false
	}
	return now.Sub(c.LastInteractionAt) > after
}

// Location returns the conversation timezone, or fallback when unset or unknown.
func (c *Conversation) Location(fallback *time.Location) *time.Location {
	if c == nil {
		return loadLocation("", fallback)
	}
	return loadLocation(c.Timezone, fallback)
}

func loadLocation(tz string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if tz == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return loc
}

// Update is a partial change to a conversation. Nil fields are left alone;
// an empty PropertyID clears the binding.
type Update struct {
	State               *State
	PropertyID          *string
	Context             *memory.Context
	LastRecommendations *string
	LastMessageType     *intent.Intent
	Timezone            *string
	LastInteractionAt   *time.Time
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.State == nil && u.PropertyID == nil && u.Context == nil && u.LastRecommendations == nil &&
		u.LastMessageType == nil && u.Timezone == nil && u.LastInteractionAt == nil
}

// Apply copies the set fields onto c.
func (u Update) Apply(c *Conversation) {
	if u.State != nil {
		c.State = *u.State
	}
	if u.PropertyID != nil {
		c.PropertyID = *u.PropertyID
	}
	if u.Context != nil {
		c.Context = *u.Context
	}
	if u.LastRecommendations != nil {
		c.LastRecommendations = *u.LastRecommendations
	}
	if u.LastMessageType != nil {
		c.LastMessageType = *u.LastMessageType
	}
	if u.Timezone != nil {
		c.Timezone = *u.Timezone
	}
	if u.LastInteractionAt != nil {
		c.LastInteractionAt = *u.LastInteractionAt
	}
}
