// Package property loads rental property records and derives the location
// facts the concierge uses when answering guests.
package property

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no property matches a code or id.
var ErrNotFound = errors.New("property: not found")

// Property is a rental listing as seen by the concierge. The core never
// mutates it.
type Property struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	Address              string    `json:"address"`
	WifiName             string    `json:"wifiName,omitempty"`
	WifiPassword         string    `json:"wifiPassword,omitempty"`
	CheckInTime          string    `json:"checkInTime,omitempty"`
	CheckOutTime         string    `json:"checkOutTime,omitempty"`
	ParkingInstructions  string    `json:"parkingInstructions,omitempty"`
	AccessInstructions   string    `json:"accessInstructions,omitempty"`
	EmergencyContact     string    `json:"emergencyContact,omitempty"`
	HouseRules           string    `json:"houseRules,omitempty"`
	Amenities            []string  `json:"amenities,omitempty"`
	KnowledgeBase        string    `json:"knowledgeBase,omitempty"`
	LocalRecommendations string    `json:"localRecommendations,omitempty"`
	SpecialNotes         string    `json:"specialNotes,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`

	// Location is derived from Address when the property is loaded and is
	// never persisted.
	Location LocationContext `json:"-"`
}

// Hydrate fills the derived fields.
func (p *Property) Hydrate() {
	if p == nil {
		return
	}
	p.Location = DeriveLocationContext(p.Address)
}

// HasAmenity reports whether the amenities list mentions name.
func (p *Property) HasAmenity(name string) bool {
	if p == nil {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	for _, a := range p.Amenities {
		if strings.Contains(strings.ToLower(a), name) {
			return true
		}
	}
	return false
}

// ContactLine returns a short "reach the host" sentence, or "" when no
// emergency contact is on file.
func (p *Property) ContactLine() string {
	if p == nil || strings.TrimSpace(p.EmergencyContact) == "" {
		return ""
	}
	return "For anything urgent, contact " + strings.TrimSpace(p.EmergencyContact) + "."
}

// Directory looks properties up by guest-facing code or internal id.
type Directory interface {
	GetByCode(ctx context.Context, code string) (*Property, error)
	GetByID(ctx context.Context, id string) (*Property, error)
}
