package knowledge

import "strings"

var (
	wifiTerms       = []string{"wifi", "wi-fi", "wi fi", "internet", "network", "password", "wireless"}
	checkoutTerms   = []string{"checkout", "check out", "check-out", "checking out", "leave by", "departure"}
	checkinTerms    = []string{"checkin", "check in", "check-in", "checking in", "arrival", "arrive"}
	emergencyTerms  = []string{"emergency", "urgent", "host", "manager", "contact", "phone number", "call someone"}
	accessTerms     = []string{"door code", "lockbox", "lock box", "key", "keys", "keypad", "entry", "gate code", "access", "get in", "smart lock"}
	parkingTerms    = []string{"parking", "park", "garage", "driveway", "car", "cars"}
	directionsTerms = []string{"address", "directions", "where is the property", "location", "how far", "how do i get", "where are we"}
	houseRuleTerms  = []string{"house rules", "rules", "quiet hours", "smoking", "party", "parties", "allowed", "pets", "noise", "occupancy"}
	amenityTerms    = []string{"amenities", "amenity", "pool", "hot tub", "spa", "gym", "grill", "bbq", "washer", "dryer", "game room", "fireplace", "balcony", "towels", "crib", "high chair", "coffee maker", "keurig", "iron", "hair dryer"}
)

// IsWifiQuery reports whether the query asks about WiFi access.
func IsWifiQuery(q string) bool { return mentions(q, wifiTerms) }

// IsCheckoutQuery reports whether the query asks about checkout.
func IsCheckoutQuery(q string) bool { return mentions(q, checkoutTerms) }

// IsCheckinQuery reports whether the query asks about check-in.
func IsCheckinQuery(q string) bool { return mentions(q, checkinTerms) }

// IsEmergencyQuery reports whether the query asks for the emergency contact.
func IsEmergencyQuery(q string) bool { return mentions(q, emergencyTerms) }

// IsAccessQuery reports whether the query asks how to get in.
func IsAccessQuery(q string) bool { return mentions(q, accessTerms) }

// IsParkingQuery reports whether the query asks about parking.
func IsParkingQuery(q string) bool { return mentions(q, parkingTerms) }

// IsDirectionsQuery reports whether the query asks where the property is.
func IsDirectionsQuery(q string) bool { return mentions(q, directionsTerms) }

// IsHouseRulesQuery reports whether the query asks about house rules.
func IsHouseRulesQuery(q string) bool { return mentions(q, houseRuleTerms) }

// IsAmenitiesQuery reports whether the query asks about amenities.
func IsAmenitiesQuery(q string) bool { return mentions(q, amenityTerms) }

// mentionedAmenity returns the specific amenity named in q, if any.
func mentionedAmenity(q string) string {
	for _, t := range amenityTerms {
		if t == "amenities" || t == "amenity" {
			continue
		}
		if mentions(q, []string{t}) {
			return t
		}
	}
	return ""
}

func mentions(q string, terms []string) bool {
	padded := " " + flatten(q) + " "
	for _, t := range terms {
		if strings.Contains(padded, " "+flatten(t)+" ") {
			return true
		}
	}
	return false
}

// flatten lowercases s and collapses punctuation to single spaces.
func flatten(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if r == '\'' || r == '’' {
			continue
		}
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127 {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
