// Package intent classifies inbound guest messages into conversational intents.
//
// Classification is an ordered cascade of rules: the first rule that matches
// wins, so overlapping keyword sets are resolved by position rather than by
// keyword density. Troubleshooting and safety rules sit ahead of every
// recreational rule.
package intent

import "strings"

// Intent is a classification label describing what the guest is asking for.
type Intent string

const (
	TravelMode   Intent = "travel_mode"
	PropertyCode Intent = "property_code"
	Reset        Intent = "conversation_reset"
	Menu         Intent = "ask_menu"
	Emergency    Intent = "ask_emergency"
	Lockout      Intent = "access_lockout"
	TroubleTV    Intent = "troubleshoot_tv"
	TroubleWifi  Intent = "troubleshoot_wifi"
	TroubleEquip Intent = "troubleshoot_equipment"
	TroubleOther Intent = "troubleshoot_general"

	AdditionalServices Intent = "ask_additional_services"
	ResortAmenities    Intent = "ask_resort_amenities"
	Weather            Intent = "ask_weather"
	PackingTips        Intent = "ask_packing_tips"
	BestTimeToVisit    Intent = "ask_best_time_to_visit"
	Transportation     Intent = "ask_transportation"
	LocalEvents        Intent = "ask_local_events"
	Coffee             Intent = "ask_coffee_recommendations"
	Directions         Intent = "ask_directions"
	Attractions        Intent = "ask_attractions"
	Food               Intent = "ask_food_recommendations"
	Amenity            Intent = "ask_amenity"
	VibePreference     Intent = "ask_vibe_preference"
	Busyness           Intent = "ask_busyness"
	PropertySpecific   Intent = "ask_property_specific"
	MultipleRequests   Intent = "ask_multiple_requests"

	Wifi       Intent = "ask_wifi"
	Checkout   Intent = "ask_checkout"
	Checkin    Intent = "ask_checkin"
	Parking    Intent = "ask_parking"
	Access     Intent = "ask_access"
	HouseRules Intent = "ask_house_rules"
	Trash      Intent = "ask_trash"
	Laundry    Intent = "ask_laundry"
	Pets       Intent = "ask_pets"
	Grocery    Intent = "ask_grocery"
	Activities Intent = "ask_activities"
	Shopping   Intent = "ask_shopping"
	Nightlife  Intent = "ask_nightlife"
	Beach      Intent = "ask_beach"
	Location   Intent = "ask_location"
	Greeting   Intent = "greeting"
	Thanks     Intent = "thanks"
	Goodbye    Intent = "goodbye"
	Rejection  Intent = "reject_recommendation"

	General Intent = "general_inquiry"
)

// IsTroubleshooting reports whether the intent belongs to the troubleshooting family.
func (i Intent) IsTroubleshooting() bool {
	return strings.HasPrefix(string(i), "troubleshoot_")
}

// IsSafety reports whether the intent must always be answered, never deduplicated.
func (i Intent) IsSafety() bool {
	return i == Emergency || i == Lockout || i.IsTroubleshooting()
}

// Result is the outcome of classifying one message.
type Result struct {
	Intent         Intent   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	IsMultiPart    bool     `json:"isMultiPart,omitempty"`
	SubIntents     []Intent `json:"subIntents,omitempty"`
	HasKids        bool     `json:"hasKids,omitempty"`
	IsCheckoutSoon bool     `json:"isCheckoutSoon,omitempty"`
	IsUrgent       bool     `json:"isUrgent,omitempty"`
	// Rule names the cascade rule that produced the result.
	Rule string `json:"rule,omitempty"`
}
