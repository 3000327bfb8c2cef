package memory

import (
	"regexp"
	"strings"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
)

// FollowUpKind says how a follow-up was recognized.
type FollowUpKind string

const (
	// FollowUpTopic matched the current topic's own follow-up keywords.
	FollowUpTopic FollowUpKind = "topic"
	// FollowUpReference resolved a pronoun or "that place" against the topic.
	FollowUpReference FollowUpKind = "reference"
	// FollowUpDistance asks how far the last mentioned place is.
	FollowUpDistance FollowUpKind = "distance"
	// FollowUpGeneric is a bare "tell me more" style continuation.
	FollowUpGeneric FollowUpKind = "generic"
)

// FollowUp is a message resolved against the current topic.
type FollowUp struct {
	Intent intent.Intent
	Kind   FollowUpKind
	// Entity is the topic entity the message refers to, if known.
	Entity string
	// Aspect is the keyword that tied the message to the topic.
	Aspect string
}

var topicFollowUps = map[intent.Intent][]string{
	intent.Checkout:         {"early", "before", "contact", "late", "later", "extend", "extension", "luggage", "bags", "keys", "dishes", "towels"},
	intent.Checkin:          {"early", "late", "before", "after", "luggage", "bags", "drop off", "ready"},
	intent.Wifi:             {"password", "network name", "name", "speed", "slow", "5g", "router", "reconnect"},
	intent.Amenity:          {"heated", "heat", "hours", "open", "close", "towels", "temperature", "deep", "cost", "free", "kids", "private", "shared"},
	intent.ResortAmenities:  {"hours", "open", "cost", "free", "wristband", "pass", "shuttle"},
	intent.Food:             {"price", "expensive", "cheap", "hours", "open", "reservation", "menu", "kids", "vegetarian", "vegan", "parking", "takeout", "delivery"},
	intent.Coffee:           {"hours", "open", "drive thru", "drive through", "price", "wifi", "seating"},
	intent.Parking:          {"how many", "cars", "free", "cost", "overnight", "street", "guest parking", "pass"},
	intent.Access:           {"code", "key", "lockbox", "garage", "gate", "back door"},
	intent.Attractions:      {"tickets", "hours", "parking", "cost", "open", "crowded", "discount", "fast pass"},
	intent.Activities:       {"tickets", "hours", "cost", "open", "kids", "book"},
	intent.Beach:            {"parking", "chairs", "umbrella", "lifeguard", "dogs"},
	intent.HouseRules:       {"pets", "smoking", "quiet", "party", "guests", "visitors"},
	intent.Directions:       {"drive", "minutes", "walk", "traffic", "toll"},
	intent.Location:         {"drive", "minutes", "walk", "nearby", "close"},
	intent.Grocery:          {"hours", "open", "delivery", "closest"},
	intent.Transportation:   {"cost", "price", "how long", "app", "book"},
	intent.Nightlife:        {"cover", "dress code", "hours", "open", "late"},
	intent.TroubleWifi:      {"still", "again", "router", "restart"},
	intent.Weather:          {"tomorrow", "weekend", "rain", "tonight"},
	intent.PropertySpecific: {"where", "how", "when"},
}

var (
	referencePattern = regexp.MustCompile(`(?i)\b(it|it's|its|there|that place|that one|this place|this one|they|them|that restaurant|that spot)\b`)
	distancePattern  = regexp.MustCompile(`(?i)\b(how far|how long|distance|drive|walk|minutes away|close by)\b`)
	genericPattern   = regexp.MustCompile(`(?i)^\s*(what about|how about|tell me more|more info|more details|anything else|what else|and\??$|more about|go on|any others?|others?\??$)`)
)

var topicSuggestions = map[intent.Intent][]string{
	intent.Amenity:     {"hours", "whether it's heated"},
	intent.Food:        {"another option", "something closer", "a different vibe"},
	intent.Coffee:      {"another spot", "hours"},
	intent.Checkout:    {"late checkout", "what to do before leaving"},
	intent.Checkin:     {"early check-in", "access instructions"},
	intent.Attractions: {"tickets", "how far it is"},
	intent.Wifi:        {"troubleshooting steps"},
	intent.Parking:     {"how many cars fit"},
}

func suggestionsFor(in intent.Intent) []string {
	return append([]string(nil), topicSuggestions[in]...)
}

// DetectFollowUp decides whether message continues the current topic. It
// returns false when there is no topic, or when the message reads as a
// clearly different question.
func DetectFollowUp(message string, flow Flow) (FollowUp, bool) {
	topic := flow.CurrentTopic
	if topic == nil || strings.TrimSpace(message) == "" {
		return FollowUp{}, false
	}
	fresh := intent.Classify(message)
	entity := ""
	if len(topic.Entities) > 0 {
		entity = topic.Entities[len(topic.Entities)-1]
	}
	lower := strings.ToLower(message)
	refers := referencePattern.MatchString(lower)

	if refers && distancePattern.MatchString(lower) {
		if related(fresh.Intent, topic.Intent) || fresh.Intent == intent.Directions {
			return FollowUp{Intent: topic.Intent, Kind: FollowUpDistance, Entity: entity, Aspect: "distance"}, true
		}
	}

	if !related(fresh.Intent, topic.Intent) {
		return FollowUp{}, false
	}

	if kws, ok := topicFollowUps[topic.Intent]; ok {
		for _, kw := range kws {
			if containsWord(lower, kw) {
				return FollowUp{Intent: topic.Intent, Kind: FollowUpTopic, Entity: entity, Aspect: kw}, true
			}
		}
	}
	if refers && len(strings.Fields(lower)) <= 10 {
		return FollowUp{Intent: topic.Intent, Kind: FollowUpReference, Entity: entity}, true
	}
	if genericPattern.MatchString(lower) {
		return FollowUp{Intent: topic.Intent, Kind: FollowUpGeneric, Entity: entity}, true
	}
	return FollowUp{}, false
}

// related reports whether a freshly classified intent leaves room for the
// message to be a follow-up: it is either vague or the same topic.
func related(fresh, topic intent.Intent) bool {
	switch fresh {
	case intent.General, intent.Greeting, topic:
		return true
	}
	return false
}

func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		if (start == 0 || !isWordByte(lower[start-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '\'' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
