package intent

import (
	"regexp"
	"strings"
)

// rule is one step of the priority cascade.
type rule struct {
	name  string
	match func(m *message) (Result, bool)
}

// Classifier runs the ordered rule cascade. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	rules []rule
}

// NewClassifier returns a classifier with the standard rule order.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

var defaultClassifier = NewClassifier()

// Classify classifies text with the standard rule order.
func Classify(text string) Result {
	return defaultClassifier.Classify(text)
}

// RuleNames lists the cascade in evaluation order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		names = append(names, r.name)
	}
	return names
}

// Classify maps a message to a single intent. It never fails: a message that
// matches nothing yields General at low confidence.
func (c *Classifier) Classify(text string) Result {
	m := parse(text)
	res := Result{Intent: General, Confidence: 0.5, Rule: "fallback"}
	if m.empty() {
		// Punctuation-only texts such as "?" only reach the menu check.
		if out, ok := matchMenu(m); ok {
			res = out
			res.Rule = "menu"
		}
	} else {
		for _, r := range c.rules {
			if out, ok := r.match(m); ok {
				res = out
				res.Rule = r.name
				break
			}
		}
	}
	res.HasKids = res.HasKids || m.hasAny(kidsKeywords)
	res.IsCheckoutSoon = m.hasAny(checkoutSoonWords)
	res.IsUrgent = res.IsUrgent || m.hasAny(urgentKeywords) || strings.Contains(m.raw, "!!")
	return res
}

func defaultRules() []rule {
	return []rule{
		{"special_code", matchSpecialCode},
		{"reset", matchReset},
		{"menu", matchMenu},
		{"safety", matchSafety},
		{"troubleshooting", matchTroubleshooting},
		{"additional_services", keywordRule(AdditionalServices, 0.9, servicesKeywords)},
		{"resort_amenities", keywordRule(ResortAmenities, 0.92, resortKeywords)},
		{"weather", keywordRule(Weather, 0.93, weatherKeywords)},
		{"packing_tips", keywordRule(PackingTips, 0.9, packingKeywords)},
		{"best_time_to_visit", keywordRule(BestTimeToVisit, 0.92, bestTimeKeywords)},
		{"transportation", keywordRule(Transportation, 0.92, transportKeywords)},
		{"local_events", keywordRule(LocalEvents, 0.9, eventsKeywords)},
		{"coffee", matchCoffee},
		{"location_distance", matchDistance},
		{"attractions", keywordRule(Attractions, 0.95, attractionKeywords)},
		{"food", matchFood},
		{"amenity", keywordRule(Amenity, 0.9, amenityKeywords)},
		{"vibe", keywordRule(VibePreference, 0.85, vibeKeywords)},
		{"busyness", keywordRule(Busyness, 0.85, busynessKeywords)},
		{"property_specific", matchPropertySpecific},
		{"multiple_requests", matchMultiple},
		{"single_intent", matchSingle},
	}
}

func keywordRule(in Intent, confidence float64, keywords []string) func(*message) (Result, bool) {
	return func(m *message) (Result, bool) {
		if m.hasAny(keywords) {
			return Result{Intent: in, Confidence: confidence}, true
		}
		return Result{}, false
	}
}

func matchSpecialCode(m *message) (Result, bool) {
	if len(m.tokens) != 1 {
		return Result{}, false
	}
	for _, code := range travelCodes {
		if m.tokens[0] == code {
			return Result{Intent: TravelMode, Confidence: 0.95}, true
		}
	}
	return Result{}, false
}

// matchReset uses whole-word matching for single keywords ("presets" must not
// trigger) and substring matching for multi-word phrases.
func matchReset(m *message) (Result, bool) {
	for _, w := range resetWords {
		if m.hasWord(w) {
			return Result{Intent: Reset, Confidence: 0.95}, true
		}
	}
	if m.containsAny(resetPhrases) {
		return Result{Intent: Reset, Confidence: 0.95}, true
	}
	return Result{}, false
}

func matchMenu(m *message) (Result, bool) {
	trimmed := strings.Trim(m.lower, " .!")
	for _, e := range menuExact {
		if trimmed == e {
			return Result{Intent: Menu, Confidence: 0.95}, true
		}
	}
	if m.hasAny(menuPhrases) {
		return Result{Intent: Menu, Confidence: 0.93}, true
	}
	return Result{}, false
}

func matchSafety(m *message) (Result, bool) {
	if m.hasAny(lockoutKeywords) {
		return Result{Intent: Lockout, Confidence: 0.97, IsUrgent: true}, true
	}
	if m.hasAny(emergencyKeywords) && !m.has("emergency contact") {
		return Result{Intent: Emergency, Confidence: 0.97, IsUrgent: true}, true
	}
	return Result{}, false
}

// matchTroubleshooting wins over every later rule once it fires.
func matchTroubleshooting(m *message) (Result, bool) {
	strong := m.hasAny(problemStrong)
	weak := m.hasAny(problemWeak) || m.hasWord("troubleshoot")
	if !strong && !weak {
		return Result{}, false
	}
	if !strong && !m.hasWord("fix") && m.hasAny(infoRequest) {
		return Result{}, false
	}
	var in Intent
	switch {
	case m.hasAny(troubleWifi):
		in = TroubleWifi
	case m.hasAny(troubleTV):
		in = TroubleTV
	case m.hasAny(troubleEquip):
		in = TroubleEquip
	default:
		in = TroubleOther
	}
	return Result{Intent: in, Confidence: 0.98}, true
}

func matchCoffee(m *message) (Result, bool) {
	if m.hasAny(coffeeExclude) || !m.hasAny(coffeeKeywords) {
		return Result{}, false
	}
	return Result{Intent: Coffee, Confidence: 0.95}, true
}

func matchDistance(m *message) (Result, bool) {
	strong := m.hasAny(distanceStrong)
	if !strong && !m.hasAny(distanceWeak) {
		return Result{}, false
	}
	switch {
	case m.hasAny(attractionKeywords):
		return Result{Intent: Attractions, Confidence: 0.92}, true
	case m.hasAny(foodKeywords):
		return Result{Intent: Food, Confidence: 0.92, HasKids: m.hasAny(kidsKeywords)}, true
	case m.has("grocery") || m.has("groceries") || m.has("supermarket"):
		return Result{Intent: Grocery, Confidence: 0.9}, true
	case m.has("beach"):
		return Result{Intent: Beach, Confidence: 0.9}, true
	case strong:
		return Result{Intent: Directions, Confidence: 0.9}, true
	}
	return Result{}, false
}

// matchFood runs after coffee and attractions, so anything they claimed never gets here.
func matchFood(m *message) (Result, bool) {
	if !m.hasAny(foodKeywords) {
		return Result{}, false
	}
	return Result{Intent: Food, Confidence: 0.93, HasKids: m.hasAny(kidsKeywords)}, true
}

// matchPropertySpecific only claims messages the single-intent table cannot
// place; otherwise "the wifi at the house" would never reach ask_wifi.
func matchPropertySpecific(m *message) (Result, bool) {
	if !m.hasAny(propertyKeywords) {
		return Result{}, false
	}
	if r, _ := matchSingle(m); r.Intent != General && r.Intent != Greeting {
		return Result{}, false
	}
	return Result{Intent: PropertySpecific, Confidence: 0.8}, true
}

var requestSplitter = regexp.MustCompile(`\b(?:and|also|plus|then)\b|[?;,.!&]`)

// matchMultiple detects messages that ask for two or more distinct things.
func matchMultiple(m *message) (Result, bool) {
	var subs []Intent
	seen := map[Intent]bool{}
	add := func(in Intent) {
		if in == General || in == Greeting || in == Thanks || in == Goodbye || in == Rejection || seen[in] {
			return
		}
		seen[in] = true
		subs = append(subs, in)
	}

	parts := splitRequests(m.lower)
	if len(parts) >= 2 {
		for _, p := range parts {
			r, _ := matchSingle(parse(p))
			add(r.Intent)
		}
	}
	// Without separators, two topics only count when the phrasing reads as
	// more than one question.
	if len(subs) < 2 && (m.hasAny(conjunctionWords) || countQuestionWords(m) >= 2) {
		subs, seen = nil, map[Intent]bool{}
		for _, row := range singleIntentTable {
			if m.hasAny(row.keywords) {
				add(row.intent)
			}
		}
	}
	if len(subs) < 2 {
		return Result{}, false
	}
	return Result{Intent: MultipleRequests, Confidence: 0.85, IsMultiPart: true, SubIntents: subs}, true
}

func splitRequests(lower string) []string {
	raw := requestSplitter.Split(lower, -1)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func countQuestionWords(m *message) int {
	n := 0
	for _, t := range m.tokens {
		for _, q := range questionWords {
			if t == q {
				n++
			}
		}
	}
	return n
}

// matchSingle is the exhaustive fallback: the first table row wins, then
// short greetings, then General.
func matchSingle(m *message) (Result, bool) {
	for _, row := range singleIntentTable {
		if m.hasAny(row.keywords) {
			return Result{Intent: row.intent, Confidence: row.confidence}, true
		}
	}
	if len(m.tokens) <= 5 && m.hasAny(greetingWords) {
		return Result{Intent: Greeting, Confidence: 0.9}, true
	}
	return Result{Intent: General, Confidence: 0.5}, true
}
