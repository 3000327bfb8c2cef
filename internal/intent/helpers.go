package intent

import (
	"regexp"
	"strings"
	"unicode"
)

const maxIntroductionWords = 8

var (
	yesWords = []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "y", "correct", "it worked", "that worked", "works now", "fixed", "all good", "perfect", "great"}
	noWords  = []string{"no", "nope", "nah", "n", "not yet", "still not", "didn't work", "didnt work", "did not work", "still", "negative"}

	switchPhrases = []string{"change property", "new property", "switch property", "different property", "new code", "change code", "wrong property", "reset property", "wrong code"}

	vibeCanonical = []struct {
		vibe     string
		keywords []string
	}{
		{"romantic", []string{"romantic", "date night", "anniversary", "intimate"}},
		{"family", []string{"family", "family friendly", "kid friendly", "kids", "children"}},
		{"upscale", []string{"upscale", "fancy", "fine dining", "dressy", "special occasion"}},
		{"casual", []string{"casual", "chill", "laid back", "relaxed", "low key", "cheap", "quick"}},
		{"lively", []string{"lively", "fun", "trendy", "energetic", "music", "bar"}},
		{"quiet", []string{"quiet", "cozy", "calm", "peaceful"}},
		{"local", []string{"local", "local favorite", "hidden gem", "authentic"}},
	}

	mealTypes = []struct {
		meal     string
		keywords []string
	}{
		{"breakfast", []string{"breakfast", "morning", "pancakes", "waffles"}},
		{"brunch", []string{"brunch", "mimosa"}},
		{"lunch", []string{"lunch", "midday", "noon"}},
		{"dinner", []string{"dinner", "supper", "tonight", "evening"}},
		{"dessert", []string{"dessert", "ice cream", "sweets", "bakery"}},
	}

	// "this is" and "I'm" precede adjectives far more often than names, so
	// those forms only accept a word the guest capitalized.
	namePatterns = []struct {
		re          *regexp.Regexp
		capitalized bool
	}{
		{regexp.MustCompile(`(?i)\bmy name is\s+([a-z][a-z'\-]{1,29})\b`), false},
		{regexp.MustCompile(`(?i)\b(?:i am|i'm|im|this is)\s+([a-z][a-z'\-]{1,29})\s*(?:[.!,]|$|here\b)`), true},
		{regexp.MustCompile(`(?i)\bcall me\s+([a-z][a-z'\-]{1,29})\b`), false},
	}
	// Words that follow "i'm" but are not names.
	notNames = map[string]struct{}{
		"here": {}, "good": {}, "fine": {}, "ok": {}, "okay": {}, "great": {}, "hungry": {}, "bored": {},
		"locked": {}, "looking": {}, "trying": {}, "wondering": {}, "not": {}, "so": {}, "very": {},
		"staying": {}, "checking": {}, "leaving": {}, "back": {}, "done": {}, "sorry": {}, "confused": {},
		"lost": {}, "tired": {}, "in": {}, "at": {}, "the": {}, "a": {}, "an": {}, "going": {}, "thinking": {},
		"interested": {}, "all": {}, "set": {}, "cold": {}, "hot": {}, "still": {}, "having": {},
	}
)

// IsYes reports whether a short reply is affirmative.
func IsYes(text string) bool {
	m := parse(text)
	if m.empty() || len(m.tokens) > 6 || IsNo(text) {
		return false
	}
	return m.hasAny(yesWords)
}

// IsNo reports whether a short reply is negative.
func IsNo(text string) bool {
	m := parse(text)
	if m.empty() || len(m.tokens) > 8 {
		return false
	}
	for _, w := range noWords {
		if strings.IndexByte(w, ' ') < 0 {
			if m.hasWord(w) {
				return true
			}
			continue
		}
		if m.has(w) {
			return true
		}
	}
	return false
}

// DetectVibe returns the canonical vibe mentioned in text, or "".
func DetectVibe(text string) string {
	m := parse(text)
	for _, v := range vibeCanonical {
		if m.hasAny(v.keywords) {
			return v.vibe
		}
	}
	return ""
}

// MealType returns breakfast, brunch, lunch, dinner or dessert when the text
// names one, or "".
func MealType(text string) string {
	m := parse(text)
	for _, mt := range mealTypes {
		if m.hasAny(mt.keywords) {
			return mt.meal
		}
	}
	return ""
}

// IsRejection reports whether the guest is turning down a suggestion.
func IsRejection(text string) bool {
	m := parse(text)
	for _, row := range singleIntentTable {
		if row.intent == Rejection {
			return m.hasAny(row.keywords)
		}
	}
	return false
}

// IsPropertySwitch reports whether the guest asks to start over with another property code.
func IsPropertySwitch(text string) bool {
	return parse(text).hasAny(switchPhrases)
}

// IsTravelCode reports whether text is exactly one of the travel-mode commands.
func IsTravelCode(text string) bool {
	_, ok := matchSpecialCode(parse(text))
	return ok
}

// DigitsOnly strips everything except ASCII digits.
func DigitsOnly(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractGuestName pulls a first name out of introductions such as
// "my name is Sarah" or "this is Tom". The result is title-cased.
func ExtractGuestName(text string) string {
	for _, p := range namePatterns {
		match := p.re.FindStringSubmatch(strings.TrimSpace(text))
		if len(match) < 2 {
			continue
		}
		if p.capitalized && !unicode.IsUpper([]rune(match[1])[0]) {
			continue
		}
		name := strings.ToLower(match[1])
		if _, bad := notNames[name]; bad {
			continue
		}
		r := []rune(name)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return ""
}

// IsIntroduction reports whether text is a short message that could be
// nothing more than an introduction.
func IsIntroduction(text string) bool {
	return len(parse(text).tokens) <= maxIntroductionWords
}

// AmenityMentioned returns the first amenity keyword present in text, or "".
func AmenityMentioned(text string) string {
	return parse(text).firstOf(amenityKeywords)
}

// TopicEntities extracts the keywords that anchor a topic: amenities, meal
// types, vibes and attractions mentioned in the message.
func TopicEntities(text string) []string {
	m := parse(text)
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(m.firstOf(amenityKeywords))
	add(m.firstOf(attractionKeywords))
	add(MealType(text))
	add(DetectVibe(text))
	return out
}
