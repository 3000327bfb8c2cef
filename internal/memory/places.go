package memory

import (
	"regexp"
	"strings"
)

var placePattern = regexp.MustCompile(`[A-Z][A-Za-z'’&-]+(?:\s+(?:&\s+|of\s+|the\s+|de\s+)?[A-Z][A-Za-z'’&-]+)*`)

// Capitalized words that start sentences or name things other than places.
var notPlaceWords = map[string]struct{}{
	"i": {}, "i'm": {}, "i'd": {}, "if": {}, "it": {}, "it's": {}, "the": {}, "this": {}, "that": {}, "these": {},
	"try": {}, "for": {}, "and": {}, "or": {}, "but": {}, "you": {}, "your": {}, "you'll": {}, "we": {}, "our": {},
	"enjoy": {}, "great": {}, "also": {}, "check": {}, "head": {}, "grab": {}, "go": {}, "just": {}, "they": {},
	"there": {}, "here": {}, "it’s": {}, "a": {}, "an": {}, "my": {}, "open": {}, "best": {}, "perfect": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"wifi": {}, "tv": {}, "ok": {}, "yes": {}, "no": {}, "hi": {}, "hello": {}, "thanks": {}, "reply": {},
	"about": {}, "from": {}, "with": {}, "on": {}, "in": {}, "at": {}, "to": {}, "what": {}, "would": {},
	"how": {}, "when": {}, "where": {}, "want": {}, "let": {}, "let's": {}, "sure": {}, "sorry": {}, "please": {},
}

// ExtractPlaceNames pulls capitalized phrases that look like venue names out
// of free text. It is a heuristic: sentence-initial verbs are trimmed, but
// capitalized non-places ("Magic Kingdom" vs "Orange County") are not told
// apart. Results are de-duplicated case-insensitively in order of appearance.
func ExtractPlaceNames(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placePattern.FindAllString(text, -1) {
		words := strings.Fields(m)
		for len(words) > 0 && isNotPlace(words[0]) {
			words = words[1:]
		}
		for len(words) > 0 && isNotPlace(words[len(words)-1]) {
			words = words[:len(words)-1]
		}
		if len(words) == 0 {
			continue
		}
		name := strings.Join(words, " ")
		if len(words) == 1 && len(name) < 4 {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func isNotPlace(word string) bool {
	w := strings.ToLower(strings.Trim(word, "'’&-"))
	if w == "" || w == "&" || w == "of" || w == "de" {
		return true
	}
	_, ok := notPlaceWords[w]
	return ok
}
