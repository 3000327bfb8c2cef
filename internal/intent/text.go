package intent

import (
	"strings"
	"unicode"
)

// message is a normalized view of an inbound text used by every rule.
type message struct {
	raw    string
	lower  string
	padded string
	tokens []string
	set    map[string]struct{}
}

func parse(text string) *message {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(lower)

	norm := normalize(lower)
	tokens := strings.Fields(norm)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return &message{
		raw:    text,
		lower:  lower,
		padded: " " + norm + " ",
		tokens: tokens,
		set:    set,
	}
}

// normalize keeps letters, digits and inner apostrophes, collapsing the rest to spaces.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case r == '\'' && i > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]):
			b.WriteRune(r)
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func (m *message) empty() bool {
	return len(m.tokens) == 0
}

// has reports whether kw occurs in the message. Single words match whole
// tokens (allowing a plural suffix); phrases match on word boundaries.
func (m *message) has(kw string) bool {
	kw = normalize(strings.ToLower(kw))
	if kw == "" {
		return false
	}
	if strings.IndexByte(kw, ' ') >= 0 {
		return strings.Contains(m.padded, " "+kw+" ")
	}
	if _, ok := m.set[kw]; ok {
		return true
	}
	if _, ok := m.set[kw+"s"]; ok {
		return true
	}
	_, ok := m.set[kw+"es"]
	return ok
}

func (m *message) hasAny(kws []string) bool {
	for _, kw := range kws {
		if m.has(kw) {
			return true
		}
	}
	return false
}

func (m *message) firstOf(kws []string) string {
	for _, kw := range kws {
		if m.has(kw) {
			return kw
		}
	}
	return ""
}

// hasWord is an exact whole-token match with no plural allowance.
func (m *message) hasWord(w string) bool {
	_, ok := m.set[w]
	return ok
}

// containsAny is a raw substring test over the lowercased message.
func (m *message) containsAny(phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(m.lower, p) {
			return true
		}
	}
	return false
}
