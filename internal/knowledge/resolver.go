// Package knowledge answers guest questions from a property's own data:
// structured fields first, then a scored search over its free-text notes.
package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mchlbschmdt/ai-concierge/internal/messaging/segment"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
)

// Source says where an answer came from.
type Source string

const (
	SourceStructured Source = "structured"
	SourceFreeText   Source = "freetext"
	SourceNone       Source = "none"
)

const (
	// DefaultMaxSnippet is the longest free-text excerpt returned as-is.
	DefaultMaxSnippet = 300
	minConfidence     = 0.3
	maxConfidence     = 0.95
)

// Result is the resolver's answer. When Found is false, Content holds a
// query-aware fallback message.
type Result struct {
	Found      bool    `json:"found"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Resolver is a pure function of (property, query).
type Resolver struct {
	maxSnippet int
}

// NewResolver creates a resolver. maxSnippet <= 0 uses DefaultMaxSnippet.
func NewResolver(maxSnippet int) *Resolver {
	if maxSnippet <= 0 {
		maxSnippet = DefaultMaxSnippet
	}
	return &Resolver{maxSnippet: maxSnippet}
}

// Resolve looks for an answer to query in p.
func (r *Resolver) Resolve(p *property.Property, query string) Result {
	if p == nil || strings.TrimSpace(query) == "" {
		return r.fallback(p, query)
	}
	if res, ok := r.structured(p, query); ok {
		return res
	}
	if res, ok := r.freeText(p, query); ok {
		return res
	}
	return r.fallback(p, query)
}

func (r *Resolver) structured(p *property.Property, q string) (Result, bool) {
	found := func(content string, confidence float64) (Result, bool) {
		return Result{Found: true, Content: content, Confidence: confidence, Source: SourceStructured}, true
	}
	switch {
	case IsWifiQuery(q) && (p.WifiName != "" || p.WifiPassword != ""):
		var lines []string
		if p.WifiName != "" {
			lines = append(lines, "WiFi network: "+p.WifiName)
		}
		if p.WifiPassword != "" {
			lines = append(lines, "Password: "+p.WifiPassword)
		}
		return found(strings.Join(lines, "\n"), 0.95)
	case IsCheckoutQuery(q) && p.CheckOutTime != "":
		return found(fmt.Sprintf("Checkout is at %s.", p.CheckOutTime), 0.9)
	case IsCheckinQuery(q) && p.CheckInTime != "":
		return found(fmt.Sprintf("Check-in is at %s.", p.CheckInTime), 0.9)
	case IsAccessQuery(q) && p.AccessInstructions != "":
		return found(p.AccessInstructions, 0.9)
	case IsParkingQuery(q) && p.ParkingInstructions != "":
		return found(p.ParkingInstructions, 0.9)
	case IsEmergencyQuery(q) && p.EmergencyContact != "":
		return found(fmt.Sprintf("Emergency contact: %s. For life-threatening emergencies call 911.", p.EmergencyContact), 0.95)
	case IsDirectionsQuery(q) && p.Address != "":
		content := fmt.Sprintf("%s is at %s.", nameOr(p, "The property"), p.Address)
		if summary := p.Location.Summary(); summary != "" {
			content += " " + summary
		}
		return found(content, 0.85)
	case IsHouseRulesQuery(q) && p.HouseRules != "":
		return found(segment.TruncateAtSentence(p.HouseRules, r.maxSnippet), 0.85)
	case IsAmenitiesQuery(q) && len(p.Amenities) > 0:
		return r.amenity(p, q)
	}
	return Result{}, false
}

// amenity prefers a confident free-text hit so "is the pool heated" gets
// the note about heating rather than a bare yes.
func (r *Resolver) amenity(p *property.Property, q string) (Result, bool) {
	if ft, ok := r.freeText(p, q); ok && ft.Confidence >= 0.85 {
		return ft, true
	}
	name := mentionedAmenity(q)
	switch {
	case name == "":
		return Result{
			Found:      true,
			Content:    fmt.Sprintf("%s amenities: %s.", nameOr(p, "This property's"), strings.Join(p.Amenities, ", ")),
			Confidence: 0.85,
			Source:     SourceStructured,
		}, true
	case p.HasAmenity(name):
		return Result{
			Found:      true,
			Content:    fmt.Sprintf("Yes, %s has a %s.", nameOr(p, "the property"), name),
			Confidence: 0.9,
			Source:     SourceStructured,
		}, true
	}
	return Result{}, false
}

func nameOr(p *property.Property, fallback string) string {
	if strings.TrimSpace(p.Name) == "" {
		return fallback
	}
	if strings.HasSuffix(fallback, "'s") {
		return p.Name + "'s"
	}
	return p.Name
}

type section struct {
	text string
	// padded is the flattened text with a space on each side, for whole-word matching.
	padded string
}

func (r *Resolver) freeText(p *property.Property, q string) (Result, bool) {
	terms := queryTerms(q)
	if len(terms) == 0 {
		return Result{}, false
	}
	phrase := flatten(q)

	var best section
	bestScore := 0.0
	for _, s := range sections(p.KnowledgeBase, p.LocalRecommendations, p.SpecialNotes) {
		score := scoreSection(s, phrase, terms)
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore == 0 {
		return Result{}, false
	}
	confidence := bestScore / float64(len(terms))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	if confidence < minConfidence {
		return Result{}, false
	}
	return Result{
		Found:      true,
		Content:    r.excerpt(best.text, terms),
		Confidence: confidence,
		Source:     SourceFreeText,
	}, true
}

// scoreSection weights an exact phrase heavily, adds one per matched term,
// and rewards several distinct terms landing in the same section.
func scoreSection(s section, phrase string, terms []string) float64 {
	score := 0.0
	if phrase != "" && strings.Contains(s.padded, " "+phrase+" ") {
		score += 3
	}
	distinct := 0
	for _, t := range terms {
		if hasTerm(s.padded, t) {
			score++
			distinct++
		}
	}
	if distinct > 1 {
		score += 0.5 * float64(distinct-1)
	}
	return score
}

// hasTerm matches t as a whole word of padded, allowing a plural suffix, so
// "car" does not hit "card" and "pool" does not hit "whirlpool".
func hasTerm(padded, t string) bool {
	return strings.Contains(padded, " "+t+" ") ||
		strings.Contains(padded, " "+t+"s ") ||
		strings.Contains(padded, " "+t+"es ")
}

// sections splits each source on blank lines; a source with no blank lines
// is split on single newlines instead.
func sections(sources ...string) []section {
	var out []section
	for _, src := range sources {
		src = strings.ReplaceAll(strings.TrimSpace(src), "\r\n", "\n")
		if src == "" {
			continue
		}
		parts := strings.Split(src, "\n\n")
		if len(parts) == 1 {
			parts = strings.Split(src, "\n")
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, section{text: part, padded: " " + flatten(part) + " "})
		}
	}
	return out
}

// excerpt keeps long sections SMS-sized by choosing the sentences that
// mention the most query terms, preserving their original order.
func (r *Resolver) excerpt(text string, terms []string) string {
	if utf8.RuneCountInString(text) <= r.maxSnippet {
		return text
	}
	sentences := segment.Sentences(text)
	type scored struct {
		idx   int
		hits  int
		runes int
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		padded := " " + flatten(s) + " "
		hits := 0
		for _, t := range terms {
			if hasTerm(padded, t) {
				hits++
			}
		}
		ranked = append(ranked, scored{idx: i, hits: hits, runes: utf8.RuneCountInString(s)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].hits > ranked[b].hits })

	keep := map[int]bool{}
	budget := r.maxSnippet
	for _, s := range ranked {
		if s.hits == 0 && len(keep) > 0 {
			break
		}
		if s.runes+1 > budget {
			continue
		}
		keep[s.idx] = true
		budget -= s.runes + 1
	}
	if len(keep) == 0 {
		return segment.TruncateAtSentence(text, r.maxSnippet)
	}
	picked := make([]string, 0, len(keep))
	for i, s := range sentences {
		if keep[i] {
			picked = append(picked, s)
		}
	}
	return strings.Join(picked, " ")
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "be": {}, "to": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "and": {}, "or": {}, "it": {}, "its": {}, "this": {}, "that": {}, "there": {},
	"what": {}, "whats": {}, "where": {}, "wheres": {}, "when": {}, "how": {}, "which": {}, "who": {}, "do": {},
	"does": {}, "did": {}, "can": {}, "could": {}, "would": {}, "should": {}, "i": {}, "we": {}, "you": {},
	"me": {}, "my": {}, "our": {}, "us": {}, "your": {}, "any": {}, "have": {}, "has": {}, "with": {}, "about": {},
	"please": {}, "tell": {}, "know": {}, "get": {}, "im": {}, "there's": {}, "theres": {}, "if": {}, "so": {},
	"some": {}, "go": {}, "from": {}, "here": {}, "they": {}, "them": {}, "need": {}, "want": {}, "like": {},
}

func queryTerms(q string) []string {
	var terms []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(flatten(q)) {
		if len(w) < 2 || seen[w] {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

// fallback builds a "not found" answer phrased for the kind of question.
func (r *Resolver) fallback(p *property.Property, q string) Result {
	contact := ""
	if p != nil && p.EmergencyContact != "" {
		contact = " You can reach your host at " + p.EmergencyContact + "."
	}
	var msg string
	switch {
	case IsWifiQuery(q):
		msg = "I don't have the WiFi details on file yet. The network name and password are usually on the router or in the welcome book." + contact
	case IsCheckoutQuery(q), IsCheckinQuery(q):
		msg = "I don't have the check-in/checkout times on file. Your booking confirmation should list them." + contact
	case IsAccessQuery(q):
		msg = "I don't have the entry instructions on file. Please check your booking messages for the door code." + contact
	case IsParkingQuery(q):
		msg = "I don't have parking details for this property yet." + contact
	case IsDirectionsQuery(q):
		msg = "I don't have detailed location info for this property yet. Your booking confirmation has the full address." + contact
	case IsEmergencyQuery(q):
		msg = "I don't have a host contact on file. For emergencies call 911."
	default:
		msg = "I couldn't find that in the property info." + contact
		if contact == "" {
			msg += " Try asking about WiFi, checkout, parking or local recommendations."
		}
	}
	return Result{Found: false, Content: msg, Confidence: 0, Source: SourceNone}
}
