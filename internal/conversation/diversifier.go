package conversation

import (
	"fmt"
	"strings"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

// Diversification tells the recommender what to steer away from.
type Diversification struct {
	ShouldDiversify bool
	RejectedOptions []string
	Note            string
}

// ShouldDiversify mines previous recommendation texts for place names. A
// name seen in two or more earlier texts is rejected, as is every place from
// an earlier text whose meal category differs from the one now requested.
// Place names are guessed from capitalization, so both misses and false
// hits are expected.
func ShouldDiversify(previous []string, requestType string) Diversification {
	var d Diversification
	if len(previous) == 0 {
		return d
	}

	counts := map[string]int{}
	display := map[string]string{}
	var order []string
	wanted := recommendationCategory(requestType)
	var conflicted []string
	for _, text := range previous {
		names := memory.ExtractPlaceNames(text)
		for _, n := range names {
			key := strings.ToLower(n)
			if _, ok := display[key]; !ok {
				display[key] = n
				order = append(order, key)
			}
			counts[key]++
		}
		if got := recommendationCategory(text); wanted != "" && got != "" && got != wanted {
			conflicted = append(conflicted, names...)
		}
	}

	seen := map[string]bool{}
	add := func(name string) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			d.RejectedOptions = append(d.RejectedOptions, display[key])
		}
	}
	var repeated []string
	for _, key := range order {
		if counts[key] >= 2 {
			add(display[key])
			repeated = append(repeated, display[key])
		}
	}
	for _, n := range conflicted {
		add(n)
	}
	if len(d.RejectedOptions) == 0 {
		return d
	}

	d.ShouldDiversify = true
	var notes []string
	if len(repeated) > 0 {
		notes = append(notes, fmt.Sprintf("already suggested more than once: %s", strings.Join(repeated, ", ")))
	}
	if len(conflicted) > 0 {
		notes = append(notes, fmt.Sprintf("earlier picks were not %s spots", wanted))
	}
	d.Note = strings.Join(notes, "; ")
	return d
}

// recommendationCategory returns the meal a text or request type is about,
// "coffee" for cafes, or "" when it cannot tell.
func recommendationCategory(text string) string {
	if meal := intent.MealType(text); meal != "" {
		return meal
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "coffee") || strings.Contains(lower, "cafe") || strings.Contains(lower, "espresso") {
		return "coffee"
	}
	return ""
}
