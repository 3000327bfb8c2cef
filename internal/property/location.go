package property

import (
	"fmt"
	"regexp"
	"strings"
)

// Distance is an estimated drive time to a named landmark.
type Distance struct {
	Place   string `json:"place"`
	Minutes int    `json:"minutes"`
}

// LocationContext is what we know about a property's surroundings.
type LocationContext struct {
	Area      string     `json:"area,omitempty"`
	Resort    string     `json:"resort,omitempty"`
	Distances []Distance `json:"distances,omitempty"`
}

// Known reports whether the address matched a known area.
func (l LocationContext) Known() bool { return l.Area != "" }

// DistanceTo returns the estimated minutes to a landmark whose name contains
// place, case-insensitively.
func (l LocationContext) DistanceTo(place string) (Distance, bool) {
	place = strings.ToLower(strings.TrimSpace(place))
	if place == "" {
		return Distance{}, false
	}
	for _, d := range l.Distances {
		name := strings.ToLower(d.Place)
		if strings.Contains(name, place) || strings.Contains(place, name) {
			return d, true
		}
	}
	return Distance{}, false
}

// Summary renders the context as one SMS-friendly sentence.
func (l LocationContext) Summary() string {
	if !l.Known() {
		return ""
	}
	where := l.Area
	if l.Resort != "" {
		where = l.Resort + " in " + l.Area
	}
	if len(l.Distances) == 0 {
		return "You're staying at " + where + "."
	}
	parts := make([]string, 0, len(l.Distances))
	for _, d := range l.Distances {
		parts = append(parts, fmt.Sprintf("%s ~%d min", d.Place, d.Minutes))
	}
	return fmt.Sprintf("You're staying at %s. Drive times: %s.", where, strings.Join(parts, ", "))
}

type knownArea struct {
	area      string
	match     []string
	resort    string
	distances []Distance
}

// Ordered so resort communities win over the wider city they sit in.
var knownAreas = []knownArea{
	{"Kissimmee", []string{"reunion"}, "Reunion Resort", []Distance{{"Disney World", 15}, {"Universal Orlando", 30}, {"Orlando Airport (MCO)", 35}, {"ChampionsGate", 10}}},
	{"Davenport", []string{"championsgate", "champions gate"}, "ChampionsGate", []Distance{{"Disney World", 15}, {"Universal Orlando", 30}, {"Orlando Airport (MCO)", 35}, {"Reunion", 10}}},
	{"Kissimmee", []string{"storey lake"}, "Storey Lake Resort", []Distance{{"Disney World", 15}, {"Universal Orlando", 25}, {"Orlando Airport (MCO)", 25}}},
	{"Kissimmee", []string{"windsor hills"}, "Windsor Hills Resort", []Distance{{"Disney World", 5}, {"Universal Orlando", 25}, {"Orlando Airport (MCO)", 30}}},
	{"Davenport", []string{"solterra"}, "Solterra Resort", []Distance{{"Disney World", 25}, {"Universal Orlando", 40}, {"Orlando Airport (MCO)", 45}}},
	{"Kissimmee", []string{"kissimmee"}, "", []Distance{{"Disney World", 15}, {"Universal Orlando", 25}, {"Orlando Airport (MCO)", 25}, {"Old Town", 10}}},
	{"Davenport", []string{"davenport"}, "", []Distance{{"Disney World", 20}, {"Universal Orlando", 35}, {"Orlando Airport (MCO)", 45}, {"Legoland", 30}}},
	{"Orlando", []string{"orlando", "lake buena vista"}, "", []Distance{{"Disney World", 20}, {"Universal Orlando", 15}, {"Orlando Airport (MCO)", 20}, {"International Drive", 15}}},
	{"Miami Beach", []string{"miami beach"}, "", []Distance{{"South Beach", 10}, {"Miami Airport (MIA)", 25}}},
	{"Destin", []string{"destin"}, "", []Distance{{"HarborWalk Village", 10}, {"Destin Airport (VPS)", 25}}},
}

// DeriveLocationContext matches an address against the known-area table. An
// unknown address yields the zero context.
func DeriveLocationContext(address string) LocationContext {
	lower := strings.ToLower(address)
	if strings.TrimSpace(lower) == "" {
		return LocationContext{}
	}
	for _, a := range knownAreas {
		for _, m := range a.match {
			if strings.Contains(lower, m) {
				return LocationContext{
					Area:      a.area,
					Resort:    a.resort,
					Distances: append([]Distance(nil), a.distances...),
				}
			}
		}
	}
	return LocationContext{}
}

var stateCode = regexp.MustCompile(`(?:,\s*|\s)([A-Z]{2})(?:\s+\d{5}(?:-\d{4})?)?\s*(?:,?\s*(?:USA|US|United States))?\s*$`)

var stateTimezones = map[string]string{
	"FL": "America/New_York", "GA": "America/New_York", "SC": "America/New_York", "NC": "America/New_York",
	"NY": "America/New_York", "NJ": "America/New_York", "MA": "America/New_York", "VA": "America/New_York",
	"PA": "America/New_York", "MD": "America/New_York", "ME": "America/New_York", "CT": "America/New_York",
	"OH": "America/New_York", "MI": "America/Detroit", "TN": "America/Chicago", "AL": "America/Chicago",
	"TX": "America/Chicago", "LA": "America/Chicago", "IL": "America/Chicago", "MO": "America/Chicago",
	"WI": "America/Chicago", "MN": "America/Chicago", "CO": "America/Denver", "UT": "America/Denver",
	"NM": "America/Denver", "MT": "America/Denver", "WY": "America/Denver", "AZ": "America/Phoenix",
	"CA": "America/Los_Angeles", "NV": "America/Los_Angeles", "OR": "America/Los_Angeles", "WA": "America/Los_Angeles",
	"HI": "Pacific/Honolulu", "AK": "America/Anchorage",
}

// TimezoneForAddress guesses an IANA zone from the state code at the end of
// a US address, returning fallback when it cannot.
func TimezoneForAddress(address, fallback string) string {
	m := stateCode.FindStringSubmatch(strings.TrimSpace(address))
	if len(m) == 2 {
		if tz, ok := stateTimezones[m[1]]; ok {
			return tz
		}
	}
	return fallback
}
