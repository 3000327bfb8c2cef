// Package memory holds the per-conversation context that carries state
// between guest turns, and the pure functions that evolve it.
package memory

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
)

// ContextVersion is bumped when the persisted layout changes incompatibly.
const ContextVersion = 1

const (
	MaxRecentIntents   = 5
	MaxIntentHistory   = 10
	MaxRecentTopics    = 5
	MaxRecommendations = 5
	// MaxRejected bounds the recommendation blacklist; the oldest entry is evicted first.
	MaxRejected = 20
)

// SubFlowKind tags which guided sub-dialog, if any, is in progress.
type SubFlowKind string

const (
	SubFlowNone   SubFlowKind = ""
	SubFlowWifi   SubFlowKind = "wifi_troubleshooting"
	SubFlowDining SubFlowKind = "dining"
)

// DiningStage is the step of the dining sub-dialog.
type DiningStage string

const (
	DiningAwaitingVibe DiningStage = "awaiting_vibe"
	DiningRefined      DiningStage = "refined"
)

// WifiFlow tracks the guided WiFi troubleshooting steps.
type WifiFlow struct {
	Step      int       `json:"step"`
	StartedAt time.Time `json:"startedAt"`
}

// DiningFlow tracks the single-pick dining dialog.
type DiningFlow struct {
	Stage    DiningStage `json:"stage"`
	MealType string      `json:"mealType,omitempty"`
	Vibe     string      `json:"vibe,omitempty"`
	LastPick string      `json:"lastPick,omitempty"`
	HasKids  bool        `json:"hasKids,omitempty"`
}

// SubFlow is a tagged variant: exactly the payload named by Kind is set.
type SubFlow struct {
	Kind   SubFlowKind `json:"kind,omitempty"`
	Wifi   *WifiFlow   `json:"wifi,omitempty"`
	Dining *DiningFlow `json:"dining,omitempty"`
}

// WifiSubFlow starts WiFi troubleshooting at the given step.
func WifiSubFlow(step int, at time.Time) SubFlow {
	return SubFlow{Kind: SubFlowWifi, Wifi: &WifiFlow{Step: step, StartedAt: at}}
}

// DiningSubFlow wraps a dining state.
func DiningSubFlow(d DiningFlow) SubFlow {
	return SubFlow{Kind: SubFlowDining, Dining: &d}
}

// Active reports whether any sub-dialog is in progress.
func (s SubFlow) Active() bool { return s.Kind != SubFlowNone }

// IntentRecord is a timestamped entry in the intent history.
type IntentRecord struct {
	Intent intent.Intent `json:"intent"`
	At     time.Time     `json:"at"`
}

// Recommendation is a recommendation text previously sent to the guest.
type Recommendation struct {
	Text        string    `json:"text"`
	RequestType string    `json:"requestType"`
	At          time.Time `json:"at"`
}

// Topic is what the guest was last talking about.
type Topic struct {
	Intent              intent.Intent `json:"intent"`
	Entities            []string      `json:"entities,omitempty"`
	FollowUpSuggestions []string      `json:"followUpSuggestions,omitempty"`
	At                  time.Time     `json:"at"`
}

// Flow is the topic trail used for follow-up resolution.
type Flow struct {
	CurrentTopic *Topic  `json:"currentTopic,omitempty"`
	RecentTopics []Topic `json:"recentTopics,omitempty"`
}

// Context is the persisted conversational memory.
type Context struct {
	Version                 int              `json:"version"`
	GuestName               string           `json:"guestName,omitempty"`
	ConversationDepth       int              `json:"conversationDepth"`
	RecentIntents           []intent.Intent  `json:"recentIntents,omitempty"`
	IntentHistory           []IntentRecord   `json:"intentHistory,omitempty"`
	LastIntent              intent.Intent    `json:"lastIntent,omitempty"`
	LastResponseType        string           `json:"lastResponseType,omitempty"`
	RecommendationBlacklist []string         `json:"recommendationBlacklist,omitempty"`
	RecommendationHistory   []Recommendation `json:"recommendationHistory,omitempty"`
	SubFlow                 SubFlow          `json:"subFlow"`
	Flow                    Flow             `json:"conversationFlow"`
	TravelMode              bool             `json:"travelMode,omitempty"`
}

// New returns an empty context at the current version.
func New() Context {
	return Context{Version: ContextVersion}
}

// Decode parses a persisted context. It never fails: unknown or malformed
// fields are treated as unset, and an unreadable payload yields New().
func Decode(raw []byte) Context {
	c := New()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return c
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return c
	}
	decodeField(fields, "guestName", &c.GuestName)
	decodeField(fields, "conversationDepth", &c.ConversationDepth)
	decodeField(fields, "recentIntents", &c.RecentIntents)
	decodeField(fields, "intentHistory", &c.IntentHistory)
	decodeField(fields, "lastIntent", &c.LastIntent)
	decodeField(fields, "lastResponseType", &c.LastResponseType)
	decodeField(fields, "recommendationBlacklist", &c.RecommendationBlacklist)
	decodeField(fields, "recommendationHistory", &c.RecommendationHistory)
	decodeField(fields, "subFlow", &c.SubFlow)
	decodeField(fields, "conversationFlow", &c.Flow)
	decodeField(fields, "travelMode", &c.TravelMode)
	return normalize(c)
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	v, ok := fields[key]
	if !ok {
		return
	}
	var tmp T
	if err := json.Unmarshal(v, &tmp); err == nil {
		*dst = tmp
	}
}

// Encode serializes the context for storage.
func Encode(c Context) ([]byte, error) {
	return json.Marshal(normalize(c))
}

// normalize re-applies every cap and repairs inconsistent variants so that
// hand-edited or legacy payloads still satisfy the invariants.
func normalize(c Context) Context {
	c.Version = ContextVersion
	if c.ConversationDepth < 0 {
		c.ConversationDepth = 0
	}
	c.RecentIntents = tail(c.RecentIntents, MaxRecentIntents)
	c.IntentHistory = tail(c.IntentHistory, MaxIntentHistory)
	c.RecommendationBlacklist = tail(c.RecommendationBlacklist, MaxRejected)
	c.RecommendationHistory = tail(c.RecommendationHistory, MaxRecommendations)
	c.Flow.RecentTopics = tail(c.Flow.RecentTopics, MaxRecentTopics)
	switch c.SubFlow.Kind {
	case SubFlowWifi:
		if c.SubFlow.Wifi == nil {
			c.SubFlow = SubFlow{}
		}
		c.SubFlow.Dining = nil
	case SubFlowDining:
		if c.SubFlow.Dining == nil {
			c.SubFlow = SubFlow{}
		}
		c.SubFlow.Wifi = nil
	default:
		c.SubFlow = SubFlow{}
	}
	return c
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func appendCapped[T any](s []T, v T, n int) []T {
	out := make([]T, 0, min(len(s)+1, n))
	out = append(out, tail(s, n-1)...)
	return append(out, v)
}

// clone copies every slice and pointer so callers can treat contexts as values.
func (c Context) clone() Context {
	out := c
	out.RecentIntents = append([]intent.Intent(nil), c.RecentIntents...)
	out.IntentHistory = append([]IntentRecord(nil), c.IntentHistory...)
	out.RecommendationBlacklist = append([]string(nil), c.RecommendationBlacklist...)
	out.RecommendationHistory = append([]Recommendation(nil), c.RecommendationHistory...)
	out.Flow.RecentTopics = append([]Topic(nil), c.Flow.RecentTopics...)
	if c.Flow.CurrentTopic != nil {
		t := *c.Flow.CurrentTopic
		t.Entities = append([]string(nil), t.Entities...)
		out.Flow.CurrentTopic = &t
	}
	if c.SubFlow.Wifi != nil {
		w := *c.SubFlow.Wifi
		out.SubFlow.Wifi = &w
	}
	if c.SubFlow.Dining != nil {
		d := *c.SubFlow.Dining
		out.SubFlow.Dining = &d
	}
	return out
}

// Turn describes one handled guest message.
type Turn struct {
	Intent       intent.Intent
	ResponseType string
	Entities     []string
	At           time.Time
}

// RecordTurn appends the turn to the bounded histories, bumps the depth and
// moves the topic trail forward. The input context is not modified.
func RecordTurn(c Context, t Turn) Context {
	c = c.clone()
	c.ConversationDepth++
	c.RecentIntents = appendCapped(c.RecentIntents, t.Intent, MaxRecentIntents)
	c.IntentHistory = appendCapped(c.IntentHistory, IntentRecord{Intent: t.Intent, At: t.At}, MaxIntentHistory)
	c.LastIntent = t.Intent
	c.LastResponseType = t.ResponseType
	if topical(t.Intent) {
		c.Flow = advanceTopic(c.Flow, t)
	}
	return c
}

func advanceTopic(f Flow, t Turn) Flow {
	if cur := f.CurrentTopic; cur != nil && cur.Intent == t.Intent {
		cur.Entities = mergeEntities(cur.Entities, t.Entities)
		cur.At = t.At
		return f
	}
	if f.CurrentTopic != nil {
		f.RecentTopics = appendCapped(f.RecentTopics, *f.CurrentTopic, MaxRecentTopics)
	}
	f.CurrentTopic = &Topic{
		Intent:              t.Intent,
		Entities:            mergeEntities(nil, t.Entities),
		FollowUpSuggestions: suggestionsFor(t.Intent),
		At:                  t.At,
	}
	return f
}

func mergeEntities(have, add []string) []string {
	out := append([]string(nil), have...)
	for _, e := range add {
		dup := false
		for _, h := range out {
			if strings.EqualFold(h, e) {
				dup = true
				break
			}
		}
		if !dup && e != "" {
			out = append(out, e)
		}
	}
	return out
}

// topical reports whether an intent starts a topic a follow-up can refer to.
func topical(in intent.Intent) bool {
	switch in {
	case "", intent.Greeting, intent.Thanks, intent.Goodbye, intent.Reset, intent.Menu,
		intent.General, intent.Rejection, intent.TravelMode, intent.MultipleRequests:
		return false
	}
	return true
}

// ShouldSuppressRepeat is true only when the two most recent intents both
// equal in.
func ShouldSuppressRepeat(c Context, in intent.Intent) bool {
	n := len(c.RecentIntents)
	return n >= 2 && c.RecentIntents[n-1] == in && c.RecentIntents[n-2] == in
}

// AddRejected adds a place to the blacklist. Repeats move to the newest
// slot, and the oldest entries fall off past MaxRejected.
func AddRejected(c Context, place string) Context {
	place = strings.TrimSpace(place)
	if place == "" {
		return c
	}
	c = c.clone()
	kept := c.RecommendationBlacklist[:0]
	for _, p := range c.RecommendationBlacklist {
		if !strings.EqualFold(p, place) {
			kept = append(kept, p)
		}
	}
	c.RecommendationBlacklist = appendCapped(kept, place, MaxRejected)
	return c
}

// IsRejected reports whether place is on the blacklist.
func IsRejected(c Context, place string) bool {
	for _, p := range c.RecommendationBlacklist {
		if strings.EqualFold(p, place) {
			return true
		}
	}
	return false
}

// AddRecommendation remembers a recommendation that was sent.
func AddRecommendation(c Context, r Recommendation) Context {
	if strings.TrimSpace(r.Text) == "" {
		return c
	}
	c = c.clone()
	c.RecommendationHistory = appendCapped(c.RecommendationHistory, r, MaxRecommendations)
	return c
}

// RecommendationTexts returns the remembered recommendation texts, oldest first.
func (c Context) RecommendationTexts() []string {
	out := make([]string, 0, len(c.RecommendationHistory))
	for _, r := range c.RecommendationHistory {
		out = append(out, r.Text)
	}
	return out
}

// ResetRecommendations clears recommendation and dining memory and restarts
// the depth counter. Guest name and intent history survive.
func ResetRecommendations(c Context) Context {
	c = c.clone()
	c.RecommendationBlacklist = nil
	c.RecommendationHistory = nil
	c.SubFlow = SubFlow{}
	c.Flow = Flow{}
	c.ConversationDepth = 0
	return c
}

// WithSubFlow returns a copy with the given sub-flow.
func WithSubFlow(c Context, s SubFlow) Context {
	c = c.clone()
	c.SubFlow = s
	return normalize(c)
}
