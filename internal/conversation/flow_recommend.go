package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/knowledge"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging/segment"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
	"github.com/mchlbschmdt/ai-concierge/internal/recommend"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

// Fallback stages, in the order they are tried after the recommender fails.
const (
	fallbackPropertyText = "property_text"
	fallbackContact      = "contact"
)

const minResolverConfidence = 0.5

// recommendationIntents are answered from the host's notes or the recommender.
var recommendationIntents = map[intent.Intent]bool{
	intent.Activities:      true,
	intent.Grocery:         true,
	intent.Shopping:        true,
	intent.Nightlife:       true,
	intent.Beach:           true,
	intent.Attractions:     true,
	intent.Coffee:          true,
	intent.LocalEvents:     true,
	intent.Transportation:  true,
	intent.Weather:         true,
	intent.PackingTips:     true,
	intent.BestTimeToVisit: true,
	intent.Busyness:        true,
}

func isRecommendationIntent(in intent.Intent) bool {
	return recommendationIntents[in] || in == intent.Food
}

type recommendationQuery struct {
	requestType intent.Intent
	query       string
	meal        string
	vibe        string
	single      bool
	rejected    []string
	// transient answers are sent but not remembered as recommendations.
	transient bool
}

func (s *Service) handleRecommendation(ctx context.Context, t *turn, in intent.Intent) {
	if s.suppressRepeat(t, in) {
		return
	}
	if s.answerDistance(t, in) {
		return
	}
	if res := s.resolver.Resolve(t.prop, t.msg); res.Found && res.Source == knowledge.SourceFreeText && res.Confidence >= minResolverConfidence {
		t.respond(BranchRecommendation, in, res.Content)
		return
	}
	text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{
		requestType: in,
		meal:        intent.MealType(t.msg),
		vibe:        intent.DetectVibe(t.msg),
	})
	if !ok {
		text = s.recommendationFallback(t)
	}
	t.respond(BranchRecommendation, in, text)
}

// fetchRecommendation asks the recommender while steering it away from
// blacklisted and over-suggested places. ok is false when nothing usable
// came back.
func (s *Service) fetchRecommendation(ctx context.Context, t *turn, q recommendationQuery) (string, bool) {
	if s.recommender == nil {
		return "", false
	}
	category := q.meal
	if category == "" {
		category = string(q.requestType)
	}
	div := ShouldDiversify(t.ctx.RecommendationTexts(), category)
	req := recommend.RecommendationRequest{
		Query:           q.query,
		RequestType:     string(q.requestType),
		Vibe:            q.vibe,
		MealType:        q.meal,
		RejectedOptions: mergeNames(t.ctx.RecommendationBlacklist, div.RejectedOptions, q.rejected),
		Single:          q.single,
	}
	if req.Query == "" {
		req.Query = t.msg
	}
	if t.prop != nil {
		req.PropertyName = t.prop.Name
		req.PropertyAddress = t.prop.Address
	}

	ctx, span := s.tracer.Start(ctx, "conversation.recommend")
	defer span.End()
	span.SetAttributes(
		attribute.String("concierge.request_type", req.RequestType),
		attribute.Bool("concierge.diversify", div.ShouldDiversify),
	)
	callCtx, cancel := context.WithTimeout(ctx, s.recTimeout)
	defer cancel()

	text, err := s.recommender.GetRecommendations(callCtx, req)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("conversation: empty recommendation")
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("recommendation unavailable",
			"phone", logging.MaskPhone(t.phone), "request_type", req.RequestType, "error", err)
		t.degraded = true
		return "", false
	}
	if div.ShouldDiversify {
		s.logger.Debug("recommendation diversified", "phone", logging.MaskPhone(t.phone), "note", div.Note)
	}
	if q.transient {
		return text, true
	}
	t.lastRecs = text
	t.ctx = memory.AddRecommendation(t.ctx, memory.Recommendation{Text: text, RequestType: req.RequestType, At: t.now})
	return text, true
}

// recommendationFallback is the last resort: the host's own notes, then the
// host's contact.
func (s *Service) recommendationFallback(t *turn) string {
	if t.prop != nil && strings.TrimSpace(t.prop.LocalRecommendations) != "" {
		s.metrics.ObserveRecommendationFallback(fallbackPropertyText)
		return "Here are some local favorites from your host: " +
			segment.TruncateAtSentence(strings.TrimSpace(t.prop.LocalRecommendations), knowledge.DefaultMaxSnippet)
	}
	s.metrics.ObserveRecommendationFallback(fallbackContact)
	return withContact("I can't pull up recommendations right now. Please try again in a few minutes.", t.prop)
}

var distanceWords = []string{"how far", "distance", "how long", "drive", "minutes from", "minutes to"}

// answerDistance replies from the derived location context when the guest
// asks how far a known landmark is.
func (s *Service) answerDistance(t *turn, in intent.Intent) bool {
	if t.prop == nil || !t.prop.Location.Known() {
		return false
	}
	lower := strings.ToLower(t.msg)
	if !containsAnyString(lower, distanceWords) {
		return false
	}
	for _, d := range t.prop.Location.Distances {
		if landmarkMentioned(lower, d.Place) {
			t.respond(BranchRecommendation, in, distanceReply(d, t.prop))
			return true
		}
	}
	return false
}

func distanceReply(d property.Distance, p *property.Property) string {
	return fmt.Sprintf("%s is about %d minutes' drive from %s.", d.Place, d.Minutes, p.Name)
}

func landmarkMentioned(lower, place string) bool {
	name := strings.ToLower(place)
	if strings.Contains(name, "airport") {
		return strings.Contains(lower, "airport")
	}
	first := strings.Fields(name)
	return len(first) > 0 && strings.Contains(lower, first[0])
}

// suppressRepeat answers with an "already told you" variant when the last
// two turns had the same intent.
func (s *Service) suppressRepeat(t *turn, in intent.Intent) bool {
	if !memory.ShouldSuppressRepeat(t.ctx, in) {
		return false
	}
	parts := []string{s.choose(repeatAcks)}
	if isRecommendationIntent(in) {
		if r := reminder(t.lastRecs); r != "" {
			parts = append(parts, r)
		}
		parts = append(parts, s.choose(repeatNudges))
	} else if line := t.prop.ContactLine(); line != "" {
		parts = append(parts, "Scroll up for the details. Still stuck? "+line)
	} else {
		parts = append(parts, "Scroll up for the details, or ask me something new.")
	}
	t.respond(BranchRepetition, in, strings.Join(parts, " "))
	return true
}

// mergeNames unions name lists case-insensitively, keeping first spellings.
func mergeNames(lists ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, n := range list {
			key := strings.ToLower(strings.TrimSpace(n))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(n))
		}
	}
	return out
}

func containsAnyString(lower string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
