package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

const maxMultiAnswers = 3

// handleConfirmed walks the routing table for a guest bound to a property.
// Order matters: each step only sees messages the earlier ones declined.
func (s *Service) handleConfirmed(ctx context.Context, t *turn) error {
	if intent.IsPropertySwitch(t.msg) {
		s.switchProperty(t)
		return nil
	}

	t.result = s.classifier.Classify(t.msg)
	in := t.result.Intent
	t.entities = intent.TopicEntities(t.msg)

	if name := intent.ExtractGuestName(t.msg); name != "" {
		t.ctx.GuestName = name
		if (in == intent.General || in == intent.Greeting) && intent.IsIntroduction(t.msg) {
			t.respond(BranchGuestName, intent.Greeting, fmt.Sprintf(
				"Nice to meet you, %s! How can I help with your stay at %s?", name, t.prop.Name))
			return nil
		}
	}

	if t.ctx.SubFlow.Kind == memory.SubFlowWifi && s.continueWifi(t) {
		return nil
	}

	switch in {
	case intent.Menu:
		t.respond(BranchMenu, in, menuText)
		return nil
	case intent.Amenity:
		s.answerAmenity(t)
		return nil
	}

	if s.handleDining(ctx, t) {
		return nil
	}
	if in == intent.Reset {
		s.reset(t)
		return nil
	}
	if recommendationIntents[in] {
		s.handleRecommendation(ctx, t, in)
		return nil
	}
	if !repeatExempt(in) && s.suppressRepeat(t, in) {
		return nil
	}
	if fu, ok := memory.DetectFollowUp(t.msg, t.ctx.Flow); ok {
		s.handleFollowUp(ctx, t, fu)
		return nil
	}
	s.handleFresh(ctx, t)
	return nil
}

// repeatExempt lists intents that are always answered in full, however
// often they come in a row.
func repeatExempt(in intent.Intent) bool {
	if in.IsSafety() {
		return true
	}
	switch in {
	case intent.General, intent.Greeting, intent.Thanks, intent.Goodbye, intent.Menu,
		intent.Reset, intent.Rejection, intent.MultipleRequests:
		return true
	}
	return false
}

func (s *Service) reset(t *turn) {
	t.ctx = memory.ResetRecommendations(t.ctx)
	t.lastRecs = ""
	t.respond(BranchReset, intent.Reset, s.choose(resetAcks))
}

func (s *Service) answerAmenity(t *turn) {
	res := s.resolver.Resolve(t.prop, t.msg)
	if res.Found {
		t.respond(BranchAmenity, intent.Amenity, res.Content)
		return
	}
	msg := "I don't see that listed for this property."
	if name := intent.AmenityMentioned(t.msg); name != "" && name != "amenities" && name != "amenity" {
		msg = fmt.Sprintf("I don't see a %s listed for %s.", name, t.prop.Name)
	}
	t.respond(BranchAmenity, intent.Amenity, withContact(msg+" Your host can confirm.", t.prop))
}

var lateEarlyAspects = map[string]bool{"early": true, "late": true, "later": true, "extend": true, "extension": true}

func (s *Service) handleFollowUp(ctx context.Context, t *turn, fu memory.FollowUp) {
	t.entities = mergeNames(t.entities, []string{fu.Entity})
	s.logger.Debug("follow-up detected",
		"topic", fu.Intent, "kind", fu.Kind, "entity", fu.Entity, "aspect", fu.Aspect)

	if fu.Kind == memory.FollowUpDistance {
		s.followUpDistance(ctx, t, fu)
		return
	}

	if isRecommendationIntent(fu.Intent) {
		query := t.msg
		if place := lastPlace(t.lastRecs); place != "" && fu.Kind != memory.FollowUpGeneric {
			query = fmt.Sprintf("%s (asking about %s)", t.msg, place)
		}
		text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{requestType: fu.Intent, query: query})
		if !ok {
			text = s.recommendationFallback(t)
		}
		t.respond(BranchFollowUp, fu.Intent, text)
		return
	}

	anchor := fu.Entity
	if anchor == "" {
		anchor = topicQuery(fu.Intent, t.msg)
	}
	res := s.resolver.Resolve(t.prop, strings.TrimSpace(anchor+" "+t.msg))
	content := res.Content
	if (fu.Intent == intent.Checkout || fu.Intent == intent.Checkin) && lateEarlyAspects[fu.Aspect] {
		content = withContact(content+" Early or late times depend on the cleaning schedule, so check with your host.", t.prop)
	}
	t.respond(BranchFollowUp, fu.Intent, content)
}

// followUpDistance answers "how far is it" against the last place mentioned.
func (s *Service) followUpDistance(ctx context.Context, t *turn, fu memory.FollowUp) {
	place := fu.Entity
	if p := lastPlace(t.lastRecs); p != "" && isRecommendationIntent(fu.Intent) {
		place = p
	}
	if place != "" {
		if d, ok := t.prop.Location.DistanceTo(place); ok {
			t.respond(BranchFollowUp, fu.Intent, distanceReply(d, t.prop))
			return
		}
		if isRecommendationIntent(fu.Intent) {
			text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{
				requestType: intent.Directions,
				query:       fmt.Sprintf("How far is %s from the property, and how do I get there?", place),
				transient:   true,
			})
			if ok {
				t.respond(BranchFollowUp, fu.Intent, text)
				return
			}
		}
	}
	t.respond(BranchFollowUp, fu.Intent, s.resolver.Resolve(t.prop, "address").Content)
}

func (s *Service) handleFresh(ctx context.Context, t *turn) {
	in := t.result.Intent
	switch {
	case in == intent.Emergency:
		t.respond(BranchSafety, in, s.resolver.Resolve(t.prop, "emergency contact").Content)
	case in == intent.Lockout:
		s.answerLockout(t)
	case in == intent.TroubleWifi:
		s.startWifiFlow(t)
	case in.IsTroubleshooting():
		s.answerTroubleshooting(t)
	case in == intent.MultipleRequests:
		s.answerMultiple(t)
	case in == intent.Greeting:
		t.respond(BranchSmallTalk, in, s.greetingReply(t))
	case in == intent.Thanks:
		t.respond(BranchSmallTalk, in, s.choose(thanksReplies))
	case in == intent.Goodbye:
		t.respond(BranchSmallTalk, in, s.choose(goodbyeReplies))
	case in == intent.Rejection:
		s.answerRejection(ctx, t)
	case in == intent.General:
		s.answerGeneral(t)
	default:
		s.answerStructured(t, in)
	}
}

func (s *Service) greetingReply(t *turn) string {
	hi := "Hi"
	if t.ctx.GuestName != "" {
		hi += " " + t.ctx.GuestName
	}
	return fmt.Sprintf("%s! How can I help with your stay at %s?", hi, t.prop.Name)
}

func (s *Service) answerLockout(t *turn) {
	msg := "Sorry you're locked out!"
	if access := strings.TrimSpace(t.prop.AccessInstructions); access != "" {
		msg += " " + access
	}
	if line := t.prop.ContactLine(); line != "" {
		msg += " If that doesn't work: " + line
	} else {
		msg += " Please call your host right away."
	}
	t.respond(BranchSafety, intent.Lockout, msg)
}

var troubleTips = map[intent.Intent]string{
	intent.TroubleTV:    "Try turning the TV and any streaming box off at the power button, wait 10 seconds, then check the input matches (usually HDMI 1).",
	intent.TroubleEquip: "Check that it's switched on and the breaker hasn't tripped, then give it a few minutes after resetting.",
	intent.TroubleOther: "Sorry about that!",
}

func (s *Service) answerTroubleshooting(t *turn) {
	in := t.result.Intent
	tip := troubleTips[in]
	if res := s.resolver.Resolve(t.prop, t.msg); res.Found && res.Confidence >= minResolverConfidence {
		tip = res.Content
	}
	t.respond(BranchTroubleshooting, in, withContact(tip+" If it's still not working, let us know.", t.prop))
}

func (s *Service) answerMultiple(t *turn) {
	subs := t.result.SubIntents
	if len(subs) > maxMultiAnswers {
		subs = subs[:maxMultiAnswers]
	}
	var parts []string
	for _, sub := range subs {
		if isRecommendationIntent(sub) {
			parts = append(parts, fmt.Sprintf("For %s ideas, ask me on its own and I'll pick something for you.", friendlyTopic(sub)))
			continue
		}
		q := topicQuery(sub, t.msg)
		if q == "" {
			continue
		}
		parts = append(parts, s.resolver.Resolve(t.prop, q).Content)
	}
	if len(parts) == 0 {
		t.respond(BranchMultiRequest, intent.MultipleRequests, generalPrompt)
		return
	}
	t.respond(BranchMultiRequest, intent.MultipleRequests, strings.Join(parts, "\n"))
}

func (s *Service) answerRejection(ctx context.Context, t *turn) {
	for _, name := range memory.ExtractPlaceNames(t.lastRecs) {
		t.ctx = memory.AddRejected(t.ctx, name)
	}
	if topic := t.ctx.Flow.CurrentTopic; topic != nil && isRecommendationIntent(topic.Intent) {
		if text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{requestType: topic.Intent}); ok {
			t.respond(BranchRecommendation, intent.Rejection, "Got it. How about this instead: "+text)
			return
		}
	}
	t.respond(BranchSmallTalk, intent.Rejection, "No problem! Let me know what you'd like instead.")
}

func (s *Service) answerGeneral(t *turn) {
	if res := s.resolver.Resolve(t.prop, t.msg); res.Found {
		t.respond(BranchStructured, intent.General, res.Content)
		return
	}
	t.respond(BranchGeneral, intent.General, generalPrompt)
}

func (s *Service) answerStructured(t *turn, in intent.Intent) {
	res := s.resolver.Resolve(t.prop, t.msg)
	if !res.Found {
		if q := topicQuery(in, t.msg); q != "" {
			if alt := s.resolver.Resolve(t.prop, q); alt.Found {
				res = alt
			}
		}
	}
	t.respond(BranchStructured, in, res.Content)
}

// topicQuery maps an intent to the keywords the resolver keys on.
func topicQuery(in intent.Intent, msg string) string {
	switch in {
	case intent.Wifi, intent.TroubleWifi:
		return "wifi"
	case intent.Checkout:
		return "checkout"
	case intent.Checkin:
		return "check in"
	case intent.Parking:
		return "parking"
	case intent.Access, intent.Lockout:
		return "door code"
	case intent.HouseRules, intent.Pets:
		return "house rules"
	case intent.Directions, intent.Location:
		return "address"
	case intent.Emergency:
		return "emergency contact"
	case intent.Amenity:
		if name := intent.AmenityMentioned(msg); name != "" {
			return name
		}
		return "amenities"
	case intent.Trash:
		return "trash"
	case intent.Laundry:
		return "laundry"
	}
	return ""
}

func friendlyTopic(in intent.Intent) string {
	s := strings.TrimPrefix(string(in), "ask_")
	s = strings.TrimSuffix(s, "_recommendations")
	return strings.ReplaceAll(s, "_", " ")
}

func lastPlace(text string) string {
	if names := memory.ExtractPlaceNames(text); len(names) > 0 {
		return names[0]
	}
	return ""
}
