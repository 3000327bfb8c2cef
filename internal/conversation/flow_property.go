package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

const minCodeDigits = 3

func (s *Service) handleTravelCode(t *turn) {
	if t.prop != nil && t.state == StateConfirmed {
		t.respond(BranchTravelMode, intent.TravelMode, fmt.Sprintf(
			"You're connected to %s right now. To use travel mode, text 'change property' first, then 'travel'.", t.prop.Name))
		return
	}
	t.ctx.TravelMode = true
	t.respond(BranchTravelMode, intent.TravelMode, travelWelcome)
}

func (s *Service) handleAwaitingProperty(ctx context.Context, t *turn) error {
	if code := intent.DigitsOnly(t.msg); len(code) >= minCodeDigits {
		return s.lookupCode(ctx, t, code)
	}
	if name := intent.ExtractGuestName(t.msg); name != "" {
		t.ctx.GuestName = name
		t.respond(BranchGuestName, intent.Greeting, fmt.Sprintf(
			"Nice to meet you, %s! Please text your property code so I can pull up your rental details.", name))
		return nil
	}
	if t.ctx.TravelMode {
		return s.handleTravelMessage(ctx, t)
	}
	t.respond(BranchAwaitingCode, intent.PropertyCode, awaitingPrompt(t.ctx.GuestName))
	return nil
}

// handleTravelMessage answers without a property, straight from the recommender.
func (s *Service) handleTravelMessage(ctx context.Context, t *turn) error {
	t.result = s.classifier.Classify(t.msg)
	switch t.result.Intent {
	case intent.Greeting, intent.Menu:
		t.respond(BranchTravelMode, t.result.Intent, travelWelcome)
		return nil
	case intent.Thanks:
		t.respond(BranchSmallTalk, intent.Thanks, s.choose(thanksReplies))
		return nil
	}
	text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{
		requestType: t.result.Intent,
		meal:        intent.MealType(t.msg),
		vibe:        intent.DetectVibe(t.msg),
	})
	if !ok {
		text = "I couldn't pull up ideas right now. Try again in a moment, or text your property code for local tips."
	}
	t.respond(BranchTravelMode, t.result.Intent, text)
	return nil
}

func (s *Service) lookupCode(ctx context.Context, t *turn, code string) error {
	p, err := s.properties.GetByCode(ctx, code)
	if errors.Is(err, property.ErrNotFound) {
		s.logger.Info("property code not found", "phone", logging.MaskPhone(t.phone), "code", code)
		t.respond(BranchPropertyCode, intent.PropertyCode, notFoundMessage(code))
		return nil
	}
	if err != nil {
		return fmt.Errorf("conversation: lookup property code: %w", err)
	}
	s.confirm(t, p)
	return nil
}

// confirm binds the conversation to p and sends the welcome.
func (s *Service) confirm(t *turn, p *property.Property) {
	t.prop = p
	t.state = StateConfirmed
	t.propID = p.ID
	t.timezone = property.TimezoneForAddress(p.Address, s.defaultTZ)
	t.ctx.TravelMode = false
	greeting := timeOfDayGreeting(t.now, loadLocation(t.timezone, nil))
	t.respond(BranchPropertyCode, intent.PropertyCode, welcomeMessage(p, t.ctx.GuestName, greeting))
	s.logger.Info("property confirmed", "phone", logging.MaskPhone(t.phone), "property_id", p.ID)
}

// handleAwaitingConfirmation serves conversations persisted in the legacy
// yes/no confirmation step.
func (s *Service) handleAwaitingConfirmation(ctx context.Context, t *turn) error {
	switch {
	case t.prop != nil && intent.IsYes(t.msg):
		s.confirm(t, t.prop)
		return nil
	case intent.IsNo(t.msg):
		t.state, t.propID, t.prop = StateAwaitingPropertyID, "", nil
		t.respond(BranchConfirmation, intent.PropertyCode, "No problem. Please text the correct property code.")
		return nil
	case len(intent.DigitsOnly(t.msg)) >= minCodeDigits:
		return s.lookupCode(ctx, t, intent.DigitsOnly(t.msg))
	case t.prop == nil:
		t.state = StateAwaitingPropertyID
		t.respond(BranchAwaitingCode, intent.PropertyCode, awaitingPrompt(t.ctx.GuestName))
		return nil
	}
	t.respond(BranchConfirmation, intent.PropertyCode, fmt.Sprintf(
		"Just to confirm, are you staying at %s? Reply YES or NO.", t.prop.Name))
	return nil
}

func (s *Service) switchProperty(t *turn) {
	t.state, t.propID, t.prop = StateAwaitingPropertyID, "", nil
	t.ctx = memory.ResetRecommendations(t.ctx)
	t.ctx.TravelMode = false
	t.lastRecs = ""
	t.respond(BranchPropertySwitch, intent.PropertyCode,
		"No problem! Text the property code for your new rental and I'll switch you over.")
}
