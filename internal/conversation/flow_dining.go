package conversation

import (
	"context"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

const (
	vibePrompt   = "Want something different? Tell me the vibe: casual, upscale, family-friendly, romantic or lively."
	anotherTaste = "Want another option? Just say so, or tell me a different vibe."
)

// handleDining runs the one-pick-at-a-time dining dialog: suggest a single
// place, ask for a vibe, then refine. It reports false when the message
// leaves the dialog.
func (s *Service) handleDining(ctx context.Context, t *turn) bool {
	in := t.result.Intent
	vibe := intent.DetectVibe(t.msg)

	if sub := t.ctx.SubFlow; sub.Kind == memory.SubFlowDining && sub.Dining != nil {
		d := *sub.Dining
		rejected := in == intent.Rejection || intent.IsRejection(t.msg)
		vibeReply := vibe != "" && (in == intent.Food || in == intent.VibePreference || in == intent.General || in == intent.Rejection)
		switch {
		case rejected || vibeReply:
			if vibeReply {
				d.Vibe = vibe
			}
			recorded := in
			if in != intent.VibePreference && in != intent.Rejection {
				recorded = intent.Food
			}
			s.nextDiningPick(ctx, t, d, rejected, recorded)
			return true
		case in == intent.Food:
			// a fresh food request restarts the dialog below
		default:
			t.ctx = memory.WithSubFlow(t.ctx, memory.SubFlow{})
			return false
		}
	}

	if in != intent.Food && in != intent.VibePreference {
		return false
	}
	if vibe == "" && s.suppressRepeat(t, in) {
		return true
	}
	d := memory.DiningFlow{
		MealType: intent.MealType(t.msg),
		Vibe:     vibe,
		HasKids:  t.result.HasKids,
	}
	if d.MealType == "" {
		d.MealType = mealForHour(t.now.In(loadLocation(t.timezone, nil)).Hour())
	}
	if d.Vibe == "" && d.HasKids {
		d.Vibe = "family"
	}
	s.nextDiningPick(ctx, t, d, false, in)
	return true
}

func (s *Service) nextDiningPick(ctx context.Context, t *turn, d memory.DiningFlow, rejected bool, recorded intent.Intent) {
	if rejected {
		t.ctx = memory.AddRejected(t.ctx, d.LastPick)
		for _, name := range memory.ExtractPlaceNames(t.lastRecs) {
			t.ctx = memory.AddRejected(t.ctx, name)
		}
	}
	query := t.msg
	if t.result.Intent != intent.Food {
		query = "Somewhere to eat " + d.MealType
	}
	text, ok := s.fetchRecommendation(ctx, t, recommendationQuery{
		requestType: intent.Food,
		query:       query,
		meal:        d.MealType,
		vibe:        d.Vibe,
		single:      true,
	})
	if !ok {
		t.ctx = memory.WithSubFlow(t.ctx, memory.SubFlow{})
		t.respond(BranchDining, recorded, s.recommendationFallback(t))
		return
	}

	if names := memory.ExtractPlaceNames(text); len(names) > 0 {
		d.LastPick = names[0]
	}
	follow := anotherTaste
	if d.Vibe == "" {
		d.Stage = memory.DiningAwaitingVibe
		follow = vibePrompt
	} else {
		d.Stage = memory.DiningRefined
	}
	t.ctx = memory.WithSubFlow(t.ctx, memory.DiningSubFlow(d))
	t.respond(BranchDining, recorded, text+"\n\n"+follow)
}

func mealForHour(h int) string {
	switch {
	case h < 11:
		return "breakfast"
	case h < 16:
		return "lunch"
	default:
		return "dinner"
	}
}
