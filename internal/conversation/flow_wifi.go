package conversation

import (
	"fmt"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
)

const (
	wifiAskWorking = "Is it working now? Reply YES or NO."
	wifiRestart    = "Let's restart the router: unplug it for 30 seconds, plug it back in and give it 2 minutes to come up. " + wifiAskWorking
	wifiFixed      = "Great, glad you're back online! Let me know if anything else comes up."
	wifiReprompt   = "Just reply YES if the WiFi is working or NO if it's still down."
)

func (s *Service) startWifiFlow(t *turn) {
	t.ctx = memory.WithSubFlow(t.ctx, memory.WifiSubFlow(1, t.now))
	msg := "Sorry the WiFi is giving you trouble! First, make sure WiFi is on and you've joined the rental's network. "
	if t.prop != nil && t.prop.WifiName != "" {
		msg = fmt.Sprintf("Sorry the WiFi is giving you trouble! First, make sure you're connected to %s%s. ",
			t.prop.WifiName, passwordHint(t.prop))
	}
	t.respond(BranchTroubleshooting, intent.TroubleWifi, msg+wifiAskWorking)
}

// continueWifi advances the troubleshooting steps on a yes/no reply. It
// reports false when the guest moved on to something else.
func (s *Service) continueWifi(t *turn) bool {
	w := t.ctx.SubFlow.Wifi
	if w == nil {
		return false
	}
	in := t.result.Intent
	yes, no := intent.IsYes(t.msg), intent.IsNo(t.msg)
	switch {
	case yes:
		t.ctx = memory.WithSubFlow(t.ctx, memory.SubFlow{})
		t.respond(BranchWifiFlow, intent.TroubleWifi, wifiFixed)
	case no || in == intent.TroubleWifi:
		s.nextWifiStep(t, w.Step)
	case in == intent.General || in == intent.Wifi:
		t.respond(BranchWifiFlow, intent.TroubleWifi, wifiReprompt)
	default:
		t.ctx = memory.WithSubFlow(t.ctx, memory.SubFlow{})
		return false
	}
	return true
}

func (s *Service) nextWifiStep(t *turn, step int) {
	switch step {
	case 1:
		t.ctx = memory.WithSubFlow(t.ctx, memory.WifiSubFlow(2, t.ctx.SubFlow.Wifi.StartedAt))
		t.respond(BranchWifiFlow, intent.TroubleWifi, wifiRestart)
	case 2:
		t.ctx = memory.WithSubFlow(t.ctx, memory.WifiSubFlow(3, t.ctx.SubFlow.Wifi.StartedAt))
		msg := "Try forgetting the network on your device and joining it again. "
		if t.prop != nil && t.prop.WifiName != "" {
			msg = fmt.Sprintf("Try forgetting the network on your device, then rejoin %s%s. ", t.prop.WifiName, passwordHint(t.prop))
		}
		t.respond(BranchWifiFlow, intent.TroubleWifi, msg+wifiAskWorking)
	default:
		t.ctx = memory.WithSubFlow(t.ctx, memory.SubFlow{})
		msg := "Sorry it's still not working."
		if line := t.prop.ContactLine(); line != "" {
			msg += " " + line + " They can check the router for you."
		} else {
			msg += " Please reach out to your host so they can check the router."
		}
		t.respond(BranchWifiFlow, intent.TroubleWifi, msg)
	}
}

func passwordHint(p *property.Property) string {
	if p.WifiPassword == "" {
		return ""
	}
	return " (password: " + p.WifiPassword + ")"
}
