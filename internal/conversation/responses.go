package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mchlbschmdt/ai-concierge/internal/messaging/segment"
	"github.com/mchlbschmdt/ai-concierge/internal/property"
)

const (
	menuText = "I can help with WiFi, check-in and checkout times, parking, door access, house rules, amenities, " +
		"troubleshooting, and local food, coffee and things to do. Text 'reset' to start fresh or 'change property' to switch rentals."

	askForCode = "Please text your property code (it's in your booking confirmation) to get started. " +
		"Traveling without one? Text 'travel'."

	travelWelcome = "Travel mode is on! Tell me where you're headed or what you're in the mood for (food, coffee, things to do) " +
		"and I'll share ideas. Have a property code? Text it anytime."

	generalPrompt = "I'm not sure I caught that. I can help with WiFi, checkout, parking, amenities, and local food or activities. " +
		"What would you like to know?"
)

var (
	resetAcks = []string{
		"Fresh start! What can I help you with?",
		"Done, I've cleared my suggestions. What are you in the mood for?",
		"All reset. Ask me anything about your stay or the area.",
	}
	repeatAcks = []string{
		"I just shared that above.",
		"Looks like we covered that a moment ago.",
		"I sent that info just now.",
	}
	repeatNudges = []string{
		"Want something different? Tell me what to change, or text 'reset' for fresh ideas.",
		"If you'd like other options, say 'something else' or text 'reset'.",
	}
	thanksReplies = []string{
		"You're welcome! Anything else I can help with?",
		"Happy to help! Just text if you need anything else.",
	}
	goodbyeReplies = []string{
		"Enjoy your stay! Text me anytime.",
		"Have a wonderful time! I'm here if you need anything.",
	}
)

// timeOfDayGreeting picks morning, afternoon or evening in loc.
func timeOfDayGreeting(now time.Time, loc *time.Location) string {
	switch h := now.In(loc).Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func welcomeMessage(p *property.Property, guestName, greeting string) string {
	var b strings.Builder
	b.WriteString(greeting)
	if guestName != "" {
		b.WriteString(", " + guestName)
	}
	fmt.Fprintf(&b, "! Welcome to %s", p.Name)
	if addr := strings.TrimSpace(p.Address); addr != "" {
		fmt.Fprintf(&b, " at %s", addr)
	}
	b.WriteString(". I can help with WiFi, checkout, parking, amenities, and local food and things to do. What do you need?")
	return b.String()
}

func notFoundMessage(code string) string {
	return fmt.Sprintf("I couldn't find a property with code %s. Please double-check the code in your booking confirmation and text it again.", code)
}

func awaitingPrompt(guestName string) string {
	if guestName != "" {
		return "Hi " + guestName + "! " + askForCode
	}
	return "Hi! Welcome to your rental concierge. " + askForCode
}

// apology is what the guest sees when a collaborator fails.
func apology(p *property.Property) string {
	msg := "Sorry, I'm having trouble right now."
	if line := p.ContactLine(); line != "" {
		return msg + " " + line
	}
	return msg + " Please try again in a few minutes."
}

func withContact(msg string, p *property.Property) string {
	if line := p.ContactLine(); line != "" {
		return strings.TrimSpace(msg) + " " + line
	}
	return msg
}

// reminder shortens an earlier reply for quoting back to the guest.
func reminder(last string) string {
	last = strings.TrimSpace(last)
	if last == "" {
		return ""
	}
	return "Here's what I suggested: " + segment.TruncateAtSentence(last, 200)
}
