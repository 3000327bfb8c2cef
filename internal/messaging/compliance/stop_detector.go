// Package compliance recognizes carrier opt-out keywords in inbound SMS.
package compliance

import (
	"regexp"
	"strings"
)

// Detector identifies carrier STOP and START keywords. Only a message that
// is nothing but the keyword matches, so "stop by the pool later" reaches
// the concierge as a normal question.
type Detector struct {
	stopRegex  *regexp.Regexp
	startRegex *regexp.Regexp
}

// NewDetector returns a keyword detector with the standard carrier keywords.
func NewDetector() *Detector {
	return &Detector{
		stopRegex:  regexp.MustCompile(`(?i)^(?:stop|stopall|unsubscribe|cancel|end|quit)[.!]*$`),
		startRegex: regexp.MustCompile(`(?i)^(?:start|unstop)[.!]*$`),
	}
}

// IsStop returns true when body is an opt-out keyword.
func (d *Detector) IsStop(body string) bool {
	if d == nil || d.stopRegex == nil {
		return false
	}
	return d.stopRegex.MatchString(strings.TrimSpace(body))
}

// IsStart returns true when body is an opt-in keyword.
func (d *Detector) IsStart(body string) bool {
	if d == nil || d.startRegex == nil {
		return false
	}
	return d.startRegex.MatchString(strings.TrimSpace(body))
}

// IsCarrierKeyword reports whether the carrier, not the concierge, owns the reply.
func (d *Detector) IsCarrierKeyword(body string) bool {
	return d.IsStop(body) || d.IsStart(body)
}
