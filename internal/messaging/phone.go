package messaging

import "strings"

// NormalizeE164 returns value as +<digits>. Bare ten-digit numbers are
// assumed to be North American and get a +1 prefix.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := digitsOnly(value)
	switch {
	case digits == "":
		return ""
	case len(digits) == 10 && !strings.HasPrefix(value, "+"):
		return "+1" + digits
	}
	return "+" + digits
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
