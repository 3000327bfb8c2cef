// Package segment splits outbound text into SMS-sized pieces.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is the single-segment budget of a GSM-7 SMS.
const DefaultMaxLength = 160

type unit struct {
	text string
	// sep is the whitespace that preceded the unit in the source: "\n" or " ".
	sep string
}

// Split breaks text into segments of at most maxLen runes, preferring
// sentence boundaries, then word boundaries. Text that already fits is
// returned unchanged as a single segment.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var (
		segments []string
		current  strings.Builder
		curLen   int
	)
	flush := func() {
		if curLen > 0 {
			segments = append(segments, strings.TrimSpace(current.String()))
		}
		current.Reset()
		curLen = 0
	}
	appendUnit := func(u unit) {
		n := utf8.RuneCountInString(u.text)
		if curLen > 0 {
			if curLen+1+n <= maxLen {
				current.WriteString(u.sep)
				current.WriteString(u.text)
				curLen += 1 + n
				return
			}
			flush()
		}
		current.WriteString(u.text)
		curLen = n
	}

	for _, s := range sentenceUnits(text) {
		if utf8.RuneCountInString(s.text) <= maxLen {
			appendUnit(s)
			continue
		}
		for i, w := range strings.Fields(s.text) {
			sep := " "
			if i == 0 {
				sep = s.sep
			}
			if utf8.RuneCountInString(w) <= maxLen {
				appendUnit(unit{text: w, sep: sep})
				continue
			}
			for _, chunk := range hardSplit(w, maxLen) {
				flush()
				appendUnit(unit{text: chunk, sep: sep})
			}
		}
	}
	flush()

	if len(segments) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return segments
}

// Sentences returns the trimmed sentences of text. Line breaks always end a
// sentence.
func Sentences(text string) []string {
	units := sentenceUnits(text)
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.text)
	}
	return out
}

// TruncateAtSentence shortens text to at most max runes, cutting at the last
// sentence boundary that fits. A first sentence longer than max is cut at a
// word boundary and marked with an ellipsis.
func TruncateAtSentence(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	var (
		b strings.Builder
		n int
	)
	for _, u := range sentenceUnits(text) {
		l := utf8.RuneCountInString(u.text)
		if n > 0 {
			if n+1+l > max {
				break
			}
			b.WriteString(u.sep)
			n++
		} else if l > max {
			return truncateWords(u.text, max)
		}
		b.WriteString(u.text)
		n += l
	}
	return b.String()
}

func truncateWords(text string, max int) string {
	if max <= 1 {
		return string([]rune(text)[:max])
	}
	var (
		b strings.Builder
		n int
	)
	for _, w := range strings.Fields(text) {
		l := utf8.RuneCountInString(w)
		extra := l
		if n > 0 {
			extra++
		}
		if n+extra > max-1 {
			break
		}
		if n > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		n += extra
	}
	if n == 0 {
		return string([]rune(text)[:max-1]) + "…"
	}
	return strings.TrimRight(b.String(), ",;:") + "…"
}

func sentenceUnits(text string) []unit {
	var (
		units []unit
		buf   strings.Builder
		sep   = ""
	)
	runes := []rune(text)
	emit := func() {
		s := strings.TrimSpace(buf.String())
		buf.Reset()
		if s == "" {
			return
		}
		units = append(units, unit{text: s, sep: sepOr(sep)})
		sep = ""
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			emit()
			sep = "\n"
			continue
		}
		if buf.Len() == 0 && unicode.IsSpace(r) {
			continue
		}
		buf.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Swallow trailing punctuation and closing quotes ("Really?!").
			for i+1 < len(runes) && strings.ContainsRune(".!?\"')", runes[i+1]) {
				i++
				buf.WriteRune(runes[i])
			}
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				emit()
				if sep == "" {
					sep = " "
				}
			}
		}
	}
	emit()
	return units
}

func sepOr(sep string) string {
	if sep == "" {
		return " "
	}
	return sep
}

func hardSplit(word string, maxLen int) []string {
	runes := []rune(word)
	var out []string
	for len(runes) > maxLen {
		out = append(out, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
