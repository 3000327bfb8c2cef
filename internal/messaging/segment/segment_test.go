package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSplit_ShortTextReturnedUnchanged(t *testing.T) {
	in := "  WiFi: BeachHouse / pw sunshine123  "
	got := Split(in, 160)
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
}

func TestSplit_Properties(t *testing.T) {
	long := strings.Repeat("The pool is heated from May through October. ", 6) +
		"Towels are in the hall closet!\nCheckout is at 10am sharp? Please start the dishwasher before you leave."
	tests := []struct {
		name   string
		text   string
		maxLen int
	}{
		{"sentences", long, 160},
		{"tight budget", long, 40},
		{"single long word", strings.Repeat("x", 350), 160},
		{"mixed long word", "Use code " + strings.Repeat("A", 200) + " at the door. Thanks!", 50},
		{"unicode", strings.Repeat("Café olé ☕ is lovely. ", 20), 60},
		{"default budget", long, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := Split(tt.text, tt.maxLen)
			budget := tt.maxLen
			if budget <= 0 {
				budget = DefaultMaxLength
			}
			require.NotEmpty(t, segs)
			var joined strings.Builder
			for _, s := range segs {
				assert.LessOrEqual(t, utf8.RuneCountInString(s), budget, "segment too long: %q", s)
				assert.NotEmpty(t, strings.TrimSpace(s))
				joined.WriteString(strings.TrimSpace(s))
			}
			assert.Equal(t, squash(tt.text), squash(joined.String()))
		})
	}
}

func TestSplit_PrefersSentenceBoundaries(t *testing.T) {
	text := "Checkout is at 10am. Please leave keys on the counter. Start the dishwasher before you go. Thanks for staying with us!"
	segs := Split(text, 60)
	for _, s := range segs[:len(segs)-1] {
		last := s[len(s)-1]
		assert.Contains(t, ".!?", string(last), "segment should end on a sentence: %q", s)
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("Hi there! Pool opens at 9am.\nGym is 24/7... Enjoy")
	assert.Equal(t, []string{"Hi there!", "Pool opens at 9am.", "Gym is 24/7...", "Enjoy"}, got)
}

func TestTruncateAtSentence(t *testing.T) {
	text := "The hot tub is on the back deck. Cover must stay on when not in use. Temperature is set to 102 degrees and should not be changed by guests."
	got := TruncateAtSentence(text, 80)
	assert.Equal(t, "The hot tub is on the back deck. Cover must stay on when not in use.", got)

	assert.Equal(t, "short.", TruncateAtSentence(" short. ", 80))

	word := TruncateAtSentence("This single sentence is far too long to fit inside the tiny budget we give it", 30)
	assert.LessOrEqual(t, utf8.RuneCountInString(word), 30)
	assert.True(t, strings.HasSuffix(word, "…"))
}
