package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func record(c Context, ins ...intent.Intent) Context {
	for i, in := range ins {
		c = RecordTurn(c, Turn{Intent: in, ResponseType: "test", At: t0.Add(time.Duration(i) * time.Minute)})
	}
	return c
}

func TestRecordTurn_CapsBuffers(t *testing.T) {
	c := New()
	for i := 0; i < 12; i++ {
		c = record(c, intent.Wifi)
	}
	assert.Len(t, c.RecentIntents, MaxRecentIntents)
	assert.Len(t, c.IntentHistory, MaxIntentHistory)
	assert.Equal(t, 12, c.ConversationDepth)
	assert.Equal(t, intent.Wifi, c.LastIntent)
	assert.Equal(t, "test", c.LastResponseType)
}

func TestRecordTurn_DoesNotMutateInput(t *testing.T) {
	before := record(New(), intent.Food, intent.Wifi)
	snapshot := append([]intent.Intent(nil), before.RecentIntents...)
	_ = RecordTurn(before, Turn{Intent: intent.Checkout, At: t0})
	assert.Equal(t, snapshot, before.RecentIntents)
	assert.Equal(t, 2, before.ConversationDepth)
}

func TestRecordTurn_TopicTrail(t *testing.T) {
	c := RecordTurn(New(), Turn{Intent: intent.Amenity, Entities: []string{"pool"}, At: t0})
	require.NotNil(t, c.Flow.CurrentTopic)
	assert.Equal(t, intent.Amenity, c.Flow.CurrentTopic.Intent)
	assert.Equal(t, []string{"pool"}, c.Flow.CurrentTopic.Entities)

	c = RecordTurn(c, Turn{Intent: intent.Thanks, At: t0})
	assert.Equal(t, intent.Amenity, c.Flow.CurrentTopic.Intent, "social turns keep the topic")

	c = RecordTurn(c, Turn{Intent: intent.Checkout, At: t0})
	assert.Equal(t, intent.Checkout, c.Flow.CurrentTopic.Intent)
	require.Len(t, c.Flow.RecentTopics, 1)
	assert.Equal(t, intent.Amenity, c.Flow.RecentTopics[0].Intent)
}

func TestShouldSuppressRepeat(t *testing.T) {
	tests := []struct {
		name    string
		history []intent.Intent
		want    bool
	}{
		{"empty", nil, false},
		{"single", []intent.Intent{intent.Food}, false},
		{"last two match", []intent.Intent{intent.Wifi, intent.Food, intent.Food}, true},
		{"only last matches", []intent.Intent{intent.Food, intent.Wifi, intent.Food}, false},
		{"only second to last matches", []intent.Intent{intent.Food, intent.Food, intent.Wifi}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := record(New(), tt.history...)
			assert.Equal(t, tt.want, ShouldSuppressRepeat(c, intent.Food))
		})
	}
}

func TestAddRejected_LRU(t *testing.T) {
	c := New()
	for i := 0; i < MaxRejected+5; i++ {
		c = AddRejected(c, fmt.Sprintf("Place %d", i))
	}
	assert.Len(t, c.RecommendationBlacklist, MaxRejected)
	assert.False(t, IsRejected(c, "Place 0"))
	assert.True(t, IsRejected(c, "place 24"))

	c = AddRejected(c, "PLACE 5")
	assert.Len(t, c.RecommendationBlacklist, MaxRejected)
	assert.Equal(t, "PLACE 5", c.RecommendationBlacklist[MaxRejected-1])

	assert.Equal(t, c, AddRejected(c, "   "))
}

func TestResetRecommendations(t *testing.T) {
	c := record(New(), intent.Food, intent.Food)
	c.GuestName = "Sam"
	c = AddRejected(c, "Olive Garden")
	c = AddRecommendation(c, Recommendation{Text: "Try Kiko's", RequestType: "dinner", At: t0})
	c = WithSubFlow(c, DiningSubFlow(DiningFlow{Stage: DiningAwaitingVibe}))

	c = ResetRecommendations(c)
	c = RecordTurn(c, Turn{Intent: intent.Reset, At: t0})

	assert.Empty(t, c.RecommendationBlacklist)
	assert.Empty(t, c.RecommendationHistory)
	assert.False(t, c.SubFlow.Active())
	assert.Nil(t, c.Flow.CurrentTopic)
	assert.Equal(t, 1, c.ConversationDepth)
	assert.Equal(t, intent.Reset, c.RecentIntents[len(c.RecentIntents)-1])
	assert.Equal(t, "Sam", c.GuestName)
}

func TestDecode_NeverFails(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"null":          "null",
		"not json":      "{{{",
		"array":         "[1,2]",
		"wrong types":   `{"conversationDepth":"three","recentIntents":42,"guestName":"Ana"}`,
		"bad sub flow":  `{"subFlow":{"kind":"dining"}}`,
		"unknown kind":  `{"subFlow":{"kind":"karaoke"}}`,
		"legacy fields": `{"diningFlowActive":true,"lastRecommendations":"x"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			c := Decode([]byte(raw))
			assert.Equal(t, ContextVersion, c.Version)
			assert.False(t, c.SubFlow.Active())
		})
	}

	c := Decode([]byte(`{"conversationDepth":"three","guestName":"Ana"}`))
	assert.Equal(t, "Ana", c.GuestName)
	assert.Equal(t, 0, c.ConversationDepth)
}

func TestDecode_RecapsOversizedBuffers(t *testing.T) {
	raw := `{"recentIntents":["a","b","c","d","e","f","g"],"recommendationBlacklist":[` +
		`"1","2","3","4","5","6","7","8","9","10","11","12","13","14","15","16","17","18","19","20","21","22"]}`
	c := Decode([]byte(raw))
	assert.Len(t, c.RecentIntents, MaxRecentIntents)
	assert.Equal(t, intent.Intent("g"), c.RecentIntents[MaxRecentIntents-1])
	assert.Len(t, c.RecommendationBlacklist, MaxRejected)
	assert.Equal(t, "3", c.RecommendationBlacklist[0])
}

func TestEncodeDecode_SubFlowVariant(t *testing.T) {
	c := WithSubFlow(New(), WifiSubFlow(2, t0))
	raw, err := Encode(c)
	require.NoError(t, err)

	got := Decode(raw)
	require.Equal(t, SubFlowWifi, got.SubFlow.Kind)
	require.NotNil(t, got.SubFlow.Wifi)
	assert.Equal(t, 2, got.SubFlow.Wifi.Step)
	assert.Nil(t, got.SubFlow.Dining)
}
