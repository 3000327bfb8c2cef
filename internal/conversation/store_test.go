package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

var conversationRowColumns = []string{
	"id", "phone_number", "state", "property_id", "context", "last_recommendations",
	"last_message_type", "timezone", "last_interaction_at", "created_at", "updated_at",
}

func TestPostgresStore_GetConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithDB(mock)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := created.Add(time.Hour)

	mock.ExpectQuery("FROM conversations WHERE phone_number = \\$1").
		WithArgs(guestPhone).
		WillReturnRows(pgxmock.NewRows(conversationRowColumns).AddRow(
			"conv-1", guestPhone, "CONFIRMED", "prop-1",
			[]byte(`{"conversationDepth":4,"guestName":"Sam","recommendationBlacklist":["Harbor Grill"]}`),
			"Harbor Grill is great.", "ask_food_recommendations", "America/New_York", &last, created, created,
		))

	c, err := store.GetConversation(context.Background(), " "+guestPhone+" ")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, c.State)
	assert.Equal(t, "prop-1", c.PropertyID)
	assert.Equal(t, 4, c.Context.ConversationDepth)
	assert.Equal(t, "Sam", c.Context.GuestName)
	assert.True(t, memory.IsRejected(c.Context, "harbor grill"))
	assert.Equal(t, intent.Food, c.LastMessageType)
	assert.Equal(t, last, c.LastInteractionAt)

	mock.ExpectQuery("FROM conversations WHERE phone_number = \\$1").
		WithArgs("+15550000000").
		WillReturnError(pgx.ErrNoRows)
	_, err = store.GetConversation(context.Background(), "+15550000000")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UnknownStateAndBadContextDefault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM conversations").
		WithArgs(guestPhone).
		WillReturnRows(pgxmock.NewRows(conversationRowColumns).AddRow(
			"conv-1", guestPhone, "SOMETHING_OLD", "", []byte(`not json`), "", "", "", nil, now, now,
		))

	c, err := NewPostgresStoreWithDB(mock).GetConversation(context.Background(), guestPhone)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingPropertyID, c.State)
	assert.Zero(t, c.Context.ConversationDepth)
	assert.True(t, c.LastInteractionAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(pgxmock.AnyArg(), guestPhone, "AWAITING_PROPERTY_ID", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(conversationRowColumns).AddRow(
			"conv-1", guestPhone, "AWAITING_PROPERTY_ID", "", []byte(`{}`), "", "", "", nil, now, now,
		))

	store := NewPostgresStoreWithDB(mock)
	c, err := store.CreateConversation(context.Background(), guestPhone)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", c.ID)
	assert.Equal(t, StateAwaitingPropertyID, c.State)

	_, err = store.CreateConversation(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrPhoneRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateConversation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	state := StateConfirmed
	propID := "prop-1"
	recs := ""

	mock.ExpectQuery("UPDATE conversations SET state = \\$2, property_id = \\$3, last_recommendations = \\$4, updated_at = NOW\\(\\) WHERE phone_number = \\$1").
		WithArgs(guestPhone, "CONFIRMED", "prop-1", "").
		WillReturnRows(pgxmock.NewRows(conversationRowColumns).AddRow(
			"conv-1", guestPhone, "CONFIRMED", "prop-1", []byte(`{}`), "", "", "", nil, now, now,
		))

	store := NewPostgresStoreWithDB(mock)
	c, err := store.UpdateConversation(context.Background(), guestPhone, Update{
		State: &state, PropertyID: &propID, LastRecommendations: &recs,
	})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, c.State)

	mock.ExpectQuery("UPDATE conversations").
		WithArgs(guestPhone, "AWAITING_PROPERTY_ID").
		WillReturnError(pgx.ErrNoRows)
	awaiting := StateAwaitingPropertyID
	_, err = store.UpdateConversation(context.Background(), guestPhone, Update{State: &awaiting})
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery("UPDATE conversations").
		WithArgs(guestPhone, "AWAITING_PROPERTY_ID").
		WillReturnError(errors.New("connection reset"))
	_, err = store.UpdateConversation(context.Background(), guestPhone, Update{State: &awaiting})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdate_ClearsPropertyWithNull(t *testing.T) {
	empty := ""
	ctx := memory.New()
	query, args, err := buildUpdate(guestPhone, Update{PropertyID: &empty, Context: &ctx})
	require.NoError(t, err)
	assert.Contains(t, query, "property_id = $2, context = $3, updated_at = NOW()")
	require.Len(t, args, 3)
	assert.Nil(t, args[1])
	assert.IsType(t, []byte{}, args[2])
}

func TestMemoryStore_CreateIsIdempotentAndCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.CreateConversation(ctx, guestPhone)
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx, guestPhone)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Len())

	first.Context.GuestName = "Mutated"
	got, err := store.GetConversation(ctx, guestPhone)
	require.NoError(t, err)
	assert.Empty(t, got.Context.GuestName)

	mc := memory.AddRejected(memory.New(), "Harbor Grill")
	_, err = store.UpdateConversation(ctx, guestPhone, Update{Context: &mc})
	require.NoError(t, err)
	mc.RecommendationBlacklist[0] = "changed"
	got, err = store.GetConversation(ctx, guestPhone)
	require.NoError(t, err)
	assert.Equal(t, []string{"Harbor Grill"}, got.Context.RecommendationBlacklist)

	_, err = store.UpdateConversation(ctx, "+10000000000", Update{Context: &mc})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.CreateConversation(ctx, "")
	assert.ErrorIs(t, err, ErrPhoneRequired)
}
