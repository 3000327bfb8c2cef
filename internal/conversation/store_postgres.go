package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists conversations in the conversations table with the
// memory context stored as JSONB.
type PostgresStore struct {
	db     rowQuerier
	tracer trace.Tracer
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("conversation: pgx pool required")
	}
	return NewPostgresStoreWithDB(pool)
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db rowQuerier) *PostgresStore {
	return &PostgresStore{db: db, tracer: otel.Tracer("ai-concierge.conversation.store")}
}

const conversationColumns = `id, phone_number, state, COALESCE(property_id, ''), context,
	COALESCE(last_recommendations, ''), COALESCE(last_message_type, ''), COALESCE(timezone, ''),
	last_interaction_at, created_at, updated_at`

func (s *PostgresStore) GetConversation(ctx context.Context, phone string) (*Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.store.get")
	defer span.End()

	c, err := scanConversation(s.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE phone_number = $1`,
		strings.TrimSpace(phone)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: get: %w", err)
	}
	return c, nil
}

// CreateConversation inserts a fresh conversation. A concurrent insert for
// the same number returns the existing row instead of failing.
func (s *PostgresStore) CreateConversation(ctx context.Context, phone string) (*Conversation, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	ctx, span := s.tracer.Start(ctx, "conversation.store.create")
	defer span.End()

	raw, err := memory.Encode(memory.New())
	if err != nil {
		return nil, fmt.Errorf("conversation: encode context: %w", err)
	}
	c, err := scanConversation(s.db.QueryRow(ctx, `
		INSERT INTO conversations (id, phone_number, state, context, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING `+conversationColumns,
		uuid.NewString(), phone, string(StateAwaitingPropertyID), raw))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: create: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, phone string, u Update) (*Conversation, error) {
	if u.Empty() {
		return s.GetConversation(ctx, phone)
	}
	ctx, span := s.tracer.Start(ctx, "conversation.store.update")
	defer span.End()

	query, args, err := buildUpdate(strings.TrimSpace(phone), u)
	if err != nil {
		return nil, err
	}
	c, err := scanConversation(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: update: %w", err)
	}
	return c, nil
}

// buildUpdate renders the SET list in a fixed column order.
func buildUpdate(phone string, u Update) (string, []any, error) {
	args := []any{phone}
	var sets []string
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.State != nil {
		set("state", string(*u.State))
	}
	if u.PropertyID != nil {
		set("property_id", nullIfEmpty(*u.PropertyID))
	}
	if u.Context != nil {
		raw, err := memory.Encode(*u.Context)
		if err != nil {
			return "", nil, fmt.Errorf("conversation: encode context: %w", err)
		}
		set("context", raw)
	}
	if u.LastRecommendations != nil {
		set("last_recommendations", *u.LastRecommendations)
	}
	if u.LastMessageType != nil {
		set("last_message_type", string(*u.LastMessageType))
	}
	if u.Timezone != nil {
		set("timezone", *u.Timezone)
	}
	if u.LastInteractionAt != nil {
		set("last_interaction_at", *u.LastInteractionAt)
	}
	sets = append(sets, "updated_at = NOW()")
	query := "UPDATE conversations SET " + strings.Join(sets, ", ") +
		" WHERE phone_number = $1 RETURNING " + conversationColumns
	return query, args, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		c           Conversation
		state       string
		rawContext  []byte
		lastType    string
		interaction *time.Time
	)
	if err := row.Scan(&c.ID, &c.PhoneNumber, &state, &c.PropertyID, &rawContext,
		&c.LastRecommendations, &lastType, &c.Timezone, &interaction, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.State = State(state)
	if !c.State.Valid() {
		c.State = StateAwaitingPropertyID
	}
	c.Context = memory.Decode(rawContext)
	c.LastMessageType = intent.Intent(lastType)
	if interaction != nil {
		c.LastInteractionAt = *interaction
	}
	return &c, nil
}
