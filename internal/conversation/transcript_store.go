package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptStore persists every SMS to the conversation_messages table for
// long-term history.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore returns nil when db is nil; a nil store is a no-op.
func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		return nil
	}
	return &TranscriptStore{db: db}
}

func (s *TranscriptStore) Append(ctx context.Context, msg TranscriptMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	phone := strings.TrimSpace(msg.PhoneNumber)
	if phone == "" {
		return errors.New("conversation: transcript phone number required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (id, phone_number, role, body, provider_message_id, intent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, phone, msg.Role, msg.Body, nullString(msg.ProviderMessageID), nullString(msg.Intent), msg.Timestamp)
	if err != nil {
		return fmt.Errorf("conversation: insert transcript message: %w", err)
	}
	return nil
}

// List returns the newest limit messages for phone, oldest first.
func (s *TranscriptStore) List(ctx context.Context, phone string, limit int) ([]TranscriptMessage, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phone_number, role, body, COALESCE(provider_message_id, ''), COALESCE(intent, ''), created_at
		FROM conversation_messages
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT $2`, strings.TrimSpace(phone), limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}
	defer rows.Close()

	var out []TranscriptMessage
	for rows.Next() {
		var m TranscriptMessage
		if err := rows.Scan(&m.ID, &m.PhoneNumber, &m.Role, &m.Body, &m.ProviderMessageID, &m.Intent, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("conversation: scan transcript: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
