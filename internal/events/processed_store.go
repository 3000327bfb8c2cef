// Package events records inbound carrier events that were already accepted,
// so webhook retries never enqueue a guest message twice.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEventIDRequired is returned for a blank provider or event id.
var ErrEventIDRequired = errors.New("events: provider and event id required")

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProcessedStore keeps one row per (provider, event id) in processed_events.
type ProcessedStore struct {
	db execQuerier
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{db: pool}
}

// NewProcessedStoreWithDB allows injecting a mock database for testing.
func NewProcessedStoreWithDB(db execQuerier) *ProcessedStore {
	if db == nil {
		panic("events: db required")
	}
	return &ProcessedStore{db: db}
}

// AlreadyProcessed checks if we've seen this provider event id.
func (s *ProcessedStore) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	provider, eventID, err := normalizeKey(provider, eventID)
	if err != nil {
		return false, err
	}
	var exists int
	err = s.db.QueryRow(ctx, `SELECT 1 FROM processed_events WHERE provider = $1 AND event_id = $2`, provider, eventID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return true, nil
}

// MarkProcessed claims an event id. It returns false when another request
// claimed it first.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	provider, eventID, err := normalizeKey(provider, eventID)
	if err != nil {
		return false, err
	}
	ct, err := s.db.Exec(ctx, `
		INSERT INTO processed_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, provider, eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Forget releases a claim so a retry of the same event is accepted again.
// Used when the event could not be handed off after it was claimed.
func (s *ProcessedStore) Forget(ctx context.Context, provider, eventID string) error {
	provider, eventID, err := normalizeKey(provider, eventID)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM processed_events WHERE provider = $1 AND event_id = $2`, provider, eventID); err != nil {
		return fmt.Errorf("events: forget processed: %w", err)
	}
	return nil
}

func normalizeKey(provider, eventID string) (string, string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	eventID = strings.TrimSpace(eventID)
	if provider == "" || eventID == "" {
		return "", "", ErrEventIDRequired
	}
	return provider, eventID, nil
}
