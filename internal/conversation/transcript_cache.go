package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	transcriptKeyPrefix = "sms_transcript:"
	transcriptTTL       = 7 * 24 * time.Hour
)

// TranscriptCache keeps the recent SMS exchange per phone number in a Redis
// list for quick inspection.
type TranscriptCache struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
}

// NewTranscriptCache returns nil when redisClient is nil; a nil cache is a
// no-op.
func NewTranscriptCache(redisClient *redis.Client) *TranscriptCache {
	if redisClient == nil {
		return nil
	}
	return &TranscriptCache{
		redis:       redisClient,
		tracer:      otel.Tracer("ai-concierge.conversation.transcript_cache"),
		maxMessages: 250,
	}
}

func (s *TranscriptCache) Append(ctx context.Context, msg TranscriptMessage) error {
	if s == nil || s.redis == nil {
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
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("conversation: marshal transcript message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript_cache.append")
	defer span.End()

	key := transcriptKey(phone)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, transcriptTTL)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append transcript message: %w", err)
	}
	return nil
}

// List returns up to limit of the newest messages, oldest first. A limit of
// zero returns everything kept.
func (s *TranscriptCache) List(ctx context.Context, phone string, limit int) ([]TranscriptMessage, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.New("conversation: transcript phone number required")
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript_cache.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.redis.LRange(ctx, transcriptKey(phone), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []TranscriptMessage{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}

	out := make([]TranscriptMessage, 0, len(raw))
	for _, item := range raw {
		var msg TranscriptMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func transcriptKey(phone string) string {
	return transcriptKeyPrefix + phone
}
