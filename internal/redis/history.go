package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

const (
	historyLimit = 100
	historyTTL   = 2 * time.Hour
)

// HistoryStore keeps the last events of each channel in a capped Redis list
// so a dashboard that reconnects can render the current session. Nothing
// here is durable: the list expires when a session goes quiet.
type HistoryStore struct {
	rdb *redis.Client
}

func NewHistoryStore(rdb *redis.Client) *HistoryStore {
	return &HistoryStore{rdb: rdb}
}

func historyKey(channelID uuid.UUID) string {
	return fmt.Sprintf("channel:%s:events", channelID)
}

func (s *HistoryStore) Append(ctx context.Context, channelID uuid.UUID, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := historyKey(channelID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, historyLimit-1)
		pipe.Expire(ctx, key, historyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append channel history: %w", err)
	}
	return nil
}

// Recent returns the stored events oldest-first.
func (s *HistoryStore) Recent(ctx context.Context, channelID uuid.UUID) ([]domain.Event, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(channelID), 0, historyLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read channel history: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var ev domain.Event
		if err := json.Unmarshal([]byte(raw[i]), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
