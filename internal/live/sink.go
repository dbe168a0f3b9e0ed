package live

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

// EventSink fans events out to the realtime hub and mirrors them into the
// channel history. History writes are best-effort: a Redis hiccup must not
// fail the broadcast.
type EventSink struct {
	hub     domain.Publisher
	history domain.EventHistory
}

func NewEventSink(hub domain.Publisher, history domain.EventHistory) *EventSink {
	return &EventSink{hub: hub, history: history}
}

func (s *EventSink) Publish(ctx context.Context, channelID uuid.UUID, event domain.Event) error {
	if err := s.hub.Publish(ctx, channelID, event); err != nil {
		return err
	}
	if s.history != nil {
		if err := s.history.Append(ctx, channelID, event); err != nil {
			slog.Warn("failed to append channel history",
				"channel_id", channelID, "kind", event.Kind, "error", err)
		}
	}
	return nil
}
