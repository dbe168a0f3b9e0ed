package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/metrics"
)

const (
	// idleInterval is the re-check cadence while a session is stopped.
	// Keeping the goroutine alive lets stop/start resume without respawning.
	idleInterval = 1 * time.Second

	// tickErrorBackoff is slept after a failed publish before retrying.
	tickErrorBackoff = 2 * time.Second
)

// runPoller is the per-session comment loop. It reads its own state fresh
// from the registry every iteration, so cadence and active-flag changes take
// effect on the next tick. It exits only on panic; the deferred close lets
// the registry detect the dead handle and respawn on the next Start.
func (r *Registry) runPoller(userID uuid.UUID, handle *pollerHandle) {
	defer close(handle.done)
	defer func() {
		if rec := recover(); rec != nil {
			metrics.PollerCrashes.Inc()
			slog.Error("comment poller terminated by panic", "user_id", userID, "panic", rec)
		}
	}()

	slog.Info("comment poller started", "user_id", userID)

	for {
		view, ok := r.Lookup(userID)
		if !ok || !view.Active {
			r.clock.Sleep(idleInterval)
			continue
		}

		comment := r.source.Next(r.clock.Now())
		event := domain.CommentEvent(comment)
		if err := r.publisher.Publish(context.Background(), view.ChannelID, event); err != nil {
			metrics.PollerTicks.WithLabelValues("error").Inc()
			slog.Warn("failed to publish comment, backing off",
				"user_id", userID, "channel_id", view.ChannelID, "error", err)
			r.clock.Sleep(tickErrorBackoff)
			continue
		}

		metrics.PollerTicks.WithLabelValues("ok").Inc()
		r.clock.Sleep(view.PollInterval)
	}
}
