package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher fans an event out to every client joined to a channel.
// Delivery is best-effort, at-most-once per currently-connected client.
type Publisher interface {
	Publish(ctx context.Context, channelID uuid.UUID, event Event) error
}

// TextGenerator is the text-generation collaborator. Implementations must
// honor ctx deadlines; errors are classified by the pipeline's retry policy.
type TextGenerator interface {
	Complete(ctx context.Context, commentText string, settings Settings) (string, error)
}

// SpeechSynthesizer is the text-to-speech collaborator. It returns an opaque
// audio handle (a data: or https: URL the browser can play).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceStyle string, speed, volume int) (string, error)
}

// CommentSource produces the next viewer comment for an active session.
type CommentSource interface {
	Next(now time.Time) Comment
}

// SettingsProvider is the read path the pipeline uses; implementations may
// cache. Invalidate drops any cached entry for the user.
type SettingsProvider interface {
	Get(ctx context.Context, userID uuid.UUID) (Settings, error)
	Invalidate(userID uuid.UUID)
}

// UserRepository persists streamer accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}

// Registrar performs invitation-key registration as a single transaction:
// create the user, mark the key used, create default settings.
type Registrar interface {
	Register(ctx context.Context, username, passwordHash, inviteKey string) (*User, error)
}

// InviteKeyRepository manages registration keys.
type InviteKeyRepository interface {
	CreateBatch(ctx context.Context, count int) ([]string, error)
	List(ctx context.Context) ([]InviteKey, error)
}

// SettingsRepository persists per-user assistant settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (Settings, error)
	Update(ctx context.Context, settings Settings) error
}

// EventHistory keeps the recent events of a channel so a freshly connected
// dashboard can render the current session. Bounded and best-effort.
type EventHistory interface {
	Append(ctx context.Context, channelID uuid.UUID, event Event) error
	Recent(ctx context.Context, channelID uuid.UUID) ([]Event, error)
}
