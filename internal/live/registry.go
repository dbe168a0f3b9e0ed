package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
	"github.com/gaoxing-kai/douyin-ai-assistant/internal/metrics"
)

// pollerHandle lets the registry observe whether a poller goroutine is still
// running. The goroutine closes done on exit.
type pollerHandle struct {
	done chan struct{}
}

func (h *pollerHandle) alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

type sessionEntry struct {
	channelID uuid.UUID
	active    bool
	interval  time.Duration
	handle    *pollerHandle
}

// SessionView is a point-in-time snapshot of one session's state.
type SessionView struct {
	UserID       uuid.UUID
	ChannelID    uuid.UUID
	Active       bool
	PollInterval time.Duration
	PollerAlive  bool
}

// Registry owns all live-session state. Entries are created lazily on the
// first Start for a user and persist for the process lifetime; Stop marks
// them inactive without deleting them.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry

	publisher domain.Publisher
	source    domain.CommentSource
	clock     clockwork.Clock
}

// NewRegistry creates an empty registry. The publisher and comment source
// are used by the pollers it spawns.
func NewRegistry(publisher domain.Publisher, source domain.CommentSource, clock clockwork.Clock) *Registry {
	r := &Registry{
		sessions:  make(map[uuid.UUID]*sessionEntry),
		publisher: publisher,
		source:    source,
		clock:     clock,
	}
	return r
}

// Start activates the session for userID, creating it on first use. A new
// poller goroutine is spawned only when none is alive; a running poller is
// reused and just sees the updated state on its next tick. Returns the
// channel ID the caller should join.
func (r *Registry) Start(userID uuid.UUID, interval time.Duration) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[userID]
	if !ok {
		entry = &sessionEntry{channelID: DeriveChannelID(userID)}
		r.sessions[userID] = entry
	}

	if !entry.active {
		metrics.ActiveSessions.Inc()
	}
	entry.active = true
	entry.interval = interval

	if entry.handle == nil || !entry.handle.alive() {
		handle := &pollerHandle{done: make(chan struct{})}
		entry.handle = handle
		go r.runPoller(userID, handle)
	}

	return entry.channelID
}

// Stop marks the session inactive. The poller observes the flag on its next
// iteration and idles; it is not cancelled. No-op for unknown users.
func (r *Registry) Stop(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[userID]
	if !ok {
		return
	}
	if entry.active {
		metrics.ActiveSessions.Dec()
	}
	entry.active = false
}

// UpdateInterval changes the polling cadence of an existing session.
// No-op for unknown users.
func (r *Registry) UpdateInterval(userID uuid.UUID, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[userID]; ok {
		entry.interval = interval
	}
}

// Lookup returns a snapshot of the session, or ok=false if none exists.
func (r *Registry) Lookup(userID uuid.UUID) (SessionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[userID]
	if !ok {
		return SessionView{}, false
	}
	return SessionView{
		UserID:       userID,
		ChannelID:    entry.channelID,
		Active:       entry.active,
		PollInterval: entry.interval,
		PollerAlive:  entry.handle != nil && entry.handle.alive(),
	}, true
}
