package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaoxing-kai/douyin-ai-assistant/internal/domain"
)

type published struct {
	channelID uuid.UUID
	event     domain.Event
}

// fakePublisher records published events; set fail to simulate a broken sink.
type fakePublisher struct {
	events chan published
	fail   atomic.Bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan published, 100)}
}

func (p *fakePublisher) Publish(_ context.Context, channelID uuid.UUID, event domain.Event) error {
	if p.fail.Load() {
		return errors.New("sink unavailable")
	}
	p.events <- published{channelID: channelID, event: event}
	return nil
}

func waitEvent(t *testing.T, p *fakePublisher) published {
	t.Helper()
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
		return published{}
	}
}

func assertNoEvent(t *testing.T, p *fakePublisher) {
	t.Helper()
	select {
	case ev := <-p.events:
		t.Fatalf("unexpected event published: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeriveChannelID_PureAndDistinct(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, DeriveChannelID(a), DeriveChannelID(a))
	assert.NotEqual(t, DeriveChannelID(a), DeriveChannelID(b))
	assert.NotEqual(t, a, DeriveChannelID(a))
}

func TestRegistry_StartPublishesComments(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, NewFixtureSource(), clock)

	userID := uuid.New()
	channelID := r.Start(userID, 5*time.Second)
	assert.Equal(t, DeriveChannelID(userID), channelID)

	first := waitEvent(t, pub)
	assert.Equal(t, channelID, first.channelID)
	assert.Equal(t, domain.EventNewComment, first.event.Kind)
	assert.NotEmpty(t, first.event.Content)

	// Cadence: next comment only after the configured interval.
	clock.BlockUntil(1)
	assertNoEvent(t, pub)
	clock.Advance(5 * time.Second)
	second := waitEvent(t, pub)
	assert.Equal(t, channelID, second.channelID)
}

func TestRegistry_StartTwiceSpawnsOnePoller(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, NewFixtureSource(), clock)

	userID := uuid.New()
	ch1 := r.Start(userID, 5*time.Second)
	ch2 := r.Start(userID, 5*time.Second)
	assert.Equal(t, ch1, ch2)

	waitEvent(t, pub)
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	waitEvent(t, pub)

	// A duplicate poller would have produced extra events by now.
	clock.BlockUntil(1)
	assertNoEvent(t, pub)

	view, ok := r.Lookup(userID)
	require.True(t, ok)
	assert.True(t, view.Active)
	assert.True(t, view.PollerAlive)
}

func TestRegistry_StopIdlesAndStartResumes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, NewFixtureSource(), clock)

	userID := uuid.New()
	r.Start(userID, 5*time.Second)
	waitEvent(t, pub)
	clock.BlockUntil(1)

	r.Stop(userID)
	view, ok := r.Lookup(userID)
	require.True(t, ok)
	assert.False(t, view.Active)
	assert.True(t, view.PollerAlive, "stop must not kill the poller")

	// Poller wakes from its interval sleep, sees inactive, idles.
	clock.Advance(5 * time.Second)
	clock.BlockUntil(1)
	assertNoEvent(t, pub)

	// Restart reuses the live poller; publishing resumes within one idle cycle.
	r.Start(userID, 2*time.Second)
	clock.Advance(idleInterval)
	resumed := waitEvent(t, pub)
	assert.Equal(t, domain.EventNewComment, resumed.event.Kind)
}

func TestRegistry_UpdateIntervalObservedNextTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, NewFixtureSource(), clock)

	userID := uuid.New()
	r.Start(userID, 5*time.Second)
	waitEvent(t, pub)
	clock.BlockUntil(1)

	r.UpdateInterval(userID, 1*time.Second)

	// Current sleep still uses the old cadence.
	clock.Advance(5 * time.Second)
	waitEvent(t, pub)

	// The fresh read picks up the new cadence.
	clock.BlockUntil(1)
	clock.Advance(1 * time.Second)
	waitEvent(t, pub)
}

func TestRegistry_UpdateIntervalUnknownUserIsNoop(t *testing.T) {
	r := NewRegistry(newFakePublisher(), NewFixtureSource(), clockwork.NewFakeClock())

	r.UpdateInterval(uuid.New(), time.Second)
	r.Stop(uuid.New())

	_, ok := r.Lookup(uuid.New())
	assert.False(t, ok)
}

func TestRegistry_PublishErrorBacksOffAndRecovers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, NewFixtureSource(), clock)

	pub.fail.Store(true)
	userID := uuid.New()
	r.Start(userID, 5*time.Second)

	// First tick fails; poller sleeps the error backoff instead of exiting.
	clock.BlockUntil(1)
	pub.fail.Store(false)
	clock.Advance(tickErrorBackoff)

	ev := waitEvent(t, pub)
	assert.Equal(t, domain.EventNewComment, ev.event.Kind)

	view, ok := r.Lookup(userID)
	require.True(t, ok)
	assert.True(t, view.PollerAlive)
}

// panickySource panics on its first call, then behaves.
type panickySource struct {
	calls atomic.Int64
	inner *FixtureSource
}

func (s *panickySource) Next(now time.Time) domain.Comment {
	if s.calls.Add(1) == 1 {
		panic("fixture exploded")
	}
	return s.inner.Next(now)
}

func TestRegistry_DeadPollerIsDetectedAndReplaced(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newFakePublisher()
	r := NewRegistry(pub, &panickySource{inner: NewFixtureSource()}, clock)

	userID := uuid.New()
	r.Start(userID, time.Second)

	require.Eventually(t, func() bool {
		view, ok := r.Lookup(userID)
		return ok && !view.PollerAlive
	}, 2*time.Second, 10*time.Millisecond, "poller should die on panic")

	// Start notices the dead handle and spawns a replacement.
	r.Start(userID, time.Second)
	ev := waitEvent(t, pub)
	assert.Equal(t, DeriveChannelID(userID), ev.channelID)
}
