package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/memory"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type changeRecorder struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (r *changeRecorder) handle(evt realtime.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *changeRecorder) snapshot() []realtime.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.ChangeEvent(nil), r.events...)
}

type fixture struct {
	clock     *fakeClock
	uow       unitofwork.RepositoryFactory
	feed      *realtime.Feed
	published *recordingPublisher
	notes     INoteService
	sweeper   ISweeperService
	changes   *changeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	log := logger.NewNopLogger()

	feed := realtime.NewFeed(realtime.NewPubSub(watermill.NopLogger{}), realtime.DefaultTopic, "test", log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, feed.Start(ctx))

	uow := unitofwork.NewMemoryRepositoryFactory(memory.NewStore(clock.Now))
	published := &recordingPublisher{}

	f := &fixture{
		clock:     clock,
		uow:       uow,
		feed:      feed,
		published: published,
		notes:     NewNoteService(uow, feed, published, log, WithClock(clock.Now)),
		sweeper:   NewSweeperService(uow, feed, published, log, clock.Now),
		changes:   &changeRecorder{},
	}
	sub := feed.Subscribe(realtime.AllNotes(), f.changes.handle)
	t.Cleanup(sub.Cancel)
	return f
}

func (f *fixture) waitForChanges(t *testing.T, n int) []realtime.ChangeEvent {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.changes.snapshot()) >= n }, time.Second, 5*time.Millisecond)
	return f.changes.snapshot()
}
