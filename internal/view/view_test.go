package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/memory"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/internal/service"
	"tempnote-be/internal/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://tempnote.test"

var errBackend = errors.New("backend unavailable")

type recorder struct {
	mu     sync.Mutex
	lists  [][]*dto.NoteResponse
	states []DetailState
	note   *dto.NoteResponse
	toasts []Toast
	paths  []string
}

func (r *recorder) Notify(toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) RenderNotes(notes []*dto.NoteResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, notes)
}

func (r *recorder) RenderState(state DetailState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) RenderNote(note *dto.NoteResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.note = note
}

func (r *recorder) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

func (r *recorder) lastList() []*dto.NoteResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lists) == 0 {
		return nil
	}
	return r.lists[len(r.lists)-1]
}

func (r *recorder) lastNote() *dto.NoteResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.note
}

func (r *recorder) allToasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

func (r *recorder) allPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// flakyGateway wraps the real service and fails selected operations on demand.
type flakyGateway struct {
	NoteGateway

	mu         sync.Mutex
	failList   bool
	failDelete bool
	failCreate bool
	failUpdate bool
	shows      int
}

func (g *flakyGateway) set(fn func(g *flakyGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

func (g *flakyGateway) List(ctx context.Context, viewer *uuid.UUID) ([]*entity.Note, error) {
	g.mu.Lock()
	fail := g.failList
	g.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return g.NoteGateway.List(ctx, viewer)
}

func (g *flakyGateway) Delete(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	fail := g.failDelete
	g.mu.Unlock()
	if fail {
		return errBackend
	}
	return g.NoteGateway.Delete(ctx, id)
}

func (g *flakyGateway) Create(ctx context.Context, owner *session.Identity, req *dto.CreateNoteRequest) (*entity.Note, error) {
	g.mu.Lock()
	fail := g.failCreate
	g.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return g.NoteGateway.Create(ctx, owner, req)
}

func (g *flakyGateway) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error) {
	g.mu.Lock()
	fail := g.failUpdate
	g.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return g.NoteGateway.UpdateContent(ctx, id, content)
}

func (g *flakyGateway) Show(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	g.mu.Lock()
	g.shows++
	g.mu.Unlock()
	return g.NoteGateway.Show(ctx, id)
}

func (g *flakyGateway) showCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shows
}

type harness struct {
	gateway *flakyGateway
	feed    *realtime.Feed
	now     time.Time
	opts    Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := logger.NewNopLogger()

	feed := realtime.NewFeed(realtime.NewPubSub(watermill.NopLogger{}), realtime.DefaultTopic, "test", log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, feed.Start(ctx))

	uow := unitofwork.NewMemoryRepositoryFactory(memory.NewStore(clock))
	notes := service.NewNoteService(uow, feed, nil, log, service.WithClock(clock))

	return &harness{
		gateway: &flakyGateway{NoteGateway: notes},
		feed:    feed,
		now:     now,
		opts:    Options{BaseURL: baseURL, Now: clock, Logger: log},
	}
}

func (h *harness) create(t *testing.T, owner *session.Identity, content string) *entity.Note {
	t.Helper()
	note, err := h.gateway.NoteGateway.Create(context.Background(), owner, &dto.CreateNoteRequest{Content: content})
	require.NoError(t, err)
	return note
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func contents(notes []*dto.NoteResponse) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Content
	}
	return out
}

func TestListViewRefetchesOnAnyChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t, nil, "first")

	rec := &recorder{}
	lv := NewListView(h.gateway, session.NewProvider(nil), rec, h.opts)
	lv.Mount(ctx)
	assert.Equal(t, []string{"first"}, contents(rec.lastList()))

	h.create(t, nil, "second")
	eventually(t, func() bool { return len(rec.lastList()) == 2 })
	assert.Equal(t, "Expires in 24 hours", rec.lastList()[0].ExpiryText)

	other := h.create(t, nil, "third")
	eventually(t, func() bool { return len(rec.lastList()) == 3 })

	require.NoError(t, h.gateway.NoteGateway.Delete(ctx, other.Id))
	eventually(t, func() bool { return len(rec.lastList()) == 2 })

	lv.Unmount()
	lv.Unmount()
	assert.Zero(t, h.feed.SubscriberCount())

	before := rec.renders()
	h.create(t, nil, "after unmount")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, rec.renders())
}

func TestListViewFollowsIdentity(t *testing.T) {
	h := newHarness(t)
	alice := session.Identity{UserID: uuid.New(), Label: "alice@example.com"}
	h.create(t, &alice, "alice's permanent note")
	h.create(t, nil, "public")

	rec := &recorder{}
	provider := session.NewProvider(nil)
	lv := NewListView(h.gateway, provider, rec, h.opts)
	lv.Mount(context.Background())
	defer lv.Unmount()
	assert.Equal(t, []string{"public"}, contents(rec.lastList()))

	provider.SignIn(alice)
	assert.ElementsMatch(t, []string{"alice's permanent note", "public"}, contents(rec.lastList()))
	assert.Len(t, lv.Notes(), 2)

	provider.SignOut()
	assert.Equal(t, []string{"public"}, contents(rec.lastList()))
}

func TestListViewKeepsPreviousSetOnFailure(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	lv := NewListView(h.gateway, session.NewProvider(nil), rec, h.opts)
	lv.Mount(context.Background())
	defer lv.Unmount()

	h.create(t, nil, "kept")
	eventually(t, func() bool { return len(lv.Notes()) == 1 })

	h.gateway.set(func(g *flakyGateway) { g.failList = true })
	lv.Refresh(context.Background())

	require.Len(t, rec.allToasts(), 1)
	assert.Equal(t, VariantDestructive, rec.allToasts()[0].Variant)
	require.Len(t, lv.Notes(), 1)
	assert.Equal(t, "kept", lv.Notes()[0].Content)
	assert.Equal(t, []string{"kept"}, contents(rec.lastList()))
}

func TestListViewDelete(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "doomed")

	rec := &recorder{}
	lv := NewListView(h.gateway, session.NewProvider(nil), rec, h.opts)
	lv.Mount(context.Background())
	defer lv.Unmount()

	lv.Delete(context.Background(), uuid.New())
	assert.Empty(t, rec.allToasts())

	lv.Delete(context.Background(), note.Id)
	eventually(t, func() bool { return len(rec.lastList()) == 0 && rec.renders() > 1 })

	h.gateway.set(func(g *flakyGateway) { g.failDelete = true })
	lv.Delete(context.Background(), uuid.New())
	require.Len(t, rec.allToasts(), 1)
	assert.Equal(t, "Failed to delete note. Please try again.", rec.allToasts()[0].Description)
}

func TestDetailViewLoadsAndMissing(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "hello")

	rec := &recorder{}
	dv := NewDetailView(note.Id, h.gateway, session.NewProvider(nil), rec, h.opts)
	dv.Mount(context.Background())
	defer dv.Unmount()

	assert.Equal(t, StateLoaded, dv.State())
	assert.Equal(t, "hello", dv.Buffer())
	require.NotNil(t, rec.lastNote())
	assert.Equal(t, "Expires in 24 hours", rec.lastNote().ExpiryText)
	assert.Equal(t, baseURL+"/note/"+note.Id.String(), rec.lastNote().ShareURL)

	missing := &recorder{}
	mv := NewDetailView(uuid.New(), h.gateway, session.NewProvider(nil), missing, h.opts)
	mv.Mount(context.Background())
	defer mv.Unmount()
	assert.Equal(t, StateNotFound, mv.State())
	assert.Empty(t, missing.allToasts())
	assert.Equal(t, []DetailState{StateLoading, StateNotFound}, missing.states)
}

func TestTwoDetailViewsShareUpdatesWithoutRefetch(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "draft")
	ctx := context.Background()

	recA, recB := &recorder{}, &recorder{}
	a := NewDetailView(note.Id, h.gateway, session.NewProvider(nil), recA, h.opts)
	b := NewDetailView(note.Id, h.gateway, session.NewProvider(nil), recB, h.opts)
	a.Mount(ctx)
	b.Mount(ctx)
	defer a.Unmount()
	defer b.Unmount()
	shows := h.gateway.showCalls()

	a.Edit("edited in A")
	assert.Equal(t, "draft", b.Buffer())
	a.Blur(ctx)

	eventually(t, func() bool { return b.Buffer() == "edited in A" })
	assert.Equal(t, "edited in A", b.Snapshot().Content)
	assert.Equal(t, "edited in A", recB.lastNote().Content)
	assert.Equal(t, shows, h.gateway.showCalls())
}

func TestDetailViewBlurFailureNotifies(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "draft")

	rec := &recorder{}
	dv := NewDetailView(note.Id, h.gateway, session.NewProvider(nil), rec, h.opts)
	dv.Mount(context.Background())
	defer dv.Unmount()

	h.gateway.set(func(g *flakyGateway) { g.failUpdate = true })
	dv.Edit("lost")
	dv.Blur(context.Background())

	require.Len(t, rec.allToasts(), 1)
	assert.Equal(t, "Failed to update note. Please try again.", rec.allToasts()[0].Description)
	assert.Equal(t, "lost", dv.Buffer())
}

func TestDetailViewRedirectsOnDelete(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "soon gone")

	rec := &recorder{}
	dv := NewDetailView(note.Id, h.gateway, session.NewProvider(nil), rec, h.opts)
	dv.Mount(context.Background())
	defer dv.Unmount()

	require.NoError(t, h.gateway.NoteGateway.Delete(context.Background(), note.Id))
	eventually(t, func() bool { return len(rec.allPaths()) == 1 })
	assert.Equal(t, []string{"/"}, rec.allPaths())
	assert.Nil(t, dv.Snapshot())
}

func TestDetailViewMakePermanent(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "keep")
	ctx := context.Background()

	rec := &recorder{}
	provider := session.NewProvider(nil)
	dv := NewDetailView(note.Id, h.gateway, provider, rec, h.opts)
	dv.Mount(ctx)
	defer dv.Unmount()

	dv.MakePermanent(ctx)
	require.Len(t, rec.allToasts(), 1)
	assert.Equal(t, Toast{
		Title:       "Authentication required",
		Description: "Please login to save notes permanently",
		Variant:     VariantDestructive,
	}, rec.allToasts()[0])
	stored, err := h.gateway.NoteGateway.Show(ctx, note.Id)
	require.NoError(t, err)
	assert.Nil(t, stored.UserId)
	assert.NotNil(t, stored.ExpiresAt)

	alice := session.Identity{UserID: uuid.New(), Label: "alice@example.com"}
	provider.SignIn(alice)
	dv.MakePermanent(ctx)

	toasts := rec.allToasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Note saved permanently", toasts[1].Description)
	assert.True(t, dv.Snapshot().IsPermanent())
	assert.Equal(t, "Permanent note", rec.lastNote().ExpiryText)

	bob := session.Identity{UserID: uuid.New(), Label: "bob@example.com"}
	provider.SignIn(bob)
	dv.MakePermanent(ctx)
	toasts = rec.allToasts()
	require.Len(t, toasts, 3)
	assert.Equal(t, "This note belongs to another account", toasts[2].Description)
}

// slowShowGateway holds Show until release is closed.
type slowShowGateway struct {
	NoteGateway
	release chan struct{}
}

func (g *slowShowGateway) Show(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.NoteGateway.Show(ctx, id)
}

func TestDetailViewMakePermanentWhileLoadingRequiresLogin(t *testing.T) {
	h := newHarness(t)
	note := h.create(t, nil, "pending")
	ctx := context.Background()

	gateway := &slowShowGateway{NoteGateway: h.gateway, release: make(chan struct{})}
	rec := &recorder{}
	dv := NewDetailView(note.Id, gateway, session.NewProvider(nil), rec, h.opts)

	mounted := make(chan struct{})
	go func() {
		dv.Mount(ctx)
		close(mounted)
	}()
	defer func() {
		close(gateway.release)
		<-mounted
		dv.Unmount()
	}()

	require.Equal(t, StateLoading, dv.State())
	dv.MakePermanent(ctx)

	require.Len(t, rec.allToasts(), 1)
	assert.Equal(t, "Authentication required", rec.allToasts()[0].Title)
	assert.Equal(t, StateLoading, dv.State())

	stored, err := h.gateway.NoteGateway.Show(ctx, note.Id)
	require.NoError(t, err)
	assert.Nil(t, stored.UserId)
	assert.NotNil(t, stored.ExpiresAt)
}

func TestComposer(t *testing.T) {
	ctx := context.Background()

	t.Run("blank content is rejected without a write", func(t *testing.T) {
		h := newHarness(t)
		rec := &recorder{}
		c := NewComposer(h.gateway, session.NewProvider(nil), rec, h.opts)

		c.SetContent("   ")
		assert.Nil(t, c.Submit(ctx))
		assert.Equal(t, []Toast{errorToast("Note content cannot be empty")}, rec.allToasts())

		notes, err := h.gateway.NoteGateway.List(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("anonymous note expires and viewer is navigated", func(t *testing.T) {
		h := newHarness(t)
		rec := &recorder{}
		c := NewComposer(h.gateway, session.NewProvider(nil), rec, h.opts)

		c.SetContent("hello")
		note := c.Submit(ctx)
		require.NotNil(t, note)
		assert.Nil(t, note.UserId)
		require.NotNil(t, note.ExpiresAt)
		assert.Equal(t, h.now.Add(24*time.Hour), *note.ExpiresAt)
		assert.Empty(t, c.Content())
		assert.Equal(t, []string{"/note/" + note.Id.String()}, rec.allPaths())
		assert.Equal(t, "Note created successfully!", rec.allToasts()[0].Description)
	})

	t.Run("signed-in note is permanent", func(t *testing.T) {
		h := newHarness(t)
		alice := session.Identity{UserID: uuid.New(), Label: "alice@example.com"}
		c := NewComposer(h.gateway, session.NewProvider(&alice), &recorder{}, h.opts)

		c.SetContent("mine")
		note := c.Submit(ctx)
		require.NotNil(t, note)
		assert.Equal(t, alice.UserID, *note.UserId)
		assert.Nil(t, note.ExpiresAt)
	})

	t.Run("failure keeps the buffer", func(t *testing.T) {
		h := newHarness(t)
		h.gateway.set(func(g *flakyGateway) { g.failCreate = true })
		rec := &recorder{}
		c := NewComposer(h.gateway, session.NewProvider(nil), rec, h.opts)

		c.SetContent("precious")
		assert.Nil(t, c.Submit(ctx))
		assert.Equal(t, "precious", c.Content())
		assert.Empty(t, rec.allPaths())
		assert.Equal(t, "Failed to create note. Please try again.", rec.allToasts()[0].Description)
	})
}
