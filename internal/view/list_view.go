package view

import (
	"context"
	"sync"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/mapper"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
)

// ListView shows every note the current identity may see, newest first.
// Any change to the notes relation, or a login/logout, triggers a full
// re-fetch.
type ListView struct {
	gateway   NoteGateway
	session   *session.Provider
	presenter ListPresenter
	mapper    *mapper.NoteMapper
	opts      Options

	mu           sync.Mutex
	notes        []*entity.Note
	seq          uint64
	applied      uint64
	mounted      bool
	closed       bool
	ctx          context.Context
	cancel       context.CancelFunc
	sub          *realtime.Subscription
	stopIdentity func()
}

func NewListView(gateway NoteGateway, sess *session.Provider, presenter ListPresenter, opts Options) *ListView {
	return &ListView{
		gateway:   gateway,
		session:   sess,
		presenter: presenter,
		mapper:    mapper.NewNoteMapper(),
		opts:      opts.withDefaults(),
	}
}

// Mount subscribes to the whole relation and loads the first set.
func (v *ListView) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.closed {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.ctx, v.cancel = context.WithCancel(ctx)
	viewCtx := v.ctx
	v.sub = v.gateway.Subscribe(realtime.AllNotes(), func(realtime.ChangeEvent) {
		v.Refresh(viewCtx)
	})
	v.stopIdentity = v.session.OnChange(func(*session.Identity) {
		v.Refresh(viewCtx)
	})
	v.mu.Unlock()

	v.Refresh(viewCtx)
}

// Unmount cancels the subscription. Results still in flight are discarded.
func (v *ListView) Unmount() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub, stopIdentity, cancel := v.sub, v.stopIdentity, v.cancel
	v.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if stopIdentity != nil {
		stopIdentity()
	}
	if cancel != nil {
		cancel()
	}
}

// Refresh replaces the set with the current visibility query. On failure the
// previous set stays and a notification is shown.
func (v *ListView) Refresh(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	notes, err := v.gateway.List(ctx, v.session.UserID())

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || seq < v.applied {
		// A newer refresh already rendered.
		return
	}
	if err != nil {
		v.opts.Logger.Warn("ListView", "Failed to fetch notes", map[string]interface{}{"error": err})
		v.presenter.Notify(errorToast("Failed to fetch notes. Please try again."))
		return
	}
	v.applied = seq
	v.notes = notes
	v.presenter.RenderNotes(v.mapper.ToResponses(notes, v.opts.Now(), v.opts.BaseURL))
}

// Delete removes a note by id whether or not it is in the current set. The
// set itself is corrected by the change-triggered refresh.
func (v *ListView) Delete(ctx context.Context, id uuid.UUID) {
	if v.isClosed() {
		return
	}
	err := v.gateway.Delete(ctx, id)
	if err == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.opts.Logger.Warn("ListView", "Failed to delete note", map[string]interface{}{"note_id": id, "error": err})
	v.presenter.Notify(errorToast("Failed to delete note. Please try again."))
}

// Notes returns the last successfully loaded set.
func (v *ListView) Notes() []*entity.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*entity.Note(nil), v.notes...)
}

func (v *ListView) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
