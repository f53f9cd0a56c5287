package view

import (
	"context"
	"errors"
	"sync"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/mapper"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
)

type DetailState string

const (
	StateLoading  DetailState = "loading"
	StateNotFound DetailState = "not_found"
	StateLoaded   DetailState = "loaded"
)

// DetailView shows one note with a local edit buffer. Remote updates
// overwrite both the snapshot and the buffer; a remote delete redirects the
// viewer to the listing.
type DetailView struct {
	id        uuid.UUID
	gateway   NoteGateway
	session   *session.Provider
	presenter DetailPresenter
	mapper    *mapper.NoteMapper
	opts      Options

	mu         sync.Mutex
	state      DetailState
	snapshot   *entity.Note
	buffer     string
	mounted    bool
	closed     bool
	redirected bool
	cancel     context.CancelFunc
	sub        *realtime.Subscription
}

func NewDetailView(id uuid.UUID, gateway NoteGateway, sess *session.Provider, presenter DetailPresenter, opts Options) *DetailView {
	return &DetailView{
		id:        id,
		gateway:   gateway,
		session:   sess,
		presenter: presenter,
		mapper:    mapper.NewNoteMapper(),
		opts:      opts.withDefaults(),
		state:     StateLoading,
	}
}

// Mount subscribes to changes of the note before fetching it, so no update
// between fetch and subscribe is lost.
func (v *DetailView) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.closed {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	var viewCtx context.Context
	viewCtx, v.cancel = context.WithCancel(ctx)
	v.sub = v.gateway.Subscribe(realtime.SingleNote(v.id), v.onChange)
	v.presenter.RenderState(StateLoading)
	v.mu.Unlock()

	note, err := v.gateway.Show(viewCtx, v.id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.redirected {
		return
	}
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			v.opts.Logger.Warn("DetailView", "Failed to fetch note", map[string]interface{}{"note_id": v.id, "error": err})
		}
		if v.state == StateLoading {
			v.state = StateNotFound
			v.presenter.RenderState(StateNotFound)
		}
		return
	}
	if v.state == StateLoaded {
		// An update event already delivered a newer row.
		return
	}
	v.load(note)
}

func (v *DetailView) Unmount() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub, cancel := v.sub, v.cancel
	v.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

// load must be called with mu held.
func (v *DetailView) load(note *entity.Note) {
	v.snapshot = note
	v.buffer = note.Content
	v.state = StateLoaded
	v.presenter.RenderState(StateLoaded)
	v.presenter.RenderNote(v.mapper.ToResponse(note, v.opts.Now(), v.opts.BaseURL))
}

func (v *DetailView) onChange(evt realtime.ChangeEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.redirected {
		return
	}

	switch evt.Kind {
	case realtime.KindUpdate:
		if evt.New != nil {
			v.load(evt.New)
		}
	case realtime.KindDelete:
		v.redirected = true
		v.snapshot = nil
		v.presenter.Navigate("/")
	}
}

// Edit changes the local buffer only.
func (v *DetailView) Edit(content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateLoaded || v.closed || v.redirected {
		return
	}
	v.buffer = content
}

// Blur writes the whole buffer through to the store.
func (v *DetailView) Blur(ctx context.Context) {
	v.mu.Lock()
	if v.state != StateLoaded || v.closed || v.redirected {
		v.mu.Unlock()
		return
	}
	content := v.buffer
	v.mu.Unlock()

	_, err := v.gateway.UpdateContent(ctx, v.id, content)
	if err == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.opts.Logger.Warn("DetailView", "Failed to update note", map[string]interface{}{"note_id": v.id, "error": err})
	v.presenter.Notify(errorToast("Failed to update note. Please try again."))
}

// MakePermanent claims the note for the current identity and clears its expiry.
func (v *DetailView) MakePermanent(ctx context.Context) {
	v.mu.Lock()
	if v.closed || v.redirected {
		v.mu.Unlock()
		return
	}
	identity, ok := v.session.Current()
	if !ok {
		v.presenter.Notify(Toast{
			Title:       "Authentication required",
			Description: "Please login to save notes permanently",
			Variant:     VariantDestructive,
		})
		v.mu.Unlock()
		return
	}
	if v.state != StateLoaded {
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	note, err := v.gateway.MakePermanent(ctx, v.id, &identity)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if err != nil {
		v.opts.Logger.Warn("DetailView", "Failed to make note permanent", map[string]interface{}{"note_id": v.id, "error": err})
		if errors.Is(err, entity.ErrForbidden) {
			v.presenter.Notify(errorToast("This note belongs to another account"))
			return
		}
		v.presenter.Notify(errorToast("Failed to save note permanently"))
		return
	}
	if !v.redirected {
		v.load(note)
	}
	v.presenter.Notify(successToast("Note saved permanently"))
}

func (v *DetailView) State() DetailState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *DetailView) Snapshot() *entity.Note {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

func (v *DetailView) Buffer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buffer
}
