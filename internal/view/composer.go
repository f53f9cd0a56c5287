package view

import (
	"context"
	"strings"
	"sync"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
)

// Composer builds new notes. The id is generated here so the viewer can be
// sent to the note's locator as soon as the insert succeeds.
type Composer struct {
	gateway   NoteGateway
	session   *session.Provider
	presenter Presenter
	opts      Options

	mu     sync.Mutex
	buffer string
	closed bool
}

func NewComposer(gateway NoteGateway, sess *session.Provider, presenter Presenter, opts Options) *Composer {
	return &Composer{
		gateway:   gateway,
		session:   sess,
		presenter: presenter,
		opts:      opts.withDefaults(),
	}
}

func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = content
}

func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// Close stops further notifications; a submit in flight still completes its write.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Submit inserts the buffered content as a new note. Anonymous notes expire
// after the configured window; notes of a signed-in identity are permanent.
func (c *Composer) Submit(ctx context.Context) *entity.Note {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	content := c.buffer
	if strings.TrimSpace(content) == "" {
		c.presenter.Notify(errorToast("Note content cannot be empty"))
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	id := uuid.New()
	var owner *session.Identity
	if identity, ok := c.session.Current(); ok {
		owner = &identity
	}

	note, err := c.gateway.Create(ctx, owner, &dto.CreateNoteRequest{Id: &id, Content: content})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.opts.Logger.Warn("Composer", "Failed to create note", map[string]interface{}{"note_id": id, "error": err})
		if !c.closed {
			c.presenter.Notify(errorToast("Failed to create note. Please try again."))
		}
		return nil
	}
	if c.buffer == content {
		c.buffer = ""
	}
	if !c.closed {
		c.presenter.Notify(successToast("Note created successfully!"))
		c.presenter.Navigate(detailPath(note.Id))
	}
	return note
}
