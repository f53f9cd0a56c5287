// Package view holds the server-side view controllers behind the websocket
// screens: the note listing, the note detail page and the note composer.
// Controllers own their state and talk to clients only through a presenter.
package view

import (
	"context"
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is a non-fatal, user-visible notification.
type Toast struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

func errorToast(description string) Toast {
	return Toast{Title: "Error", Description: description, Variant: VariantDestructive}
}

func successToast(description string) Toast {
	return Toast{Title: "Success", Description: description, Variant: VariantDefault}
}

// Presenter receives the side effects a controller wants shown. Calls are
// made while the controller holds its lock, so implementations must not
// block or call back into the controller.
type Presenter interface {
	Notify(toast Toast)
	Navigate(path string)
}

type ListPresenter interface {
	Presenter
	RenderNotes(notes []*dto.NoteResponse)
}

type DetailPresenter interface {
	Presenter
	RenderState(state DetailState)
	RenderNote(note *dto.NoteResponse)
}

// NoteGateway is the store access a view needs.
type NoteGateway interface {
	Create(ctx context.Context, owner *session.Identity, req *dto.CreateNoteRequest) (*entity.Note, error)
	Show(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	List(ctx context.Context, viewer *uuid.UUID) ([]*entity.Note, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MakePermanent(ctx context.Context, id uuid.UUID, identity *session.Identity) (*entity.Note, error)
	Subscribe(filter realtime.Filter, handler func(realtime.ChangeEvent)) *realtime.Subscription
}

type Options struct {
	BaseURL string
	Now     func() time.Time
	Logger  logger.ILogger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
	return o
}

func detailPath(id uuid.UUID) string {
	return "/note/" + id.String()
}
