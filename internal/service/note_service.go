package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/realtime"
	"tempnote-be/internal/repository/specification"
	"tempnote-be/internal/repository/unitofwork"
	"tempnote-be/internal/session"

	"github.com/google/uuid"
)

const DefaultExpiryWindow = 24 * time.Hour

// INoteService is the gateway to the notes relation. Every successful write
// is followed by a change event on the feed.
type INoteService interface {
	Create(ctx context.Context, owner *session.Identity, req *dto.CreateNoteRequest) (*entity.Note, error)
	Show(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	List(ctx context.Context, viewer *uuid.UUID) ([]*entity.Note, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MakePermanent(ctx context.Context, id uuid.UUID, identity *session.Identity) (*entity.Note, error)
	Subscribe(filter realtime.Filter, handler func(realtime.ChangeEvent)) *realtime.Subscription
}

type NoteServiceOption func(*noteService)

func WithClock(now func() time.Time) NoteServiceOption {
	return func(s *noteService) { s.now = now }
}

// WithExpiryWindow sets how long anonymous notes live. Non-positive windows
// keep DefaultExpiryWindow.
func WithExpiryWindow(window time.Duration) NoteServiceOption {
	return func(s *noteService) {
		if window > 0 {
			s.expiryWindow = window
		}
	}
}

type noteService struct {
	uowFactory     unitofwork.RepositoryFactory
	feed           *realtime.Feed
	eventPublisher EventPublisher
	logger         logger.ILogger
	now            func() time.Time
	expiryWindow   time.Duration
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	feed *realtime.Feed,
	eventPublisher EventPublisher,
	log logger.ILogger,
	opts ...NoteServiceOption,
) INoteService {
	s := &noteService{
		uowFactory:     uowFactory,
		feed:           feed,
		eventPublisher: eventPublisher,
		logger:         log,
		now:            time.Now,
		expiryWindow:   DefaultExpiryWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *noteService) Create(ctx context.Context, owner *session.Identity, req *dto.CreateNoteRequest) (*entity.Note, error) {
	ctx, span := tracer.Start(ctx, "NoteService.Create")
	defer span.End()

	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: note content cannot be empty", entity.ErrValidation)
	}

	id := uuid.New()
	if req.Id != nil && *req.Id != uuid.Nil {
		id = *req.Id
	}

	now := s.now()
	note := &entity.Note{
		Id:        id,
		Content:   req.Content,
		CreatedAt: now,
	}
	if owner != nil {
		userId := owner.UserID
		note.UserId = &userId
	} else {
		expiresAt := now.Add(s.expiryWindow)
		note.ExpiresAt = &expiresAt
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NoteRepository().Create(ctx, note); err != nil {
		s.logger.Error("NoteService", "Failed to create note", map[string]interface{}{"note_id": id, "error": err})
		return nil, err
	}

	s.publishChange(ctx, realtime.Inserted(note))
	publishDomainEvent(ctx, s.eventPublisher, s.logger, EventNoteCreated, map[string]interface{}{
		"note_id":   note.Id,
		"permanent": note.IsPermanent(),
	})
	return note, nil
}

func (s *noteService) Show(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	ctx, span := tracer.Start(ctx, "NoteService.Show")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: note %s", entity.ErrNotFound, id)
	}
	return note, nil
}

func (s *noteService) List(ctx context.Context, viewer *uuid.UUID) ([]*entity.Note, error) {
	ctx, span := tracer.Start(ctx, "NoteService.List")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NoteRepository().FindAll(ctx,
		specification.Visibility(viewer, s.now()),
		specification.NewestFirst{},
	)
}

func (s *noteService) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error) {
	ctx, span := tracer.Start(ctx, "NoteService.UpdateContent")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().UpdateContent(ctx, id, content)
	if err != nil {
		s.logger.Error("NoteService", "Failed to update note content", map[string]interface{}{"note_id": id, "error": err})
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: note %s", entity.ErrNotFound, id)
	}

	s.publishChange(ctx, realtime.Updated(note))
	return note, nil
}

// Delete removes the note if present. Deleting an unknown id is not an error.
func (s *noteService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "NoteService.Delete")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.NoteRepository().Delete(ctx, id)
	if err != nil {
		s.logger.Error("NoteService", "Failed to delete note", map[string]interface{}{"note_id": id, "error": err})
		return err
	}
	if deleted == nil {
		return nil
	}

	s.publishChange(ctx, realtime.Deleted(deleted))
	publishDomainEvent(ctx, s.eventPublisher, s.logger, EventNoteDeleted, map[string]interface{}{"note_id": id})
	return nil
}

func (s *noteService) MakePermanent(ctx context.Context, id uuid.UUID, identity *session.Identity) (*entity.Note, error) {
	ctx, span := tracer.Start(ctx, "NoteService.MakePermanent")
	defer span.End()

	if identity == nil {
		return nil, entity.ErrAuthRequired
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	note, err := uow.NoteRepository().MakePermanent(ctx, id, identity.UserID)
	if err != nil {
		s.logger.Error("NoteService", "Failed to make note permanent", map[string]interface{}{"note_id": id, "error": err})
		return nil, err
	}
	if note == nil {
		existing, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: note %s", entity.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: note %s belongs to another account", entity.ErrForbidden, id)
	}

	s.publishChange(ctx, realtime.Updated(note))
	publishDomainEvent(ctx, s.eventPublisher, s.logger, EventNoteMadePermanent, map[string]interface{}{
		"note_id": note.Id,
		"user_id": identity.UserID,
	})
	return note, nil
}

func (s *noteService) Subscribe(filter realtime.Filter, handler func(realtime.ChangeEvent)) *realtime.Subscription {
	return s.feed.Subscribe(filter, handler)
}

func (s *noteService) publishChange(ctx context.Context, evt realtime.ChangeEvent) {
	if err := s.feed.Publish(ctx, evt); err != nil {
		s.logger.Error("NoteService", "Failed to publish change event", map[string]interface{}{"note_id": evt.NoteID, "kind": evt.Kind, "error": err})
	}
}
