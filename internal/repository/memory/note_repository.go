package memory

import (
	"context"
	"fmt"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/contract"
	"tempnote-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type NoteRepository struct {
	store *Store
}

func NewNoteRepository(store *Store) contract.NoteRepository {
	return &NoteRepository{store: store}
}

func cloneNote(n *entity.Note) *entity.Note {
	c := *n
	if n.UserId != nil {
		owner := *n.UserId
		c.UserId = &owner
	}
	if n.ExpiresAt != nil {
		exp := *n.ExpiresAt
		c.ExpiresAt = &exp
	}
	return &c
}

func (r *NoteRepository) get(id uuid.UUID) *entity.Note {
	if x, found := r.store.notes.Get(id.String()); found {
		return x.(*entity.Note)
	}
	return nil
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := cloneNote(note)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.store.now()
	}
	if err := r.store.notes.Add(note.Id.String(), stored, cache.NoExpiration); err != nil {
		return fmt.Errorf("%w: note %s", entity.ErrAlreadyExists, note.Id)
	}
	*note = *cloneNote(stored)
	return nil
}

func (r *NoteRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current := r.get(id)
	if current == nil {
		return nil, nil
	}
	next := cloneNote(current)
	next.Content = content
	r.store.notes.Set(id.String(), next, cache.NoExpiration)
	return cloneNote(next), nil
}

func (r *NoteRepository) MakePermanent(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current := r.get(id)
	if current == nil || (current.UserId != nil && *current.UserId != userId) {
		return nil, nil
	}
	next := cloneNote(current)
	next.UserId = &userId
	next.ExpiresAt = nil
	r.store.notes.Set(id.String(), next, cache.NoExpiration)
	return cloneNote(next), nil
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	deleted, err := r.DeleteAll(ctx, specification.ByID{ID: id})
	if err != nil || len(deleted) == 0 {
		return nil, err
	}
	return deleted[0], nil
}

func (r *NoteRepository) DeleteAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("memory store: delete requires at least one specification")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	for _, n := range matched {
		r.store.notes.Delete(n.Id.String())
	}
	return matched, nil
}

func (r *NoteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil || len(notes) == 0 {
		return nil, err
	}
	return notes[0], nil
}

func (r *NoteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make([]*entity.Note, 0)
	for _, item := range r.store.notes.Items() {
		n := item.Object.(*entity.Note)
		ok, err := matchNote(n, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			notes = append(notes, cloneNote(n))
		}
	}
	for _, spec := range specs {
		if sorter, ok := spec.(specification.NoteSorter); ok {
			sorter.SortNotes(notes)
		}
	}
	return paginate(notes, specs), nil
}

func (r *NoteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(notes)), nil
}
