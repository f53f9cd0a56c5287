package contract

import (
	"context"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/specification"

	"github.com/google/uuid"
)

// NoteRepository is the persistence contract of the notes relation.
// Write operations return the post-change row image, or nil when no row
// matched.
type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error)
	// MakePermanent assigns the owner and clears the expiry in a single
	// update. It only matches rows that are anonymous or already owned by
	// userId.
	MakePermanent(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	DeleteAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
