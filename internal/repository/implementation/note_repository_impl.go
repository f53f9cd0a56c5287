package implementation

import (
	"context"
	"errors"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/mapper"
	"tempnote-be/internal/model"
	"tempnote-be/internal/repository/contract"
	"tempnote-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapError(err)
	}
	*note = *r.mapper.ToEntity(m)
	return nil
}

func (r *NoteRepositoryImpl) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*entity.Note, error) {
	var m model.Note
	res := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("content", content)
	if res.Error != nil {
		return nil, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) MakePermanent(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Note, error) {
	var m model.Note
	res := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", id, userId).
		Updates(map[string]interface{}{
			"user_id":    userId,
			"expires_at": nil,
		})
	if res.Error != nil {
		return nil, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	deleted, err := r.DeleteAll(ctx, specification.ByID{ID: id})
	if err != nil || len(deleted) == 0 {
		return nil, err
	}
	return deleted[0], nil
}

func (r *NoteRepositoryImpl) DeleteAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	if len(specs) == 0 {
		return nil, gorm.ErrMissingWhereClause
	}
	var rows []model.Note
	query := r.applySpecifications(r.db.WithContext(ctx).Clauses(clause.Returning{}), specs...)
	if err := query.Delete(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	deleted := make([]*entity.Note, len(rows))
	for i := range rows {
		deleted[i] = r.mapper.ToEntity(&rows[i])
	}
	return deleted, nil
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
