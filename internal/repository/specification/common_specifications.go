package specification

import (
	"fmt"
	"sort"

	"tempnote-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

func (s ByID) MatchNote(n *entity.Note) bool {
	return n.Id == s.ID
}

func (s ByID) MatchUser(u *entity.User) bool {
	return u.Id == s.ID
}

// OrderBy applies ordering. Only created_at is understood in memory.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

func (s OrderBy) SortNotes(notes []*entity.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if s.Desc {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
