package specification

import (
	"time"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisibleTo selects the notes a viewer may list: every unexpired anonymous
// note, plus the viewer's own notes when an identity is present.
type VisibleTo struct {
	UserID *uuid.UUID
	Now    time.Time
}

// Visibility derives the listing predicate for the given viewer.
func Visibility(userID *uuid.UUID, now time.Time) VisibleTo {
	return VisibleTo{UserID: userID, Now: now}
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	if s.UserID == nil {
		return db.Where("user_id IS NULL AND expires_at > ?", s.Now)
	}
	return db.Where("(user_id = ? OR (user_id IS NULL AND expires_at > ?))", *s.UserID, s.Now)
}

func (s VisibleTo) MatchNote(n *entity.Note) bool {
	if s.UserID != nil && n.IsOwnedBy(*s.UserID) {
		return true
	}
	return n.UserId == nil && n.ExpiresAt != nil && n.ExpiresAt.After(s.Now)
}

type Anonymous struct{}

func (s Anonymous) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id IS NULL")
}

func (s Anonymous) MatchNote(n *entity.Note) bool {
	return n.UserId == nil
}

// ExpiredBefore matches notes whose expiry instant is strictly before Now.
type ExpiredBefore struct {
	Now time.Time
}

func (s ExpiredBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at < ?", s.Now)
}

func (s ExpiredBefore) MatchNote(n *entity.Note) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(s.Now)
}

type NoteOwnedByUser struct {
	UserID uuid.UUID
}

func (s NoteOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.user_id = ?", s.UserID)
}

func (s NoteOwnedByUser) MatchNote(n *entity.Note) bool {
	return n.IsOwnedBy(s.UserID)
}

// NewestFirst orders notes by creation time, newest first.
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.OrderByCreatedDesc)
}

func (s NewestFirst) SortNotes(notes []*entity.Note) {
	OrderBy{Field: "created_at", Desc: true}.SortNotes(notes)
}
