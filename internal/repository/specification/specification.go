package specification

import (
	"tempnote-be/internal/entity"

	"gorm.io/gorm"
)

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// NoteMatcher is implemented by specifications that can also be evaluated
// against a note held outside the database.
type NoteMatcher interface {
	MatchNote(n *entity.Note) bool
}

// UserMatcher is the user counterpart of NoteMatcher.
type UserMatcher interface {
	MatchUser(u *entity.User) bool
}

// NoteSorter is implemented by ordering specifications.
type NoteSorter interface {
	SortNotes(notes []*entity.Note)
}
