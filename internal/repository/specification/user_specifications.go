package specification

import (
	"tempnote-be/internal/entity"

	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

func (s ByEmail) MatchUser(u *entity.User) bool {
	return u.Email == s.Email
}
