package model

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Content   string     `gorm:"type:text;not null"`
	UserId    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"autoCreateTime;not null"`
	ExpiresAt *time.Time `gorm:"index;check:chk_notes_owner_expiry,user_id IS NULL OR expires_at IS NULL"`
}

func (Note) TableName() string {
	return "notes"
}
