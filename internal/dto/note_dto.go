package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	// Id is optional; clients that generate the locator themselves send it.
	Id      *uuid.UUID `json:"id"`
	Content string     `json:"content" validate:"notblank"`
}

type UpdateNoteRequest struct {
	Id      uuid.UUID `json:"-"`
	Content string    `json:"content"`
}

type NoteResponse struct {
	Id          uuid.UUID  `json:"id"`
	Content     string     `json:"content"`
	UserId      *uuid.UUID `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsPermanent bool       `json:"is_permanent"`
	ExpiryText  string     `json:"expiry_text"`
	ShareURL    string     `json:"share_url"`
}

type CleanupResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

type CleanupErrorResponse struct {
	Error string `json:"error"`
}
