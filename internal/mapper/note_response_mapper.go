package mapper

import (
	"fmt"
	"time"

	"tempnote-be/internal/dto"
	"tempnote-be/internal/entity"
)

// ShareURL is the shareable locator of a note.
func ShareURL(baseURL string, n *entity.Note) string {
	return fmt.Sprintf("%s/note/%s", baseURL, n.Id)
}

func (m *NoteMapper) ToResponse(n *entity.Note, now time.Time, baseURL string) *dto.NoteResponse {
	if n == nil {
		return nil
	}
	return &dto.NoteResponse{
		Id:          n.Id,
		Content:     n.Content,
		UserId:      n.UserId,
		CreatedAt:   n.CreatedAt,
		ExpiresAt:   n.ExpiresAt,
		IsPermanent: n.IsPermanent(),
		ExpiryText:  n.ExpiryText(now),
		ShareURL:    ShareURL(baseURL, n),
	}
}

func (m *NoteMapper) ToResponses(notes []*entity.Note, now time.Time, baseURL string) []*dto.NoteResponse {
	res := make([]*dto.NoteResponse, len(notes))
	for i, n := range notes {
		res[i] = m.ToResponse(n, now, baseURL)
	}
	return res
}
