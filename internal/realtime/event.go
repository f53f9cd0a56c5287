package realtime

import (
	"time"

	"tempnote-be/internal/entity"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindInsert EventKind = "INSERT"
	KindUpdate EventKind = "UPDATE"
	KindDelete EventKind = "DELETE"
	KindAll    EventKind = "*"
)

// ChangeEvent describes one committed change to the notes relation. New
// carries the post-change row for inserts and updates; Old carries the
// removed row for deletes.
type ChangeEvent struct {
	Kind       EventKind    `json:"kind"`
	NoteID     uuid.UUID    `json:"note_id"`
	New        *entity.Note `json:"new,omitempty"`
	Old        *entity.Note `json:"old,omitempty"`
	Origin     string       `json:"origin"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func Inserted(n *entity.Note) ChangeEvent {
	return ChangeEvent{Kind: KindInsert, NoteID: n.Id, New: n, OccurredAt: time.Now()}
}

func Updated(n *entity.Note) ChangeEvent {
	return ChangeEvent{Kind: KindUpdate, NoteID: n.Id, New: n, OccurredAt: time.Now()}
}

func Deleted(n *entity.Note) ChangeEvent {
	return ChangeEvent{Kind: KindDelete, NoteID: n.Id, Old: n, OccurredAt: time.Now()}
}

// Filter scopes a subscription. A nil NoteID subscribes to the whole relation.
type Filter struct {
	Kind   EventKind
	NoteID *uuid.UUID
}

func AllNotes() Filter {
	return Filter{Kind: KindAll}
}

func SingleNote(id uuid.UUID) Filter {
	return Filter{Kind: KindAll, NoteID: &id}
}

func (f Filter) Matches(evt ChangeEvent) bool {
	if f.Kind != "" && f.Kind != KindAll && f.Kind != evt.Kind {
		return false
	}
	return f.NoteID == nil || *f.NoteID == evt.NoteID
}
