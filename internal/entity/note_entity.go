package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id        uuid.UUID
	Content   string
	UserId    *uuid.UUID // nil for anonymous notes
	CreatedAt time.Time
	ExpiresAt *time.Time // nil for permanent notes
}

func (n *Note) IsPermanent() bool {
	return n.UserId != nil
}

func (n *Note) IsOwnedBy(userId uuid.UUID) bool {
	return n.UserId != nil && *n.UserId == userId
}

// IsExpired reports whether an anonymous note has passed its expiry instant.
func (n *Note) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// ExpiryText renders the human readable lifetime of the note relative to now.
func (n *Note) ExpiryText(now time.Time) string {
	if n.ExpiresAt == nil {
		return "Permanent note"
	}
	if n.IsExpired(now) {
		return "Expired"
	}
	return "Expires in " + humanizeDuration(n.ExpiresAt.Sub(now))
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "less than a minute"
	case d < 45*time.Minute:
		return plural(int(math.Round(d.Minutes())), "minute")
	case d < 48*time.Hour:
		return plural(int(math.Round(d.Hours())), "hour")
	default:
		return plural(int(math.Round(d.Hours()/24)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
