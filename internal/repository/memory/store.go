package memory

import (
	"fmt"
	"sync"
	"time"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

// Store keeps notes and users in process memory. It backs the repositories
// when no database is configured and in tests.
type Store struct {
	notes     *cache.Cache
	users     *cache.Cache
	providers *cache.Cache

	// mu serialises read-modify-write sequences across the caches.
	mu  sync.Mutex
	now func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		notes:     cache.New(cache.NoExpiration, 0),
		users:     cache.New(cache.NoExpiration, 0),
		providers: cache.New(cache.NoExpiration, 0),
		now:       now,
	}
}

func matchNote(n *entity.Note, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		if _, ok := spec.(specification.NoteSorter); ok {
			continue
		}
		if _, ok := spec.(specification.Pagination); ok {
			continue
		}
		m, ok := spec.(specification.NoteMatcher)
		if !ok {
			return false, fmt.Errorf("memory store: unsupported note specification %T", spec)
		}
		if !m.MatchNote(n) {
			return false, nil
		}
	}
	return true, nil
}

func matchUser(u *entity.User, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		m, ok := spec.(specification.UserMatcher)
		if !ok {
			return false, fmt.Errorf("memory store: unsupported user specification %T", spec)
		}
		if !m.MatchUser(u) {
			return false, nil
		}
	}
	return true, nil
}

func paginate(notes []*entity.Note, specs []specification.Specification) []*entity.Note {
	for _, spec := range specs {
		p, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset >= len(notes) {
			return []*entity.Note{}
		}
		notes = notes[p.Offset:]
		if p.Limit > 0 && p.Limit < len(notes) {
			notes = notes[:p.Limit]
		}
	}
	return notes
}
