package memory

import (
	"context"
	"testing"
	"time"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newNote(content string, createdAt time.Time, expiresAt *time.Time) *entity.Note {
	return &entity.Note{Id: uuid.New(), Content: content, CreatedAt: createdAt, ExpiresAt: expiresAt}
}

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

// onlySQL has no in-memory counterpart.
type onlySQL struct{}

func (onlySQL) Apply(db *gorm.DB) *gorm.DB { return db }

func TestNoteRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore(func() time.Time { return base }))

	t.Run("Fills creation time", func(t *testing.T) {
		n := &entity.Note{Id: uuid.New(), Content: "hello"}
		require.NoError(t, repo.Create(ctx, n))
		assert.Equal(t, base, n.CreatedAt)
	})

	t.Run("Rejects duplicate id", func(t *testing.T) {
		n := newNote("a", base, at(time.Hour))
		require.NoError(t, repo.Create(ctx, n))

		dup := &entity.Note{Id: n.Id, Content: "b"}
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, entity.ErrAlreadyExists)
	})

	t.Run("Returned rows do not alias the store", func(t *testing.T) {
		n := newNote("original", base, at(time.Hour))
		require.NoError(t, repo.Create(ctx, n))

		found, err := repo.FindOne(ctx, specification.ByID{ID: n.Id})
		require.NoError(t, err)
		found.Content = "mutated"
		*found.ExpiresAt = base

		again, err := repo.FindOne(ctx, specification.ByID{ID: n.Id})
		require.NoError(t, err)
		assert.Equal(t, "original", again.Content)
		assert.Equal(t, base.Add(time.Hour), *again.ExpiresAt)
	})
}

func TestNoteRepositoryWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore(nil))
	alice := uuid.New()
	bob := uuid.New()

	n := newNote("draft", base, at(time.Hour))
	require.NoError(t, repo.Create(ctx, n))

	t.Run("UpdateContent unknown id", func(t *testing.T) {
		updated, err := repo.UpdateContent(ctx, uuid.New(), "x")
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("UpdateContent returns new image", func(t *testing.T) {
		updated, err := repo.UpdateContent(ctx, n.Id, "final")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "final", updated.Content)
		assert.NotNil(t, updated.ExpiresAt)
	})

	t.Run("MakePermanent claims anonymous note", func(t *testing.T) {
		claimed, err := repo.MakePermanent(ctx, n.Id, alice)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, alice, *claimed.UserId)
		assert.Nil(t, claimed.ExpiresAt)
	})

	t.Run("MakePermanent by owner again succeeds", func(t *testing.T) {
		claimed, err := repo.MakePermanent(ctx, n.Id, alice)
		require.NoError(t, err)
		assert.NotNil(t, claimed)
	})

	t.Run("MakePermanent by another account matches nothing", func(t *testing.T) {
		claimed, err := repo.MakePermanent(ctx, n.Id, bob)
		require.NoError(t, err)
		assert.Nil(t, claimed)

		stored, err := repo.FindOne(ctx, specification.ByID{ID: n.Id})
		require.NoError(t, err)
		assert.Equal(t, alice, *stored.UserId)
	})

	t.Run("Delete returns the removed row once", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, n.Id)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.Equal(t, n.Id, deleted.Id)

		deleted, err = repo.Delete(ctx, n.Id)
		require.NoError(t, err)
		assert.Nil(t, deleted)
	})
}

func TestNoteRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore(nil))
	owner := uuid.New()

	expired := newNote("expired", base.Add(-2*time.Hour), at(-time.Minute))
	live := newNote("live", base.Add(-time.Hour), at(time.Hour))
	permanent := &entity.Note{Id: uuid.New(), Content: "mine", CreatedAt: base, UserId: &owner}
	for _, n := range []*entity.Note{expired, live, permanent} {
		require.NoError(t, repo.Create(ctx, n))
	}

	t.Run("Visibility for anonymous viewer", func(t *testing.T) {
		notes, err := repo.FindAll(ctx, specification.Visibility(nil, base), specification.NewestFirst{})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, live.Id, notes[0].Id)
	})

	t.Run("Visibility for owner is newest first", func(t *testing.T) {
		notes, err := repo.FindAll(ctx, specification.Visibility(&owner, base), specification.NewestFirst{})
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, permanent.Id, notes[0].Id)
		assert.Equal(t, live.Id, notes[1].Id)
	})

	t.Run("Pagination", func(t *testing.T) {
		notes, err := repo.FindAll(ctx, specification.NewestFirst{}, specification.Pagination{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, live.Id, notes[0].Id)

		notes, err = repo.FindAll(ctx, specification.Pagination{Limit: 5, Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx, specification.Anonymous{}, specification.ExpiredBefore{Now: base})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Unsupported specification", func(t *testing.T) {
		_, err := repo.FindAll(ctx, onlySQL{})
		assert.Error(t, err)
	})

	t.Run("DeleteAll requires a specification", func(t *testing.T) {
		_, err := repo.DeleteAll(ctx)
		assert.Error(t, err)
	})

	t.Run("DeleteAll removes matches only", func(t *testing.T) {
		deleted, err := repo.DeleteAll(ctx, specification.Anonymous{}, specification.ExpiredBefore{Now: base})
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		assert.Equal(t, expired.Id, deleted[0].Id)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.FindAll(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore(func() time.Time { return base }))

	user := &entity.User{Id: uuid.New(), Email: "ana@example.com", FullName: "Ana"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, base, user.CreatedAt)

	t.Run("Duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &entity.User{Id: uuid.New(), Email: "ana@example.com"})
		assert.ErrorIs(t, err, entity.ErrAlreadyExists)
	})

	t.Run("Find by email", func(t *testing.T) {
		found, err := repo.FindOne(ctx, specification.ByEmail{Email: "ana@example.com"})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.Id, found.Id)

		missing, err := repo.FindOne(ctx, specification.ByEmail{Email: "nobody@example.com"})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Provider links", func(t *testing.T) {
		link := &entity.UserProvider{Id: uuid.New(), UserId: user.Id, ProviderName: "github", ProviderUserId: "42"}
		require.NoError(t, repo.CreateProvider(ctx, link))
		assert.ErrorIs(t, repo.CreateProvider(ctx, link), entity.ErrAlreadyExists)

		found, err := repo.FindProvider(ctx, "github", "42")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, user.Id, found.UserId)

		missing, err := repo.FindProvider(ctx, "google", "42")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	repo := NewOAuthStateRepository(time.Minute)
	repo.Save("abc", "github")

	provider, ok := repo.Consume("abc")
	assert.True(t, ok)
	assert.Equal(t, "github", provider)

	_, ok = repo.Consume("abc")
	assert.False(t, ok)
}
