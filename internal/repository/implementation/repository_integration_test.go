package implementation

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/model"
	"tempnote-be/internal/repository/specification"
	"tempnote-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupTestDB connects to DB_CONNECTION_STRING when set, otherwise to a
// throwaway PostgreSQL container shared by the whole test run.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	_ = godotenv.Load("../../../.env")
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		once.Do(func() {
			sharedDSN, initErr = startPostgres()
		})
		require.NoError(t, initErr)
		dsn = sharedDSN
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tempnote",
				"POSTGRES_PASSWORD": "tempnote",
				"POSTGRES_DB":       "tempnote",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	return fmt.Sprintf("postgres://tempnote:tempnote@%s:%s/tempnote?sslmode=disable", host, port.Port()), nil
}

func createUser(t *testing.T, repo *UserRepositoryImpl) *entity.User {
	t.Helper()
	user := &entity.User{
		Id:       uuid.New(),
		Email:    "integration-" + uuid.NewString() + "@example.com",
		FullName: "Integration User",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestNoteRepositoryPostgres(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	notes := NewNoteRepository(db)
	users := NewUserRepository(db).(*UserRepositoryImpl)

	owner := createUser(t, users)
	other := createUser(t, users)
	now := time.Now().UTC().Truncate(time.Microsecond)

	expiresAt := now.Add(24 * time.Hour)
	note := &entity.Note{Id: uuid.New(), Content: "integration", CreatedAt: now, ExpiresAt: &expiresAt}
	require.NoError(t, notes.Create(ctx, note))
	t.Cleanup(func() { notes.Delete(ctx, note.Id) })

	t.Run("Duplicate id maps to ErrAlreadyExists", func(t *testing.T) {
		err := notes.Create(ctx, &entity.Note{Id: note.Id, Content: "again", CreatedAt: now, ExpiresAt: &expiresAt})
		assert.ErrorIs(t, err, entity.ErrAlreadyExists)
	})

	t.Run("Owned note with expiry violates check", func(t *testing.T) {
		err := notes.Create(ctx, &entity.Note{Id: uuid.New(), Content: "bad", CreatedAt: now, UserId: &owner.Id, ExpiresAt: &expiresAt})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("UpdateContent returns the stored row", func(t *testing.T) {
		updated, err := notes.UpdateContent(ctx, note.Id, "edited")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "edited", updated.Content)
		require.NotNil(t, updated.ExpiresAt)

		missing, err := notes.UpdateContent(ctx, uuid.New(), "x")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Visible to anonymous viewers until claimed", func(t *testing.T) {
		found, err := notes.FindAll(ctx, specification.Visibility(nil, now), specification.NewestFirst{})
		require.NoError(t, err)
		assert.True(t, containsNote(found, note.Id))
	})

	t.Run("MakePermanent is conditional on ownership", func(t *testing.T) {
		claimed, err := notes.MakePermanent(ctx, note.Id, owner.Id)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, owner.Id, *claimed.UserId)
		assert.Nil(t, claimed.ExpiresAt)

		stolen, err := notes.MakePermanent(ctx, note.Id, other.Id)
		require.NoError(t, err)
		assert.Nil(t, stolen)

		anon, err := notes.FindAll(ctx, specification.Visibility(nil, now))
		require.NoError(t, err)
		assert.False(t, containsNote(anon, note.Id))

		mine, err := notes.FindAll(ctx, specification.Visibility(&owner.Id, now))
		require.NoError(t, err)
		assert.True(t, containsNote(mine, note.Id))
	})

	t.Run("DeleteAll sweeps expired anonymous notes only", func(t *testing.T) {
		past := now.Add(-time.Minute)
		expired := &entity.Note{Id: uuid.New(), Content: "old", CreatedAt: now.Add(-25 * time.Hour), ExpiresAt: &past}
		require.NoError(t, notes.Create(ctx, expired))

		deleted, err := notes.DeleteAll(ctx, specification.Anonymous{}, specification.ExpiredBefore{Now: now})
		require.NoError(t, err)
		assert.True(t, containsNote(deleted, expired.Id))
		assert.False(t, containsNote(deleted, note.Id))

		gone, err := notes.FindOne(ctx, specification.ByID{ID: expired.Id})
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("Delete returns the removed row", func(t *testing.T) {
		deleted, err := notes.Delete(ctx, note.Id)
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.Equal(t, "edited", deleted.Content)

		deleted, err = notes.Delete(ctx, note.Id)
		require.NoError(t, err)
		assert.Nil(t, deleted)
	})
}

func TestUserRepositoryPostgres(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db).(*UserRepositoryImpl)

	user := createUser(t, users)

	err := users.Create(ctx, &entity.User{Id: uuid.New(), Email: user.Email, FullName: "Copy"})
	assert.ErrorIs(t, err, entity.ErrAlreadyExists)

	found, err := users.FindOne(ctx, specification.ByEmail{Email: user.Email})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.Id, found.Id)

	providerUserId := uuid.NewString()
	require.NoError(t, users.CreateProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "github",
		ProviderUserId: providerUserId,
	}))

	link, err := users.FindProvider(ctx, "github", providerUserId)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, user.Id, link.UserId)
}

func containsNote(notes []*entity.Note, id uuid.UUID) bool {
	for _, n := range notes {
		if n.Id == id {
			return true
		}
	}
	return false
}
