package unitofwork

import (
	"context"

	"tempnote-be/internal/repository/contract"
	"tempnote-be/internal/repository/memory"
)

// memoryUnitOfWork exposes the in-process repositories. Every operation on
// the memory store is applied immediately, so transactions are no-ops.
type memoryUnitOfWork struct {
	store *memory.Store
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return ctx.Err() }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) UserRepository() contract.UserRepository {
	return memory.NewUserRepository(u.store)
}

func (u *memoryUnitOfWork) NoteRepository() contract.NoteRepository {
	return memory.NewNoteRepository(u.store)
}
