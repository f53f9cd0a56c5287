package memory

import (
	"context"
	"fmt"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/contract"
	"tempnote-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) contract.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, err := r.FindOne(ctx, specification.ByEmail{Email: user.Email})
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: email %s", entity.ErrAlreadyExists, user.Email)
	}
	now := r.store.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	stored := *user
	if err := r.store.users.Add(user.Id.String(), &stored, cache.NoExpiration); err != nil {
		return fmt.Errorf("%w: user %s", entity.ErrAlreadyExists, user.Id)
	}
	return nil
}

func (r *UserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, item := range r.store.users.Items() {
		u := item.Object.(*entity.User)
		ok, err := matchUser(u, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	for _, item := range r.store.users.Items() {
		ok, err := matchUser(item.Object.(*entity.User), specs)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func providerKey(providerName, providerUserId string) string {
	return providerName + ":" + providerUserId
}

func (r *UserRepository) FindProvider(ctx context.Context, providerName, providerUserId string) (*entity.UserProvider, error) {
	if x, found := r.store.providers.Get(providerKey(providerName, providerUserId)); found {
		p := *x.(*entity.UserProvider)
		return &p, nil
	}
	return nil, nil
}

func (r *UserRepository) CreateProvider(ctx context.Context, provider *entity.UserProvider) error {
	stored := *provider
	if err := r.store.providers.Add(providerKey(provider.ProviderName, provider.ProviderUserId), &stored, cache.NoExpiration); err != nil {
		return fmt.Errorf("%w: provider link", entity.ErrAlreadyExists)
	}
	return nil
}
