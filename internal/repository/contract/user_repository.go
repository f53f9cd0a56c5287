package contract

import (
	"context"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindProvider(ctx context.Context, providerName, providerUserId string) (*entity.UserProvider, error)
	CreateProvider(ctx context.Context, provider *entity.UserProvider) error
}
