package contract

import (
	"context"

	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
}
