package unitofwork

import (
	"context"

	"github.com/hari-334/interest-buddies/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	GroupRepository() contract.GroupRepository
}
