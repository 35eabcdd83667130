package contract

import (
	"context"

	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/repository/specification"

	"github.com/google/uuid"
)

// GroupRepository is the durable store for groups, their membership relation
// and their append-only chat history.
//
// AppendMessage and AddMember are the write paths the realtime gateway leans
// on; both are single atomic statements against the store, never a
// read-modify-write of a loaded group.
type GroupRepository interface {
	// Create persists the group and its creator's membership in one
	// transaction, so a group can never exist without its first member.
	Create(ctx context.Context, group *entity.Group) error

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Group, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Group, error)

	// AddMember is idempotent: adding an existing member is a no-op success.
	// Returns entity.ErrGroupNotFound if the group does not exist.
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	Members(ctx context.Context, groupID uuid.UUID) ([]*entity.User, error)

	// AppendMessage appends one message with a store-assigned sequence number
	// and timestamp. Returns entity.ErrGroupNotFound if the group does not
	// exist, a *entity.PersistenceError on storage failure.
	AppendMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*entity.ChatMessage, error)

	// History returns the group's messages in append order. limit <= 0 means
	// the full history.
	History(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*entity.ChatMessage, error)
}
