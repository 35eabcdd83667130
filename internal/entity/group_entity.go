package entity

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	Id        uuid.UUID
	Name      string
	Purpose   string
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Members is populated on demand (dashboard, group page); it is not
	// loaded for membership checks, which go through GroupRepository.IsMember.
	Members []*User
}

// ChatMessage is one durable entry in a group's history. Seq is assigned by
// the store and defines the history order; it never changes after the append.
type ChatMessage struct {
	Id        uuid.UUID
	GroupId   uuid.UUID
	SenderId  uuid.UUID
	Body      string
	Seq       uint64
	CreatedAt time.Time
}
