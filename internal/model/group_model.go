package model

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(255);not null;index"`
	Purpose   string    `gorm:"type:text;not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMember is the membership relation. The composite primary key is what
// makes joins idempotent: a second insert for the same pair conflicts and is
// discarded with ON CONFLICT DO NOTHING.
type GroupMember struct {
	GroupId  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// GroupMessage is one row of a group's append-only history. History lives in
// its own table rather than inside the group row, so an append is a single
// INSERT and never a read-modify-write of the whole group. Seq is a database
// sequence; ordering a group's history by it reproduces append order.
type GroupMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Seq       uint64    `gorm:"autoIncrement;not null;uniqueIndex"`
	GroupId   uuid.UUID `gorm:"type:uuid;not null;index:idx_group_messages_group_seq"`
	SenderId  uuid.UUID `gorm:"type:uuid;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (GroupMessage) TableName() string {
	return "group_messages"
}
