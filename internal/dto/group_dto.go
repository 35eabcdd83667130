package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateGroupRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Purpose string `json:"purpose" validate:"required,min=2,max=500"`
}

type SearchGroupRequest struct {
	Query string `json:"query" validate:"required,min=1,max=100"`
}

type GroupSummaryResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Purpose     string    `json:"purpose"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupDetailResponse struct {
	Id      uuid.UUID             `json:"id"`
	Name    string                `json:"name"`
	Purpose string                `json:"purpose"`
	Members []UserResponse        `json:"members"`
	History []ChatMessageResponse `json:"history"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	GroupId   uuid.UUID `json:"group_id"`
	SenderId  uuid.UUID `json:"sender_id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryPageResponse struct {
	GroupId  uuid.UUID             `json:"group_id"`
	Messages []ChatMessageResponse `json:"messages"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}
