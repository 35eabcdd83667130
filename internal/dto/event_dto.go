package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChatEventMessage travels over the in-process bus from the gateway to the
// audit forwarder. It carries ids only; the durable row is the source of
// truth for the message body.
type ChatEventMessage struct {
	Type       string    `json:"type"`
	GroupId    uuid.UUID `json:"group_id"`
	UserId     uuid.UUID `json:"user_id"`
	MessageId  uuid.UUID `json:"message_id,omitempty"`
	Seq        uint64    `json:"seq,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	ChatEventGroupJoined = "GROUP_JOINED"
	ChatEventMessageSent = "MESSAGE_SENT"
)
