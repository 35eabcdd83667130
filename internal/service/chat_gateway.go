package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/pkg/logger"
	"github.com/hari-334/interest-buddies/internal/repository/unitofwork"
	ws "github.com/hari-334/interest-buddies/internal/websocket"

	"github.com/google/uuid"
)

// ChatGateway translates socket events into durable appends and room
// fan-out. It is the only writer to a group's history on this instance.
//
// Per group it serializes append+broadcast under one lock, so the order
// messages land in storage is exactly the order every subscriber sees them.
type ChatGateway struct {
	uowFactory       unitofwork.RepositoryFactory
	membership       IMembershipService
	hub              *ws.Hub
	publisherService IPublisherService
	logger           logger.ILogger

	mu         sync.Mutex
	groupLocks map[uuid.UUID]*groupLock
}

// groupLock is refcounted so an idle group does not retain its mutex for
// the process lifetime.
type groupLock struct {
	mu   sync.Mutex
	refs int
}

func NewChatGateway(
	uowFactory unitofwork.RepositoryFactory,
	membership IMembershipService,
	hub *ws.Hub,
	publisherService IPublisherService,
	log logger.ILogger,
) *ChatGateway {
	return &ChatGateway{
		uowFactory:       uowFactory,
		membership:       membership,
		hub:              hub,
		publisherService: publisherService,
		logger:           log,
		groupLocks:       make(map[uuid.UUID]*groupLock),
	}
}

func (g *ChatGateway) lockGroup(groupID uuid.UUID) *groupLock {
	g.mu.Lock()
	lock, ok := g.groupLocks[groupID]
	if !ok {
		lock = &groupLock{}
		g.groupLocks[groupID] = lock
	}
	lock.refs++
	g.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// unlockGroup releases the lock and evicts the map entry once no sender
// holds or waits on it.
func (g *ChatGateway) unlockGroup(groupID uuid.UUID, lock *groupLock) {
	lock.mu.Unlock()

	g.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(g.groupLocks, groupID)
	}
	g.mu.Unlock()
}

// HandleJoinGroup subscribes the session to the group's room. Only members
// get in; the room is a delivery list, not a membership record.
func (g *ChatGateway) HandleJoinGroup(client *ws.Client, data dto.JoinGroupData) {
	ctx := context.Background()

	groupID, err := uuid.Parse(data.GroupId)
	if err != nil {
		client.SendError("join-group", "invalid group id")
		return
	}

	isMember, err := g.membership.IsMember(ctx, groupID, client.UserID)
	if err != nil {
		g.logger.Error("ChatGateway", "Membership check failed", map[string]interface{}{
			"group_id": groupID,
			"user_id":  client.UserID,
			"error":    err.Error(),
		})
		client.SendError("join-group", "temporary failure, try again")
		return
	}
	if !isMember {
		client.SendError("join-group", entity.ErrNotMember.Error())
		return
	}

	g.hub.Subscribe(groupID, client)
	client.SendEvent("joined-group", dto.JoinedGroupPayload{GroupId: groupID.String()})

	g.logger.Info("ChatGateway", "Session joined room", map[string]interface{}{
		"group_id":   groupID,
		"session_id": client.SessionID,
		"user_id":    client.UserID,
	})
}

// HandleSendMessage appends the message durably, then fans it out to the
// room. The append happens first; a message no subscriber would ever see
// again after a refresh must not be delivered at all.
func (g *ChatGateway) HandleSendMessage(client *ws.Client, data dto.SendMessageData) {
	ctx := context.Background()

	groupID, err := uuid.Parse(data.GroupId)
	if err != nil {
		client.SendError("send-message", "invalid group id")
		return
	}
	if data.Message == "" {
		client.SendError("send-message", "empty message")
		return
	}

	isMember, err := g.membership.IsMember(ctx, groupID, client.UserID)
	if err != nil {
		g.logger.Error("ChatGateway", "Membership check failed", map[string]interface{}{
			"group_id": groupID,
			"user_id":  client.UserID,
			"error":    err.Error(),
		})
		client.SendError("send-message", "temporary failure, try again")
		return
	}
	if !isMember {
		client.SendError("send-message", entity.ErrNotMember.Error())
		return
	}

	// Sender identity comes from the authenticated connection, never from
	// the frame payload.
	lock := g.lockGroup(groupID)

	uow := g.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.GroupRepository().AppendMessage(ctx, groupID, client.UserID, data.Message)
	if err != nil {
		g.unlockGroup(groupID, lock)
		if errors.Is(err, entity.ErrGroupNotFound) {
			client.SendError("send-message", entity.ErrGroupNotFound.Error())
			return
		}
		g.logger.Error("ChatGateway", "Message append failed", map[string]interface{}{
			"group_id": groupID,
			"user_id":  client.UserID,
			"error":    err.Error(),
		})
		client.SendError("send-message", "message not delivered")
		return
	}

	payload := dto.ReceiveMessagePayload{
		Id:        msg.Id.String(),
		GroupId:   groupID.String(),
		Sender:    client.DisplayName,
		SenderId:  client.UserID.String(),
		Message:   msg.Body,
		Seq:       msg.Seq,
		Timestamp: msg.CreatedAt.Format(time.RFC3339),
	}
	frame := mustEnvelope("receive-message", payload)
	g.hub.BroadcastToRoom(groupID, frame)

	g.unlockGroup(groupID, lock)

	if g.publisherService != nil {
		eventPayload, _ := json.Marshal(dto.ChatEventMessage{
			Type:       dto.ChatEventMessageSent,
			GroupId:    groupID,
			UserId:     client.UserID,
			MessageId:  msg.Id,
			Seq:        msg.Seq,
			OccurredAt: msg.CreatedAt,
		})
		if err := g.publisherService.Publish(ctx, eventPayload); err != nil {
			g.logger.Warn("ChatGateway", "Failed to publish MESSAGE_SENT event", map[string]interface{}{
				"group_id":   groupID,
				"message_id": msg.Id,
				"error":      err.Error(),
			})
		}
	}
}

func mustEnvelope(event string, data interface{}) []byte {
	raw, _ := json.Marshal(data)
	frame, _ := json.Marshal(dto.WsEnvelope{Event: event, Data: raw})
	return frame
}
