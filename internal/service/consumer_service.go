package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/pkg/events"
	pkgNats "github.com/hari-334/interest-buddies/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process chat event bus and forwards each
// event to NATS for the audit trail. Forwarding is off the hot path on
// purpose: a slow or down NATS never delays a chat message.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pkgNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pkgNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal chat event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.eventPublisher == nil {
		msg.Ack()
		return
	}

	evt := events.BaseEvent{
		Type: payload.Type,
		Data: map[string]interface{}{
			"group_id":   payload.GroupId,
			"user_id":    payload.UserId,
			"message_id": payload.MessageId,
			"seq":        payload.Seq,
		},
		OccurredAt: payload.OccurredAt,
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[ERROR] Failed to forward %s event to NATS: %v", payload.Type, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}
