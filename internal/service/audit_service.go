package service

import (
	"context"

	"github.com/hari-334/interest-buddies/internal/pkg/logger"
	"github.com/hari-334/interest-buddies/pkg/events"
	pkgNats "github.com/hari-334/interest-buddies/pkg/nats"
)

type IAuditService interface {
	Start() error
}

// auditService tails the durable event stream and writes each chat event to
// the audit log. It is a separate consumer from the realtime path, so
// replaying the stream never touches live rooms.
type auditService struct {
	subscriber *pkgNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber *pkgNats.Subscriber, log logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		logger:     log,
	}
}

func (s *auditService) Start() error {
	return s.subscriber.Subscribe("events.>", "chat-audit", func(ctx context.Context, event events.Event) error {
		s.logger.Info("Audit", "Chat event", map[string]interface{}{
			"type":    event.EventType(),
			"payload": event.Payload(),
		})
		return nil
	})
}
