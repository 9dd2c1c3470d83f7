package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rabbitmq/amqp091-go"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/contracts"
	"github.com/tabshare/tabshare/internal/infrastructure/messaging"
)

var routingKeyToAudit = map[string]domain.RoomEventType{
	contracts.EventRoomCreated:   domain.AuditRoomCreated,
	contracts.EventMemberJoined:  domain.AuditMemberJoined,
	contracts.EventMemberLeft:    domain.AuditMemberLeft,
	contracts.EventProofUploaded: domain.AuditProofUploaded,
}

// auditConsumer drains the audit queue and turns bus events into durable
// audit-log entries.
type auditConsumer struct {
	rabbitmq *messaging.RabbitMQ
	audit    domain.RoomAuditRepository
}

func NewAuditConsumer(rabbitmq *messaging.RabbitMQ, audit domain.RoomAuditRepository) *auditConsumer {
	return &auditConsumer{
		rabbitmq: rabbitmq,
		audit:    audit,
	}
}

func (c *auditConsumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.AuditQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			return err
		}

		eventType, ok := routingKeyToAudit[msg.RoutingKey]
		if !ok {
			log.Printf("Unknown routing key %q, dropping", msg.RoutingKey)
			return nil
		}

		var metadata map[string]any
		if len(message.Data) > 0 {
			if err := json.Unmarshal(message.Data, &metadata); err != nil {
				log.Printf("Failed to unmarshal event data: %v", err)
				return err
			}
		}

		return c.audit.Log(ctx, domain.NewRoomAuditLog(message.RoomID, eventType, metadata))
	})
}
