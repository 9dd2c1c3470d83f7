package events

import (
	"context"
	"encoding/json"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/contracts"
	"github.com/tabshare/tabshare/internal/infrastructure/messaging"
)

// RoomPublisher pushes room lifecycle events onto the bus. Publish failures
// are the caller's to log; they never fail the request that triggered them.
type RoomPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewRoomPublisher(rabbitmq *messaging.RabbitMQ) *RoomPublisher {
	return &RoomPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey, roomID string, payload any) error {
	if p == nil || p.rabbitmq == nil {
		return nil // eventing disabled
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, routingKey, contracts.AmqpMessage{
		RoomID: roomID,
		Data:   data,
	})
}

func (p *RoomPublisher) PublishRoomCreated(ctx context.Context, room domain.Room) error {
	return p.publish(ctx, contracts.EventRoomCreated, room.ID, messaging.RoomEventData{
		RoomID: room.ID,
		UserID: room.CreatorID,
	})
}

func (p *RoomPublisher) PublishMemberJoined(ctx context.Context, roomID, userID string) error {
	return p.publish(ctx, contracts.EventMemberJoined, roomID, messaging.RoomEventData{
		RoomID: roomID,
		UserID: userID,
	})
}

func (p *RoomPublisher) PublishMemberLeft(ctx context.Context, roomID, userID string) error {
	return p.publish(ctx, contracts.EventMemberLeft, roomID, messaging.RoomEventData{
		RoomID: roomID,
		UserID: userID,
	})
}

func (p *RoomPublisher) PublishProofUploaded(ctx context.Context, event domain.TimelineEvent) error {
	return p.publish(ctx, contracts.EventProofUploaded, event.RoomID, messaging.ProofEventData{
		Event: event,
	})
}
