package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RoomEventType string

const (
	AuditRoomCreated   RoomEventType = "room_created"
	AuditMemberJoined  RoomEventType = "member_joined"
	AuditMemberLeft    RoomEventType = "member_left"
	AuditProofUploaded RoomEventType = "proof_uploaded"
)

// RoomAuditLog records room lifecycle activity for later inspection. Written
// asynchronously by the event-bus consumer, never on the request path.
type RoomAuditLog struct {
	ID        string         `bson:"_id" json:"id"`
	RoomID    string         `bson:"room_id" json:"roomId"`
	EventType RoomEventType  `bson:"event_type" json:"eventType"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type RoomAuditRepository interface {
	Log(ctx context.Context, log *RoomAuditLog) error
	GetByRoomID(ctx context.Context, roomID string, limit int) ([]RoomAuditLog, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	EnsureIndexes(ctx context.Context) error
}

func NewRoomAuditLog(roomID string, eventType RoomEventType, metadata map[string]any) *RoomAuditLog {
	return &RoomAuditLog{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
