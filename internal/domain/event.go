package domain

import (
	"context"
	"errors"
	"time"
)

type EventKind string

const (
	EventKindMessage EventKind = "message"
	EventKindProof   EventKind = "proof"
)

var (
	ErrEventInvalid  = errors.New("invalid timeline event")
	ErrStoreBusy     = errors.New("timeline store is busy")
	ErrStoreRejected = errors.New("timeline store rejected the append")
)

// Sender is the verified identity attached to every timeline event.
type Sender struct {
	UserID string `json:"userId" bson:"user_id"`
	Name   string `json:"name" bson:"name"`
}

// TimelineEvent is an immutable chat message or payment-proof upload.
// ID is assigned by the store at durable append and increases monotonically
// per room; it is never synthesized by callers.
type TimelineEvent struct {
	ID        int64     `json:"id" bson:"seq"`
	RoomID    string    `json:"roomId" bson:"room_id"`
	Sender    Sender    `json:"sender" bson:"sender"`
	Kind      EventKind `json:"kind" bson:"kind"`
	Payload   string    `json:"payload" bson:"payload"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// OrderKey totally orders events within a room: creation timestamp first,
// event ID as the tie-breaker.
type OrderKey struct {
	Millis int64
	ID     int64
}

func (e TimelineEvent) OrderKey() OrderKey {
	return OrderKey{Millis: e.CreatedAt.UnixMilli(), ID: e.ID}
}

func (k OrderKey) After(other OrderKey) bool {
	if k.Millis != other.Millis {
		return k.Millis > other.Millis
	}
	return k.ID > other.ID
}

func (k OrderKey) Less(other OrderKey) bool {
	return other.After(k)
}

func (k EventKind) Valid() bool {
	return k == EventKindMessage || k == EventKindProof
}

// TimelineStore is the durable, append-only record of a room's events.
// AppendEvent serializes concurrent appends for the same room and assigns the
// order key; ListEvents returns events in ascending order-key order.
type TimelineStore interface {
	AppendEvent(ctx context.Context, roomID string, sender Sender, kind EventKind, payload string) (TimelineEvent, error)
	ListEvents(ctx context.Context, roomID string) ([]TimelineEvent, error)
}
