package messaging

import "github.com/tabshare/tabshare/internal/domain"

const (
	AuditQueue      = "room_audit"
	DeadLetterQueue = "dead_letter_queue"
)

type RoomEventData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

type ProofEventData struct {
	Event domain.TimelineEvent `json:"event"`
}
