package rooms

import (
	"time"

	"github.com/tabshare/tabshare/internal/domain"
)

// createRoomRequest creates a room with its bill menu
type createRoomRequest struct {
	Title string            `json:"title" minLength:"1"`
	Menu  []menuItemRequest `json:"menu"`
}

type menuItemRequest struct {
	Name       string `json:"name" minLength:"1"`
	PriceCents int64  `json:"priceCents" minimum:"0"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

type roomResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Menu           []domain.MenuItem `json:"menu"`
	CreatorID      string            `json:"creatorId"`
	ParticipantIDs []string          `json:"participantIds"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type roomListResponse struct {
	Rooms []roomResponse `json:"rooms"`
}
