package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tabshare/tabshare/internal/infrastructure/validate"
)

const maxMenuItems = 100

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomAlreadyExists  = errors.New("room already exists")
	ErrNotAParticipant    = errors.New("not a participant of the room")
	ErrParticipantUnknown = errors.New("participant not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// MenuItem is one ordered line item on the shared bill. Price is stored in
// cents to avoid float rounding.
type MenuItem struct {
	Name       string `json:"name" bson:"name"`
	PriceCents int64  `json:"priceCents" bson:"price_cents"`
	PhotoURL   string `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
}

// Room is the shared collaboration unit: a fixed menu, a creator, and the set
// of participants allowed to join its realtime session.
type Room struct {
	ID             string     `json:"id" bson:"_id"`
	Title          string     `json:"title" bson:"title"`
	Menu           []MenuItem `json:"menu" bson:"menu"`
	CreatorID      string     `json:"creatorId" bson:"creator_id"`
	ParticipantIDs []string   `json:"participantIds" bson:"participant_ids"`
	CreatedAt      time.Time  `json:"createdAt" bson:"created_at"`
}

type RoomDirectory interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListForUser(ctx context.Context, userID string) ([]Room, error)
	AddParticipant(ctx context.Context, roomID string, userID string) (*Room, error)
}

func NewRoom(creator *User, title string, menu []MenuItem) (*Room, error) {
	if creator == nil {
		return nil, ErrParticipantUnknown
	}

	validateTitle := validate.Compose(
		validate.Required(),
		validate.MaxLength(120),
	)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	if len(menu) > maxMenuItems {
		return nil, ErrInvalidInput
	}
	for _, item := range menu {
		if err := validate.Field("menu item name", validate.Required(), validate.MaxLength(120))(item.Name); err != nil {
			return nil, err
		}
		if item.PriceCents < 0 {
			return nil, ErrInvalidInput
		}
	}

	return &Room{
		ID:             uuid.NewString(),
		Title:          title,
		Menu:           menu,
		CreatorID:      creator.ID,
		ParticipantIDs: []string{creator.ID},
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (r *Room) IsParticipant(userID string) bool {
	for _, id := range r.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant grants room membership. Joining a room you already belong to
// is a no-op.
func (r *Room) AddParticipant(userID string) {
	if userID == "" || r.IsParticipant(userID) {
		return
	}
	r.ParticipantIDs = append(r.ParticipantIDs, userID)
}
