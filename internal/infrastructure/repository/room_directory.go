package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/tabshare/tabshare/internal/domain"
)

// InMemoryRoomDirectory backs the memory storage driver and tests.
type InMemoryRoomDirectory struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewInMemoryRoomDirectory() *InMemoryRoomDirectory {
	return &InMemoryRoomDirectory{
		rooms: make(map[string]*domain.Room),
	}
}

func (d *InMemoryRoomDirectory) Create(_ context.Context, room *domain.Room) error {
	if room == nil || room.ID == "" {
		return domain.ErrInvalidInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.rooms[room.ID]; exists {
		return domain.ErrRoomAlreadyExists
	}

	stored := cloneRoom(room)
	d.rooms[room.ID] = &stored
	return nil
}

func (d *InMemoryRoomDirectory) GetByID(_ context.Context, id string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	out := cloneRoom(room)
	return &out, nil
}

func (d *InMemoryRoomDirectory) ListForUser(_ context.Context, userID string) ([]domain.Room, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var rooms []domain.Room
	for _, room := range d.rooms {
		if room.CreatorID == userID || room.IsParticipant(userID) {
			rooms = append(rooms, cloneRoom(room))
		}
	}

	// Newest first, matching the mongo directory.
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	return rooms, nil
}

func (d *InMemoryRoomDirectory) AddParticipant(_ context.Context, roomID string, userID string) (*domain.Room, error) {
	if roomID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	room.AddParticipant(userID)

	out := cloneRoom(room)
	return &out, nil
}

func cloneRoom(room *domain.Room) domain.Room {
	out := *room
	out.Menu = append([]domain.MenuItem(nil), room.Menu...)
	out.ParticipantIDs = append([]string(nil), room.ParticipantIDs...)
	return out
}
