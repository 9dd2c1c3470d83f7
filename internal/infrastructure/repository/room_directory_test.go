package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabshare/tabshare/internal/domain"
)

func makeRoom(t *testing.T, title, creatorID string) *domain.Room {
	t.Helper()

	creator := &domain.User{ID: creatorID, Name: creatorID, Email: creatorID + "@example.com"}
	room, err := domain.NewRoom(creator, title, []domain.MenuItem{{Name: "Pasta", PriceCents: 1250}})
	require.NoError(t, err)
	return room
}

func TestInMemoryRoomDirectory_CreateAndGet(t *testing.T) {
	req := require.New(t)
	directory := NewInMemoryRoomDirectory()

	room := makeRoom(t, "Dinner", "alice")
	req.NoError(directory.Create(context.Background(), room))

	req.ErrorIs(directory.Create(context.Background(), room), domain.ErrRoomAlreadyExists)

	found, err := directory.GetByID(context.Background(), room.ID)
	req.NoError(err)
	req.Equal(room.Title, found.Title)

	_, err = directory.GetByID(context.Background(), "missing")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestInMemoryRoomDirectory_StoredRoomIsACopy(t *testing.T) {
	req := require.New(t)
	directory := NewInMemoryRoomDirectory()

	room := makeRoom(t, "Dinner", "alice")
	req.NoError(directory.Create(context.Background(), room))

	// Mutating the caller's struct must not leak into the directory.
	room.Title = "Hijacked"
	room.ParticipantIDs = append(room.ParticipantIDs, "mallory")

	found, err := directory.GetByID(context.Background(), room.ID)
	req.NoError(err)
	req.Equal("Dinner", found.Title)
	req.False(found.IsParticipant("mallory"))
}

func TestInMemoryRoomDirectory_AddParticipant(t *testing.T) {
	req := require.New(t)
	directory := NewInMemoryRoomDirectory()

	room := makeRoom(t, "Dinner", "alice")
	req.NoError(directory.Create(context.Background(), room))

	updated, err := directory.AddParticipant(context.Background(), room.ID, "bob")
	req.NoError(err)
	req.True(updated.IsParticipant("bob"))

	// Joining again changes nothing.
	updated, err = directory.AddParticipant(context.Background(), room.ID, "bob")
	req.NoError(err)
	req.Len(updated.ParticipantIDs, 2)

	_, err = directory.AddParticipant(context.Background(), "missing", "bob")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestInMemoryRoomDirectory_ListForUser(t *testing.T) {
	req := require.New(t)
	directory := NewInMemoryRoomDirectory()

	first := makeRoom(t, "Dinner", "alice")
	first.CreatedAt = time.Now().Add(-time.Hour)
	req.NoError(directory.Create(context.Background(), first))

	second := makeRoom(t, "Brunch", "bob")
	second.AddParticipant("alice")
	req.NoError(directory.Create(context.Background(), second))

	third := makeRoom(t, "Lunch", "carol")
	req.NoError(directory.Create(context.Background(), third))

	rooms, err := directory.ListForUser(context.Background(), "alice")
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal("Brunch", rooms[0].Title, "newest room comes first")
	req.Equal("Dinner", rooms[1].Title)
}
