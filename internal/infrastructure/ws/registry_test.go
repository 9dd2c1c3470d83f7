package ws

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestSession(roomID, userID string) *Session {
	return &Session{
		ID:     uuid.NewString(),
		RoomID: roomID,
		UserID: userID,
		Name:   userID,
		conn:   &connWrapper{},
		send:   make(chan *Frame, 64),
		guard:  newDeliveryGuard(16),
		done:   make(chan struct{}),
	}
}

func TestRegistry_JoinAndMembers(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	a := newTestSession("room-a", "alice")
	b := newTestSession("room-a", "bob")
	c := newTestSession("room-b", "carol")

	for _, s := range []*Session{a, b, c} {
		prev, err := registry.Join(s, s.RoomID)
		req.NoError(err)
		req.Empty(prev)
	}

	req.Len(registry.MembersOf("room-a"), 2)
	req.Len(registry.MembersOf("room-b"), 1)
	req.Empty(registry.MembersOf("room-c"))

	req.Equal(3, registry.SessionCount())
	req.Equal(2, registry.RoomCount())
}

func TestRegistry_SameRoomJoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	s := newTestSession("room-a", "alice")

	_, err := registry.Join(s, "room-a")
	req.NoError(err)

	prev, err := registry.Join(s, "room-a")
	req.NoError(err)
	req.Equal("room-a", prev)

	req.Len(registry.MembersOf("room-a"), 1)
	req.Equal(1, registry.SessionCount())
}

func TestRegistry_RejoinElsewhereDetaches(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	s := newTestSession("room-a", "alice")

	_, err := registry.Join(s, "room-a")
	req.NoError(err)

	prev, err := registry.Join(s, "room-b")
	req.NoError(err)
	req.Equal("room-a", prev)

	req.Empty(registry.MembersOf("room-a"))
	req.Len(registry.MembersOf("room-b"), 1)

	room, ok := registry.RoomOf(s.ID)
	req.True(ok)
	req.Equal("room-b", room)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	s := newTestSession("room-a", "alice")

	_, err := registry.Join(s, "room-a")
	req.NoError(err)

	req.True(registry.Leave(s.ID))
	req.False(registry.Leave(s.ID), "second leave must be a no-op")

	req.Empty(registry.MembersOf("room-a"))
	req.Equal(0, registry.RoomCount())
}

func TestRegistry_JoinRequiresIdentity(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	_, err := registry.Join(nil, "room-a")
	req.ErrorIs(err, ErrSessionUnknown)

	s := newTestSession("room-a", "alice")
	_, err = registry.Join(s, "")
	req.ErrorIs(err, ErrSessionUnknown)
}
