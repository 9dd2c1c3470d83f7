package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T) *User {
	t.Helper()

	user, err := NewUser("Alice", "alice@example.com", "hash")
	require.NoError(t, err)
	return user
}

func TestNewRoom_CreatorIsParticipant(t *testing.T) {
	req := require.New(t)

	creator := testUser(t)
	room, err := NewRoom(creator, "Friday dinner", []MenuItem{
		{Name: "Pasta", PriceCents: 1250},
		{Name: "Wine", PriceCents: 900},
	})
	req.NoError(err)

	req.NotEmpty(room.ID)
	req.Equal(creator.ID, room.CreatorID)
	req.True(room.IsParticipant(creator.ID))
	req.Len(room.Menu, 2)
}

func TestNewRoom_Validation(t *testing.T) {
	creator, err := NewUser("Alice", "alice@example.com", "hash")
	require.NoError(t, err)

	tests := []struct {
		name  string
		title string
		menu  []MenuItem
	}{
		{"empty title", "", nil},
		{"title too long", strings.Repeat("x", 121), nil},
		{"unnamed menu item", "Dinner", []MenuItem{{Name: "", PriceCents: 100}}},
		{"negative price", "Dinner", []MenuItem{{Name: "Pasta", PriceCents: -1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRoom(creator, tc.title, tc.menu)
			require.Error(t, err)
		})
	}
}

func TestNewRoom_RequiresCreator(t *testing.T) {
	_, err := NewRoom(nil, "Dinner", nil)
	require.ErrorIs(t, err, ErrParticipantUnknown)
}

func TestRoom_AddParticipantIsIdempotent(t *testing.T) {
	req := require.New(t)

	room, err := NewRoom(testUser(t), "Dinner", nil)
	req.NoError(err)

	room.AddParticipant("bob")
	room.AddParticipant("bob")
	room.AddParticipant("")

	req.Len(room.ParticipantIDs, 2)
	req.True(room.IsParticipant("bob"))
	req.False(room.IsParticipant("carol"))
}

func TestNewUser_Validation(t *testing.T) {
	req := require.New(t)

	_, err := NewUser("A", "alice@example.com", "hash")
	req.Error(err, "single-character names are rejected")

	_, err = NewUser("Alice", "not-an-email", "hash")
	req.Error(err)

	_, err = NewUser("Alice", "alice@example.com", "")
	req.ErrorIs(err, ErrInvalidInput)

	user, err := NewUser("  Alice  ", "  ALICE@Example.COM ", "hash")
	req.NoError(err)
	req.Equal("Alice", user.Name)
	req.Equal("alice@example.com", user.Email, "emails are normalized")
}
