package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabshare/tabshare/internal/domain"
)

var testSender = domain.Sender{UserID: "alice", Name: "Alice"}

func TestInMemoryTimelineStore_AssignsSequentialIDs(t *testing.T) {
	req := require.New(t)
	store := NewInMemoryTimelineStore(0)

	for i := int64(1); i <= 5; i++ {
		event, err := store.AppendEvent(context.Background(), "room-a", testSender, domain.EventKindMessage, "msg")
		req.NoError(err)
		req.Equal(i, event.ID)
	}

	// Another room starts its own sequence.
	event, err := store.AppendEvent(context.Background(), "room-b", testSender, domain.EventKindProof, "proof")
	req.NoError(err)
	req.Equal(int64(1), event.ID)
}

func TestInMemoryTimelineStore_OrderKeysNeverRegress(t *testing.T) {
	req := require.New(t)
	store := NewInMemoryTimelineStore(0)

	base := time.Now()
	clock := []time.Time{base, base.Add(time.Millisecond), base.Add(-time.Second)}
	i := 0
	store.now = func() time.Time {
		at := clock[i%len(clock)]
		i++
		return at
	}

	for range clock {
		_, err := store.AppendEvent(context.Background(), "room-a", testSender, domain.EventKindMessage, "msg")
		req.NoError(err)
	}

	events, err := store.ListEvents(context.Background(), "room-a")
	req.NoError(err)
	req.Len(events, 3)

	for j := 1; j < len(events); j++ {
		req.True(events[j].OrderKey().After(events[j-1].OrderKey()),
			"order keys must strictly increase even when the clock goes backwards")
	}
}

func TestInMemoryTimelineStore_ConcurrentAppends(t *testing.T) {
	req := require.New(t)
	store := NewInMemoryTimelineStore(0)

	const total = 100
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AppendEvent(context.Background(), "room-a", testSender, domain.EventKindMessage, "msg")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	events, err := store.ListEvents(context.Background(), "room-a")
	req.NoError(err)
	req.Len(events, total)

	seen := make(map[int64]bool, total)
	for _, event := range events {
		req.False(seen[event.ID], "IDs must be unique")
		seen[event.ID] = true
	}
}

func TestInMemoryTimelineStore_SnapshotLimit(t *testing.T) {
	req := require.New(t)
	store := NewInMemoryTimelineStore(3)

	for i := 0; i < 10; i++ {
		_, err := store.AppendEvent(context.Background(), "room-a", testSender, domain.EventKindMessage, "msg")
		req.NoError(err)
	}

	events, err := store.ListEvents(context.Background(), "room-a")
	req.NoError(err)
	req.Len(events, 3)
	req.Equal(int64(8), events[0].ID, "the trailing window keeps the newest events")
	req.Equal(int64(10), events[2].ID)
}

func TestInMemoryTimelineStore_RejectsInvalidInput(t *testing.T) {
	req := require.New(t)
	store := NewInMemoryTimelineStore(0)

	_, err := store.AppendEvent(context.Background(), "", testSender, domain.EventKindMessage, "msg")
	req.ErrorIs(err, domain.ErrEventInvalid)

	_, err = store.AppendEvent(context.Background(), "room-a", testSender, domain.EventKindMessage, "")
	req.ErrorIs(err, domain.ErrEventInvalid)

	_, err = store.ListEvents(context.Background(), "")
	req.ErrorIs(err, domain.ErrEventInvalid)
}

func TestInMemoryTimelineStore_EmptyRoom(t *testing.T) {
	store := NewInMemoryTimelineStore(0)

	events, err := store.ListEvents(context.Background(), "room-a")
	require.NoError(t, err)
	require.Empty(t, events)
}
