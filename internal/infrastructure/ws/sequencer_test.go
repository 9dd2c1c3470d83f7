package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/repository"
)

func TestSequencer_AssignsMonotonicIDs(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	sequencer := NewSequencer(store, core, nopLogger{})

	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	for i := int64(1); i <= 3; i++ {
		event, err := sequencer.Submit(context.Background(), "room-a", sender, domain.EventKindMessage, "msg")
		req.NoError(err)
		req.Equal(i, event.ID)
	}
}

func TestSequencer_PublishOrderMatchesAssignedOrder(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	sequencer := NewSequencer(store, core, nopLogger{})

	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	const total = 50
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sequencer.Submit(context.Background(), "room-a", sender, domain.EventKindMessage, "msg")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// The core's Run loop is not running, so published frames accumulate on
	// the broadcast channel in publish order.
	var lastID int64
	for i := 0; i < total; i++ {
		select {
		case frame := <-core.broadcast:
			event, ok := frame.Data.(domain.TimelineEvent)
			req.True(ok)
			req.Greater(event.ID, lastID, "publish order must follow assigned order")
			lastID = event.ID
		case <-time.After(2 * time.Second):
			t.Fatalf("missing published event %d", i+1)
		}
	}

	events, err := store.ListEvents(context.Background(), "room-a")
	req.NoError(err)
	req.Len(events, total)
}

func TestSequencer_RoomsAreIndependent(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	sequencer := NewSequencer(store, core, nopLogger{})

	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	a, err := sequencer.Submit(context.Background(), "room-a", sender, domain.EventKindMessage, "msg")
	req.NoError(err)
	b, err := sequencer.Submit(context.Background(), "room-b", sender, domain.EventKindMessage, "msg")
	req.NoError(err)

	req.Equal(int64(1), a.ID)
	req.Equal(int64(1), b.ID, "sequences are per room, not global")
}

func TestSequencer_RejectsInvalidInput(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	sequencer := NewSequencer(store, core, nopLogger{})

	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	_, err := sequencer.Submit(context.Background(), "", sender, domain.EventKindMessage, "msg")
	req.ErrorIs(err, domain.ErrEventInvalid)

	_, err = sequencer.Submit(context.Background(), "room-a", sender, "bogus", "msg")
	req.ErrorIs(err, domain.ErrEventInvalid)

	_, err = sequencer.Submit(context.Background(), "room-a", sender, domain.EventKindMessage, "")
	req.ErrorIs(err, domain.ErrEventInvalid)
}

// blockingStore parks every append until released, for backpressure tests.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) AppendEvent(_ context.Context, roomID string, sender domain.Sender, kind domain.EventKind, payload string) (domain.TimelineEvent, error) {
	s.entered <- struct{}{}
	<-s.release
	return domain.TimelineEvent{ID: 1, RoomID: roomID, Sender: sender, Kind: kind, Payload: payload, CreatedAt: time.Now()}, nil
}

func (s *blockingStore) ListEvents(context.Context, string) ([]domain.TimelineEvent, error) {
	return nil, nil
}

func TestSequencer_FullQueueFailsFast(t *testing.T) {
	req := require.New(t)

	store := &blockingStore{
		entered: make(chan struct{}, sequencerQueueSize+2),
		release: make(chan struct{}),
	}
	defer close(store.release)

	core := newTestCore(store)
	sequencer := NewSequencer(store, core, nopLogger{})

	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	// First submit occupies the worker; the cancelled context makes Submit
	// return without waiting for the parked append.
	_, err := sequencer.Submit(cancelled, "room-a", sender, domain.EventKindMessage, "msg")
	req.ErrorIs(err, context.Canceled)
	<-store.entered // worker is now parked inside AppendEvent

	for i := 0; i < sequencerQueueSize; i++ {
		_, err := sequencer.Submit(cancelled, "room-a", sender, domain.EventKindMessage, "msg")
		req.ErrorIs(err, context.Canceled)
	}

	_, err = sequencer.Submit(cancelled, "room-a", sender, domain.EventKindMessage, "msg")
	req.ErrorIs(err, domain.ErrStoreBusy)
}
