package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabshare/tabshare/internal/domain"
)

func makeEvent(id int64, at time.Time) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:        id,
		RoomID:    "room-1",
		Kind:      domain.EventKindMessage,
		Payload:   "hello",
		CreatedAt: at,
	}
}

func TestDeliveryGuard_SuppressesDuplicates(t *testing.T) {
	req := require.New(t)
	guard := newDeliveryGuard(8)

	now := time.Now()
	event := makeEvent(1, now)

	req.True(guard.ShouldDeliver(event))
	req.False(guard.ShouldDeliver(event), "second delivery of the same event must be suppressed")
}

func TestDeliveryGuard_SuppressesStaleOrderKeys(t *testing.T) {
	req := require.New(t)
	guard := newDeliveryGuard(8)

	now := time.Now()
	req.True(guard.ShouldDeliver(makeEvent(5, now)))

	// An older event arriving late is behind the floor even though its ID was
	// never seen.
	req.False(guard.ShouldDeliver(makeEvent(3, now.Add(-time.Second))))

	// Same timestamp, lower ID: still not after.
	req.False(guard.ShouldDeliver(makeEvent(4, now)))

	// Strictly newer key goes through.
	req.True(guard.ShouldDeliver(makeEvent(6, now)))
}

func TestDeliveryGuard_WindowEviction(t *testing.T) {
	req := require.New(t)
	guard := newDeliveryGuard(4)

	now := time.Now()
	for i := int64(1); i <= 6; i++ {
		req.True(guard.ShouldDeliver(makeEvent(i, now.Add(time.Duration(i)*time.Millisecond))))
	}

	// IDs 1 and 2 have been evicted from the window, but the order-key floor
	// still rejects them.
	req.False(guard.ShouldDeliver(makeEvent(1, now.Add(time.Millisecond))))
	req.False(guard.ShouldDeliver(makeEvent(2, now.Add(2*time.Millisecond))))
}

func TestDeliveryGuard_SeedSuppressesSnapshotReplay(t *testing.T) {
	req := require.New(t)
	guard := newDeliveryGuard(8)

	now := time.Now()
	snapshot := []domain.TimelineEvent{
		makeEvent(1, now),
		makeEvent(2, now.Add(time.Millisecond)),
		makeEvent(3, now.Add(2*time.Millisecond)),
	}
	guard.Seed(snapshot)

	for _, event := range snapshot {
		req.False(guard.ShouldDeliver(event), "event %d was in the snapshot", event.ID)
	}

	req.True(guard.ShouldDeliver(makeEvent(4, now.Add(3*time.Millisecond))))
}

func TestDeliveryGuard_EmptySeed(t *testing.T) {
	req := require.New(t)
	guard := newDeliveryGuard(8)

	guard.Seed(nil)

	req.True(guard.ShouldDeliver(makeEvent(1, time.Now())))
}
