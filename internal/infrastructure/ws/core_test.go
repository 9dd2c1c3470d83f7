package ws

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/metrics"
	"github.com/tabshare/tabshare/internal/infrastructure/repository"
)

type nopLogger struct{}

func (nopLogger) Init() {}

func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

func newTestCore(store domain.TimelineStore) *Core {
	return NewCore(store, nopLogger{}, metrics.New(prometheus.NewRegistry()))
}

func awaitFrame(t *testing.T, s *Session, frameType string) *Frame {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-s.send:
			if frame.Type == frameType {
				return frame
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q frame", frameType)
		}
	}
}

func eventFromFrame(t *testing.T, frame *Frame) domain.TimelineEvent {
	t.Helper()

	event, ok := frame.Data.(domain.TimelineEvent)
	require.True(t, ok, "frame data is not a timeline event")
	return event
}

func TestCore_AttachDeliversSnapshotFirst(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	sender := domain.Sender{UserID: "alice", Name: "Alice"}

	_, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "first")
	req.NoError(err)
	second, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "second")
	req.NoError(err)

	core := newTestCore(store)
	go core.Run()

	session := newTestSession("room-a", "alice")
	req.NoError(core.Attach(context.Background(), session))

	// The snapshot is queued before the session subscribes, so it is always
	// the first frame out.
	frame := <-session.send
	req.Equal(TimelineSnapshot, frame.Type)

	snapshot, ok := frame.Data.(SnapshotPayload)
	req.True(ok)
	req.Len(snapshot.Events, 2)
	req.Equal(int64(1), snapshot.Events[0].ID)
	req.Equal(int64(2), snapshot.Events[1].ID)

	// A snapshot event arriving again over the live path is suppressed; the
	// next timeline frame the session sees is the genuinely new one.
	third, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "third")
	req.NoError(err)

	core.Publish(second)
	core.Publish(third)

	live := eventFromFrame(t, awaitFrame(t, session, TimelineEvent))
	req.Equal(int64(3), live.ID)
}

func TestCore_RoomIsolation(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	go core.Run()

	alice := newTestSession("room-a", "alice")
	bob := newTestSession("room-a", "bob")
	carol := newTestSession("room-b", "carol")

	for _, s := range []*Session{alice, bob, carol} {
		req.NoError(core.Attach(context.Background(), s))
	}

	sender := domain.Sender{UserID: "alice", Name: "Alice"}
	eventA, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "only for room a")
	req.NoError(err)
	eventB, err := store.AppendEvent(context.Background(), "room-b", sender, domain.EventKindProof, "only for room b")
	req.NoError(err)

	core.Publish(eventA)
	core.Publish(eventB)

	req.Equal("only for room a", eventFromFrame(t, awaitFrame(t, alice, TimelineEvent)).Payload)
	req.Equal("only for room a", eventFromFrame(t, awaitFrame(t, bob, TimelineEvent)).Payload)

	// Carol's first timeline frame is room B's event; room A traffic never
	// reached her.
	req.Equal("only for room b", eventFromFrame(t, awaitFrame(t, carol, TimelineEvent)).Payload)
}

func TestCore_DuplicatePublishSuppressed(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	go core.Run()

	session := newTestSession("room-a", "alice")
	req.NoError(core.Attach(context.Background(), session))

	sender := domain.Sender{UserID: "alice", Name: "Alice"}
	first, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "one")
	req.NoError(err)
	second, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "two")
	req.NoError(err)

	core.Publish(first)
	core.Publish(first)
	core.Publish(second)

	req.Equal(int64(1), eventFromFrame(t, awaitFrame(t, session, TimelineEvent)).ID)
	req.Equal(int64(2), eventFromFrame(t, awaitFrame(t, session, TimelineEvent)).ID)
}

func TestCore_MemberJoinAndLeaveAnnounced(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	go core.Run()

	alice := newTestSession("room-a", "alice")
	req.NoError(core.Attach(context.Background(), alice))
	awaitFrame(t, alice, MemberJoined) // her own join

	bob := newTestSession("room-a", "bob")
	req.NoError(core.Attach(context.Background(), bob))

	joined := awaitFrame(t, alice, MemberJoined)
	member, ok := joined.Data.(MemberPayload)
	req.True(ok)
	req.Equal("bob", member.UserID)

	core.Unregister() <- bob

	left := awaitFrame(t, alice, MemberLeft)
	member, ok = left.Data.(MemberPayload)
	req.True(ok)
	req.Equal("bob", member.UserID)
}

func TestCore_SlowSessionIsDropped(t *testing.T) {
	req := require.New(t)

	store := repository.NewInMemoryTimelineStore(0)
	core := newTestCore(store)
	go core.Run()

	session := newTestSession("room-a", "alice")
	req.NoError(core.Attach(context.Background(), session))

	require.Eventually(t, func() bool {
		return core.registry.SessionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Jam the send buffer so the next delivery cannot be queued.
	for {
		if !session.Enqueue(NewError("room-a", "filler")) {
			break
		}
	}

	sender := domain.Sender{UserID: "alice", Name: "Alice"}
	event, err := store.AppendEvent(context.Background(), "room-a", sender, domain.EventKindMessage, "overflow")
	req.NoError(err)
	core.Publish(event)

	require.Eventually(t, func() bool {
		return core.registry.SessionCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "a session with a full buffer must be removed")
}
