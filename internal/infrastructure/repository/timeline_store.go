package repository

import (
	"context"
	"sync"
	"time"

	"github.com/tabshare/tabshare/internal/domain"
)

type roomTimeline struct {
	seq    int64
	events []domain.TimelineEvent
}

// InMemoryTimelineStore keeps each room's timeline in process memory. It
// mirrors the mongo store's contract: per-room monotonic sequence numbers and
// non-decreasing creation timestamps within a room.
type InMemoryTimelineStore struct {
	mu            sync.Mutex
	rooms         map[string]*roomTimeline
	snapshotLimit int

	// now is swappable in tests.
	now func() time.Time
}

func NewInMemoryTimelineStore(snapshotLimit int) *InMemoryTimelineStore {
	return &InMemoryTimelineStore{
		rooms:         make(map[string]*roomTimeline),
		snapshotLimit: snapshotLimit,
		now:           time.Now,
	}
}

func (s *InMemoryTimelineStore) AppendEvent(_ context.Context, roomID string, sender domain.Sender, kind domain.EventKind, payload string) (domain.TimelineEvent, error) {
	if roomID == "" || !kind.Valid() || payload == "" {
		return domain.TimelineEvent{}, domain.ErrEventInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timeline, ok := s.rooms[roomID]
	if !ok {
		timeline = &roomTimeline{}
		s.rooms[roomID] = timeline
	}

	createdAt := s.now().UTC().Truncate(time.Millisecond)
	if n := len(timeline.events); n > 0 && createdAt.Before(timeline.events[n-1].CreatedAt) {
		// Clock went backwards; pin to the last event so order keys stay
		// monotonic within the room.
		createdAt = timeline.events[n-1].CreatedAt
	}

	timeline.seq++
	event := domain.TimelineEvent{
		ID:        timeline.seq,
		RoomID:    roomID,
		Sender:    sender,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: createdAt,
	}
	timeline.events = append(timeline.events, event)

	return event, nil
}

func (s *InMemoryTimelineStore) ListEvents(_ context.Context, roomID string) ([]domain.TimelineEvent, error) {
	if roomID == "" {
		return nil, domain.ErrEventInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timeline, ok := s.rooms[roomID]
	if !ok {
		return nil, nil
	}

	events := timeline.events
	if s.snapshotLimit > 0 && len(events) > s.snapshotLimit {
		events = events[len(events)-s.snapshotLimit:]
	}

	out := make([]domain.TimelineEvent, len(events))
	copy(out, events)
	return out, nil
}
