package ws

import (
	"context"
	"time"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/metrics"
)

const (
	snapshotTimeout = 10 * time.Second
	submitTimeout   = 15 * time.Second
)

// Core is the realtime hub. One goroutine owns the register, unregister and
// broadcast channels, so session membership changes and fan-out are
// serialized without locks on the hot path.
type Core struct {
	registry   *SessionRegistry
	register   chan *Session
	unregister chan *Session
	broadcast  chan *Frame

	store   domain.TimelineStore
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewCore(store domain.TimelineStore, logger logging.Logger, m *metrics.Metrics) *Core {
	return &Core{
		registry:   NewSessionRegistry(),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		broadcast:  make(chan *Frame, 256),
		store:      store,
		logger:     logger,
		metrics:    m,
	}
}

func (c *Core) Run() {
	for {
		select {
		case session := <-c.register:
			c.handleRegister(session)

		case session := <-c.unregister:
			c.handleUnregister(session)

		case frame := <-c.broadcast:
			c.handleBroadcast(frame)
		}
	}
}

// Attach performs the snapshot-then-subscribe handshake: load the room's
// history, seed the session's delivery guard with it, queue the snapshot
// frame, and only then register the session for live traffic. Events appended
// between the snapshot read and registration are not replayed; the client
// sees them on its next reconnect.
func (c *Core) Attach(ctx context.Context, session *Session) error {
	snapCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	events, err := c.store.ListEvents(snapCtx, session.RoomID)
	if err != nil {
		return err
	}

	session.guard.Seed(events)
	session.Enqueue(NewSnapshot(session.RoomID, events))

	c.register <- session
	return nil
}

func (c *Core) handleRegister(session *Session) {
	previous, err := c.registry.Join(session, session.RoomID)
	if err != nil {
		c.logger.Warn(logging.Realtime, logging.Session, "register rejected", map[logging.ExtraKey]any{
			logging.SessionId:    session.ID,
			logging.RoomId:       session.RoomID,
			logging.ErrorMessage: err.Error(),
		})
		session.Enqueue(NewJoinFailed(session.RoomID, "could not join room"))
		session.close()
		return
	}
	if previous == session.RoomID {
		return // idempotent re-join
	}
	if previous != "" {
		// Moving between rooms is an implicit leave of the old one.
		c.fanOut(previous, NewMemberLeft(previous, session.UserID, session.Name), nil)
	}

	c.metrics.SessionsActive.Set(float64(c.registry.SessionCount()))
	c.metrics.RoomsActive.Set(float64(c.registry.RoomCount()))
	c.metrics.SnapshotsDelivered.Inc()

	c.logger.Info(logging.Realtime, logging.Session, "session joined", map[logging.ExtraKey]any{
		logging.SessionId: session.ID,
		logging.RoomId:    session.RoomID,
	})

	c.fanOut(session.RoomID, NewMemberJoined(session.RoomID, session.UserID, session.Name), nil)
}

func (c *Core) handleUnregister(session *Session) {
	if !c.registry.Leave(session.ID) {
		return
	}
	session.close()

	c.metrics.SessionsActive.Set(float64(c.registry.SessionCount()))
	c.metrics.RoomsActive.Set(float64(c.registry.RoomCount()))

	c.logger.Info(logging.Realtime, logging.Session, "session left", map[logging.ExtraKey]any{
		logging.SessionId: session.ID,
		logging.RoomId:    session.RoomID,
	})

	c.fanOut(session.RoomID, NewMemberLeft(session.RoomID, session.UserID, session.Name), nil)
}

func (c *Core) handleBroadcast(frame *Frame) {
	var event *domain.TimelineEvent
	if frame.Type == TimelineEvent {
		if ev, ok := frame.Data.(domain.TimelineEvent); ok {
			event = &ev
		}
	}

	c.fanOut(frame.RoomID, frame, event)

	if event != nil {
		c.metrics.EventsPublished.WithLabelValues(string(event.Kind)).Inc()
	}
}

// fanOut delivers the frame to every live session in the room. Timeline
// events pass through each session's guard first; a full send buffer marks
// the session dead and removes it.
func (c *Core) fanOut(roomID string, frame *Frame, event *domain.TimelineEvent) {
	var dead []*Session

	for _, session := range c.registry.MembersOf(roomID) {
		if event != nil && !session.guard.ShouldDeliver(*event) {
			c.metrics.DedupSuppressed.Inc()
			continue
		}

		if !session.Enqueue(frame) {
			c.metrics.DeliveriesDropped.Inc()
			dead = append(dead, session)
		}
	}

	for _, session := range dead {
		c.logger.Warn(logging.Realtime, logging.Broadcast, "dropping slow session", map[logging.ExtraKey]any{
			logging.SessionId: session.ID,
			logging.RoomId:    session.RoomID,
		})
		c.handleUnregister(session)
	}
}

// Publish puts a freshly appended event on the broadcast path.
func (c *Core) Publish(event domain.TimelineEvent) {
	c.broadcast <- NewTimelineEvent(event)
}

func (c *Core) Register() chan<- *Session {
	return c.register
}

func (c *Core) Unregister() chan<- *Session {
	return c.unregister
}

func (c *Core) Broadcast() chan<- *Frame {
	return c.broadcast
}

func (c *Core) submitContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), submitTimeout)
}
