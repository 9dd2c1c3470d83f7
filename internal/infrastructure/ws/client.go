package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
)

// Session is one live websocket connection, bound to a single room for its
// whole lifetime. Reconnects get a fresh session ID; nothing survives the
// connection.
type Session struct {
	ID     string
	RoomID string
	UserID string
	Name   string

	conn  *connWrapper
	send  chan *Frame
	guard *deliveryGuard

	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(conn *websocket.Conn, roomID, userID, name string, dedupWindow int) *Session {
	return &Session{
		ID:     uuid.NewString(),
		RoomID: roomID,
		UserID: userID,
		Name:   name,
		conn:   newConnWrapper(conn),
		send:   make(chan *Frame, 64), // buffered so a slow reader cannot stall the core
		guard:  newDeliveryGuard(dedupWindow),
		done:   make(chan struct{}),
	}
}

// close tears the session down exactly once. The send channel is never
// closed; readers exit via done instead, which keeps Enqueue race-free.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Session) Sender() domain.Sender {
	return domain.Sender{
		UserID: s.UserID,
		Name:   s.Name,
	}
}

// ReadPump consumes client commands until the connection dies, then
// unregisters the session. Leaving is always implicit: closing the socket is
// the only way out of a room.
func (s *Session) ReadPump(core *Core, sequencer *Sequencer) {
	defer func() {
		core.Unregister() <- s
		s.close()
	}()

	s.conn.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.conn.SetPongHandler(func(string) error {
		return s.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				core.logger.Warn(logging.Realtime, logging.Session, "read error", map[logging.ExtraKey]any{
					logging.SessionId:    s.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.Enqueue(NewError(s.RoomID, "malformed command"))
			continue
		}

		s.handleCommand(core, sequencer, cmd)
	}
}

func (s *Session) handleCommand(core *Core, sequencer *Sequencer, cmd Command) {
	var kind domain.EventKind
	switch cmd.Type {
	case CmdSubmitMessage:
		kind = domain.EventKindMessage
	case CmdSubmitProof:
		kind = domain.EventKindProof
	default:
		s.Enqueue(NewError(s.RoomID, "unknown command type"))
		return
	}

	if cmd.Payload == "" {
		s.Enqueue(NewSubmitFailed(s.RoomID, "payload is required", false))
		return
	}

	ctx, cancel := core.submitContext()
	defer cancel()

	if _, err := sequencer.Submit(ctx, s.RoomID, s.Sender(), kind, cmd.Payload); err != nil {
		retry := errors.Is(err, domain.ErrStoreBusy)
		s.Enqueue(NewSubmitFailed(s.RoomID, "could not record event", retry))
	}
	// The appended event comes back through the broadcast path; no direct echo.
}

// WritePump drains the send buffer onto the socket and keeps the connection
// alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

// Enqueue offers a frame to the session without blocking. It reports false
// when the buffer is full, which the core treats as a dead subscriber.
func (s *Session) Enqueue(frame *Frame) bool {
	select {
	case <-s.done:
		return false
	case s.send <- frame:
		return true
	default:
		return false
	}
}
