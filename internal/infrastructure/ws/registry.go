package ws

import (
	"errors"
	"sync"
)

var ErrSessionUnknown = errors.New("session is not registered")

type binding struct {
	session *Session
	roomID  string
}

// SessionRegistry tracks which room each live session belongs to. A session
// belongs to at most one room: joining the same room again is a no-op,
// joining a different room detaches the session from the previous one.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*binding            // session ID -> binding
	rooms    map[string]map[string]*Session // room ID -> session ID -> session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*binding),
		rooms:    make(map[string]map[string]*Session),
	}
}

// Join binds the session to the room. It returns the room the session was
// bound to before the call, if any; callers use it to announce the implicit
// leave when a session moves between rooms.
func (r *SessionRegistry) Join(session *Session, roomID string) (previous string, err error) {
	if session == nil || session.ID == "" || roomID == "" {
		return "", ErrSessionUnknown
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, exists := r.sessions[session.ID]; exists {
		if bound.roomID == roomID {
			return roomID, nil // idempotent
		}
		previous = bound.roomID
		r.removeFromRoom(previous, session.ID)
		bound.roomID = roomID
	} else {
		r.sessions[session.ID] = &binding{session: session, roomID: roomID}
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Session)
		r.rooms[roomID] = members
	}
	members[session.ID] = session

	return previous, nil
}

// Leave removes the session. Returns false if the session was not registered,
// which makes repeated leaves harmless.
func (r *SessionRegistry) Leave(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	bound, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	delete(r.sessions, sessionID)
	r.removeFromRoom(bound.roomID, sessionID)
	return true
}

// removeFromRoom detaches the session from the room's member set. Callers
// hold r.mu.
func (r *SessionRegistry) removeFromRoom(roomID, sessionID string) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// MembersOf returns the live sessions subscribed to the room. The slice is a
// point-in-time copy; it does not reflect joins or leaves that land after the
// call returns.
func (r *SessionRegistry) MembersOf(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}

	out := make([]*Session, 0, len(members))
	for _, session := range members {
		out = append(out, session)
	}
	return out
}

func (r *SessionRegistry) RoomOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bound, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return bound.roomID, true
}

func (r *SessionRegistry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
