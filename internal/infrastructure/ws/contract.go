package ws

import "github.com/tabshare/tabshare/internal/domain"

// Frame is the envelope for every message sent over the socket.
type Frame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Data   any    `json:"data,omitempty"`
}

// Command is what clients send: a submit request for a chat message or a
// payment proof. Everything else (join, leave) is driven by the connection
// lifecycle, not by commands.
type Command struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Payload structs
type SnapshotPayload struct {
	Events []domain.TimelineEvent `json:"events"`
}

type MemberPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

func NewSnapshot(roomID string, events []domain.TimelineEvent) *Frame {
	if events == nil {
		events = []domain.TimelineEvent{}
	}
	return &Frame{
		Type:   TimelineSnapshot,
		RoomID: roomID,
		Data:   SnapshotPayload{Events: events},
	}
}

func NewTimelineEvent(event domain.TimelineEvent) *Frame {
	return &Frame{
		Type:   TimelineEvent,
		RoomID: event.RoomID,
		Data:   event,
	}
}

func NewMemberJoined(roomID, userID, name string) *Frame {
	return &Frame{
		Type:   MemberJoined,
		RoomID: roomID,
		Data: MemberPayload{
			UserID: userID,
			Name:   name,
		},
	}
}

func NewMemberLeft(roomID, userID, name string) *Frame {
	return &Frame{
		Type:   MemberLeft,
		RoomID: roomID,
		Data: MemberPayload{
			UserID: userID,
			Name:   name,
		},
	}
}

func NewError(roomID, message string) *Frame {
	return &Frame{
		Type:   ErrorEvent,
		RoomID: roomID,
		Data: ErrorPayload{
			Message: message,
			Retry:   false,
		},
	}
}

func NewAuthError(roomID, message string) *Frame {
	return &Frame{
		Type:   AuthenticationError,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "AUTH_FAILED",
			Message: message,
			Retry:   true,
		},
	}
}

func NewJoinFailed(roomID, reason string) *Frame {
	return &Frame{
		Type:   JoinFailed,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "JOIN_FAILED",
			Message: reason,
			Retry:   true,
		},
	}
}

func NewSubmitFailed(roomID, reason string, retry bool) *Frame {
	return &Frame{
		Type:   SubmitFailed,
		RoomID: roomID,
		Data: ErrorPayload{
			Code:    "SUBMIT_FAILED",
			Message: reason,
			Retry:   retry,
		},
	}
}
