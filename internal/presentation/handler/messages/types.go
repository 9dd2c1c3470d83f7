package messages

import "time"

// createMessageRequest appends a chat message to the room timeline
type createMessageRequest struct {
	Content string `json:"content" minLength:"1"`
}

type senderResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type messageResponse struct {
	ID        int64          `json:"id"`
	RoomID    string         `json:"roomId"`
	Sender    senderResponse `json:"sender"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

type messageListResponse struct {
	Messages []messageResponse `json:"messages"`
}
