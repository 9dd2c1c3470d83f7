package proofs

import "time"

// createProofRequest records a payment-proof file reference on the timeline
type createProofRequest struct {
	FileURL string `json:"fileUrl" format:"uri"`
}

type senderResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type proofResponse struct {
	ID        int64          `json:"id"`
	RoomID    string         `json:"roomId"`
	Sender    senderResponse `json:"sender"`
	FileURL   string         `json:"fileUrl"`
	CreatedAt time.Time      `json:"createdAt"`
}

type proofListResponse struct {
	Proofs []proofResponse `json:"proofs"`
}
