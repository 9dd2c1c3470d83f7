package messages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/json"
	"github.com/tabshare/tabshare/internal/infrastructure/validate"
	"github.com/tabshare/tabshare/internal/infrastructure/ws"
	"github.com/tabshare/tabshare/internal/presentation/utils"
)

const maxMessageLength = 4096

type Handler struct {
	rooms     domain.RoomDirectory
	store     domain.TimelineStore
	sequencer *ws.Sequencer
}

func NewHandler(rooms domain.RoomDirectory, store domain.TimelineStore, sequencer *ws.Sequencer) *Handler {
	return &Handler{
		rooms:     rooms,
		store:     store,
		sequencer: sequencer,
	}
}

// CreateMessageHandler appends a message through the same sequenced path the
// websocket uses, so live sessions see REST appends too.
func (h *Handler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	roomID, ok := h.authorizeRoom(w, r, id.UserID)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Field("content", validate.Required(), validate.MaxLength(maxMessageLength))(req.Content); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	sender := domain.Sender{UserID: id.UserID, Name: id.Name}

	event, err := h.sequencer.Submit(r.Context(), roomID, sender, domain.EventKindMessage, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStoreBusy):
			json.WriteError(w, http.StatusServiceUnavailable, err, "Room is busy, try again")
		case errors.Is(err, domain.ErrEventInvalid):
			json.WriteValidationError(w, err)
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, toMessageResponse(event))
}

func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	roomID, ok := h.authorizeRoom(w, r, id.UserID)
	if !ok {
		return
	}

	events, err := h.store.ListEvents(r.Context(), roomID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	onlyMessages := lo.Filter(events, func(event domain.TimelineEvent, _ int) bool {
		return event.Kind == domain.EventKindMessage
	})

	json.Write(w, http.StatusOK, messageListResponse{
		Messages: lo.Map(onlyMessages, func(event domain.TimelineEvent, _ int) messageResponse {
			return toMessageResponse(event)
		}),
	})
}

func (h *Handler) authorizeRoom(w http.ResponseWriter, r *http.Request, userID string) (string, bool) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return "", false
	}

	room, err := h.rooms.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return "", false
	}

	if !room.IsParticipant(userID) {
		json.WriteError(w, http.StatusForbidden, domain.ErrNotAParticipant, "You are not a participant of this room")
		return "", false
	}

	return roomID, true
}

func toMessageResponse(event domain.TimelineEvent) messageResponse {
	return messageResponse{
		ID:        event.ID,
		RoomID:    event.RoomID,
		Sender:    senderResponse{UserID: event.Sender.UserID, Name: event.Sender.Name},
		Content:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
}
