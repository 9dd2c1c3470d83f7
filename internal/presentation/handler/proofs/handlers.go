package proofs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/events"
	"github.com/tabshare/tabshare/internal/infrastructure/json"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/validate"
	"github.com/tabshare/tabshare/internal/infrastructure/ws"
	"github.com/tabshare/tabshare/internal/presentation/utils"
)

type Handler struct {
	rooms     domain.RoomDirectory
	store     domain.TimelineStore
	sequencer *ws.Sequencer
	publisher *events.RoomPublisher
	logger    logging.Logger
}

func NewHandler(
	rooms domain.RoomDirectory,
	store domain.TimelineStore,
	sequencer *ws.Sequencer,
	publisher *events.RoomPublisher,
	logger logging.Logger,
) *Handler {
	return &Handler{
		rooms:     rooms,
		store:     store,
		sequencer: sequencer,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProofHandler validates the file reference and appends a proof event.
// The file itself lives in external storage; only the URL travels through the
// timeline.
func (h *Handler) CreateProofHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	roomID, ok := h.authorizeRoom(w, r, id.UserID)
	if !ok {
		return
	}

	var req createProofRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Field("fileUrl", validate.Required(), validate.MaxLength(2048), validate.HTTPURL())(req.FileURL); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	sender := domain.Sender{UserID: id.UserID, Name: id.Name}

	event, err := h.sequencer.Submit(r.Context(), roomID, sender, domain.EventKindProof, req.FileURL)
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

	if err := h.publisher.PublishProofUploaded(r.Context(), event); err != nil {
		h.logger.Error(logging.RabbitMQ, logging.ExternalService, "publish proof uploaded failed", map[logging.ExtraKey]any{
			logging.RoomId:       roomID,
			logging.EventId:      event.ID,
			logging.ErrorMessage: err.Error(),
		})
	}

	json.Write(w, http.StatusCreated, toProofResponse(event))
}

func (h *Handler) ListProofsHandler(w http.ResponseWriter, r *http.Request) {
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

	onlyProofs := lo.Filter(events, func(event domain.TimelineEvent, _ int) bool {
		return event.Kind == domain.EventKindProof
	})

	json.Write(w, http.StatusOK, proofListResponse{
		Proofs: lo.Map(onlyProofs, func(event domain.TimelineEvent, _ int) proofResponse {
			return toProofResponse(event)
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

func toProofResponse(event domain.TimelineEvent) proofResponse {
	return proofResponse{
		ID:        event.ID,
		RoomID:    event.RoomID,
		Sender:    senderResponse{UserID: event.Sender.UserID, Name: event.Sender.Name},
		FileURL:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
}
