package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/configs"
	"github.com/tabshare/tabshare/internal/infrastructure/events"
	"github.com/tabshare/tabshare/internal/infrastructure/json"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/ws"
	"github.com/tabshare/tabshare/internal/presentation/utils"
)

type Handler struct {
	rooms     domain.RoomDirectory
	users     domain.UserRepository
	core      *ws.Core
	sequencer *ws.Sequencer
	publisher *events.RoomPublisher
	logger    logging.Logger
	timeline  configs.TimelineConfig
}

func NewHandler(
	rooms domain.RoomDirectory,
	users domain.UserRepository,
	core *ws.Core,
	sequencer *ws.Sequencer,
	publisher *events.RoomPublisher,
	logger logging.Logger,
	timeline configs.TimelineConfig,
) *Handler {
	return &Handler{
		rooms:     rooms,
		users:     users,
		core:      core,
		sequencer: sequencer,
		publisher: publisher,
		logger:    logger,
		timeline:  timeline,
	}
}

func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	creator, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			json.WriteUnauthorizedError(w, "Account no longer exists")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	menu := lo.Map(req.Menu, func(item menuItemRequest, _ int) domain.MenuItem {
		return domain.MenuItem{
			Name:       item.Name,
			PriceCents: item.PriceCents,
			PhotoURL:   item.PhotoURL,
		}
	})

	room, err := domain.NewRoom(creator, req.Title, menu)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.rooms.Create(r.Context(), room); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Room already exists")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := h.publisher.PublishRoomCreated(r.Context(), *room); err != nil {
		h.logger.Error(logging.RabbitMQ, logging.ExternalService, "publish room created failed", map[logging.ExtraKey]any{
			logging.RoomId:       room.ID,
			logging.ErrorMessage: err.Error(),
		})
	}

	json.Write(w, http.StatusCreated, toRoomResponse(room))
}

func (h *Handler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	rooms, err := h.rooms.ListForUser(r.Context(), id.UserID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	mapped := lo.Map(rooms, func(room domain.Room, _ int) roomResponse {
		return toRoomResponse(&room)
	})

	json.Write(w, http.StatusOK, roomListResponse{Rooms: mapped})
}

func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	room, ok := h.loadRoom(w, r)
	if !ok {
		return
	}

	if !room.IsParticipant(id.UserID) {
		json.WriteError(w, http.StatusForbidden, domain.ErrNotAParticipant, "You are not a participant of this room")
		return
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

// JoinRoomHandler grants room membership. Joining a room you already belong
// to succeeds and changes nothing.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	room, err := h.rooms.AddParticipant(r.Context(), roomID, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := h.publisher.PublishMemberJoined(r.Context(), roomID, id.UserID); err != nil {
		h.logger.Error(logging.RabbitMQ, logging.ExternalService, "publish member joined failed", map[logging.ExtraKey]any{
			logging.RoomId:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}

	json.Write(w, http.StatusOK, toRoomResponse(room))
}

// SessionHandler upgrades the connection and attaches a realtime session to
// the room: snapshot first, then live events.
func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	id, ok := utils.IdentityFrom(r.Context())
	if !ok {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	room, err := h.rooms.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	if !room.IsParticipant(id.UserID) {
		json.WriteError(w, http.StatusForbidden, domain.ErrNotAParticipant, "Join the room before opening a session")
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.Realtime, logging.Session, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.RoomId:       roomID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	session := ws.NewSession(conn, roomID, id.UserID, id.Name, h.timeline.DedupWindow)

	if err := h.core.Attach(r.Context(), session); err != nil {
		h.logger.Error(logging.Realtime, logging.Snapshot, "snapshot failed", map[logging.ExtraKey]any{
			logging.RoomId:       roomID,
			logging.SessionId:    session.ID,
			logging.ErrorMessage: err.Error(),
		})
		_ = conn.WriteJSON(ws.NewJoinFailed(roomID, "Could not load room history"))
		_ = conn.Close()
		return
	}

	go session.WritePump()
	go session.ReadPump(h.core, h.sequencer)
}

func (h *Handler) loadRoom(w http.ResponseWriter, r *http.Request) (*domain.Room, bool) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return nil, false
	}

	room, err := h.rooms.GetByID(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Room not found")
		default:
			json.WriteInternalError(w, err)
		}
		return nil, false
	}

	return room, true
}

func toRoomResponse(room *domain.Room) roomResponse {
	return roomResponse{
		ID:             room.ID,
		Title:          room.Title,
		Menu:           room.Menu,
		CreatorID:      room.CreatorID,
		ParticipantIDs: room.ParticipantIDs,
		CreatedAt:      room.CreatedAt,
	}
}
