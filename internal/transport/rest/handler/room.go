package handler

import (
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"bingohall/internal/transport/rest/middleware"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const defaultHistoryLimit = 20

// RoomHandler serves read-only room queries
type RoomHandler struct {
	rooms   repository.RoomRepo
	history repository.HistoryRepo
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms repository.RoomRepo, history repository.HistoryRepo) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		history: history,
	}
}

// State handles GET /v1/rooms/{roomId}/state
func (h *RoomHandler) State(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	room, err := h.rooms.Load(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("load room failed")
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}
	if !room.Exists() {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	ps, err := h.rooms.LoadPlayer(r.Context(), roomID, id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	isCaller := room.Caller != nil && room.Caller.UserID == id.ID
	writeJSON(w, http.StatusOK, room.View(isCaller, ps))
}

// Players handles GET /v1/rooms/{roomId}/players
func (h *RoomHandler) Players(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	players, err := h.rooms.ListPlayers(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("list players failed")
		writeError(w, http.StatusInternalServerError, "failed to list players")
		return
	}

	status := model.PlayerStatus(r.URL.Query().Get("status"))
	if status != "" {
		players = model.FilterByStatus(players, status)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId":  roomID,
		"players": model.Summaries(players),
	})
}

// History handles GET /v1/rooms/{roomId}/history?limit=N
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	limit := int64(defaultHistoryLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.history.ListByRoom(r.Context(), roomID, limit)
	if err != nil {
		log.Error().Err(err).Str("room", roomID).Msg("list history failed")
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId": roomID,
		"games":  records,
	})
}
