package ws

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // card configs carry image urls
	submitWait     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Rooms is the room execution layer the handler feeds
type Rooms interface {
	Acquire(roomID string) error
	Release(roomID string)
	Submit(ctx context.Context, req service.Request, ev model.Event) error
}

// Handler handles WebSocket connections
type Handler struct {
	hub   *Hub
	rooms Rooms
	auth  service.TokenVerifier
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, rooms Rooms, auth service.TokenVerifier) *Handler {
	return &Handler{
		hub:   hub,
		rooms: rooms,
		auth:  auth,
	}
}

// BearerToken reads the token from the query string or the Authorization header
func BearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	authHeader := r.Header.Get("Authorization")
	if t, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return t
	}
	return ""
}

// RoomWS handles GET /v1/ws/rooms/{roomId}
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Verify(BearerToken(r))
	if err != nil {
		http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		return
	}

	role := model.RolePlayer
	if r.URL.Query().Get("caller") == "true" {
		role = model.RoleCaller
	}

	if err := h.rooms.Acquire(roomID); err != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	// registered before the handshake completes so no broadcast after it is missed
	conn := NewConnection(uuid.New().String(), roomID, user.ID, role)
	h.hub.Register(conn)

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.Unregister(conn)
		h.rooms.Release(roomID)
		log.Warn().Err(err).Str("room", roomID).Msg("websocket upgrade failed")
		return
	}
	log.Info().Str("room", roomID).Str("user", user.ID).Str("role", string(role)).Msg("client connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, user)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, user *model.Identity) {
	defer func() {
		h.hub.Unregister(conn)
		h.rooms.Release(conn.RoomID)
		wsConn.Close()
		log.Info().Str("room", conn.RoomID).Str("user", conn.UserID).Msg("client disconnected")
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	req := service.Request{ConnID: conn.ID, RoomID: conn.RoomID, User: user}
	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("room", conn.RoomID).Msg("websocket read error")
			}
			return
		}

		ev, err := model.DecodeEvent(data)
		if err != nil {
			h.hub.SendTo(conn.ID, service.Validation("Invalid message", err).Envelope())
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), submitWait)
		err = h.rooms.Submit(ctx, req, ev)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("room", conn.RoomID).Str("event", string(ev.Type())).Msg("event not queued")
			h.hub.SendTo(conn.ID, service.Processing().Envelope())
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
