package ws

import (
	"bingohall/internal/model"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

const sendBuffer = 256

// Connection is one live WebSocket client inside a room
type Connection struct {
	ID     string
	RoomID string
	UserID string
	Role   model.Role
	Send   chan []byte
}

func NewConnection(id, roomID, userID string, role model.Role) *Connection {
	return &Connection{
		ID:     id,
		RoomID: roomID,
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, sendBuffer),
	}
}

type roomConns struct {
	all    map[string]*Connection
	byRole map[model.Role]map[string]*Connection
	byUser map[string]map[string]*Connection
}

func newRoomConns() *roomConns {
	return &roomConns{
		all:    make(map[string]*Connection),
		byRole: make(map[model.Role]map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
	}
}

func addTo[K comparable](idx map[K]map[string]*Connection, k K, c *Connection) {
	if idx[k] == nil {
		idx[k] = make(map[string]*Connection)
	}
	idx[k][c.ID] = c
}

func removeFrom[K comparable](idx map[K]map[string]*Connection, k K, id string) {
	if set, ok := idx[k]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(idx, k)
		}
	}
}

// Hub is the connection registry. It implements service.Router; deliveries
// never block, a full send buffer drops that one message.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomConns
	conns map[string]*Connection
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*roomConns),
		conns: make(map[string]*Connection),
	}
}

// Register adds a connection
func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rc, ok := h.rooms[c.RoomID]
	if !ok {
		rc = newRoomConns()
		h.rooms[c.RoomID] = rc
	}
	rc.all[c.ID] = c
	addTo(rc.byRole, c.Role, c)
	addTo(rc.byUser, c.UserID, c)
	h.conns[c.ID] = c
	log.Debug().Str("room", c.RoomID).Str("user", c.UserID).Str("conn", c.ID).Str("role", string(c.Role)).Msg("connection registered")
}

// Unregister removes a connection and closes its send channel
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.conns[c.ID]; !ok || existing != c {
		return
	}
	delete(h.conns, c.ID)
	if rc, ok := h.rooms[c.RoomID]; ok {
		delete(rc.all, c.ID)
		removeFrom(rc.byRole, c.Role, c.ID)
		removeFrom(rc.byUser, c.UserID, c.ID)
		if len(rc.all) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
	close(c.Send)
	log.Debug().Str("room", c.RoomID).Str("conn", c.ID).Msg("connection unregistered")
}

func encode(msg model.Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to encode message")
		return nil, false
	}
	return data, true
}

// deliver must run with h.mu held
func deliver(c *Connection, data []byte) {
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("room", c.RoomID).Str("conn", c.ID).Msg("send buffer full, message dropped")
	}
}

func (h *Hub) SendTo(connID string, msg model.Message) {
	data, ok := encode(msg)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[connID]; ok {
		deliver(c, data)
	}
}

func (h *Hub) Broadcast(roomID string, msg model.Message, exclude ...string) {
	data, ok := encode(msg)
	if !ok {
		return
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	rc, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for id, c := range rc.all {
		if _, excluded := skip[id]; !excluded {
			deliver(c, data)
		}
	}
}

func ids(set map[string]*Connection) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (h *Hub) ConnectionsByRole(roomID string, role model.Role) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rc, ok := h.rooms[roomID]; ok {
		return ids(rc.byRole[role])
	}
	return nil
}

func (h *Hub) ConnectionsByUser(roomID, userID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rc, ok := h.rooms[roomID]; ok {
		return ids(rc.byUser[userID])
	}
	return nil
}

func (h *Hub) Role(connID string) model.Role {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[connID]; ok {
		return c.Role
	}
	return model.RolePlayer
}

// SetRole moves a connection to another role index
func (h *Hub) SetRole(connID string, role model.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok || c.Role == role {
		return
	}
	if rc, ok := h.rooms[c.RoomID]; ok {
		removeFrom(rc.byRole, c.Role, c.ID)
		addTo(rc.byRole, role, c)
	}
	c.Role = role
}

// RoomSize returns the number of live connections in the room
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if rc, ok := h.rooms[roomID]; ok {
		return len(rc.all)
	}
	return 0
}
