package service

import (
	"bingohall/internal/cache"
	"bingohall/internal/engine"
	"bingohall/internal/model"
	"bingohall/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	room   string
	user   string
	role   model.Role
	outbox []model.Message
}

// fakeRouter records every delivery per connection
type fakeRouter struct {
	mu    sync.Mutex
	conns map[string]*fakeConn
	order []string
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{conns: map[string]*fakeConn{}}
}

func (r *fakeRouter) connect(id, room, user string, role model.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &fakeConn{room: room, user: user, role: role}
	r.order = append(r.order, id)
}

func (r *fakeRouter) SendTo(connID string, m model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.outbox = append(c.outbox, roundTrip(m))
	}
}

func (r *fakeRouter) Broadcast(roomID string, m model.Message, exclude ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		c := r.conns[id]
		if c.room == roomID && !slices.Contains(exclude, id) {
			c.outbox = append(c.outbox, roundTrip(m))
		}
	}
}

func (r *fakeRouter) ConnectionsByRole(roomID string, role model.Role) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, id := range r.order {
		if c := r.conns[id]; c.room == roomID && c.role == role {
			out = append(out, id)
		}
	}
	return out
}

func (r *fakeRouter) ConnectionsByUser(roomID, userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, id := range r.order {
		if c := r.conns[id]; c.room == roomID && c.user == userID {
			out = append(out, id)
		}
	}
	return out
}

func (r *fakeRouter) Role(connID string) model.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		return c.role
	}
	return model.RolePlayer
}

func (r *fakeRouter) SetRole(connID string, role model.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.role = role
	}
}

// types lists the message types a connection received, in order
func (r *fakeRouter) types(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.conns[connID].outbox {
		out = append(out, m.Type)
	}
	return out
}

// last returns the newest message of type t delivered to connID
func (r *fakeRouter) last(t *testing.T, connID, msgType string) map[string]any {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	box := r.conns[connID].outbox
	for i := len(box) - 1; i >= 0; i-- {
		if box[i].Type == msgType {
			p, _ := box[i].Payload.(map[string]any)
			return p
		}
	}
	t.Fatalf("%s never received %s; got %v", connID, msgType, r.typesLocked(connID))
	return nil
}

func (r *fakeRouter) typesLocked(connID string) []string {
	var out []string
	for _, m := range r.conns[connID].outbox {
		out = append(out, m.Type)
	}
	return out
}

func (r *fakeRouter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		c.outbox = nil
	}
}

// roundTrip turns a payload into the generic JSON shape a client would see
func roundTrip(m model.Message) model.Message {
	raw, err := json.Marshal(m.Payload)
	if err != nil {
		panic(err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		panic(err)
	}
	return model.Message{Type: m.Type, Payload: payload}
}

type stubOptions struct {
	data json.RawMessage
	err  error
}

func (s stubOptions) FetchGameOptions(context.Context) (json.RawMessage, error) {
	return s.data, s.err
}

type memHistory struct {
	mu   sync.Mutex
	recs []*model.GameRecord
}

func (h *memHistory) Insert(_ context.Context, rec *model.GameRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func (h *memHistory) ListByRoom(_ context.Context, roomID string, _ int64) ([]*model.GameRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*model.GameRecord
	for _, r := range h.recs {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return out, nil
}

const testRoom = "room-1"

type harness struct {
	ctx     context.Context
	repo    repository.RoomRepo
	router  *fakeRouter
	history *memHistory
	rooms   *RoomService
	players *PlayerService
	disp    *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := repository.NewRoomRepo(cache.NewMemoryStore())
	router := newFakeRouter()
	history := &memHistory{}
	rng := engine.NewRand(42)
	rooms := NewRoomService(repo, history, router, stubOptions{data: json.RawMessage(`{"theme":"classic"}`)}, rng)
	players := NewPlayerService(repo, router, rng, rooms)
	return &harness{
		ctx:     context.Background(),
		repo:    repo,
		router:  router,
		history: history,
		rooms:   rooms,
		players: players,
		disp:    NewDispatcher(rooms, players, router),
	}
}

func identity(id string) *model.Identity {
	return &model.Identity{ID: id, Username: "name-" + id}
}

// req builds the request for a registered connection
func (h *harness) req(connID string) Request {
	h.router.mu.Lock()
	c := h.router.conns[connID]
	h.router.mu.Unlock()
	return Request{ConnID: connID, RoomID: c.room, User: identity(c.user)}
}

func (h *harness) do(t *testing.T, connID string, ev model.Event) error {
	t.Helper()
	return h.disp.Handle(h.ctx, h.req(connID), ev)
}

func numberCard(owner string) *model.BingoCard {
	return &model.BingoCard{
		UserID:          owner,
		CardGrid:        model.Grid5,
		CardType:        model.CardTraditional,
		PlayingSettings: model.Settings{"selectedPattern": "0,1,2,3,4"},
	}
}

// createRoom registers a caller connection "caller" and creates the room
func (h *harness) createRoom(t *testing.T, capacity int) {
	t.Helper()
	h.router.connect("caller", testRoom, "host", model.RolePlayer)
	require.NoError(t, h.do(t, "caller", model.CreateGame{RoomID: testRoom, BingoCard: numberCard("host"), PlayerCapacity: capacity}))
}

// join connects a player and joins them
func (h *harness) join(t *testing.T, user string) {
	t.Helper()
	h.router.connect("conn-"+user, testRoom, user, model.RolePlayer)
	require.NoError(t, h.do(t, "conn-"+user, model.JoinGame{}))
}

func (h *harness) room(t *testing.T) *model.Room {
	t.Helper()
	room, err := h.repo.Load(h.ctx, testRoom)
	require.NoError(t, err)
	return room
}

func (h *harness) player(t *testing.T, user string) *model.PlayerState {
	t.Helper()
	ps, err := h.repo.LoadPlayer(h.ctx, testRoom, user)
	require.NoError(t, err)
	require.NotNil(t, ps)
	return ps
}

func gameErrType(t *testing.T, err error) string {
	t.Helper()
	var gerr *GameError
	require.True(t, errors.As(err, &gerr), "expected *GameError, got %v", err)
	return gerr.Type
}
