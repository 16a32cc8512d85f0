package room

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrManagerClosed = errors.New("room manager is shut down")
	ErrRoomClosed    = errors.New("room is closed")
)

const (
	DefaultInboxSize    = 256
	DefaultEventTimeout = 15 * time.Second
)

// Manager keeps the registry of live room actors
type Manager struct {
	mu        sync.Mutex
	actors    map[string]*actor
	draining  map[string]chan struct{}
	conns     map[string]int
	handler   Handler
	inboxSize int
	timeout   time.Duration
	closed    bool
}

func NewManager(h Handler, inboxSize int, timeout time.Duration) *Manager {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	return &Manager{
		actors:    make(map[string]*actor),
		draining:  make(map[string]chan struct{}),
		conns:     make(map[string]int),
		handler:   h,
		inboxSize: inboxSize,
		timeout:   timeout,
	}
}

// actorFor returns the room's actor, starting one if needed. Caller holds m.mu.
func (m *Manager) actorFor(roomID string) *actor {
	a, ok := m.actors[roomID]
	if !ok {
		var after <-chan struct{}
		if prev, ok := m.draining[roomID]; ok {
			after = prev
			delete(m.draining, roomID)
		}
		a = newActor(roomID, m.handler, m.inboxSize, m.timeout, after)
		m.actors[roomID] = a
		go a.run()
		log.Debug().Str("room", roomID).Msg("room actor started")
	}
	return a
}

// Acquire registers a live connection for the room
func (m *Manager) Acquire(roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	m.conns[roomID]++
	m.actorFor(roomID)
	return nil
}

// Release drops a connection; the actor stops once the last one leaves and
// its queued events are done
func (m *Manager) Release(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conns[roomID] > 1 {
		m.conns[roomID]--
		return
	}
	delete(m.conns, roomID)
	if a, ok := m.actors[roomID]; ok {
		delete(m.actors, roomID)
		a.stop()
		m.draining[roomID] = a.stopped
		go m.forget(roomID, a.stopped)
		log.Debug().Str("room", roomID).Msg("room actor released")
	}
}

// forget drops the drain marker once the stopped actor is done, unless a newer actor took it
func (m *Manager) forget(roomID string, stopped chan struct{}) {
	<-stopped
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draining[roomID] == stopped {
		delete(m.draining, roomID)
	}
}

// Submit queues ev for the room. It blocks while the inbox is full.
func (m *Manager) Submit(ctx context.Context, req service.Request, ev model.Event) error {
	env := Envelope{Req: req, Event: ev}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	a := m.actorFor(req.RoomID)
	// enqueue under the lock when there is room, so a concurrent Release
	// cannot stop the actor between lookup and send
	select {
	case a.inbox <- env:
		m.mu.Unlock()
		return nil
	default:
	}
	m.mu.Unlock()

	select {
	case a.inbox <- env:
		return nil
	case <-a.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rooms returns the number of live actors
func (m *Manager) Rooms() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actors)
}

// Shutdown stops every actor and waits for queued events to finish
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	actors := make([]*actor, 0, len(m.actors))
	for id, a := range m.actors {
		actors = append(actors, a)
		delete(m.actors, id)
		a.stop()
	}
	m.conns = make(map[string]int)
	m.mu.Unlock()

	for _, a := range actors {
		select {
		case <-a.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	log.Info().Int("rooms", len(actors)).Msg("room manager stopped")
	return nil
}
