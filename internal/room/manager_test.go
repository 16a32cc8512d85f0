package room

import (
	"bingohall/internal/model"
	"bingohall/internal/service"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	seen     map[string][]string
	inFlight map[string]*int32
	overlap  atomic.Bool
	replies  []error
	delay    time.Duration
	panicOn  model.EventType
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: map[string][]string{}, inFlight: map[string]*int32{}}
}

func (h *recordingHandler) Handle(ctx context.Context, req service.Request, ev model.Event) error {
	h.mu.Lock()
	n, ok := h.inFlight[req.RoomID]
	if !ok {
		n = new(int32)
		h.inFlight[req.RoomID] = n
	}
	h.mu.Unlock()

	if atomic.AddInt32(n, 1) > 1 {
		h.overlap.Store(true)
	}
	defer atomic.AddInt32(n, -1)

	if ev.Type() == h.panicOn {
		panic("boom")
	}
	time.Sleep(h.delay)

	h.mu.Lock()
	h.seen[req.RoomID] = append(h.seen[req.RoomID], req.ConnID)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) Reply(_ service.Request, _ model.EventType, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replies = append(h.replies, err)
}

func (h *recordingHandler) order(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen[roomID]...)
}

func TestManager_SerializesPerRoomInOrder(t *testing.T) {
	h := newRecordingHandler()
	h.delay = time.Millisecond
	m := NewManager(h, 64, time.Second)
	ctx := context.Background()

	var want []string
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		want = append(want, id)
		require.NoError(t, m.Submit(ctx, service.Request{ConnID: id, RoomID: "r1"}, model.NextCall{}))
		require.NoError(t, m.Submit(ctx, service.Request{ConnID: id, RoomID: "r2"}, model.NextCall{}))
	}
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, want, h.order("r1"))
	assert.Equal(t, want, h.order("r2"))
	assert.False(t, h.overlap.Load(), "events of one room never overlap")
}

func TestManager_RecoversPanics(t *testing.T) {
	h := newRecordingHandler()
	h.panicOn = model.EventStartGame
	m := NewManager(h, 8, time.Second)
	ctx := context.Background()

	require.NoError(t, m.Submit(ctx, service.Request{ConnID: "c1", RoomID: "r"}, model.StartGame{}))
	require.NoError(t, m.Submit(ctx, service.Request{ConnID: "c2", RoomID: "r"}, model.NextCall{}))
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, []string{"c2"}, h.order("r"))
	require.Len(t, h.replies, 2)
	assert.Error(t, h.replies[0])
	assert.NoError(t, h.replies[1])
}

func TestManager_ReleaseStopsIdleActor(t *testing.T) {
	m := NewManager(newRecordingHandler(), 8, time.Second)

	require.NoError(t, m.Acquire("r"))
	require.NoError(t, m.Acquire("r"))
	assert.Equal(t, 1, m.Rooms())

	m.Release("r")
	assert.Equal(t, 1, m.Rooms(), "one connection is still live")
	m.Release("r")
	assert.Equal(t, 0, m.Rooms())
}

func TestManager_ClosedRejectsWork(t *testing.T) {
	m := NewManager(newRecordingHandler(), 8, time.Second)
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Submit(context.Background(), service.Request{RoomID: "r"}, model.NextCall{})
	assert.True(t, errors.Is(err, ErrManagerClosed))
	assert.ErrorIs(t, m.Acquire("r"), ErrManagerClosed)
}

func TestManager_ReopenedRoomWaitsForDrainingActor(t *testing.T) {
	h := newRecordingHandler()
	h.delay = 2 * time.Millisecond
	m := NewManager(h, 16, time.Second)
	ctx := context.Background()

	require.NoError(t, m.Acquire("r"))
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Submit(ctx, service.Request{ConnID: id, RoomID: "r"}, model.NextCall{}))
	}
	m.Release("r")
	for _, id := range []string{"e", "f"} {
		require.NoError(t, m.Submit(ctx, service.Request{ConnID: id, RoomID: "r"}, model.NextCall{}))
	}
	require.NoError(t, m.Shutdown(ctx))

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, h.order("r"))
	assert.False(t, h.overlap.Load())
}
