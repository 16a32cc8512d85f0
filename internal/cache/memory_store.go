package cache

import (
	"context"
	"strings"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]map[string][]byte
	closed bool
}

// NewMemoryStore is a process local store for development and tests
func NewMemoryStore() RoomStore {
	return &memoryStore{rooms: make(map[string]map[string][]byte)}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func (s *memoryStore) Get(ctx context.Context, room, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	v, ok := s.rooms[room][key]
	if !ok {
		return nil, nil
	}
	return clone(v), nil
}

func (s *memoryStore) GetMany(ctx context.Context, room string, keys []string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.rooms[room][k]; ok {
			out[k] = clone(v)
		}
	}
	return out, nil
}

func (s *memoryStore) PutMany(ctx context.Context, room string, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	kv, ok := s.rooms[room]
	if !ok {
		kv = make(map[string][]byte, len(entries))
		s.rooms[room] = kv
	}
	for k, v := range entries {
		kv[k] = clone(v)
	}
	return nil
}

func (s *memoryStore) List(ctx context.Context, room, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	out := make(map[string][]byte)
	for k, v := range s.rooms[room] {
		if strings.HasPrefix(k, prefix) {
			out[k] = clone(v)
		}
	}
	return out, nil
}

func (s *memoryStore) DeleteAll(ctx context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.rooms, room)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
