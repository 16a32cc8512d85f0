package cache

import (
	"context"
	"errors"
	"strings"
)

var ErrStoreClosed = errors.New("store closed")

// RoomStore holds the durable key/value state of rooms, one keyspace per room.
// A missing key is not an error: Get returns nil and GetMany omits it.
type RoomStore interface {
	Get(ctx context.Context, room, key string) ([]byte, error)
	GetMany(ctx context.Context, room string, keys []string) (map[string][]byte, error)
	PutMany(ctx context.Context, room string, entries map[string][]byte) error
	// List returns every entry of the room whose key starts with prefix
	List(ctx context.Context, room, prefix string) (map[string][]byte, error)
	DeleteAll(ctx context.Context, room string) error
	Close() error
}

// escapeGlob quotes the characters redis MATCH patterns treat specially
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
