package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble/v2"
)

type pebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens an embedded store under dir. Keys are laid out as
// <room> NUL <key> so one room is a single contiguous range.
func NewPebbleStore(dir string) (RoomStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble db: %w", err)
	}
	return &pebbleStore{db: db}, nil
}

func roomKey(room, key string) []byte {
	return []byte(room + "\x00" + key)
}

// roomBounds covers every key of room starting with prefix
func roomBounds(room, prefix string) (lower, upper []byte) {
	lower = roomKey(room, prefix)
	upper = prefixEnd(lower)
	return lower, upper
}

// prefixEnd is the smallest key greater than every key starting with p
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (s *pebbleStore) Get(ctx context.Context, room, key string) ([]byte, error) {
	data, closer, err := s.db.Get(roomKey(room, key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *pebbleStore) GetMany(ctx context.Context, room string, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := s.Get(ctx, room, k)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[k] = v
		}
	}
	return out, nil
}

func (s *pebbleStore) PutMany(ctx context.Context, room string, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for k, v := range entries {
		if err := b.Set(roomKey(room, k), v, nil); err != nil {
			return fmt.Errorf("batch set %s: %w", k, err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	return nil
}

func (s *pebbleStore) List(ctx context.Context, room, prefix string) (map[string][]byte, error) {
	lower, upper := roomBounds(room, prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("pebble new iter: %w", err)
	}
	defer iter.Close()

	out := make(map[string][]byte)
	roomPrefix := room + "\x00"
	for ok := iter.First(); ok; ok = iter.Next() {
		k := strings.TrimPrefix(string(iter.Key()), roomPrefix)
		out[k] = append([]byte(nil), iter.Value()...)
	}
	return out, iter.Error()
}

func (s *pebbleStore) DeleteAll(ctx context.Context, room string) error {
	lower, upper := roomBounds(room, "")
	return s.db.DeleteRange(lower, upper, pebble.Sync)
}

func (s *pebbleStore) Close() error {
	return s.db.Close()
}
