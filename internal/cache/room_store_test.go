package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]RoomStore {
	t.Helper()

	mr := miniredis.RunT(t)
	rs := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	ps, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)

	out := map[string]RoomStore{
		"memory": NewMemoryStore(),
		"redis":  rs,
		"pebble": ps,
	}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestRoomStore(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := s.Get(ctx, "r1", "roomId")
			require.NoError(t, err)
			assert.Nil(t, v, "missing key is nil without error")

			require.NoError(t, s.PutMany(ctx, "r1", map[string][]byte{
				"roomId":        []byte(`"r1"`),
				"gameStatus":    []byte(`1`),
				"userState-u1":  []byte(`{"userId":"u1"}`),
				"userState-u2":  []byte(`{"userId":"u2"}`),
				"userStateless": []byte(`x`),
			}))
			require.NoError(t, s.PutMany(ctx, "r2", map[string][]byte{
				"userState-u9": []byte(`{"userId":"u9"}`),
			}))

			v, err = s.Get(ctx, "r1", "gameStatus")
			require.NoError(t, err)
			assert.Equal(t, `1`, string(v))

			got, err := s.GetMany(ctx, "r1", []string{"roomId", "nope", "gameStatus"})
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{"roomId": []byte(`"r1"`), "gameStatus": []byte(`1`)}, got)

			players, err := s.List(ctx, "r1", "userState-")
			require.NoError(t, err)
			assert.Len(t, players, 2)
			assert.Contains(t, players, "userState-u1")
			assert.Contains(t, players, "userState-u2")

			require.NoError(t, s.PutMany(ctx, "r1", map[string][]byte{"gameStatus": []byte(`2`)}))
			v, err = s.Get(ctx, "r1", "gameStatus")
			require.NoError(t, err)
			assert.Equal(t, `2`, string(v), "put overwrites")

			require.NoError(t, s.DeleteAll(ctx, "r1"))
			all, err := s.List(ctx, "r1", "")
			require.NoError(t, err)
			assert.Empty(t, all)

			other, err := s.List(ctx, "r2", "userState-")
			require.NoError(t, err)
			assert.Len(t, other, 1, "other rooms untouched")
		})
	}
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?\[c\]\\`, escapeGlob(`a*b?[c]\`))
	assert.Equal(t, "userState-", escapeGlob("userState-"))
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("r1\x01"), prefixEnd([]byte("r1\x00")))
	assert.Equal(t, []byte("b"), prefixEnd([]byte("a\xff")))
	assert.Nil(t, prefixEnd([]byte("\xff\xff")))
}
