package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("ROOM_INBOX_SIZE", "")
	t.Setenv("EVENT_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, 256, cfg.RoomInboxSize)
	assert.Equal(t, 15*time.Second, cfg.EventTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Pebble")
	t.Setenv("ROOM_INBOX_SIZE", "32")
	t.Setenv("EVENT_TIMEOUT", "2s")
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePebble, cfg.StoreBackend)
	assert.Equal(t, 32, cfg.RoomInboxSize)
	assert.Equal(t, 2*time.Second, cfg.EventTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadNumbers(t *testing.T) {
	t.Setenv("ROOM_INBOX_SIZE", "lots")
	_, err := Load()
	assert.ErrorContains(t, err, "ROOM_INBOX_SIZE")
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreBackend: StoreMemory}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s"
	cfg.StoreBackend = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "sqlite")
}
