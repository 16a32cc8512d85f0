package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreRedis  = "redis"
	StorePebble = "pebble"
	StoreMemory = "memory"
)

type Config struct {
	Port          string
	StoreBackend  string
	RedisURI      string
	PebbleDir     string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	JWTIssuer     string
	OptionsAPIURL string
	OptionsToken  string
	LogLevel      string
	LogFormat     string
	RoomInboxSize int
	EventTimeout  time.Duration
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StoreRedis)),
		RedisURI:      getEnv("REDIS_URI", "redis://localhost:6379/0"),
		PebbleDir:     getEnv("PEBBLE_DIR", "./data/rooms"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDB:       getEnv("MONGO_DB", "bingohall"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "bingohall"),
		OptionsAPIURL: getEnv("OPTIONS_API_URL", ""),
		OptionsToken:  getEnv("OPTIONS_API_TOKEN", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.RoomInboxSize, err = getInt("ROOM_INBOX_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.EventTimeout, err = getDuration("EVENT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreBackend {
	case StoreRedis, StorePebble, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
