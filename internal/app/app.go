// Package app wires the stores, services and transports into one server.
package app

import (
	"bingohall/internal/cache"
	"bingohall/internal/config"
	"bingohall/internal/engine"
	"bingohall/internal/repository"
	"bingohall/internal/room"
	"bingohall/internal/service"
	"bingohall/internal/transport/rest"
	"bingohall/internal/transport/ws"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type App struct {
	Store   cache.RoomStore
	Rooms   repository.RoomRepo
	History repository.HistoryRepo
	Auth    *service.AuthService
	Hub     *ws.Hub
	Manager *room.Manager
	Handler http.Handler

	mongo *mongo.Client
}

// New connects the configured backends and builds the object graph
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Store: store, History: repository.NopHistory{}}
	if cfg.MongoURI != "" {
		client, err := connectMongo(ctx, cfg.MongoURI)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.mongo = client
		a.History = repository.NewHistoryRepo(client, cfg.MongoDB)
	} else {
		log.Warn().Msg("MONGO_URI not set, finished games are not archived")
	}

	var opts service.OptionsProvider = service.StaticOptions(nil)
	if cfg.OptionsAPIURL != "" {
		opts = service.NewOptionsClient(cfg.OptionsAPIURL, cfg.OptionsToken)
	}

	a.Rooms = repository.NewRoomRepo(store)
	a.Auth = service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer)
	a.Hub = ws.NewHub()

	rng := engine.DefaultRand()
	roomSvc := service.NewRoomService(a.Rooms, a.History, a.Hub, opts, rng)
	playerSvc := service.NewPlayerService(a.Rooms, a.Hub, rng, roomSvc)
	a.Manager = room.NewManager(service.NewDispatcher(roomSvc, playerSvc, a.Hub), cfg.RoomInboxSize, cfg.EventTimeout)

	a.Handler = rest.NewRouter(&rest.Container{
		Auth:    a.Auth,
		Rooms:   a.Rooms,
		History: a.History,
		WSHub:   a.Hub,
		Manager: a.Manager,
	})
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (cache.RoomStore, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URI: %w", err)
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Str("addr", opt.Addr).Msg("connected to Redis")
		return cache.NewRedisStore(rdb), nil

	case config.StorePebble:
		store, err := cache.NewPebbleStore(cfg.PebbleDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.PebbleDir).Msg("opened Pebble store")
		return store, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory room store, state is lost on restart")
		return cache.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info().Msg("connected to MongoDB")
	return client, nil
}

// Close drains the room actors, then releases the backends
func (a *App) Close(ctx context.Context) error {
	if err := a.Manager.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("room manager did not drain in time")
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
	return a.Store.Close()
}
