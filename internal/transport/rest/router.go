package rest

import (
	"bingohall/internal/repository"
	"bingohall/internal/service"
	"bingohall/internal/transport/rest/handler"
	"bingohall/internal/transport/rest/middleware"
	"bingohall/internal/transport/ws"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	Auth    service.TokenVerifier
	Rooms   repository.RoomRepo
	History repository.HistoryRepo
	WSHub   *ws.Hub
	Manager ws.Rooms
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.Rooms, c.History)
	wsHandler := ws.NewHandler(c.WSHub, c.Manager, c.Auth)
	authMW := middleware.NewAuthMiddleware(c.Auth)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket route authenticates with the token query param itself
	v1.HandleFunc("/ws/rooms/{roomId}", wsHandler.RoomWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/auth/me", handler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/state", roomHandler.State).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/players", roomHandler.Players).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/rooms/{roomId}/history", roomHandler.History).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
