package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarppi/sketchparty/internal/api/apierr"
	"github.com/mkarppi/sketchparty/internal/api/handler"
	"github.com/mkarppi/sketchparty/internal/middleware"
	"github.com/mkarppi/sketchparty/internal/rooms"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Store     *rooms.Store
	WSHandler http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomsHandler := handler.NewRoomsHandler(cfg.Store)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, apiPanicHandler)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/rooms", roomsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}", roomsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// The websocket endpoint skips the logging wrapper's timing (the request
	// lives as long as the connection) but keeps panic recovery
	wsRoute := r.PathPrefix("/ws").Subrouter()
	wsRoute.Use(recoveryMiddleware)
	wsRoute.Handle("/{variant}/{room_id}", cfg.WSHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
