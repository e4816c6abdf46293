package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarppi/sketchparty/internal/api/apierr"
	"github.com/mkarppi/sketchparty/internal/api/response"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/rooms"
)

// RoomsHandler serves the read-only room listing endpoints
type RoomsHandler struct {
	store *rooms.Store
}

// NewRoomsHandler creates a new rooms handler
func NewRoomsHandler(store *rooms.Store) *RoomsHandler {
	return &RoomsHandler{store: store}
}

// List handles GET /api/v1/rooms
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"rooms": h.store.Descriptions(),
	})
}

// Get handles GET /api/v1/rooms/{room_id}
func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	room := h.store.Lookup(roomID)
	if room == nil {
		apierr.WriteError(w, model.ErrRoomNotFound)
		return
	}
	response.JSON(w, http.StatusOK, room.Describe())
}
