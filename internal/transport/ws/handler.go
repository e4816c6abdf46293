// Package ws is the websocket transport: it upgrades connections, binds them
// to room sessions, and pumps frames between the wire and the room layer.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mkarppi/sketchparty/internal/api/apierr"
	"github.com/mkarppi/sketchparty/internal/broadcast"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/rooms"
	"github.com/mkarppi/sketchparty/internal/sessions"
)

// Handler upgrades websocket requests and attaches them to rooms
type Handler struct {
	store      *rooms.Store
	registry   *sessions.Registry
	dispatcher *broadcast.Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates the websocket handler
func NewHandler(store *rooms.Store, registry *sessions.Registry, dispatcher *broadcast.Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Identity and rooms are not origin-scoped; the deployment's
			// reverse proxy enforces origin policy
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP handles GET /ws/{variant}/{room_id}?player_id=...&name=...
//
// The connection is upgraded and registered before joining so the join
// snapshot reaches this session; join failures arrive as a rejection frame
// followed by a close.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	variant := model.Variant(vars["variant"])
	roomID := model.RoomID(vars["room_id"])

	playerID := model.PlayerID(strings.TrimSpace(r.URL.Query().Get("player_id")))
	if playerID == "" {
		playerID = model.PlayerID(uuid.NewString())
	}
	displayName := strings.TrimSpace(r.URL.Query().Get("name"))
	connID := model.ConnectionID(uuid.NewString())

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	session := sessions.NewSession(connID, playerID, displayName, roomID)
	h.registry.Add(session)

	room, _, err := h.store.CreateOrJoin(roomID, variant, playerID, displayName)
	if err != nil {
		// No write pump is running yet; send the rejection synchronously
		// before closing
		wire := apierr.Classify(err)
		frame, _ := json.Marshal(map[string]any{
			"type":    model.EventActionRejected,
			"payload": model.ActionRejectedPayload{Code: wire.Code, Message: wire.Message},
		})
		_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = wsConn.WriteMessage(websocket.TextMessage, frame)
		_ = wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, wire.Code))
		h.registry.Remove(session.ID)
		_ = wsConn.Close()
		return
	}

	c := newConn(wsConn, session, room, h)
	go c.writePump()
	c.readPump()

	h.teardown(session, room, wsConn)
}

// teardown unbinds a dead connection. The player only counts as
// disconnected if no newer session of theirs is still attached.
func (h *Handler) teardown(session *sessions.Session, room *rooms.Room, wsConn *websocket.Conn) {
	h.registry.Remove(session.ID)
	_ = wsConn.Close()

	if room == nil {
		return
	}
	if len(h.registry.ForPlayer(session.RoomID, session.PlayerID)) > 0 {
		// A reconnect superseded this connection
		return
	}
	room.Disconnect(session.PlayerID)
}
