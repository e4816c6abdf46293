package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mkarppi/sketchparty/internal/api/apierr"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/rooms"
	"github.com/mkarppi/sketchparty/internal/sessions"
)

const (
	// writeWait is the deadline for a single outbound write
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the connection
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames
	maxMessageSize = 4096

	// actionRate bounds inbound actions per connection. Stroke-heavy drawing
	// needs headroom; the burst absorbs a flurry of canvas updates.
	actionRate  = 40
	actionBurst = 80
)

// conn couples one websocket to its session and room
type conn struct {
	ws      *websocket.Conn
	session *sessions.Session
	room    *rooms.Room
	handler *Handler
	limiter *rate.Limiter
	logger  *slog.Logger
}

func newConn(ws *websocket.Conn, session *sessions.Session, room *rooms.Room, handler *Handler) *conn {
	return &conn{
		ws:      ws,
		session: session,
		room:    room,
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(actionRate), actionBurst),
		logger: handler.logger.With(
			slog.String("connection_id", string(session.ID)),
			slog.String("player_id", string(session.PlayerID)),
			slog.String("room_id", string(session.RoomID)),
		),
	}
}

// readPump consumes inbound frames until the connection dies, routing each
// action into the room. Runs on the handler goroutine; its return triggers
// session teardown.
func (c *conn) readPump() {
	defer c.ws.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		if !c.limiter.Allow() {
			// Flooding; drop the frame rather than the connection
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			c.reject("", apierr.NewInvalidRequestError("malformed message"))
			continue
		}

		if leave := c.dispatch(msg); leave {
			return
		}
	}
}

// dispatch routes one client action. Returns true when the client asked to
// leave and the connection should close.
func (c *conn) dispatch(msg clientMessage) bool {
	var err error
	switch msg.Type {
	case actionStart:
		_, err = c.room.Start(c.session.PlayerID)

	case actionChat:
		var data chatData
		if err = json.Unmarshal(msg.Data, &data); err != nil {
			err = apierr.NewInvalidRequestError("malformed chat data")
			break
		}
		_, err = c.room.Chat(c.session.PlayerID, data.Text)

	case actionStroke:
		var data strokeData
		if err = json.Unmarshal(msg.Data, &data); err != nil {
			err = apierr.NewInvalidRequestError("malformed stroke data")
			break
		}
		_, err = c.room.Stroke(c.session.PlayerID, model.Stroke{
			X:       data.X,
			Y:       data.Y,
			Color:   data.Color,
			Width:   data.Width,
			PenDown: data.PenDown,
		})

	case actionMove:
		var data moveData
		if err = json.Unmarshal(msg.Data, &data); err != nil {
			err = apierr.NewInvalidRequestError("malformed move data")
			break
		}
		_, err = c.room.Move(c.session.PlayerID, data.Cell)

	case actionRestart:
		_, err = c.room.Restart(c.session.PlayerID)

	case actionLeave:
		// Explicit exit vacates the seat immediately, skipping the
		// disconnect grace period
		c.room.Leave(c.session.PlayerID)
		return true

	default:
		err = apierr.NewInvalidRequestError("unknown action type")
	}

	if err != nil {
		c.reject(msg.Type, err)
	}
	return false
}

// reject reports a failed action back to this connection only
func (c *conn) reject(action string, err error) {
	wire := apierr.Classify(err)
	c.handler.dispatcher.DeliverTo(c.session.ID, []model.Event{{
		Type:   model.EventActionRejected,
		RoomID: c.session.RoomID,
		To:     c.session.PlayerID,
		Payload: model.ActionRejectedPayload{
			Code:    wire.Code,
			Message: wire.Message,
		},
	}})

	c.logger.Debug("action rejected",
		slog.String("action", action),
		slog.String("code", wire.Code))
}

// writePump drains the session outbox onto the wire and keeps the
// connection alive with pings. Exits when the outbox closes or a write
// fails.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.session.Outbox():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
