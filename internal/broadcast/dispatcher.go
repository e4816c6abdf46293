// Package broadcast fans room events out to the sessions attached to a room.
// Delivery is best effort: a slow consumer loses frames rather than blocking
// the room.
package broadcast

import (
	"encoding/json"
	"log/slog"

	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/sessions"
)

// envelope is the wire frame for server-to-client events
type envelope struct {
	Type    model.EventType `json:"type"`
	Payload any             `json:"payload,omitempty"`
}

// Dispatcher delivers engine events to live sessions
type Dispatcher struct {
	registry *sessions.Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry
func NewDispatcher(registry *sessions.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger.With(slog.String("component", "broadcast")),
	}
}

// Deliver sends each event to its audience: the whole room (minus any
// excluded player), or the single player named by Event.To. Must be called
// without holding room locks.
func (d *Dispatcher) Deliver(events []model.Event) {
	for _, ev := range events {
		frame, err := json.Marshal(envelope{Type: ev.Type, Payload: ev.Payload})
		if err != nil {
			d.logger.Error("failed to encode event",
				slog.String("type", string(ev.Type)),
				slog.String("room_id", string(ev.RoomID)),
				slog.String("error", err.Error()))
			continue
		}

		if ev.To != "" {
			for _, s := range d.registry.ForPlayer(ev.RoomID, ev.To) {
				d.send(s, ev.Type, frame)
			}
			continue
		}
		for _, s := range d.registry.ForRoom(ev.RoomID) {
			if ev.Exclude != "" && s.PlayerID == ev.Exclude {
				continue
			}
			d.send(s, ev.Type, frame)
		}
	}
}

// DeliverTo sends events to one specific session regardless of Event.To.
// Used for rejections, which only the originating connection should see.
func (d *Dispatcher) DeliverTo(connID model.ConnectionID, events []model.Event) {
	s := d.registry.Get(connID)
	if s == nil {
		return
	}
	for _, ev := range events {
		frame, err := json.Marshal(envelope{Type: ev.Type, Payload: ev.Payload})
		if err != nil {
			d.logger.Error("failed to encode event",
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()))
			continue
		}
		d.send(s, ev.Type, frame)
	}
}

func (d *Dispatcher) send(s *sessions.Session, t model.EventType, frame []byte) {
	if !s.Send(frame) {
		d.logger.Warn("dropping frame for slow session",
			slog.String("connection_id", string(s.ID)),
			slog.String("player_id", string(s.PlayerID)),
			slog.String("type", string(t)))
	}
}
