// Package sessions tracks live websocket connections and their binding to
// rooms and players. A Session owns the buffered outbox drained by the
// connection's write loop; the Registry indexes sessions for targeted and
// room-wide delivery.
package sessions

import (
	"log/slog"
	"sync"

	"github.com/mkarppi/sketchparty/internal/model"
)

// sendBuffer is the outbox depth per connection. A client that cannot drain
// this many frames is considered stuck and is disconnected.
const sendBuffer = 64

// Session is one live connection bound to a player in a room
type Session struct {
	ID          model.ConnectionID
	PlayerID    model.PlayerID
	DisplayName string
	RoomID      model.RoomID

	send      chan []byte
	closeOnce sync.Once
}

// NewSession creates a session for an accepted connection
func NewSession(id model.ConnectionID, playerID model.PlayerID, displayName string, roomID model.RoomID) *Session {
	return &Session{
		ID:          id,
		PlayerID:    playerID,
		DisplayName: displayName,
		RoomID:      roomID,
		send:        make(chan []byte, sendBuffer),
	}
}

// Send queues a frame for the write loop. Returns false if the outbox is
// full or the session is closed; the caller decides whether to drop the
// connection.
func (s *Session) Send(frame []byte) (ok bool) {
	defer func() {
		// Send on a closed outbox must not take the caller down
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Outbox returns the channel the write loop drains
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

// Close closes the outbox, ending the write loop. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// Registry indexes live sessions by connection and by room
type Registry struct {
	mu     sync.RWMutex
	byConn map[model.ConnectionID]*Session
	byRoom map[model.RoomID]map[model.ConnectionID]*Session
	logger *slog.Logger
}

// NewRegistry creates an empty Registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byConn: make(map[model.ConnectionID]*Session),
		byRoom: make(map[model.RoomID]map[model.ConnectionID]*Session),
		logger: logger.With(slog.String("component", "sessions")),
	}
}

// Add registers a session under its connection and room
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byConn[s.ID] = s
	room := r.byRoom[s.RoomID]
	if room == nil {
		room = make(map[model.ConnectionID]*Session)
		r.byRoom[s.RoomID] = room
	}
	room[s.ID] = s
}

// Remove drops a session and closes its outbox
func (r *Registry) Remove(id model.ConnectionID) {
	r.mu.Lock()
	s, found := r.byConn[id]
	if found {
		delete(r.byConn, id)
		if room := r.byRoom[s.RoomID]; room != nil {
			delete(room, id)
			if len(room) == 0 {
				delete(r.byRoom, s.RoomID)
			}
		}
	}
	r.mu.Unlock()

	if found {
		s.Close()
	}
}

// Get returns the session for a connection, or nil
func (r *Registry) Get(id model.ConnectionID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[id]
}

// ForRoom returns a snapshot of the sessions attached to a room
func (r *Registry) ForRoom(roomID model.RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.byRoom[roomID]
	out := make([]*Session, 0, len(room))
	for _, s := range room {
		out = append(out, s)
	}
	return out
}

// ForPlayer returns the sessions a player holds in a room. Normally at most
// one, but a reconnect can briefly overlap with a dying connection.
func (r *Registry) ForPlayer(roomID model.RoomID, playerID model.PlayerID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.byRoom[roomID] {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
