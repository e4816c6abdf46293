package rooms

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mkarppi/sketchparty/internal/dependencies/clock"
	"github.com/mkarppi/sketchparty/internal/dependencies/timer"
	"github.com/mkarppi/sketchparty/internal/engine/duel"
	"github.com/mkarppi/sketchparty/internal/engine/sketch"
	"github.com/mkarppi/sketchparty/internal/model"
)

// Config holds room lifecycle settings
type Config struct {
	// GracePeriod is how long a disconnected player's seat is held
	GracePeriod time.Duration
	// IdleTTL is how long a room with no connected players survives
	IdleTTL time.Duration
	// ReapInterval is how often the idle reaper runs
	ReapInterval time.Duration
}

// DefaultConfig returns the default lifecycle settings
func DefaultConfig() Config {
	return Config{
		GracePeriod:  15 * time.Second,
		IdleTTL:      10 * time.Minute,
		ReapInterval: time.Minute,
	}
}

// Store holds every live room, keyed by id. Room ids are caller supplied;
// creating and joining are the same operation.
type Store struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*Room

	cfg    Config
	deps   *roomDeps
	logger *slog.Logger
}

// NewStore creates a Store wiring the engines and scheduler into the rooms
// it creates
func NewStore(
	cfg Config,
	sketchEngine *sketch.Engine,
	duelEngine *duel.Engine,
	scheduler timer.Scheduler,
	clk clock.Clock,
	sink EventSink,
	logger *slog.Logger,
) *Store {
	s := &Store{
		rooms:  make(map[model.RoomID]*Room),
		cfg:    cfg,
		logger: logger.With(slog.String("component", "rooms")),
	}
	s.deps = &roomDeps{
		sketch:    sketchEngine,
		duel:      duelEngine,
		scheduler: scheduler,
		clock:     clk,
		sink:      sink,
		logger:    s.logger,
		grace:     cfg.GracePeriod,
		onEmpty:   s.remove,
	}
	return s
}

// CreateOrJoin joins a player to the named room, creating it on first use.
// The room's variant is fixed at creation; joining with a different variant
// is rejected.
func (s *Store) CreateOrJoin(roomID model.RoomID, variant model.Variant, playerID model.PlayerID, displayName string) (*Room, []model.Event, error) {
	if strings.TrimSpace(string(roomID)) == "" {
		return nil, nil, model.ErrEmptyRoomID
	}

	var cfg model.RoomConfig
	switch variant {
	case model.VariantSketch:
		cfg = model.DefaultSketchConfig()
	case model.VariantDuel:
		cfg = model.DefaultDuelConfig()
	default:
		return nil, nil, model.ErrBadVariant
	}

	for {
		room, err := s.lookupOrCreate(roomID, variant, cfg, displayName)
		if err != nil {
			return nil, nil, err
		}

		events, err := room.Join(playerID, displayName)
		if errors.Is(err, model.ErrRoomClosed) {
			// Lost a race with the reaper or the last leaver; the next
			// iteration creates a fresh room
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return room, events, nil
	}
}

func (s *Store) lookupOrCreate(roomID model.RoomID, variant model.Variant, cfg model.RoomConfig, creator string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[roomID]; ok {
		if room.state.Variant != variant {
			return nil, model.ErrVariantInUse
		}
		return room, nil
	}

	room := newRoom(roomID, variant, cfg, creator, s.deps)
	s.rooms[roomID] = room
	s.logger.Info("room created",
		slog.String("room_id", string(roomID)),
		slog.String("variant", string(variant)))
	return room, nil
}

// Lookup returns the room with the given id, or nil
func (s *Store) Lookup(roomID model.RoomID) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// remove drops a room from the index. Registered as the onEmpty callback;
// the room has already closed itself.
func (s *Store) remove(roomID model.RoomID) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()

	s.logger.Info("room removed", slog.String("room_id", string(roomID)))
}

// Count returns the number of live rooms
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Descriptions lists every live room, sorted by id
func (s *Store) Descriptions() []model.RoomDescription {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.mu.RUnlock()

	out := make([]model.RoomDescription, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Describe())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reap closes and removes rooms whose idle TTL ran out. Returns how many
// rooms were reaped.
func (s *Store) Reap() int {
	now := s.deps.clock.Now()

	s.mu.RLock()
	var expired []*Room
	for _, room := range s.rooms {
		if room.idleExpired(now, s.cfg.IdleTTL) {
			expired = append(expired, room)
		}
	}
	s.mu.RUnlock()

	for _, room := range expired {
		room.Close()
		s.remove(room.ID())
	}
	if len(expired) > 0 {
		s.logger.Info("reaped idle rooms", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// RunReaper runs the idle reaper until the context is cancelled
func (s *Store) RunReaper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap()
		}
	}
}
