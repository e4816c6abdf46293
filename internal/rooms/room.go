// Package rooms owns room lifecycle and concurrency: creation, joining,
// per-room action serialization, the single room timer, disconnect grace
// periods and idle reaping. Game semantics live in the engine packages;
// this package decides when they run and delivers what they emit.
package rooms

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mkarppi/sketchparty/internal/dependencies/clock"
	"github.com/mkarppi/sketchparty/internal/dependencies/timer"
	"github.com/mkarppi/sketchparty/internal/engine/duel"
	"github.com/mkarppi/sketchparty/internal/engine/sketch"
	"github.com/mkarppi/sketchparty/internal/model"
)

// EventSink receives the events a room emits. Deliver is always called
// without the room lock held.
type EventSink interface {
	Deliver(events []model.Event)
}

// roomDeps are the shared collaborators every room uses
type roomDeps struct {
	sketch    *sketch.Engine
	duel      *duel.Engine
	scheduler timer.Scheduler
	clock     clock.Clock
	sink      EventSink
	logger    *slog.Logger
	grace     time.Duration
	onEmpty   func(model.RoomID)
}

// Room serializes all access to one game room. Every public method takes the
// room mutex, applies the transition, re-arms the room timer if the deadline
// moved, and delivers the resulting events after releasing the lock.
type Room struct {
	mu    sync.Mutex
	state *model.Room
	deps  *roomDeps

	// timerGen invalidates callbacks from timers that were superseded while
	// their goroutine raced the lock
	timerGen      uint64
	timerCancel   timer.CancelFunc
	armedDeadline time.Time

	// graceGen, per player, invalidates a pending grace-period removal when
	// the player reconnects in time
	graceGen map[model.PlayerID]uint64

	lastActive time.Time
	closed     bool
}

func newRoom(id model.RoomID, variant model.Variant, cfg model.RoomConfig, creator string, deps *roomDeps) *Room {
	now := deps.clock.Now()
	state := &model.Room{
		ID:          id,
		Variant:     variant,
		Config:      cfg,
		CreatorName: creator,
		Chat:        model.NewChatHistory(cfg.ChatCapacity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch variant {
	case model.VariantSketch:
		state.Sketch = model.NewSketchState()
	case model.VariantDuel:
		state.Duel = model.NewDuelState()
	}

	return &Room{
		state:      state,
		deps:       deps,
		graceGen:   make(map[model.PlayerID]uint64),
		lastActive: now,
	}
}

// ID returns the room identifier
func (r *Room) ID() model.RoomID {
	return r.state.ID
}

// Join adds a player to the room, or rebinds a player reconnecting within
// the grace period. The joiner receives a private snapshot; everyone else
// sees the membership change.
func (r *Room) Join(playerID model.PlayerID, displayName string) ([]model.Event, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, model.ErrRoomClosed
	}

	var events []model.Event
	if p := r.state.GetPlayer(playerID); p != nil {
		// Reconnect: the seat, score and drawer role survive. Bumping the
		// grace generation voids any pending removal.
		r.graceGen[playerID]++
		wasConnected := p.Connected
		p.Connected = true
		if displayName != "" {
			p.DisplayName = displayName
		}

		events = append(events, r.snapshotLocked(playerID))
		if word := r.wordForLocked(playerID); word != nil {
			events = append(events, *word)
		}
		if !wasConnected {
			events = append(events, r.membershipLocked(nil, ""))
			events = append(events, r.systemChatLocked(fmt.Sprintf("%s reconnected", p.DisplayName)))
		}
	} else {
		if r.state.IsFull() {
			r.mu.Unlock()
			return nil, model.ErrRoomFull
		}
		name := strings.TrimSpace(displayName)
		if name == "" {
			name = string(playerID)
		}
		p := &model.Player{
			ID:          playerID,
			DisplayName: name,
			Connected:   true,
			JoinedAt:    r.deps.clock.Now(),
		}
		r.state.Players = append(r.state.Players, p)
		if r.state.CreatorName == "" {
			r.state.CreatorName = name
		}

		summary := r.state.Summaries()[len(r.state.Players)-1]
		events = append(events, r.snapshotLocked(playerID))
		events = append(events, r.membershipLocked(&summary, ""))
		events = append(events, r.systemChatLocked(fmt.Sprintf("%s joined", name)))

		r.deps.logger.Info("player joined",
			slog.String("room_id", string(r.state.ID)),
			slog.String("player_id", string(playerID)))
	}

	r.touchLocked()
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
	return events, nil
}

// Disconnect marks a player's connection as dropped and schedules their
// removal after the grace period. The game adjusts immediately (a missing
// drawer cannot finish a round) but the seat survives for now.
func (r *Room) Disconnect(playerID model.PlayerID) {
	r.mu.Lock()
	p := r.state.GetPlayer(playerID)
	if r.closed || p == nil || !p.Connected {
		r.mu.Unlock()
		return
	}
	p.Connected = false

	var events []model.Event
	switch r.state.Variant {
	case model.VariantSketch:
		events = r.deps.sketch.HandleDisconnect(r.state, playerID)
	case model.VariantDuel:
		events = r.deps.duel.HandleDisconnect(r.state, playerID)
	}
	events = append(events, r.membershipLocked(nil, ""))

	r.graceGen[playerID]++
	gen := r.graceGen[playerID]
	r.deps.scheduler.AfterFunc(r.deps.grace, func() {
		r.graceExpired(playerID, gen)
	})

	r.deps.logger.Info("player disconnected",
		slog.String("room_id", string(r.state.ID)),
		slog.String("player_id", string(playerID)))

	r.touchLocked()
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
}

// graceExpired removes a player whose grace period ran out without a
// reconnect. Stale generations are ignored.
func (r *Room) graceExpired(playerID model.PlayerID, gen uint64) {
	r.mu.Lock()
	if r.closed || r.graceGen[playerID] != gen {
		r.mu.Unlock()
		return
	}
	p := r.state.GetPlayer(playerID)
	if p == nil || p.Connected {
		r.mu.Unlock()
		return
	}

	events, empty := r.removeLocked(playerID)
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
	if empty {
		r.deps.onEmpty(r.state.ID)
	}
}

// Leave removes a player immediately (explicit exit, no grace)
func (r *Room) Leave(playerID model.PlayerID) {
	r.mu.Lock()
	if r.closed || r.state.GetPlayer(playerID) == nil {
		r.mu.Unlock()
		return
	}

	events, empty := r.removeLocked(playerID)
	r.touchLocked()
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
	if empty {
		r.deps.onEmpty(r.state.ID)
	}
}

// removeLocked vacates a seat and lets the engine adjust. Reports whether
// the room became empty.
func (r *Room) removeLocked(playerID model.PlayerID) ([]model.Event, bool) {
	p := r.state.GetPlayer(playerID)
	idx := r.state.PlayerIndex(playerID)
	name := p.DisplayName

	r.state.RemovePlayer(playerID)
	delete(r.graceGen, playerID)

	if len(r.state.Players) == 0 {
		r.closeLocked()
		return nil, true
	}

	var events []model.Event
	switch r.state.Variant {
	case model.VariantSketch:
		events = r.deps.sketch.HandleRemove(r.state, idx)
	case model.VariantDuel:
		events = r.deps.duel.HandleRemove(r.state, idx)
	}
	events = append(events, r.membershipLocked(nil, playerID))
	events = append(events, r.systemChatLocked(fmt.Sprintf("%s left", name)))

	r.deps.logger.Info("player left",
		slog.String("room_id", string(r.state.ID)),
		slog.String("player_id", string(playerID)))

	return events, false
}

// Start begins the game
func (r *Room) Start(playerID model.PlayerID) ([]model.Event, error) {
	return r.act(playerID, func() ([]model.Event, error) {
		switch r.state.Variant {
		case model.VariantSketch:
			return r.deps.sketch.Start(r.state, playerID)
		default:
			return r.deps.duel.Start(r.state, playerID)
		}
	})
}

// Chat relays a message. In a sketch room's drawing phase chat doubles as
// the guess channel; everywhere else it is plain chat.
func (r *Room) Chat(playerID model.PlayerID, text string) ([]model.Event, error) {
	return r.act(playerID, func() ([]model.Event, error) {
		switch r.state.Variant {
		case model.VariantSketch:
			if r.state.Sketch.Phase == model.SketchDrawing {
				return r.deps.sketch.Guess(r.state, playerID, text)
			}
			return r.plainChatLocked(playerID, text)
		default:
			return r.deps.duel.Chat(r.state, playerID, text)
		}
	})
}

// Stroke relays a canvas update from the drawer
func (r *Room) Stroke(playerID model.PlayerID, stroke model.Stroke) ([]model.Event, error) {
	return r.act(playerID, func() ([]model.Event, error) {
		if r.state.Variant != model.VariantSketch {
			return nil, model.ErrInvalidPhaseAction
		}
		return r.deps.sketch.Stroke(r.state, playerID, stroke)
	})
}

// Move places a mark in a duel room
func (r *Room) Move(playerID model.PlayerID, cell int) ([]model.Event, error) {
	return r.act(playerID, func() ([]model.Event, error) {
		if r.state.Variant != model.VariantDuel {
			return nil, model.ErrInvalidPhaseAction
		}
		return r.deps.duel.Move(r.state, playerID, cell)
	})
}

// Restart returns the room to the waiting phase so a new game can begin
func (r *Room) Restart(playerID model.PlayerID) ([]model.Event, error) {
	return r.act(playerID, func() ([]model.Event, error) {
		switch r.state.Variant {
		case model.VariantSketch:
			return r.deps.sketch.Reset(r.state, playerID)
		default:
			return r.deps.duel.Reset(r.state, playerID)
		}
	})
}

// act runs one engine transition under the room lock and delivers its events
func (r *Room) act(playerID model.PlayerID, fn func() ([]model.Event, error)) ([]model.Event, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, model.ErrRoomClosed
	}

	events, err := fn()
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	r.touchLocked()
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
	return events, nil
}

// expire handles the room timer firing for the given generation
func (r *Room) expire(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.timerGen {
		// A newer transition superseded this timer while it raced the lock
		r.mu.Unlock()
		return
	}
	r.timerCancel = nil
	r.armedDeadline = time.Time{}

	var events []model.Event
	if r.state.Variant == model.VariantSketch {
		evs, err := r.deps.sketch.Expire(r.state)
		if err != nil {
			r.deps.logger.Debug("ignoring stale timer expiry",
				slog.String("room_id", string(r.state.ID)),
				slog.String("error", err.Error()))
		} else {
			events = evs
		}
	}

	r.touchLocked()
	r.syncTimerLocked()
	r.mu.Unlock()

	r.deps.sink.Deliver(events)
}

// syncTimerLocked re-arms the room timer when the phase deadline moved. At
// most one logical timer is armed per room; superseded callbacks are voided
// by the generation bump.
func (r *Room) syncTimerLocked() {
	want := r.deadlineLocked()
	if want.Equal(r.armedDeadline) {
		return
	}

	if r.timerCancel != nil {
		r.timerCancel()
		r.timerCancel = nil
	}
	r.timerGen++
	r.armedDeadline = want
	if want.IsZero() {
		return
	}

	gen := r.timerGen
	d := want.Sub(r.deps.clock.Now())
	if d < 0 {
		d = 0
	}
	r.timerCancel = r.deps.scheduler.AfterFunc(d, func() {
		r.expire(gen)
	})
}

// deadlineLocked returns the active phase deadline, or zero when no timer
// should be armed
func (r *Room) deadlineLocked() time.Time {
	if r.state.Variant != model.VariantSketch {
		return time.Time{}
	}
	switch r.state.Sketch.Phase {
	case model.SketchDrawing, model.SketchRoundEnd:
		return r.state.Sketch.Deadline
	default:
		return time.Time{}
	}
}

func (r *Room) plainChatLocked(playerID model.PlayerID, text string) ([]model.Event, error) {
	player := r.state.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, model.ErrEmptyGuess
	}
	if utf8.RuneCountInString(trimmed) > r.state.Config.ChatMaxLen {
		return nil, model.ErrContentTooLong
	}

	msg := model.ChatMessage{
		Sender:     player.ID,
		SenderName: player.DisplayName,
		Content:    trimmed,
		SentAt:     r.deps.clock.Now(),
	}
	r.state.Chat.Append(msg)

	return []model.Event{{
		Type:    model.EventChatMessage,
		RoomID:  r.state.ID,
		Payload: model.ChatMessagePayload{Message: msg},
	}}, nil
}

func (r *Room) snapshotLocked(playerID model.PlayerID) model.Event {
	if r.state.Variant == model.VariantSketch {
		return r.deps.sketch.SnapshotFor(r.state, playerID)
	}
	return r.deps.duel.SnapshotFor(r.state, playerID)
}

func (r *Room) wordForLocked(playerID model.PlayerID) *model.Event {
	if r.state.Variant != model.VariantSketch {
		return nil
	}
	return r.deps.sketch.WordFor(r.state, playerID)
}

func (r *Room) membershipLocked(joined *model.PlayerSummary, left model.PlayerID) model.Event {
	return model.Event{
		Type:   model.EventMembershipChanged,
		RoomID: r.state.ID,
		Payload: model.MembershipChangedPayload{
			Players: r.state.Summaries(),
			Joined:  joined,
			Left:    left,
		},
	}
}

func (r *Room) systemChatLocked(content string) model.Event {
	msg := model.ChatMessage{
		Content: content,
		SentAt:  r.deps.clock.Now(),
		System:  true,
	}
	r.state.Chat.Append(msg)
	return model.Event{
		Type:    model.EventChatMessage,
		RoomID:  r.state.ID,
		Payload: model.ChatMessagePayload{Message: msg},
	}
}

func (r *Room) touchLocked() {
	now := r.deps.clock.Now()
	r.lastActive = now
	r.state.UpdatedAt = now
}

func (r *Room) closeLocked() {
	r.closed = true
	if r.timerCancel != nil {
		r.timerCancel()
		r.timerCancel = nil
	}
	r.timerGen++
	r.armedDeadline = time.Time{}
}

// Close shuts the room down, voiding its timer and rejecting further actions
func (r *Room) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closeLocked()
		r.deps.logger.Info("room closed", slog.String("room_id", string(r.state.ID)))
	}
	r.mu.Unlock()
}

// Describe returns the public listing entry for this room
func (r *Room) Describe() model.RoomDescription {
	r.mu.Lock()
	defer r.mu.Unlock()

	phase := ""
	switch r.state.Variant {
	case model.VariantSketch:
		phase = string(r.state.Sketch.Phase)
	case model.VariantDuel:
		phase = string(r.state.Duel.Phase)
	}
	return model.RoomDescription{
		ID:         r.state.ID,
		Variant:    r.state.Variant,
		Players:    len(r.state.Players),
		MaxPlayers: r.state.Config.MaxPlayers,
		Phase:      phase,
	}
}

// idleExpired reports whether the room has sat with no connected players
// beyond the TTL
func (r *Room) idleExpired(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && r.state.ConnectedCount() == 0 && now.Sub(r.lastActive) > ttl
}
