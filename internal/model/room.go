package model

import "time"

// RoomID is a caller-supplied opaque identifier, unique process-wide.
// The core imposes no format beyond non-empty.
type RoomID string

// Variant selects which game a room runs
type Variant string

const (
	// VariantSketch is the drawer/guesser word-guessing party game
	VariantSketch Variant = "sketch"
	// VariantDuel is the two-player turn game (tic-tac-toe)
	VariantDuel Variant = "duel"
)

// RoomConfig holds per-room game settings
type RoomConfig struct {
	MaxPlayers    int
	MaxRounds     int
	RoundDuration time.Duration
	RoundEndPause time.Duration
	ChatCapacity  int
	ChatMaxLen    int
}

// DefaultSketchConfig returns the default configuration for sketch rooms
func DefaultSketchConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers:    8,
		MaxRounds:     3,
		RoundDuration: 80 * time.Second,
		RoundEndPause: 8 * time.Second,
		ChatCapacity:  50,
		ChatMaxLen:    200,
	}
}

// DefaultDuelConfig returns the default configuration for duel rooms
func DefaultDuelConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers:   2,
		ChatCapacity: 50,
		ChatMaxLen:   200,
	}
}

// Room is an isolated game session. It exclusively owns its players, game
// state, chat history and stroke log; nothing is shared across rooms.
type Room struct {
	ID          RoomID
	Variant     Variant
	Config      RoomConfig
	CreatorName string

	// Players in insertion order; insertion order is seat/turn order
	Players []*Player

	// Exactly one of these is set, matching Variant
	Sketch *SketchState
	Duel   *DuelState

	Chat ChatHistory

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the player with the given id, or nil
func (r *Room) GetPlayer(id PlayerID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIndex returns the seat index of the given player, or -1
func (r *Room) PlayerIndex(id PlayerID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// RemovePlayer removes the player with the given id, preserving seat order.
// Returns true if the player was present.
func (r *Room) RemovePlayer(id PlayerID) bool {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// IsFull reports whether the room is at configured capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Config.MaxPlayers
}

// ConnectedCount returns the number of players not in a disconnect grace period
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// Summaries returns the outward-facing view of all players in seat order
func (r *Room) Summaries() []PlayerSummary {
	out := make([]PlayerSummary, len(r.Players))
	for i, p := range r.Players {
		out[i] = PlayerSummary{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Connected:   p.Connected,
			IsDrawer:    r.Sketch != nil && r.Sketch.Phase == SketchDrawing && i == r.Sketch.DrawerIdx,
			HasGuessed:  p.HasGuessed,
		}
	}
	return out
}

// RoomDescription is a lightweight public listing of a room
type RoomDescription struct {
	ID         RoomID  `json:"id"`
	Variant    Variant `json:"variant"`
	Players    int     `json:"players"`
	MaxPlayers int     `json:"max_players"`
	Phase      string  `json:"phase"`
}
