package model

import "time"

// PlayerID uniquely identifies a player within a room. Identity is supplied
// by the caller (an external identity service); the core trusts it for the
// lifetime of the session.
type PlayerID string

// ConnectionID identifies a single transport connection. One player may
// reconnect on a new connection within the grace period.
type ConnectionID string

// Player represents a participant seated in a room
type Player struct {
	ID          PlayerID
	DisplayName string
	Score       int

	// HasGuessed is set when the player guessed the word this round
	HasGuessed bool
	// HasDrawn is set when the player has drawn this rotation cycle
	HasDrawn bool

	// Connected is false while the player is inside the disconnect grace period
	Connected bool

	// ScoredAt records when the player last gained points; final ranking
	// breaks score ties by who reached the score first
	ScoredAt time.Time
	JoinedAt time.Time
}

// PlayerSummary is the outward-facing view of a player
type PlayerSummary struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"display_name"`
	Score       int      `json:"score"`
	Connected   bool     `json:"connected"`
	IsDrawer    bool     `json:"is_drawer"`
	HasGuessed  bool     `json:"has_guessed"`
}
