package model

import "time"

// EventType identifies the type of an outbound event
type EventType string

const (
	EventMembershipChanged EventType = "membership_changed"
	EventGameStateSnapshot EventType = "game_state"
	EventRoundStarted      EventType = "round_started"
	EventWordAssigned      EventType = "word_assigned" // private to the drawer
	EventDrawingUpdate     EventType = "drawing_update"
	EventChatMessage       EventType = "chat_message"
	EventRoundEnded        EventType = "round_ended"
	EventGameEnded         EventType = "game_ended"
	EventActionRejected    EventType = "action_rejected"
	EventRoomReset         EventType = "room_reset"
)

// Event is a domain event produced by a room for fan-out. An empty To means
// every session in the room receives it; otherwise it is private to one
// player's sessions. Exclude skips one player's sessions on a room-wide
// event, for updates the originator already applied locally.
type Event struct {
	Type    EventType
	RoomID  RoomID
	To      PlayerID
	Exclude PlayerID
	Payload any
}

// MembershipChangedPayload carries the full member list after a join/leave
type MembershipChangedPayload struct {
	Players []PlayerSummary `json:"players"`
	Joined  *PlayerSummary  `json:"joined,omitempty"`
	Left    PlayerID        `json:"left,omitempty"`
}

// SnapshotPayload is the full per-player view of room state, sent on join
// and on major transitions
type SnapshotPayload struct {
	RoomID  RoomID          `json:"room_id"`
	Variant Variant         `json:"variant"`
	Players []PlayerSummary `json:"players"`
	Chat    []ChatMessage   `json:"chat"`

	// Sketch view
	Phase      string    `json:"phase"`
	Round      int       `json:"round,omitempty"`
	MaxRounds  int       `json:"max_rounds,omitempty"`
	Drawer     PlayerID  `json:"drawer,omitempty"`
	MaskedWord string    `json:"masked_word,omitempty"`
	Deadline   time.Time `json:"deadline,omitzero"`
	Strokes    []Stroke  `json:"strokes,omitempty"`

	// Duel view
	Board []DuelMark `json:"board,omitempty"`
	Turn  PlayerID   `json:"turn,omitempty"`
}

// RoundStartedPayload announces a new drawing round; the word itself goes
// only to the drawer via EventWordAssigned
type RoundStartedPayload struct {
	Round      int       `json:"round"`
	MaxRounds  int       `json:"max_rounds"`
	Drawer     PlayerID  `json:"drawer"`
	WordLength int       `json:"word_length"`
	MaskedWord string    `json:"masked_word"`
	Deadline   time.Time `json:"deadline"`
}

// WordAssignedPayload tells the drawer their secret word
type WordAssignedPayload struct {
	Word string `json:"word"`
}

// DrawingUpdatePayload carries one stroke; it echoes to the drawer too so
// local and remote canvases stay consistent
type DrawingUpdatePayload struct {
	Stroke Stroke `json:"stroke"`
}

// ChatMessagePayload carries one chat message
type ChatMessagePayload struct {
	Message ChatMessage `json:"message"`
}

// ScoreEntry is one player's score snapshot
type ScoreEntry struct {
	PlayerID    PlayerID `json:"player_id"`
	DisplayName string   `json:"display_name"`
	Score       int      `json:"score"`
}

// RoundEndedPayload reveals the word and current scores
type RoundEndedPayload struct {
	Round  int          `json:"round"`
	Word   string       `json:"word"`
	Scores []ScoreEntry `json:"scores"`
	Forced bool         `json:"forced,omitempty"`
}

// GameEndedPayload carries the final ranking, best score first
type GameEndedPayload struct {
	Ranking []ScoreEntry `json:"ranking"`
	Winner  PlayerID     `json:"winner,omitempty"`
	Draw    bool         `json:"draw,omitempty"`
}

// ActionRejectedPayload reports a rejected action to its originating session
type ActionRejectedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
