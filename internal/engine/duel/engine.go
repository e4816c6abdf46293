// Package duel implements the two-player turn game (tic-tac-toe). It is the
// strict simplification of the sketch state machine: no timers, one
// round-robin move loop.
package duel

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mkarppi/sketchparty/internal/dependencies/clock"
	"github.com/mkarppi/sketchparty/internal/model"
)

// Engine drives duel game transitions
type Engine struct {
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new duel Engine
func New(clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		clock:  clk,
		logger: logger.With(slog.String("component", "duel-engine")),
	}
}

// Start begins the game once both seats are filled
func (e *Engine) Start(room *model.Room, playerID model.PlayerID) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}
	if room.Duel.Phase != model.DuelWaiting {
		return nil, model.ErrInvalidPhaseAction
	}
	if room.ConnectedCount() < 2 {
		return nil, model.ErrInsufficientPlayers
	}

	st := room.Duel
	st.Phase = model.DuelInProgress
	st.Board = [model.DuelBoardSize]model.DuelMark{}
	st.TurnIdx = 0
	st.Winner = ""
	st.Draw = false
	st.MoveCount = 0

	e.logger.Info("duel started", slog.String("room_id", string(room.ID)))

	return e.snapshotAll(room), nil
}

// Move places the current player's mark on the given cell
func (e *Engine) Move(room *model.Room, playerID model.PlayerID, cell int) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}

	st := room.Duel
	if st.Phase != model.DuelInProgress {
		return nil, model.ErrInvalidPhaseAction
	}
	if cell < 0 || cell >= model.DuelBoardSize {
		return nil, model.ErrInvalidCell
	}

	seat := room.PlayerIndex(playerID)
	if seat != st.TurnIdx {
		return nil, model.ErrNotPlayerTurn
	}
	if st.Board[cell] != model.MarkNone {
		return nil, model.ErrCellOccupied
	}

	st.Board[cell] = model.MarkForSeat(seat)
	st.MoveCount++

	if mark := st.WinningMark(); mark != model.MarkNone {
		st.Phase = model.DuelFinished
		st.Winner = playerID
		player := room.GetPlayer(playerID)
		player.Score++
		player.ScoredAt = e.clock.Now()
		return append(e.snapshotAll(room), e.gameEnded(room)), nil
	}

	if st.BoardFull() {
		st.Phase = model.DuelFinished
		st.Draw = true
		return append(e.snapshotAll(room), e.gameEnded(room)), nil
	}

	st.TurnIdx = (st.TurnIdx + 1) % len(room.Players)
	return e.snapshotAll(room), nil
}

// Chat relays a plain chat message
func (e *Engine) Chat(room *model.Room, playerID model.PlayerID, text string) ([]model.Event, error) {
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, model.ErrEmptyGuess
	}
	if utf8.RuneCountInString(trimmed) > room.Config.ChatMaxLen {
		return nil, model.ErrContentTooLong
	}

	msg := model.ChatMessage{
		Sender:     player.ID,
		SenderName: player.DisplayName,
		Content:    trimmed,
		SentAt:     e.clock.Now(),
	}
	room.Chat.Append(msg)

	return []model.Event{{
		Type:    model.EventChatMessage,
		RoomID:  room.ID,
		Payload: model.ChatMessagePayload{Message: msg},
	}}, nil
}

// Reset returns the room to the waiting phase from any state
func (e *Engine) Reset(room *model.Room, playerID model.PlayerID) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}

	st := room.Duel
	st.Phase = model.DuelWaiting
	st.Board = [model.DuelBoardSize]model.DuelMark{}
	st.TurnIdx = 0
	st.Winner = ""
	st.Draw = false
	st.MoveCount = 0

	return append([]model.Event{{
		Type:    model.EventRoomReset,
		RoomID:  room.ID,
		Payload: model.MembershipChangedPayload{Players: room.Summaries()},
	}}, e.snapshotAll(room)...), nil
}

// HandleDisconnect abandons an in-progress game when an opponent drops out
func (e *Engine) HandleDisconnect(room *model.Room, playerID model.PlayerID) []model.Event {
	st := room.Duel
	if st.Phase != model.DuelInProgress {
		return nil
	}
	if room.ConnectedCount() >= 2 {
		return nil
	}

	st.Phase = model.DuelWaiting
	st.Board = [model.DuelBoardSize]model.DuelMark{}
	st.TurnIdx = 0
	st.MoveCount = 0

	return []model.Event{{
		Type:    model.EventRoomReset,
		RoomID:  room.ID,
		Payload: model.MembershipChangedPayload{Players: room.Summaries()},
	}}
}

// HandleRemove adjusts state after a seat is vacated
func (e *Engine) HandleRemove(room *model.Room, removedIdx int) []model.Event {
	st := room.Duel
	if removedIdx < st.TurnIdx {
		st.TurnIdx--
	} else if st.TurnIdx >= len(room.Players) {
		st.TurnIdx = 0
	}
	return e.HandleDisconnect(room, "")
}

// SnapshotFor builds the full room view for one player
func (e *Engine) SnapshotFor(room *model.Room, playerID model.PlayerID) model.Event {
	ev := e.snapshot(room)
	ev.To = playerID
	return ev
}

func (e *Engine) snapshot(room *model.Room) model.Event {
	st := room.Duel

	payload := model.SnapshotPayload{
		RoomID:  room.ID,
		Variant: room.Variant,
		Players: room.Summaries(),
		Chat:    room.Chat.Messages(),
		Phase:   string(st.Phase),
		Board:   st.Board[:],
	}
	if st.Phase == model.DuelInProgress && st.TurnIdx < len(room.Players) {
		payload.Turn = room.Players[st.TurnIdx].ID
	}

	return model.Event{
		Type:    model.EventGameStateSnapshot,
		RoomID:  room.ID,
		Payload: payload,
	}
}

func (e *Engine) snapshotAll(room *model.Room) []model.Event {
	return []model.Event{e.snapshot(room)}
}

func (e *Engine) gameEnded(room *model.Room) model.Event {
	st := room.Duel

	scores := make([]model.ScoreEntry, len(room.Players))
	for i, p := range room.Players {
		scores[i] = model.ScoreEntry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		}
	}

	return model.Event{
		Type:   model.EventGameEnded,
		RoomID: room.ID,
		Payload: model.GameEndedPayload{
			Ranking: scores,
			Winner:  st.Winner,
			Draw:    st.Draw,
		},
	}
}
