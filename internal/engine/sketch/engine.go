// Package sketch implements the phase/turn state machine for the
// drawer/guesser word-guessing game. The engine is pure transition logic
// over a room's state: callers hold the room's serialization and the engine
// never performs I/O beyond word selection.
package sketch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mkarppi/sketchparty/internal/dependencies/clock"
	"github.com/mkarppi/sketchparty/internal/dependencies/random"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/services/words"
)

// Config holds scoring and player-count rules
type Config struct {
	// MinPlayers required to start and keep a game running
	MinPlayers int
	// GuessBaseScore is awarded to the first correct guesser
	GuessBaseScore int
	// GuessScoreStep is subtracted per earlier correct guesser
	GuessScoreStep int
	// GuessMinScore floors the award for late guessers
	GuessMinScore int
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		MinPlayers:     2,
		GuessBaseScore: 100,
		GuessScoreStep: 20,
		GuessMinScore:  20,
	}
}

// Engine drives sketch game transitions
type Engine struct {
	words  words.Provider
	clock  clock.Clock
	random random.Random
	cfg    Config
	logger *slog.Logger
}

// New creates a new sketch Engine
func New(provider words.Provider, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		words:  provider,
		clock:  clk,
		random: rnd,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sketch-engine")),
	}
}

// Start begins the game from the waiting phase. Requires MinPlayers
// connected players; any player may start.
func (e *Engine) Start(room *model.Room, playerID model.PlayerID) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}
	if room.Sketch.Phase != model.SketchWaiting {
		return nil, model.ErrInvalidPhaseAction
	}
	if room.ConnectedCount() < e.cfg.MinPlayers {
		return nil, model.ErrInsufficientPlayers
	}

	return e.beginRound(room, true)
}

// Guess processes a chat message during the drawing phase. An exact match of
// the secret word (case-insensitive, trimmed) scores the guesser; anything
// else is plain chat.
func (e *Engine) Guess(room *model.Room, playerID model.PlayerID, text string) ([]model.Event, error) {
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

	st := room.Sketch
	if st.Phase != model.SketchDrawing {
		return nil, model.ErrInvalidPhaseAction
	}

	now := e.clock.Now()
	if now.After(st.Deadline) {
		// Lost the race against the round timer; never scored
		return nil, model.ErrStaleAction
	}

	isDrawer := room.PlayerIndex(playerID) == st.DrawerIdx
	matched := strings.EqualFold(trimmed, st.Word)

	if matched {
		if isDrawer {
			return nil, model.ErrDrawerCannotGuess
		}
		if player.HasGuessed {
			// Repeat of an already-credited guess; suppress so the word
			// does not leak into chat
			return nil, nil
		}
		return e.creditGuess(room, player, now)
	}

	msg := model.ChatMessage{
		Sender:     player.ID,
		SenderName: player.DisplayName,
		Content:    trimmed,
		SentAt:     now,
	}
	room.Chat.Append(msg)

	return []model.Event{{
		Type:    model.EventChatMessage,
		RoomID:  room.ID,
		Payload: model.ChatMessagePayload{Message: msg},
	}}, nil
}

// creditGuess awards points and short-circuits the round once every
// non-drawing connected player has guessed
func (e *Engine) creditGuess(room *model.Room, player *model.Player, now time.Time) ([]model.Event, error) {
	st := room.Sketch

	award := e.cfg.GuessBaseScore - st.CorrectCount*e.cfg.GuessScoreStep
	if award < e.cfg.GuessMinScore {
		award = e.cfg.GuessMinScore
	}
	player.Score += award
	player.ScoredAt = now
	player.HasGuessed = true
	st.CorrectCount++

	msg := model.ChatMessage{
		Sender:     player.ID,
		SenderName: player.DisplayName,
		Content:    fmt.Sprintf("%s guessed the word!", player.DisplayName),
		SentAt:     now,
		Correct:    true,
		System:     true,
	}
	room.Chat.Append(msg)

	events := []model.Event{
		{
			Type:    model.EventChatMessage,
			RoomID:  room.ID,
			Payload: model.ChatMessagePayload{Message: msg},
		},
		{
			Type:    model.EventMembershipChanged,
			RoomID:  room.ID,
			Payload: model.MembershipChangedPayload{Players: room.Summaries()},
		},
	}

	e.logger.Info("correct guess",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("award", award))

	if e.allGuessed(room) {
		endEvents := e.endRound(room, false)
		events = append(events, endEvents...)
	}

	return events, nil
}

// allGuessed reports whether every connected non-drawer has guessed correctly
func (e *Engine) allGuessed(room *model.Room) bool {
	st := room.Sketch
	guessers := 0
	for i, p := range room.Players {
		if i == st.DrawerIdx || !p.Connected {
			continue
		}
		if !p.HasGuessed {
			return false
		}
		guessers++
	}
	return guessers > 0
}

// Stroke appends a canvas update from the drawer
func (e *Engine) Stroke(room *model.Room, playerID model.PlayerID, stroke model.Stroke) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}

	st := room.Sketch
	if st.Phase != model.SketchDrawing {
		return nil, model.ErrInvalidPhaseAction
	}
	if room.PlayerIndex(playerID) != st.DrawerIdx {
		return nil, model.ErrNotDrawer
	}
	if e.clock.Now().After(st.Deadline) {
		return nil, model.ErrStaleAction
	}

	stroke.Author = playerID
	st.Strokes = append(st.Strokes, stroke)

	// The stroke echoes to the artist as well, so every client renders the
	// same committed sequence
	return []model.Event{{
		Type:    model.EventDrawingUpdate,
		RoomID:  room.ID,
		Payload: model.DrawingUpdatePayload{Stroke: stroke},
	}}, nil
}

// Expire handles the room timer firing: the round deadline in the drawing
// phase, or the pause expiring in round_end
func (e *Engine) Expire(room *model.Room) ([]model.Event, error) {
	switch room.Sketch.Phase {
	case model.SketchDrawing:
		return e.endRound(room, false), nil
	case model.SketchRoundEnd:
		if room.Sketch.Round >= room.Config.MaxRounds {
			return e.endGame(room), nil
		}
		return e.beginRound(room, false)
	default:
		return nil, model.ErrStaleAction
	}
}

// Reset returns the room to the waiting phase from any state
func (e *Engine) Reset(room *model.Room, playerID model.PlayerID) ([]model.Event, error) {
	if room.GetPlayer(playerID) == nil {
		return nil, model.ErrPlayerNotFound
	}
	events := e.resetToWaiting(room)
	return events, nil
}

// HandleDisconnect adjusts the game when a player's connection drops. The
// player keeps their seat until the grace period expires.
func (e *Engine) HandleDisconnect(room *model.Room, playerID model.PlayerID) []model.Event {
	st := room.Sketch
	if st.Phase != model.SketchDrawing && st.Phase != model.SketchRoundEnd {
		return nil
	}

	if room.ConnectedCount() < e.cfg.MinPlayers {
		// A 2-player minimum cannot be maintained: reveal if mid-round,
		// then return to waiting rather than rotating
		var events []model.Event
		if st.Phase == model.SketchDrawing {
			events = e.endRound(room, true)
		}
		return append(events, e.resetToWaiting(room)...)
	}

	if st.Phase == model.SketchDrawing {
		if room.PlayerIndex(playerID) == st.DrawerIdx {
			// Drawer gone mid-round: immediate reveal, then the usual
			// round_end pause carries the game to the next drawer
			return e.endRound(room, true)
		}
		if e.allGuessed(room) {
			// The disconnect may have left only correct guessers
			return e.endRound(room, false)
		}
	}
	return nil
}

// HandleRemove adjusts the game after a player is removed from the seat
// list (explicit leave or grace expiry). removedIdx is the seat the player
// occupied.
func (e *Engine) HandleRemove(room *model.Room, removedIdx int) []model.Event {
	st := room.Sketch
	wasDrawer := st.Phase == model.SketchDrawing && removedIdx == st.DrawerIdx

	if removedIdx < st.DrawerIdx {
		st.DrawerIdx--
	} else if removedIdx == st.DrawerIdx && st.DrawerIdx >= len(room.Players) {
		st.DrawerIdx = 0
	}

	if st.Phase != model.SketchDrawing && st.Phase != model.SketchRoundEnd {
		return nil
	}

	if len(room.Players) < e.cfg.MinPlayers || room.ConnectedCount() < e.cfg.MinPlayers {
		var events []model.Event
		if st.Phase == model.SketchDrawing {
			events = e.endRound(room, true)
		}
		return append(events, e.resetToWaiting(room)...)
	}

	if wasDrawer {
		// The seat inheriting DrawerIdx was never assigned the word; end
		// the round with a reveal instead of letting it draw blind
		return e.endRound(room, true)
	}
	if st.Phase == model.SketchDrawing && e.allGuessed(room) {
		return e.endRound(room, false)
	}
	return nil
}

// SnapshotFor builds the full room view for one player. The secret word is
// masked; the drawer learns it through EventWordAssigned.
func (e *Engine) SnapshotFor(room *model.Room, playerID model.PlayerID) model.Event {
	st := room.Sketch
	now := e.clock.Now()

	payload := model.SnapshotPayload{
		RoomID:    room.ID,
		Variant:   room.Variant,
		Players:   room.Summaries(),
		Chat:      room.Chat.Messages(),
		Phase:     string(st.Phase),
		Round:     st.Round,
		MaxRounds: room.Config.MaxRounds,
	}

	if st.Phase == model.SketchDrawing || st.Phase == model.SketchRoundEnd {
		if st.DrawerIdx < len(room.Players) {
			payload.Drawer = room.Players[st.DrawerIdx].ID
		}
		payload.Deadline = st.Deadline
		payload.Strokes = st.Strokes
	}
	switch st.Phase {
	case model.SketchDrawing:
		payload.MaskedWord = st.MaskedWord(st.HintRevealCount(now, room.Config.RoundDuration))
	case model.SketchRoundEnd:
		payload.MaskedWord = st.Word
	}

	return model.Event{
		Type:    model.EventGameStateSnapshot,
		RoomID:  room.ID,
		To:      playerID,
		Payload: payload,
	}
}

// WordFor returns a private word event if the player is the active drawer
// (used on reconnect), or nil
func (e *Engine) WordFor(room *model.Room, playerID model.PlayerID) *model.Event {
	st := room.Sketch
	if st.Phase != model.SketchDrawing || room.PlayerIndex(playerID) != st.DrawerIdx {
		return nil
	}
	return &model.Event{
		Type:    model.EventWordAssigned,
		RoomID:  room.ID,
		To:      playerID,
		Payload: model.WordAssignedPayload{Word: st.Word},
	}
}

// beginRound rotates to the next drawer, selects a word and enters drawing.
// With fresh set, scores and the drawer rotation restart for a new game.
// Nothing is mutated until the word selection has succeeded.
func (e *Engine) beginRound(room *model.Room, fresh bool) ([]model.Event, error) {
	st := room.Sketch

	drawerIdx := -1
	cycleReset := fresh
	if !fresh {
		drawerIdx = e.nextDrawer(room)
		if drawerIdx < 0 {
			// Every candidate has drawn: new rotation cycle
			cycleReset = true
		}
	}
	if cycleReset {
		for i, p := range room.Players {
			if p.Connected {
				drawerIdx = i
				break
			}
		}
	}
	if drawerIdx < 0 {
		return nil, model.ErrInsufficientPlayers
	}

	exclude := make(map[string]struct{}, len(st.UsedWords))
	if !fresh {
		for _, w := range st.UsedWords {
			exclude[w] = struct{}{}
		}
	}
	word, err := e.words.NextWord(exclude)
	if err != nil {
		return nil, err
	}

	// Word in hand; everything below is infallible, so commit
	if fresh {
		for _, p := range room.Players {
			p.Score = 0
			p.ScoredAt = time.Time{}
		}
		st.Round = 0
		st.UsedWords = nil
	}
	if cycleReset {
		for _, p := range room.Players {
			p.HasDrawn = false
		}
	}
	drawer := room.Players[drawerIdx]
	drawer.HasDrawn = true

	now := e.clock.Now()
	st.Phase = model.SketchDrawing
	st.Round++
	st.DrawerIdx = drawerIdx
	st.Word = word
	st.RevealOrder = e.permutation(len([]rune(word)))
	st.CorrectCount = 0
	st.Strokes = nil
	st.RoundStartedAt = now
	st.Deadline = now.Add(room.Config.RoundDuration)
	for _, p := range room.Players {
		p.HasGuessed = false
	}

	e.logger.Info("round started",
		slog.String("room_id", string(room.ID)),
		slog.Int("round", st.Round),
		slog.String("drawer", string(drawer.ID)))

	return []model.Event{
		{
			Type:   model.EventRoundStarted,
			RoomID: room.ID,
			Payload: model.RoundStartedPayload{
				Round:      st.Round,
				MaxRounds:  room.Config.MaxRounds,
				Drawer:     drawer.ID,
				WordLength: len([]rune(word)),
				MaskedWord: st.MaskedWord(0),
				Deadline:   st.Deadline,
			},
		},
		{
			Type:    model.EventWordAssigned,
			RoomID:  room.ID,
			To:      drawer.ID,
			Payload: model.WordAssignedPayload{Word: word},
		},
	}, nil
}

// nextDrawer picks the first connected player in join order who has not
// drawn this cycle, or -1
func (e *Engine) nextDrawer(room *model.Room) int {
	for i, p := range room.Players {
		if p.Connected && !p.HasDrawn {
			return i
		}
	}
	return -1
}

// endRound reveals the word and enters the round_end pause
func (e *Engine) endRound(room *model.Room, forced bool) []model.Event {
	st := room.Sketch
	now := e.clock.Now()

	st.Phase = model.SketchRoundEnd
	st.Deadline = now.Add(room.Config.RoundEndPause)
	st.UsedWords = append(st.UsedWords, st.Word)

	msg := model.ChatMessage{
		Content: fmt.Sprintf("The word was %q", st.Word),
		SentAt:  now,
		System:  true,
	}
	room.Chat.Append(msg)

	e.logger.Info("round ended",
		slog.String("room_id", string(room.ID)),
		slog.Int("round", st.Round),
		slog.Bool("forced", forced))

	return []model.Event{
		{
			Type:    model.EventChatMessage,
			RoomID:  room.ID,
			Payload: model.ChatMessagePayload{Message: msg},
		},
		{
			Type:   model.EventRoundEnded,
			RoomID: room.ID,
			Payload: model.RoundEndedPayload{
				Round:  st.Round,
				Word:   st.Word,
				Scores: e.scores(room),
				Forced: forced,
			},
		},
	}
}

// endGame computes the final ranking and enters game_end
func (e *Engine) endGame(room *model.Room) []model.Event {
	st := room.Sketch
	st.Phase = model.SketchGameEnd
	st.Deadline = time.Time{}

	ranking := e.scores(room)
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		// Equal scores: whoever reached theirs first ranks higher
		pi := room.GetPlayer(ranking[i].PlayerID)
		pj := room.GetPlayer(ranking[j].PlayerID)
		return pi.ScoredAt.Before(pj.ScoredAt)
	})

	var winner model.PlayerID
	if len(ranking) > 0 {
		winner = ranking[0].PlayerID
	}

	e.logger.Info("game ended",
		slog.String("room_id", string(room.ID)),
		slog.String("winner", string(winner)))

	return []model.Event{{
		Type:   model.EventGameEnded,
		RoomID: room.ID,
		Payload: model.GameEndedPayload{
			Ranking: ranking,
			Winner:  winner,
		},
	}}
}

// resetToWaiting clears round state and returns to the waiting phase
func (e *Engine) resetToWaiting(room *model.Room) []model.Event {
	st := room.Sketch
	st.Phase = model.SketchWaiting
	st.Word = ""
	st.RevealOrder = nil
	st.CorrectCount = 0
	st.Strokes = nil
	st.Deadline = time.Time{}
	for _, p := range room.Players {
		p.HasGuessed = false
	}

	return []model.Event{{
		Type:    model.EventRoomReset,
		RoomID:  room.ID,
		Payload: model.MembershipChangedPayload{Players: room.Summaries()},
	}}
}

// scores returns score entries in seat order
func (e *Engine) scores(room *model.Room) []model.ScoreEntry {
	entries := make([]model.ScoreEntry, len(room.Players))
	for i, p := range room.Players {
		entries[i] = model.ScoreEntry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		}
	}
	return entries
}

// permutation returns a random permutation of [0, n)
func (e *Engine) permutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := e.random.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
