package model

import (
	"strings"
	"time"
)

// SketchPhase represents the current phase of a sketch game
type SketchPhase string

const (
	SketchWaiting  SketchPhase = "waiting"   // Not enough players or game not started
	SketchDrawing  SketchPhase = "drawing"   // Drawer is drawing, others guess
	SketchRoundEnd SketchPhase = "round_end" // Word revealed, pause before next round
	SketchGameEnd  SketchPhase = "game_end"  // All rounds played, final ranking shown
)

// SketchState is the mutable game progress of a sketch room
type SketchState struct {
	Phase SketchPhase

	// Round is the 1-based round number; one round = one drawer/word
	Round int

	// DrawerIdx indexes into the room's player list
	DrawerIdx int

	// Word is the secret word for the current round
	Word string

	// RevealOrder is a permutation of letter indices; hint letters are
	// revealed in this order as the round elapses
	RevealOrder []int

	// CorrectCount is how many guessers have scored this round; it drives
	// the decreasing score award
	CorrectCount int

	// UsedWords are words already played in this room, excluded from selection
	UsedWords []string

	RoundStartedAt time.Time

	// Deadline is when the current phase expires (drawing and round_end
	// phases only); zero when no timer is pending
	Deadline time.Time

	// Strokes is the stroke log for the current round, cleared at round reset
	Strokes []Stroke
}

// NewSketchState returns a fresh state in the waiting phase
func NewSketchState() *SketchState {
	return &SketchState{Phase: SketchWaiting}
}

// MaskedWord renders the word with all but the first revealed letters hidden.
// revealed is clamped to the reveal order length.
func (s *SketchState) MaskedWord(revealed int) string {
	if s.Word == "" {
		return ""
	}
	letters := []rune(s.Word)
	shown := make(map[int]bool, revealed)
	for i := 0; i < revealed && i < len(s.RevealOrder); i++ {
		shown[s.RevealOrder[i]] = true
	}
	var b strings.Builder
	for i, r := range letters {
		if shown[i] || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// HintRevealCount returns how many letters of the word should be revealed at
// the given time. Reveals are monotone over the round: up to half the
// letters, in fixed steps of elapsed time. Purely a display hint; never
// affects scoring.
func (s *SketchState) HintRevealCount(now time.Time, roundDuration time.Duration) int {
	if s.Phase != SketchDrawing || roundDuration <= 0 {
		return 0
	}
	elapsed := now.Sub(s.RoundStartedAt)
	if elapsed <= 0 {
		return 0
	}
	frac := float64(elapsed) / float64(roundDuration)
	if frac > 1 {
		frac = 1
	}
	maxReveal := len([]rune(s.Word)) / 2
	return int(frac * float64(maxReveal))
}
