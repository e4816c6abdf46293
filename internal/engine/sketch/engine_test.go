package sketch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkarppi/sketchparty/internal/dependencies/mocks"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/testutil"
)

// stubWords returns queued words in order, cycling the last one
type stubWords struct {
	queue       []string
	lastExclude map[string]struct{}
}

func (s *stubWords) NextWord(exclude map[string]struct{}) (string, error) {
	s.lastExclude = exclude
	if len(s.queue) == 0 {
		return "", model.ErrWordsNotLoaded
	}
	word := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	return word, nil
}

type EngineSuite struct {
	suite.Suite
	words  *stubWords
	clock  *mocks.MockClock
	random *mocks.MockRandom
	engine *Engine
	room   *model.Room
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.words = &stubWords{queue: []string{"otter", "bridge", "lantern", "comet"}}
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.engine = New(s.words, s.clock, s.random, DefaultConfig(), testutil.NopLogger())

	s.room = &model.Room{
		ID:      "R1",
		Variant: model.VariantSketch,
		Config:  model.DefaultSketchConfig(),
		Sketch:  model.NewSketchState(),
		Chat:    model.NewChatHistory(50),
	}
	s.addPlayer("alice", "Alice")
	s.addPlayer("bob", "Bob")
}

func (s *EngineSuite) addPlayer(id model.PlayerID, name string) *model.Player {
	p := &model.Player{
		ID:          id,
		DisplayName: name,
		Connected:   true,
		JoinedAt:    s.clock.Now(),
	}
	s.room.Players = append(s.room.Players, p)
	return p
}

func (s *EngineSuite) start() {
	_, err := s.engine.Start(s.room, "alice")
	s.Require().NoError(err)
}

func eventTypes(events []model.Event) []model.EventType {
	types := make([]model.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

// Start

func (s *EngineSuite) TestStartSoloRejected() {
	s.room.Players = s.room.Players[:1]

	_, err := s.engine.Start(s.room, "alice")
	s.ErrorIs(err, model.ErrInsufficientPlayers)
	s.ErrorIs(err, model.ErrInvalidPhaseAction)
	s.Equal(model.SketchWaiting, s.room.Sketch.Phase)
}

func (s *EngineSuite) TestStartEntersDrawingWithFirstJoinerAsDrawer() {
	events, err := s.engine.Start(s.room, "bob")
	s.Require().NoError(err)

	st := s.room.Sketch
	s.Equal(model.SketchDrawing, st.Phase)
	s.Equal(1, st.Round)
	s.Equal(0, st.DrawerIdx) // Alice joined first
	s.Equal("otter", st.Word)
	s.Equal(s.clock.Now().Add(s.room.Config.RoundDuration), st.Deadline)

	s.Equal([]model.EventType{model.EventRoundStarted, model.EventWordAssigned}, eventTypes(events))

	// The word goes only to the drawer
	s.Equal(model.PlayerID("alice"), events[1].To)
	s.Empty(events[0].To)
	started := events[0].Payload.(model.RoundStartedPayload)
	s.Equal("_____", started.MaskedWord)
	s.Equal(5, started.WordLength)
}

func (s *EngineSuite) TestStartOutsideWaitingRejected() {
	s.start()
	_, err := s.engine.Start(s.room, "alice")
	s.ErrorIs(err, model.ErrInvalidPhaseAction)
}

// Guess

func (s *EngineSuite) TestGuessBeforeStartRejectedWithoutMutation() {
	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.ErrorIs(err, model.ErrInvalidPhaseAction)
	s.Zero(s.room.GetPlayer("bob").Score)
	s.Zero(s.room.Chat.Len())
}

func (s *EngineSuite) TestWrongGuessIsPlainChat() {
	s.start()

	events, err := s.engine.Guess(s.room, "bob", "ferret")
	s.Require().NoError(err)

	s.Equal([]model.EventType{model.EventChatMessage}, eventTypes(events))
	s.Zero(s.room.GetPlayer("bob").Score)
	s.Equal(1, s.room.Chat.Len())
	s.False(s.room.Chat.Messages()[0].Correct)
}

func (s *EngineSuite) TestCorrectGuessScoresAndEndsRoundEarly() {
	s.start()

	events, err := s.engine.Guess(s.room, "bob", "  Otter ")
	s.Require().NoError(err)

	// Bob was the only guesser, so the round short-circuits the timer
	s.Equal(model.SketchRoundEnd, s.room.Sketch.Phase)
	s.Equal(100, s.room.GetPlayer("bob").Score)
	s.True(s.room.GetPlayer("bob").HasGuessed)
	s.Contains(eventTypes(events), model.EventRoundEnded)

	// The raw word never appears in chat
	for _, msg := range s.room.Chat.Messages() {
		if msg.Correct {
			s.NotContains(msg.Content, "otter")
		}
	}
}

func (s *EngineSuite) TestLaterGuessersScoreLess() {
	s.addPlayer("carol", "Carol")
	s.start()

	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.Require().NoError(err)
	_, err = s.engine.Guess(s.room, "carol", "otter")
	s.Require().NoError(err)

	s.Equal(100, s.room.GetPlayer("bob").Score)
	s.Equal(80, s.room.GetPlayer("carol").Score)
}

func (s *EngineSuite) TestScoreAwardedAtMostOncePerRound() {
	s.addPlayer("carol", "Carol")
	s.start()

	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.Require().NoError(err)

	events, err := s.engine.Guess(s.room, "bob", "otter")
	s.Require().NoError(err)
	s.Empty(events)
	s.Equal(100, s.room.GetPlayer("bob").Score)
}

func (s *EngineSuite) TestDrawerCannotGuess() {
	s.start()

	_, err := s.engine.Guess(s.room, "alice", "otter")
	s.ErrorIs(err, model.ErrDrawerCannotGuess)
	s.Zero(s.room.GetPlayer("alice").Score)
}

func (s *EngineSuite) TestGuessAfterDeadlineIsStale() {
	s.start()
	s.clock.Advance(s.room.Config.RoundDuration + time.Second)

	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.ErrorIs(err, model.ErrStaleAction)
	s.Zero(s.room.GetPlayer("bob").Score)
}

func (s *EngineSuite) TestEmptyGuessRejected() {
	s.start()
	_, err := s.engine.Guess(s.room, "bob", "   ")
	s.ErrorIs(err, model.ErrEmptyGuess)
	s.ErrorIs(err, model.ErrValidation)
}

// Strokes

func (s *EngineSuite) TestStrokeFromDrawerBroadcasts() {
	s.start()

	events, err := s.engine.Stroke(s.room, "alice", model.Stroke{X: 1, Y: 2, Color: "#000", PenDown: true})
	s.Require().NoError(err)

	s.Equal([]model.EventType{model.EventDrawingUpdate}, eventTypes(events))
	s.Len(s.room.Sketch.Strokes, 1)
	s.Equal(model.PlayerID("alice"), s.room.Sketch.Strokes[0].Author)

	// Room-wide, including the artist: every client renders the committed
	// sequence
	s.Empty(events[0].To)
	s.Empty(events[0].Exclude)
}

func (s *EngineSuite) TestStrokeFromNonDrawerRejected() {
	s.start()

	_, err := s.engine.Stroke(s.room, "bob", model.Stroke{X: 1, Y: 2})
	s.ErrorIs(err, model.ErrNotDrawer)
	s.Empty(s.room.Sketch.Strokes)
}

// Timer expiry and round flow

func (s *EngineSuite) TestExpireInDrawingRevealsWord() {
	s.start()
	s.clock.Advance(s.room.Config.RoundDuration)

	events, err := s.engine.Expire(s.room)
	s.Require().NoError(err)

	s.Equal(model.SketchRoundEnd, s.room.Sketch.Phase)
	s.Contains(eventTypes(events), model.EventRoundEnded)
	ended := events[len(events)-1].Payload.(model.RoundEndedPayload)
	s.Equal("otter", ended.Word)
}

func (s *EngineSuite) TestExpireInRoundEndRotatesDrawer() {
	s.start()
	_, err := s.engine.Expire(s.room) // reveal
	s.Require().NoError(err)

	events, err := s.engine.Expire(s.room) // pause over
	s.Require().NoError(err)

	st := s.room.Sketch
	s.Equal(model.SketchDrawing, st.Phase)
	s.Equal(2, st.Round)
	s.Equal(1, st.DrawerIdx) // rotated to Bob
	s.Equal("bridge", st.Word)
	s.Equal(model.PlayerID("bob"), events[1].To)

	// The word played in round one is excluded from selection
	s.Contains(s.words.lastExclude, "otter")
}

func (s *EngineSuite) TestGameEndsAfterMaxRounds() {
	s.room.Config.MaxRounds = 2
	s.start()

	for round := 0; round < 2; round++ {
		_, err := s.engine.Expire(s.room) // reveal
		s.Require().NoError(err)
		_, err = s.engine.Expire(s.room) // next round or game end
		s.Require().NoError(err)
	}

	s.Equal(model.SketchGameEnd, s.room.Sketch.Phase)

	// game_end is terminal for the timer path: nothing re-enters drawing
	_, err := s.engine.Expire(s.room)
	s.ErrorIs(err, model.ErrStaleAction)
	s.Equal(model.SketchGameEnd, s.room.Sketch.Phase)
}

func (s *EngineSuite) TestFinalRankingBreaksTiesByEarliestScore() {
	s.addPlayer("carol", "Carol")
	s.room.Config.MaxRounds = 1
	s.start()

	// Bob scores 100 first; Carol also ends on 100 via a later, equal award
	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.Require().NoError(err)
	s.room.GetPlayer("carol").Score = 100
	s.room.GetPlayer("carol").ScoredAt = s.clock.Now().Add(time.Second)

	_, err = s.engine.Expire(s.room) // reveal
	s.Require().NoError(err)
	events, err := s.engine.Expire(s.room) // pause over, game ends
	s.Require().NoError(err)

	ended := events[len(events)-1].Payload.(model.GameEndedPayload)
	s.Equal(model.PlayerID("bob"), ended.Winner)
	s.Equal(model.PlayerID("bob"), ended.Ranking[0].PlayerID)
	s.Equal(model.PlayerID("carol"), ended.Ranking[1].PlayerID)
}

// Disconnects

func (s *EngineSuite) TestDrawerDisconnectForcesRevealAndWaiting() {
	s.start()
	s.room.GetPlayer("alice").Connected = false

	events := s.engine.HandleDisconnect(s.room, "alice")

	// 2-player room: the minimum cannot be maintained, so the round is
	// revealed and the room returns to waiting instead of rotating
	s.Equal(model.SketchWaiting, s.room.Sketch.Phase)
	s.Contains(eventTypes(events), model.EventRoundEnded)
	s.Contains(eventTypes(events), model.EventRoomReset)
	s.Zero(s.room.GetPlayer("bob").Score)
}

func (s *EngineSuite) TestDrawerDisconnectWithEnoughPlayersEndsRoundOnly() {
	s.addPlayer("carol", "Carol")
	s.start()
	s.room.GetPlayer("alice").Connected = false

	events := s.engine.HandleDisconnect(s.room, "alice")

	s.Equal(model.SketchRoundEnd, s.room.Sketch.Phase)
	s.Contains(eventTypes(events), model.EventRoundEnded)
	s.NotContains(eventTypes(events), model.EventRoomReset)
}

func (s *EngineSuite) TestGuesserDisconnectLeavingAllCorrectEndsRound() {
	s.addPlayer("carol", "Carol")
	s.start()

	_, err := s.engine.Guess(s.room, "bob", "otter")
	s.Require().NoError(err)

	s.room.GetPlayer("carol").Connected = false
	events := s.engine.HandleDisconnect(s.room, "carol")

	s.Equal(model.SketchRoundEnd, s.room.Sketch.Phase)
	s.Contains(eventTypes(events), model.EventRoundEnded)
}

func (s *EngineSuite) TestDrawerLeaveMidRoundForcesReveal() {
	s.addPlayer("carol", "Carol")
	s.start()

	s.room.RemovePlayer("alice")
	events := s.engine.HandleRemove(s.room, 0)

	// The inheriting seat never saw the word, so the round cannot continue
	s.Equal(model.SketchRoundEnd, s.room.Sketch.Phase)
	s.Contains(eventTypes(events), model.EventRoundEnded)
	s.NotContains(eventTypes(events), model.EventRoomReset)

	_, err := s.engine.Stroke(s.room, "bob", model.Stroke{X: 1, Y: 2})
	s.ErrorIs(err, model.ErrInvalidPhaseAction)
}

func (s *EngineSuite) TestNonDrawerLeaveMidRoundKeepsDrawing() {
	s.addPlayer("carol", "Carol")
	s.start()

	s.room.RemovePlayer("carol")
	events := s.engine.HandleRemove(s.room, 2)

	s.Equal(model.SketchDrawing, s.room.Sketch.Phase)
	s.NotContains(eventTypes(events), model.EventRoundEnded)
	s.Equal(0, s.room.Sketch.DrawerIdx)
}

func (s *EngineSuite) TestStartFailureLeavesRoomUntouched() {
	s.words.queue = nil
	alice := s.room.GetPlayer("alice")
	bob := s.room.GetPlayer("bob")
	alice.Score = 250
	alice.HasDrawn = true
	bob.Score = 180
	s.room.Sketch.Round = 3
	s.room.Sketch.UsedWords = []string{"otter"}

	_, err := s.engine.Start(s.room, "alice")
	s.ErrorIs(err, model.ErrWordsNotLoaded)

	s.Equal(model.SketchWaiting, s.room.Sketch.Phase)
	s.Equal(250, alice.Score)
	s.Equal(180, bob.Score)
	s.True(alice.HasDrawn)
	s.Equal(3, s.room.Sketch.Round)
	s.Equal([]string{"otter"}, s.room.Sketch.UsedWords)
}

func (s *EngineSuite) TestGuessLengthBoundCountsRunes() {
	s.start()

	// 150 runes but 300 bytes: within the 200-character bound
	long := strings.Repeat("ö", 150)
	events, err := s.engine.Guess(s.room, "bob", long)
	s.Require().NoError(err)
	s.Equal([]model.EventType{model.EventChatMessage}, eventTypes(events))

	_, err = s.engine.Guess(s.room, "bob", strings.Repeat("ö", 201))
	s.ErrorIs(err, model.ErrContentTooLong)
}

// Snapshot

func (s *EngineSuite) TestSnapshotMasksWordForGuessers() {
	s.start()

	ev := s.engine.SnapshotFor(s.room, "bob")
	payload := ev.Payload.(model.SnapshotPayload)

	s.Equal(model.PlayerID("bob"), ev.To)
	s.Equal("_____", payload.MaskedWord)
	s.Equal(model.PlayerID("alice"), payload.Drawer)

	// The drawer recovers the word through a private event
	word := s.engine.WordFor(s.room, "alice")
	s.Require().NotNil(word)
	s.Equal("otter", word.Payload.(model.WordAssignedPayload).Word)
	s.Nil(s.engine.WordFor(s.room, "bob"))
}

func (s *EngineSuite) TestResetReturnsToWaitingFromAnyPhase() {
	s.start()

	events, err := s.engine.Reset(s.room, "bob")
	s.Require().NoError(err)

	s.Equal(model.SketchWaiting, s.room.Sketch.Phase)
	s.Empty(s.room.Sketch.Word)
	s.Contains(eventTypes(events), model.EventRoomReset)
}
