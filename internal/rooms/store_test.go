package rooms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkarppi/sketchparty/internal/dependencies/mocks"
	"github.com/mkarppi/sketchparty/internal/engine/duel"
	"github.com/mkarppi/sketchparty/internal/engine/sketch"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/testutil"
)

type captureSink struct {
	events []model.Event
}

func (c *captureSink) Deliver(events []model.Event) {
	c.events = append(c.events, events...)
}

func (c *captureSink) reset() {
	c.events = nil
}

func (c *captureSink) types() []model.EventType {
	types := make([]model.EventType, len(c.events))
	for i, ev := range c.events {
		types[i] = ev.Type
	}
	return types
}

type stubWords struct {
	queue []string
}

func (s *stubWords) NextWord(exclude map[string]struct{}) (string, error) {
	if len(s.queue) == 0 {
		return "", model.ErrWordsNotLoaded
	}
	word := s.queue[0]
	if len(s.queue) > 1 {
		s.queue = s.queue[1:]
	}
	return word, nil
}

type StoreSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	scheduler *mocks.MockScheduler
	sink      *captureSink
	store     *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.scheduler = mocks.NewMockScheduler()
	s.sink = &captureSink{}

	words := &stubWords{queue: []string{"otter", "bridge", "lantern"}}
	sketchEngine := sketch.New(words, s.clock, mocks.NewMockRandom(), sketch.DefaultConfig(), logger)
	duelEngine := duel.New(s.clock, logger)

	s.store = NewStore(DefaultConfig(), sketchEngine, duelEngine, s.scheduler, s.clock, s.sink, logger)
}

func (s *StoreSuite) join(roomID model.RoomID, variant model.Variant, playerID model.PlayerID) *Room {
	room, _, err := s.store.CreateOrJoin(roomID, variant, playerID, string(playerID))
	s.Require().NoError(err)
	return room
}

func (s *StoreSuite) TestCreateOrJoinValidation() {
	_, _, err := s.store.CreateOrJoin("  ", model.VariantSketch, "alice", "Alice")
	s.ErrorIs(err, model.ErrEmptyRoomID)

	_, _, err = s.store.CreateOrJoin("R1", "chess", "alice", "Alice")
	s.ErrorIs(err, model.ErrBadVariant)

	s.Zero(s.store.Count())
}

func (s *StoreSuite) TestVariantFixedAtCreation() {
	s.join("R1", model.VariantSketch, "alice")

	_, _, err := s.store.CreateOrJoin("R1", model.VariantDuel, "bob", "Bob")
	s.ErrorIs(err, model.ErrVariantInUse)
	s.Equal(1, s.store.Count())
}

func (s *StoreSuite) TestJoinSameRoomSharesState() {
	first := s.join("R1", model.VariantSketch, "alice")
	second := s.join("R1", model.VariantSketch, "bob")

	s.Same(first, second)
	s.Equal(1, s.store.Count())

	desc := s.store.Descriptions()
	s.Require().Len(desc, 1)
	s.Equal(2, desc[0].Players)
	s.Equal("waiting", desc[0].Phase)
}

func (s *StoreSuite) TestDuelRoomCapacity() {
	s.join("D1", model.VariantDuel, "alice")
	s.join("D1", model.VariantDuel, "bob")

	_, _, err := s.store.CreateOrJoin("D1", model.VariantDuel, "carol", "Carol")
	s.ErrorIs(err, model.ErrRoomFull)
}

func (s *StoreSuite) TestJoinerReceivesPrivateSnapshot() {
	s.join("R1", model.VariantSketch, "alice")
	s.sink.reset()
	s.join("R1", model.VariantSketch, "bob")

	s.Require().NotEmpty(s.sink.events)
	snapshot := s.sink.events[0]
	s.Equal(model.EventGameStateSnapshot, snapshot.Type)
	s.Equal(model.PlayerID("bob"), snapshot.To)
	s.Contains(s.sink.types(), model.EventMembershipChanged)
}

func (s *StoreSuite) TestRoundTimerDrivesPhases() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	_, err := room.Start("alice")
	s.Require().NoError(err)

	cfg := model.DefaultSketchConfig()
	s.Equal(1, s.scheduler.Pending())
	s.Equal(cfg.RoundDuration, s.scheduler.LastDelay())

	// Deadline passes, the timer fires: round ends and the pause timer arms
	s.clock.Advance(cfg.RoundDuration)
	s.sink.reset()
	s.Require().True(s.scheduler.FireNext())

	s.Contains(s.sink.types(), model.EventRoundEnded)
	s.Equal(1, s.scheduler.Pending())
	s.Equal(cfg.RoundEndPause, s.scheduler.LastDelay())

	// Pause passes: the next round begins with a fresh round timer
	s.clock.Advance(cfg.RoundEndPause)
	s.sink.reset()
	s.Require().True(s.scheduler.FireNext())

	s.Contains(s.sink.types(), model.EventRoundStarted)
	s.Equal(cfg.RoundDuration, s.scheduler.LastDelay())
}

func (s *StoreSuite) TestEarlyRoundEndSupersedesTimer() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	_, err := room.Start("alice")
	s.Require().NoError(err)

	// Bob guesses right away: the round timer is cancelled and replaced by
	// the pause timer
	_, err = room.Chat("bob", "otter")
	s.Require().NoError(err)

	s.Equal(1, s.scheduler.Pending())
	s.Equal(model.DefaultSketchConfig().RoundEndPause, s.scheduler.LastDelay())
}

func (s *StoreSuite) TestStaleTimerGenerationIsIgnored() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	_, err := room.Start("alice")
	s.Require().NoError(err)

	// A callback that lost the race to a newer generation must not touch
	// the room
	s.sink.reset()
	room.expire(room.timerGen - 1)

	s.Empty(s.sink.events)
	s.Equal(model.SketchDrawing, room.state.Sketch.Phase)
}

func (s *StoreSuite) TestDisconnectHoldsSeatThroughGrace() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	room.Disconnect("bob")

	// Seat and score survive while the grace timer is pending
	s.NotNil(room.state.GetPlayer("bob"))
	s.False(room.state.GetPlayer("bob").Connected)

	// Grace runs out without a reconnect: the seat is vacated
	s.Require().True(s.scheduler.FireNext())
	s.Nil(room.state.GetPlayer("bob"))
}

func (s *StoreSuite) TestReconnectWithinGraceKeepsSeat() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")
	room.state.GetPlayer("bob").Score = 120

	room.Disconnect("bob")
	s.join("R1", model.VariantSketch, "bob")

	// The stale grace callback fires but finds its generation superseded
	s.scheduler.FireAll()

	bob := room.state.GetPlayer("bob")
	s.Require().NotNil(bob)
	s.True(bob.Connected)
	s.Equal(120, bob.Score)
}

func (s *StoreSuite) TestReconnectingDrawerGetsWordBack() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	_, err := room.Start("alice")
	s.Require().NoError(err)

	s.sink.reset()
	s.join("R1", model.VariantSketch, "alice") // fresh connection, same player

	types := s.sink.types()
	s.Contains(types, model.EventGameStateSnapshot)
	s.Contains(types, model.EventWordAssigned)
}

func (s *StoreSuite) TestLastLeaveDestroysRoom() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	room.Leave("alice")
	s.Equal(1, s.store.Count())

	room.Leave("bob")
	s.Zero(s.store.Count())

	// The id is free for a fresh room, even with a different variant
	s.join("R1", model.VariantDuel, "carol")
	s.Equal(1, s.store.Count())
}

func (s *StoreSuite) TestDrawerLeaveMidRoundEndsRound() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")
	s.join("R1", model.VariantSketch, "carol")

	_, err := room.Start("alice")
	s.Require().NoError(err)
	s.sink.reset()

	room.Leave("alice")
	s.Contains(s.sink.types(), model.EventRoundEnded)
	s.Equal(model.SketchRoundEnd, room.state.Sketch.Phase)

	// The seat that inherited the drawer index holds no word and no
	// stroke rights
	_, err = room.Stroke("bob", model.Stroke{X: 1, Y: 2})
	s.ErrorIs(err, model.ErrInvalidPhaseAction)

	// The pause timer carries the game into the next round as usual
	s.scheduler.FireNext()
	s.Equal(model.SketchDrawing, room.state.Sketch.Phase)
}

func (s *StoreSuite) TestActionsAgainstClosedRoomRejected() {
	room := s.join("R1", model.VariantSketch, "alice")
	room.Leave("alice")

	_, err := room.Start("alice")
	s.ErrorIs(err, model.ErrRoomClosed)
}

func (s *StoreSuite) TestReaperRemovesIdleRooms() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")
	s.join("R2", model.VariantSketch, "carol")

	room.Disconnect("alice")
	room.Disconnect("bob")

	// R1 has seats but no connections; R2 still has carol connected
	s.clock.Advance(DefaultConfig().IdleTTL + time.Minute)
	s.Equal(1, s.store.Reap())
	s.Equal(1, s.store.Count())
	s.Nil(s.store.Lookup("R1"))
	s.NotNil(s.store.Lookup("R2"))

	// Pending grace callbacks for the reaped room are harmless no-ops
	s.scheduler.FireAll()
}

func (s *StoreSuite) TestChatOutsideDrawingIsPlainChat() {
	room := s.join("R1", model.VariantSketch, "alice")
	s.join("R1", model.VariantSketch, "bob")

	s.sink.reset()
	_, err := room.Chat("alice", "hello there")
	s.Require().NoError(err)

	s.Equal([]model.EventType{model.EventChatMessage}, s.sink.types())
	s.Zero(room.state.GetPlayer("alice").Score)
}

func (s *StoreSuite) TestVariantActionMismatchRejected() {
	sketchRoom := s.join("R1", model.VariantSketch, "alice")
	duelRoom := s.join("D1", model.VariantDuel, "bob")

	_, err := sketchRoom.Move("alice", 0)
	s.ErrorIs(err, model.ErrInvalidPhaseAction)

	_, err = duelRoom.Stroke("bob", model.Stroke{X: 1, Y: 1})
	s.ErrorIs(err, model.ErrInvalidPhaseAction)
}
