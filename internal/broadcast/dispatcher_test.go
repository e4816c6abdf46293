package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/sessions"
	"github.com/mkarppi/sketchparty/internal/testutil"
)

func drain(s *sessions.Session) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-s.Outbox():
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestDeliverBroadcastsToRoom(t *testing.T) {
	registry := sessions.NewRegistry(testutil.NopLogger())
	alice := sessions.NewSession("c1", "alice", "Alice", "R1")
	bob := sessions.NewSession("c2", "bob", "Bob", "R1")
	other := sessions.NewSession("c3", "carol", "Carol", "R2")
	registry.Add(alice)
	registry.Add(bob)
	registry.Add(other)

	d := NewDispatcher(registry, testutil.NopLogger())
	d.Deliver([]model.Event{{
		Type:    model.EventChatMessage,
		RoomID:  "R1",
		Payload: model.ChatMessagePayload{Message: model.ChatMessage{Content: "hi"}},
	}})

	require.Len(t, drain(alice), 1)
	require.Len(t, drain(bob), 1)
	assert.Empty(t, drain(other))
}

func TestDeliverTargetsSinglePlayer(t *testing.T) {
	registry := sessions.NewRegistry(testutil.NopLogger())
	alice := sessions.NewSession("c1", "alice", "Alice", "R1")
	bob := sessions.NewSession("c2", "bob", "Bob", "R1")
	registry.Add(alice)
	registry.Add(bob)

	d := NewDispatcher(registry, testutil.NopLogger())
	d.Deliver([]model.Event{{
		Type:    model.EventWordAssigned,
		RoomID:  "R1",
		To:      "alice",
		Payload: model.WordAssignedPayload{Word: "otter"},
	}})

	frames := drain(alice)
	require.Len(t, frames, 1)
	assert.Empty(t, drain(bob))

	var env struct {
		Type    model.EventType          `json:"type"`
		Payload model.WordAssignedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frames[0], &env))
	assert.Equal(t, model.EventWordAssigned, env.Type)
	assert.Equal(t, "otter", env.Payload.Word)
}

func TestDeliverSkipsExcludedPlayer(t *testing.T) {
	registry := sessions.NewRegistry(testutil.NopLogger())
	alice := sessions.NewSession("c1", "alice", "Alice", "R1")
	bob := sessions.NewSession("c2", "bob", "Bob", "R1")
	registry.Add(alice)
	registry.Add(bob)

	d := NewDispatcher(registry, testutil.NopLogger())
	d.Deliver([]model.Event{{
		Type:    model.EventDrawingUpdate,
		RoomID:  "R1",
		Exclude: "alice",
		Payload: model.DrawingUpdatePayload{Stroke: model.Stroke{X: 1, Y: 2, Author: "alice"}},
	}})

	assert.Empty(t, drain(alice))
	assert.Len(t, drain(bob), 1)
}

func TestDeliverToReachesOnlyThatConnection(t *testing.T) {
	registry := sessions.NewRegistry(testutil.NopLogger())
	first := sessions.NewSession("c1", "alice", "Alice", "R1")
	second := sessions.NewSession("c2", "alice", "Alice", "R1")
	registry.Add(first)
	registry.Add(second)

	d := NewDispatcher(registry, testutil.NopLogger())
	d.DeliverTo("c2", []model.Event{{
		Type:    model.EventActionRejected,
		Payload: model.ActionRejectedPayload{Code: "invalid_phase", Message: "action not valid"},
	}})

	assert.Empty(t, drain(first))
	assert.Len(t, drain(second), 1)
}

func TestDeliverToUnknownConnectionIsNoop(t *testing.T) {
	registry := sessions.NewRegistry(testutil.NopLogger())
	d := NewDispatcher(registry, testutil.NopLogger())
	d.DeliverTo("missing", []model.Event{{Type: model.EventChatMessage}})
}
