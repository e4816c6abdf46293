package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarppi/sketchparty/internal/testutil"
)

func TestRegistryRoomIndex(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())

	a := NewSession("c1", "alice", "Alice", "R1")
	b := NewSession("c2", "bob", "Bob", "R1")
	c := NewSession("c3", "carol", "Carol", "R2")
	r.Add(a)
	r.Add(b)
	r.Add(c)

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.ForRoom("R1"), 2)
	assert.Len(t, r.ForRoom("R2"), 1)
	assert.Empty(t, r.ForRoom("R3"))
	assert.Same(t, b, r.Get("c2"))

	r.Remove("c2")
	assert.Len(t, r.ForRoom("R1"), 1)
	assert.Nil(t, r.Get("c2"))
}

func TestRegistryForPlayerOverlappingSessions(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())

	old := NewSession("c1", "alice", "Alice", "R1")
	replacement := NewSession("c2", "alice", "Alice", "R1")
	r.Add(old)
	r.Add(replacement)

	assert.Len(t, r.ForPlayer("R1", "alice"), 2)
	assert.Empty(t, r.ForPlayer("R1", "bob"))
}

func TestSessionSendAfterCloseReturnsFalse(t *testing.T) {
	s := NewSession("c1", "alice", "Alice", "R1")
	require.True(t, s.Send([]byte("hi")))

	s.Close()
	s.Close() // idempotent
	assert.False(t, s.Send([]byte("bye")))
}

func TestSessionSendDropsWhenOutboxFull(t *testing.T) {
	s := NewSession("c1", "alice", "Alice", "R1")
	for i := 0; i < sendBuffer; i++ {
		require.True(t, s.Send([]byte("x")))
	}
	assert.False(t, s.Send([]byte("overflow")))

	// Draining one frame frees a slot
	<-s.Outbox()
	assert.True(t, s.Send([]byte("again")))
}

func TestRemoveClosesOutbox(t *testing.T) {
	r := NewRegistry(testutil.NopLogger())
	s := NewSession("c1", "alice", "Alice", "R1")
	r.Add(s)
	r.Remove("c1")

	_, open := <-s.Outbox()
	assert.False(t, open)
}
