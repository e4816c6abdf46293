package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarppi/sketchparty/internal/model"
)

func TestGetWordsBeforeSaveFails(t *testing.T) {
	s := New()
	_, err := s.GetWords(context.Background())
	assert.ErrorIs(t, err, model.ErrWordsNotLoaded)
}

func TestSaveAndGetWords(t *testing.T) {
	s := New()
	ctx := context.Background()

	words := []string{"otter", "bridge"}
	require.NoError(t, s.SaveWords(ctx, words))

	got, err := s.GetWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, words, got)

	// Returned slice is a copy
	got[0] = "mutated"
	again, err := s.GetWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "otter", again[0])
}

func TestRecentWordsLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, w := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.AddRecentWord(ctx, w, 3))
	}

	got, err := s.GetRecentWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, got)
}
