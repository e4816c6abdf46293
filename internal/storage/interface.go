package storage

import "context"

// Storage persists the word list backing the word provider. Room state is
// deliberately not stored here: rooms are in-memory only and do not survive
// process restarts.
type Storage interface {
	// SaveWords replaces the stored word list
	SaveWords(ctx context.Context, words []string) error
	// GetWords returns the stored word list; model.ErrWordsNotLoaded if none
	GetWords(ctx context.Context) ([]string, error)

	// AddRecentWord records a word as recently played, keeping at most limit
	// entries (oldest discarded first)
	AddRecentWord(ctx context.Context, word string, limit int) error
	// GetRecentWords returns recently played words, most recent first
	GetRecentWords(ctx context.Context) ([]string, error)
}
