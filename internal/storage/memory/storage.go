package memory

import (
	"context"
	"sync"

	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	words  []string
	recent []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = make([]string, len(words))
	copy(s.words, words)
	return nil
}

func (s *Storage) GetWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.words == nil {
		return nil, model.ErrWordsNotLoaded
	}
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out, nil
}

func (s *Storage) AddRecentWord(ctx context.Context, word string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append([]string{word}, s.recent...)
	if limit > 0 && len(s.recent) > limit {
		s.recent = s.recent[:limit]
	}
	return nil
}

func (s *Storage) GetRecentWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.recent))
	copy(out, s.recent)
	return out, nil
}
