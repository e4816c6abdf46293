package words

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mkarppi/sketchparty/internal/dependencies/random"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/storage"
)

// RecentWordLimit caps the persisted recently-played list
const RecentWordLimit = 200

// recentWordTimeout bounds the recent-word write so a slow backend cannot
// stall round starts
const recentWordTimeout = 2 * time.Second

// Provider is the word selection contract consumed by the sketch engine.
// Safe for concurrent use by any number of rooms.
type Provider interface {
	// NextWord picks a word, avoiding the excluded set where possible
	NextWord(exclude map[string]struct{}) (string, error)
}

// Service provides word selection backed by storage
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger

	mu     sync.RWMutex
	words  []string
	loaded bool
}

// New creates a new word Service
func New(store storage.Storage, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		random:  rnd,
		logger:  logger.With(slog.String("component", "words")),
	}
}

var _ Provider = (*Service)(nil)

// LoadFromFile loads words from a file (one word per line) and saves them to
// storage for future use
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := s.storage.SaveWords(ctx, words); err != nil {
		return err
	}

	s.loadWords(words)
	s.logger.Info("word list loaded from file",
		slog.String("path", path),
		slog.Int("count", len(words)))
	return nil
}

// LoadFromStorage loads words previously saved to storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	words, err := s.storage.GetWords(ctx)
	if err != nil {
		return err
	}
	s.loadWords(words)
	return nil
}

// LoadWords directly loads a slice of words (useful for testing)
func (s *Service) LoadWords(words []string) {
	s.loadWords(words)
}

func (s *Service) loadWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = make([]string, 0, len(words))
	for _, w := range words {
		s.words = append(s.words, strings.ToLower(w))
	}
	s.loaded = len(s.words) > 0
}

// IsLoaded returns whether a non-empty word list has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// WordCount returns the number of loaded words
func (s *Service) WordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// NextWord picks a random word not in the excluded set. If every word is
// excluded the exclusion is ignored rather than failing the round.
func (s *Service) NextWord(exclude map[string]struct{}) (string, error) {
	word, err := s.pickWord(exclude)
	if err != nil {
		return "", err
	}

	// Best-effort bookkeeping after the lock is released; selection must
	// not fail on storage errors and must not hold readers up on a slow
	// backend
	ctx, cancel := context.WithTimeout(context.Background(), recentWordTimeout)
	defer cancel()
	if err := s.storage.AddRecentWord(ctx, word, RecentWordLimit); err != nil {
		s.logger.Warn("failed to record recent word", slog.String("error", err.Error()))
	}

	return word, nil
}

func (s *Service) pickWord(exclude map[string]struct{}) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return "", model.ErrWordsNotLoaded
	}

	candidates := s.words
	if len(exclude) > 0 {
		filtered := make([]string, 0, len(s.words))
		for _, w := range s.words {
			if _, used := exclude[w]; !used {
				filtered = append(filtered, w)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	return candidates[s.random.Intn(len(candidates))], nil
}
