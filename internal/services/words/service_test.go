package words

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkarppi/sketchparty/internal/dependencies/mocks"
	"github.com/mkarppi/sketchparty/internal/model"
	"github.com/mkarppi/sketchparty/internal/storage/memory"
	"github.com/mkarppi/sketchparty/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestNextWordBeforeLoadFails() {
	_, err := s.service.NextWord(nil)
	s.ErrorIs(err, model.ErrWordsNotLoaded)
}

func (s *ServiceSuite) TestNextWordPicksByRandomIndex() {
	s.service.LoadWords([]string{"otter", "bridge", "lantern"})
	s.random.QueueIntn(1)

	word, err := s.service.NextWord(nil)
	s.Require().NoError(err)
	s.Equal("bridge", word)
}

func (s *ServiceSuite) TestNextWordLowercasesInput() {
	s.service.LoadWords([]string{"Otter"})

	word, err := s.service.NextWord(nil)
	s.Require().NoError(err)
	s.Equal("otter", word)
}

func (s *ServiceSuite) TestNextWordSkipsExcluded() {
	s.service.LoadWords([]string{"otter", "bridge"})
	s.random.QueueIntn(0)

	word, err := s.service.NextWord(map[string]struct{}{"otter": {}})
	s.Require().NoError(err)
	s.Equal("bridge", word)
}

func (s *ServiceSuite) TestNextWordIgnoresExclusionWhenExhausted() {
	s.service.LoadWords([]string{"otter"})

	word, err := s.service.NextWord(map[string]struct{}{"otter": {}})
	s.Require().NoError(err)
	s.Equal("otter", word)
}

func (s *ServiceSuite) TestNextWordRecordsRecent() {
	s.service.LoadWords([]string{"otter"})

	_, err := s.service.NextWord(nil)
	s.Require().NoError(err)

	recent, err := s.storage.GetRecentWords(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"otter"}, recent)
}

// reloadingStorage reloads the word list from inside the recent-word write,
// which needs the service write lock. Deadlocks if NextWord still held its
// read lock across the storage call.
type reloadingStorage struct {
	*memory.Storage
	service *Service
}

func (r *reloadingStorage) AddRecentWord(ctx context.Context, word string, limit int) error {
	r.service.LoadWords([]string{"bridge"})
	return r.Storage.AddRecentWord(ctx, word, limit)
}

func (s *ServiceSuite) TestNextWordReleasesLockBeforeBookkeeping() {
	wrapped := &reloadingStorage{Storage: s.storage}
	service := New(wrapped, s.random, testutil.NopLogger())
	wrapped.service = service
	service.LoadWords([]string{"otter"})

	word, err := service.NextWord(nil)
	s.Require().NoError(err)
	s.Equal("otter", word)
	s.Equal(1, service.WordCount())
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("otter\n\nbridge\n  lantern  \n"), 0o644))

	s.Require().NoError(s.service.LoadFromFile(s.ctx, path))
	s.Equal(3, s.service.WordCount())

	// Words were persisted to storage too
	stored, err := s.storage.GetWords(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"otter", "bridge", "lantern"}, stored)
}

func (s *ServiceSuite) TestLoadFromStorage() {
	s.Require().NoError(s.storage.SaveWords(s.ctx, []string{"otter", "bridge"}))

	s.Require().NoError(s.service.LoadFromStorage(s.ctx))
	s.True(s.service.IsLoaded())
	s.Equal(2, s.service.WordCount())
}
