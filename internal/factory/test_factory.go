package factory

import (
	"time"

	"github.com/mkarppi/sketchparty/internal/dependencies/mocks"
	"github.com/mkarppi/sketchparty/internal/engine/sketch"
	"github.com/mkarppi/sketchparty/internal/rooms"
	"github.com/mkarppi/sketchparty/internal/storage/memory"
	"github.com/mkarppi/sketchparty/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockScheduler *mocks.MockScheduler
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockScheduler := mocks.NewMockScheduler()

	app := newWithDependencies(
		store,
		mockClock,
		mockRandom,
		mockScheduler,
		rooms.DefaultConfig(),
		sketch.DefaultConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockScheduler: mockScheduler,
	}
}

// LoadTestWords loads a small word list for testing
func (t *TestApp) LoadTestWords() {
	t.WordService.LoadWords([]string{
		"apple", "bridge", "camera", "dragon", "engine",
		"forest", "guitar", "hammer", "island", "jacket",
		"kettle", "ladder", "magnet", "needle", "orange",
		"pirate", "quartz", "rocket", "saddle", "turtle",
	})
}
