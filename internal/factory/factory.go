// Package factory wires the application together: storage backend, word
// service, engines, room store, session registry and event dispatcher.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mkarppi/sketchparty/internal/broadcast"
	"github.com/mkarppi/sketchparty/internal/dependencies/clock"
	"github.com/mkarppi/sketchparty/internal/dependencies/random"
	"github.com/mkarppi/sketchparty/internal/dependencies/timer"
	"github.com/mkarppi/sketchparty/internal/engine/duel"
	"github.com/mkarppi/sketchparty/internal/engine/sketch"
	"github.com/mkarppi/sketchparty/internal/rooms"
	"github.com/mkarppi/sketchparty/internal/services/words"
	"github.com/mkarppi/sketchparty/internal/sessions"
	"github.com/mkarppi/sketchparty/internal/storage"
	"github.com/mkarppi/sketchparty/internal/storage/memory"
	redisstorage "github.com/mkarppi/sketchparty/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Scheduler timer.Scheduler

	// Services
	WordService *words.Service
	Registry    *sessions.Registry
	Dispatcher  *broadcast.Dispatcher
	RoomStore   *rooms.Store
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// RoomConfig holds room lifecycle settings (optional)
	// If zero value, defaults to rooms.DefaultConfig()
	RoomConfig rooms.Config
	// SketchConfig holds sketch engine scoring settings (optional)
	// If zero value, defaults to sketch.DefaultConfig()
	SketchConfig sketch.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	roomCfg := cfg.RoomConfig
	if roomCfg.GracePeriod == 0 {
		roomCfg = rooms.DefaultConfig()
	}
	sketchCfg := cfg.SketchConfig
	if sketchCfg.MinPlayers == 0 {
		sketchCfg = sketch.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), timer.New(), roomCfg, sketchCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	scheduler timer.Scheduler,
	roomCfg rooms.Config,
	sketchCfg sketch.Config,
	logger *slog.Logger,
) *App {
	wordService := words.New(store, rnd, logger)
	registry := sessions.NewRegistry(logger)
	dispatcher := broadcast.NewDispatcher(registry, logger)

	sketchEngine := sketch.New(wordService, clk, rnd, sketchCfg, logger)
	duelEngine := duel.New(clk, logger)
	roomStore := rooms.NewStore(roomCfg, sketchEngine, duelEngine, scheduler, clk, dispatcher, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Scheduler:   scheduler,
		WordService: wordService,
		Registry:    registry,
		Dispatcher:  dispatcher,
		RoomStore:   roomStore,
	}
}
