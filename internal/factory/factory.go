package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	channel "github.com/mcoot/rewardroster/internal/channel/memory"
	"github.com/mcoot/rewardroster/internal/dependencies/clock"
	"github.com/mcoot/rewardroster/internal/seed"
	"github.com/mcoot/rewardroster/internal/services/roster"
	"github.com/mcoot/rewardroster/internal/storage"
	"github.com/mcoot/rewardroster/internal/storage/memory"
	redisstorage "github.com/mcoot/rewardroster/internal/storage/redis"
	sqlitestorage "github.com/mcoot/rewardroster/internal/storage/sqlite"
	"github.com/mcoot/rewardroster/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	RosterService *roster.Service
	SSEHub        *sse.Hub
	Broadcaster   *sse.Broadcaster
	// LocalHub fans roster events to in-process clients
	LocalHub *channel.Hub

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLiteConfig holds the database location (required if StorageType is "sqlite")
	SQLiteConfig *sqlitestorage.Config
	// SeedPath is a YAML roster applied when storage is empty (optional)
	SeedPath string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), logger)

	if cfg.SeedPath != "" {
		initial, err := seed.Load(cfg.SeedPath)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		if _, err := app.RosterService.Seed(ctx, initial); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("apply seed: %w", err)
		}
	}
	return app, nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return redisStore, nil
	case StorageTypeSQLite:
		if cfg.SQLiteConfig == nil {
			return nil, errors.New("SQLiteConfig required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(ctx, *cfg.SQLiteConfig)
		if err != nil {
			return nil, err
		}
		return sqliteStore, nil
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, logger *slog.Logger) *App {
	hub := sse.NewHub(logger)
	go hub.Run()

	broadcaster := sse.NewBroadcaster(hub, logger)
	localHub := channel.NewHub(logger)
	rosterService := roster.New(store, logger, broadcaster, localHub)

	return &App{
		Storage:       store,
		Clock:         clk,
		RosterService: rosterService,
		SSEHub:        hub,
		Broadcaster:   broadcaster,
		LocalHub:      localHub,
		logger:        logger,
	}
}

// NewLocalClient returns an in-process sync channel onto the shared roster
func (a *App) NewLocalClient() *channel.Client {
	return channel.NewClient(a.RosterService, a.LocalHub)
}

// Close stops the SSE hub and releases the storage backend
func (a *App) Close() error {
	a.SSEHub.Close()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
