package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/playersession/internal/dependencies/clock"
	"github.com/mcoot/playersession/internal/dependencies/random"
	"github.com/mcoot/playersession/internal/gateway"
	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/services/auth"
	"github.com/mcoot/playersession/internal/services/credentials"
	"github.com/mcoot/playersession/internal/services/positions"
	"github.com/mcoot/playersession/internal/services/session"
	"github.com/mcoot/playersession/internal/storage"
	"github.com/mcoot/playersession/internal/storage/file"
	"github.com/mcoot/playersession/internal/storage/memory"
	redisstorage "github.com/mcoot/playersession/internal/storage/redis"
	"github.com/mcoot/playersession/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// DefaultDataDir is where the file backend keeps its documents
const DefaultDataDir = "data"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Observability
	Metrics *metrics.Metrics

	// Services
	CredentialStore *credentials.Store
	PositionStore   *positions.Store
	SessionTracker  *session.Tracker
	AuthService     *auth.Service

	// Transport
	Gateway *gateway.Gateway
	Hub     *ws.Hub

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("file", "memory" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// DataDir is the file backend's directory. Defaults to DefaultDataDir.
	DataDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HashScheme is used for new passwords. Defaults to bcrypt.
	HashScheme credentials.Scheme
	// BcryptCost of zero uses the library default
	BcryptCost int
	// SpawnBounds of zero value uses model.DefaultSpawnBounds()
	SpawnBounds model.SpawnBounds
	// HubConfig of zero value uses ws.DefaultConfig()
	HubConfig ws.Config
	// GatewayConfig defaults to gateway.DefaultConfig() when nil
	GatewayConfig *gateway.Config
	// Metrics defaults to a fresh registry with process collectors
	Metrics *metrics.Metrics
}

// New creates a new application with all dependencies wired and persisted
// state loaded. Unreadable documents are logged and treated as empty.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := credentials.NewHasher(cfg.HashScheme, cfg.BcryptCost)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	gatewayCfg := gateway.DefaultConfig()
	if cfg.GatewayConfig != nil {
		gatewayCfg = *cfg.GatewayConfig
	}

	app := newWithDependencies(dependencies{
		store:      store,
		clock:      clock.New(),
		random:     random.New(),
		hasher:     hasher,
		bounds:     cfg.SpawnBounds,
		hubConfig:  cfg.HubConfig,
		gatewayCfg: gatewayCfg,
		metrics:    m,
		logger:     logger,
	})
	app.Load(ctx)
	return app, nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeFile:
		dir := cfg.DataDir
		if dir == "" {
			dir = DefaultDataDir
		}
		return file.New(dir)
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'file', 'memory' or 'redis'", storageType)
	}
}

type dependencies struct {
	store      storage.Storage
	clock      clock.Clock
	random     random.Random
	hasher     credentials.Hasher
	bounds     model.SpawnBounds
	hubConfig  ws.Config
	gatewayCfg gateway.Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	bounds := deps.bounds
	if bounds == (model.SpawnBounds{}) {
		bounds = model.DefaultSpawnBounds()
	}

	credentialStore := credentials.New(deps.store, deps.hasher, deps.logger)
	positionStore := positions.New(deps.store, deps.random, bounds, deps.logger)
	if deps.metrics != nil {
		credentialStore.SetObserver(deps.metrics)
		positionStore.SetObserver(deps.metrics)
	}
	tracker := session.NewTracker(deps.clock)
	authService := auth.New(credentialStore, positionStore, tracker, deps.metrics, deps.logger)
	gw := gateway.New(authService, deps.metrics, deps.logger, deps.gatewayCfg)
	hub := ws.NewHub(gw, deps.metrics, deps.logger, deps.hubConfig)
	gw.SetSender(hub)

	return &App{
		Storage:         deps.store,
		Clock:           deps.clock,
		Random:          deps.random,
		Metrics:         deps.metrics,
		CredentialStore: credentialStore,
		PositionStore:   positionStore,
		SessionTracker:  tracker,
		AuthService:     authService,
		Gateway:         gw,
		Hub:             hub,
		logger:          deps.logger,
	}
}

// Load reads both persisted documents. Failures leave the affected store
// empty and are logged, never returned.
func (a *App) Load(ctx context.Context) {
	if err := a.CredentialStore.Load(ctx); err != nil {
		a.logLoadError("credentials", err)
	}
	if err := a.PositionStore.Load(ctx); err != nil {
		a.logLoadError("positions", err)
	}
	a.logger.Info("persisted state loaded",
		slog.Int("accounts", a.CredentialStore.Count()),
		slog.Int("positions", a.PositionStore.Count()))
}

func (a *App) logLoadError(document string, err error) {
	if errors.Is(err, model.ErrCorruptStore) {
		a.logger.Warn("persisted document is corrupt, starting empty",
			slog.String("document", document),
			slog.String("error", err.Error()))
		return
	}
	a.logger.Error("failed to load persisted document, starting empty",
		slog.String("document", document),
		slog.String("error", err.Error()))
}

// Start runs the connection hub
func (a *App) Start() {
	go a.Hub.Run()
}

// Close disconnects every client and releases storage
func (a *App) Close() error {
	a.Hub.Close()
	return a.Storage.Close()
}
