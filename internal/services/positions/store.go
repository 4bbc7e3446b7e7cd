package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/playersession/internal/dependencies/random"
	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

// PersistObserver is told about failed writes so they can be counted
type PersistObserver interface {
	PersistFailed(document string)
}

// Store is the durable username -> last known position mapping
type Store struct {
	storage  storage.Storage
	random   random.Random
	bounds   model.SpawnBounds
	logger   *slog.Logger
	observer PersistObserver

	mu        sync.RWMutex
	positions map[string]model.Position
}

// New creates an empty position store. Call Load to read persisted state.
func New(store storage.Storage, rnd random.Random, bounds model.SpawnBounds, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Store{
		storage:   store,
		random:    rnd,
		bounds:    bounds,
		logger:    logger.With(slog.String("component", "positions")),
		positions: make(map[string]model.Position),
	}
}

// SetObserver registers a persist failure observer
func (s *Store) SetObserver(o PersistObserver) {
	s.observer = o
}

// Bounds returns the spawn box for new players
func (s *Store) Bounds() model.SpawnBounds {
	return s.bounds
}

// Load replaces the in-memory mapping with the persisted document.
// Missing document: empty store. Malformed: empty store and model.ErrCorruptStore.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = make(map[string]model.Position)

	data, err := s.storage.ReadDocument(ctx, storage.PositionsDocument)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			s.logger.Info("no position document, starting empty")
			return nil
		}
		return fmt.Errorf("read positions: %w", err)
	}

	var doc map[string]*model.Position
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: positions: %v", model.ErrCorruptStore, err)
	}

	loaded := make(map[string]model.Position, len(doc))
	for username, pos := range doc {
		if pos == nil {
			return fmt.Errorf("%w: positions: invalid entry for %q", model.ErrCorruptStore, username)
		}
		rec := model.PlayerPosition{Username: username, Position: *pos}
		if !rec.Valid() {
			return fmt.Errorf("%w: positions: invalid entry for %q", model.ErrCorruptStore, username)
		}
		loaded[rec.Username] = rec.Position
	}
	s.positions = loaded

	s.logger.Info("positions loaded", slog.Int("count", len(s.positions)))
	return nil
}

// Save writes the full mapping to storage
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked(ctx)
}

// Get returns the stored position, if any
func (s *Store) Get(username string) (model.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[username]
	return pos, ok
}

// GetOrAssign returns the stored position, or places the player at a random
// point in the spawn bounds, persists it, and returns it. Lookup and creation
// share one lock so concurrent first logins agree on a single position.
func (s *Store) GetOrAssign(ctx context.Context, username string) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.positions[username]; ok {
		return pos, nil
	}

	pos := s.randomPosition()
	s.positions[username] = pos
	if err := s.saveLocked(ctx); err != nil {
		delete(s.positions, username)
		return model.Position{}, err
	}

	s.logger.Info("spawn position assigned",
		slog.String("username", username),
		slog.Float64("x", pos.X),
		slog.Float64("y", pos.Y))
	return pos, nil
}

// Upsert records a new last known position, restoring the previous one if the write fails
func (s *Store) Upsert(ctx context.Context, username string, pos model.Position) error {
	if !pos.Finite() {
		return fmt.Errorf("%w: position must be finite", model.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.positions[username]
	s.positions[username] = pos
	if err := s.saveLocked(ctx); err != nil {
		if had {
			s.positions[username] = prev
		} else {
			delete(s.positions, username)
		}
		return err
	}
	return nil
}

// Count returns the number of players with a stored position
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

func (s *Store) randomPosition() model.Position {
	return model.Position{
		X: s.bounds.MinX + s.random.Float64()*s.bounds.Width(),
		Y: s.bounds.MinY + s.random.Float64()*s.bounds.Height(),
	}
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.positions)
	if err != nil {
		return fmt.Errorf("%w: positions: %v", model.ErrPersist, err)
	}
	if err := s.storage.WriteDocument(ctx, storage.PositionsDocument, data); err != nil {
		s.logger.Error("failed to persist positions",
			slog.String("error", err.Error()),
			slog.Int("count", len(s.positions)))
		if s.observer != nil {
			s.observer.PersistFailed(storage.PositionsDocument)
		}
		return fmt.Errorf("%w: positions: %v", model.ErrPersist, err)
	}
	return nil
}
