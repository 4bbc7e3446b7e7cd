package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

// PersistObserver is told about failed writes so they can be counted
type PersistObserver interface {
	PersistFailed(document string)
}

// Store is the durable username -> password hash mapping.
// It is the only owner of the mapping; every mutation is written through.
type Store struct {
	storage  storage.Storage
	hasher   Hasher
	logger   *slog.Logger
	observer PersistObserver

	mu     sync.RWMutex
	hashes map[string]string
}

// New creates an empty credential store. Call Load to read persisted state.
func New(store storage.Storage, hasher Hasher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Store{
		storage: store,
		hasher:  hasher,
		logger:  logger.With(slog.String("component", "credentials")),
		hashes:  make(map[string]string),
	}
}

// SetObserver registers a persist failure observer
func (s *Store) SetObserver(o PersistObserver) {
	s.observer = o
}

// Load replaces the in-memory mapping with the persisted document.
// A missing document leaves the store empty. A malformed document also
// leaves it empty and returns an error wrapping model.ErrCorruptStore.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hashes = make(map[string]string)

	data, err := s.storage.ReadDocument(ctx, storage.CredentialsDocument)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			s.logger.Info("no credential document, starting empty")
			return nil
		}
		return fmt.Errorf("read credentials: %w", err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: credentials: %v", model.ErrCorruptStore, err)
	}
	for username, hash := range doc {
		rec := model.Credential{Username: username, PasswordHash: hash}
		if !rec.Valid() {
			return fmt.Errorf("%w: credentials: empty username or hash", model.ErrCorruptStore)
		}
	}
	if doc != nil {
		s.hashes = doc
	}

	s.logger.Info("credentials loaded", slog.Int("count", len(s.hashes)))
	return nil
}

// Save writes the full mapping to storage
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked(ctx)
}

// Exists reports whether a username has an account
func (s *Store) Exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[username]
	return ok
}

// Insert creates an account if the username is free. The existence check,
// insert and write happen under one lock, so concurrent sign-ups for the
// same name cannot both succeed. If the write fails the insert is undone.
func (s *Store) Insert(ctx context.Context, username, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hashes[username]; ok {
		return model.ErrUsernameExists
	}

	s.hashes[username] = hash
	if err := s.saveLocked(ctx); err != nil {
		delete(s.hashes, username)
		return err
	}
	return nil
}

// Verify checks a password against the stored hash.
// Unknown usernames always fail.
func (s *Store) Verify(username, password string) bool {
	s.mu.RLock()
	hash, ok := s.hashes[username]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return s.hasher.Verify(password, hash)
}

// Count returns the number of accounts
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.hashes)
	if err != nil {
		return fmt.Errorf("%w: credentials: %v", model.ErrPersist, err)
	}
	if err := s.storage.WriteDocument(ctx, storage.CredentialsDocument, data); err != nil {
		s.logger.Error("failed to persist credentials",
			slog.String("error", err.Error()),
			slog.Int("count", len(s.hashes)))
		if s.observer != nil {
			s.observer.PersistFailed(storage.CredentialsDocument)
		}
		return fmt.Errorf("%w: credentials: %v", model.ErrPersist, err)
	}
	return nil
}
