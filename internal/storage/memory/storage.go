package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu        sync.RWMutex
	documents map[string][]byte

	// set by tests to exercise save errors
	failWrites bool
}

// errWriteFailed is returned while write failures are injected
var errWriteFailed = errors.New("memory storage: write failed")

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		documents: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.documents[name]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Storage) WriteDocument(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errWriteFailed
	}
	s.documents[name] = append([]byte(nil), data...)
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// SetFailWrites toggles write failure injection
func (s *Storage) SetFailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// Put seeds a raw document, bypassing failure injection
func (s *Storage) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[name] = append([]byte(nil), data...)
}
