package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

const (
	fileExt  = ".json"
	dirPerm  = 0o755
	filePerm = 0o600
)

// Storage keeps each document as a JSON file in a data directory
type Storage struct {
	dir string

	mu      sync.Mutex
	pathMus map[string]*sync.Mutex
}

// New creates the data directory if needed and returns a file-backed storage
func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("file storage: data directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("file storage: create data dir: %w", err)
	}
	return &Storage{
		dir:     dir,
		pathMus: make(map[string]*sync.Mutex),
	}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Path returns the file backing a document
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *Storage) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	path := s.Path(name)
	m := s.lockFor(path)
	m.Lock()
	defer m.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

// WriteDocument writes to a temp file in the same directory, syncs it and
// renames it over the target so the old or new document is always intact.
func (s *Storage) WriteDocument(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(name)
	m := s.lockFor(path)
	m.Lock()
	defer m.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	if d, err := os.Open(s.dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.pathMus[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	s.pathMus[path] = m
	return m
}
