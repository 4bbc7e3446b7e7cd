package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/playersession/internal/model"
	"github.com/mcoot/playersession/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Each document is a single string key, so a SET replaces it atomically.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, documentKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDocumentNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) WriteDocument(ctx context.Context, name string, data []byte) error {
	// No TTL: documents are durable state
	return s.client.Set(ctx, documentKey(name), data, 0).Err()
}
