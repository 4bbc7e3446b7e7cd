package storage

import (
	"context"
)

// Document names shared by every backend
const (
	CredentialsDocument = "credentials"
	PositionsDocument   = "positions"
)

// Storage persists whole documents by name.
// Stores keep their mapping in memory and write the full document on every mutation.
type Storage interface {
	// ReadDocument returns model.ErrDocumentNotFound if nothing has been written yet
	ReadDocument(ctx context.Context, name string) ([]byte, error)

	// WriteDocument replaces the document. Readers never observe a partial write.
	WriteDocument(ctx context.Context, name string, data []byte) error

	Close() error
}
