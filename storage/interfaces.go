package storage

import (
	"context"

	"github.com/poiesic/dartos/core"
)

// Repository provides common storage operations shared across repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document metadata.
type DocumentRepository interface {
	Repository

	// PutDocument inserts or replaces a document record.
	// The document is validated before writing.
	PutDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents ordered by creation time.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// VectorRepository provides operations for managing embedded chunks.
type VectorRepository interface {
	Repository

	// PutEntries replaces all index entries for a document in one
	// transaction. Existing entries for the document are removed first, so
	// re-indexing is idempotent.
	PutEntries(ctx context.Context, docID core.ID, entries []*core.IndexEntry) error

	// DeleteEntries removes all index entries for a document.
	// Missing entries are not an error.
	DeleteEntries(ctx context.Context, docID core.ID) error

	// FindSimilar finds index entries similar to the given vector.
	// Returns up to limit results ordered by similarity score (highest
	// first); ties are broken by document ID then sequence number.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)

	// CountEntries returns the number of stored index entries.
	CountEntries(ctx context.Context) (int, error)
}

// BlobStore persists raw uploaded bytes so documents can be re-extracted and
// re-indexed later. Refs are opaque strings produced by Put.
type BlobStore interface {
	// Put stores data and returns a ref plus the content checksum.
	Put(ctx context.Context, name string, data []byte) (ref string, checksum uint64, err error)

	// Get retrieves the bytes for ref, verifying them against checksum.
	// Returns ErrChecksumMismatch if the stored bytes were altered.
	Get(ctx context.Context, ref string, checksum uint64) ([]byte, error)

	// Delete removes the blob for ref. Missing blobs are not an error.
	Delete(ctx context.Context, ref string) error
}
