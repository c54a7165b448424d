package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDocument inserts or replaces a document record.
func (r *DocumentRepository) PutDocument(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)

		// Read any previous version to keep the date index consistent
		old, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}

		if old == nil {
			if doc.CreatedAt.IsZero() {
				doc.CreatedAt = time.Now().UTC()
			}
		} else {
			doc.CreatedAt = old.CreatedAt
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		dateKey := makeDocumentDateKey(doc.CreatedAt, doc.Id)
		if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// ListDocuments retrieves all documents ordered by creation time.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentDatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				// Stale index entry, skip
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document record and its date index entry.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		doc, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentDateKey(doc.CreatedAt, id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// readDocument reads a document inside a transaction.
// Returns (nil, nil) if the key does not exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
