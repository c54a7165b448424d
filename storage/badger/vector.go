package badger

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) *VectorRepository {
	return &VectorRepository{backend: backend}
}

// Close is a no-op; the shared backend owns the database handle.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutEntries replaces all index entries for a document in one transaction.
func (r *VectorRepository) PutEntries(ctx context.Context, docID core.ID, entries []*core.IndexEntry) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocEntries(tx, docID); err != nil {
			return err
		}

		for _, entry := range entries {
			key := makeVectorKey(docID, entry.Seq)
			if err := tx.Set(key, storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteEntries removes all index entries for a document.
func (r *VectorRepository) DeleteEntries(ctx context.Context, docID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocEntries(tx, docID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds index entries similar to the given vector.
func (r *VectorRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.IndexEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry == nil || len(entry.Vector) == 0 {
				continue
			}

			results = append(results, &core.SearchResult{
				Entry: entry,
				Score: cosineSimilarity(vector, entry.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by score descending; ties ordered by document ID then sequence
	// so results are deterministic.
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if c := strings.Compare(string(a.Entry.DocumentId), string(b.Entry.DocumentId)); c != 0 {
			return c
		}
		return a.Entry.Seq - b.Entry.Seq
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountEntries returns the number of stored index entries.
func (r *VectorRepository) CountEntries(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix + ":")
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

// deleteDocEntries removes all entries under a document's key prefix.
func deleteDocEntries(tx *badger.Txn, docID core.ID) error {
	prefix := makeVectorDocPrefix(docID)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	// Collect keys first; deleting while iterating invalidates the iterator.
	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Dimension mismatches score over the shared prefix.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
