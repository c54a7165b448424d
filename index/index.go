// Package index embeds document chunks and serves similarity search over
// them. It sits between the ingestion pipeline (writes) and the query
// orchestrator (reads), delegating persistence to a storage.VectorRepository
// and embedding to whatever ai.Embedder handle it was constructed with.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

const (
	// DefaultTopK is the result count used when callers pass topK <= 0.
	DefaultTopK = 5

	// MaxTopK bounds how many results a single search may request.
	MaxTopK = 20

	// DefaultMaxAttempts is how many times indexing is tried before the
	// document is left retrievable-by-content only.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the initial backoff between indexing attempts.
	DefaultBaseDelay = 200 * time.Millisecond
)

// ErrTopKTooLarge indicates a search requesting more than MaxTopK results.
var ErrTopKTooLarge = fmt.Errorf("topK exceeds maximum of %d", MaxTopK)

// Report summarizes one indexing run.
type Report struct {
	// Chunks is the number of entries now live for the document.
	Chunks int

	// Embedder names the embedding backend that produced the vectors.
	Embedder string

	// Attempts is how many embedding attempts the run took.
	Attempts int
}

// VectorIndex embeds chunks and answers similarity queries.
// Writes for the same document are serialized; writes for different
// documents proceed concurrently.
type VectorIndex struct {
	vectors     storage.VectorRepository
	embedder    ai.Embedder
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	docLocks map[core.ID]*sync.Mutex
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithMaxAttempts overrides the indexing retry budget.
func WithMaxAttempts(n int) Option {
	return func(v *VectorIndex) {
		if n > 0 {
			v.maxAttempts = n
		}
	}
}

// WithBaseDelay overrides the initial retry backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(v *VectorIndex) {
		if d > 0 {
			v.baseDelay = d
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *VectorIndex) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a VectorIndex over the given repository and embedder.
func New(vectors storage.VectorRepository, embedder ai.Embedder, opts ...Option) *VectorIndex {
	v := &VectorIndex{
		vectors:     vectors,
		embedder:    embedder,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "vector-index"),
		docLocks:    make(map[core.ID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IndexDocument embeds the chunks and stores them, replacing any previous
// entries for the document. The whole operation is retried with exponential
// backoff; if every attempt fails the returned error wraps core.ErrIndexing
// so callers can downgrade the document instead of failing it. The report
// records how many entries went live and which embedding backend produced
// the vectors.
func (v *VectorIndex) IndexDocument(ctx context.Context, docID core.ID, chunks []core.Chunk) (Report, error) {
	lock := v.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()

	var report Report

	if len(chunks) == 0 {
		// A document with no chunks simply has nothing retrievable.
		return report, v.vectors.PutEntries(ctx, docID, nil)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	err := RetryWithBackoff(ctx, func() error {
		report.Attempts++
		vecs, err := v.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vecs) != len(chunks) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
		}

		entries := make([]*core.IndexEntry, len(chunks))
		for i, chunk := range chunks {
			entries[i] = &core.IndexEntry{
				DocumentId: docID,
				Seq:        chunk.Seq,
				Text:       chunk.Text,
				Vector:     vecs[i],
			}
		}
		return v.vectors.PutEntries(ctx, docID, entries)
	}, v.maxAttempts, v.baseDelay)

	// Read after the first embed call so a lazily resolved backend reports
	// its settled name.
	report.Embedder = v.embedder.Name()

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return report, err
		}
		v.logger.Error("indexing failed after retries",
			"document", docID, "attempts", report.Attempts, "err", err)
		return report, fmt.Errorf("%w: %v", core.ErrIndexing, err)
	}

	report.Chunks = len(chunks)
	v.logger.Debug("document indexed",
		"document", docID, "chunks", report.Chunks, "embedder", report.Embedder)
	return report, nil
}

// Remove deletes all index entries for a document.
func (v *VectorIndex) Remove(ctx context.Context, docID core.ID) error {
	lock := v.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()

	return v.vectors.DeleteEntries(ctx, docID)
}

// Search embeds the query and returns the topK most similar entries.
// topK <= 0 selects DefaultTopK; topK > MaxTopK is rejected.
// Searching an empty index returns an empty slice, not an error.
func (v *VectorIndex) Search(ctx context.Context, query string, topK int) ([]*core.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		return nil, ErrTopKTooLarge
	}

	vec, err := v.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := v.vectors.FindSimilar(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*core.SearchResult{}
	}
	return results, nil
}

// IsEmpty reports whether the index holds no entries at all.
func (v *VectorIndex) IsEmpty(ctx context.Context) (bool, error) {
	n, err := v.vectors.CountEntries(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// lockFor returns the mutex serializing writes for one document.
func (v *VectorIndex) lockFor(docID core.ID) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()

	lock, ok := v.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		v.docLocks[docID] = lock
	}
	return lock
}
