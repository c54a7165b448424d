package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/dartos/chunk"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/extract"
	"github.com/poiesic/dartos/index"
	"github.com/poiesic/dartos/storage"
)

// Pipeline drives uploaded documents through extraction, chunking and
// indexing. Uploads return immediately; the heavy work runs on a worker
// pool and progress is observable through document status.
type Pipeline struct {
	docs      storage.DocumentRepository
	blobs     storage.BlobStore
	extractor *extract.Extractor
	chunker   *chunk.Chunker
	idx       *index.VectorIndex
	pool      *ants.Pool
	writer    *transitionWriter
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunker overrides the default chunking policy.
func WithChunker(c *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docs storage.DocumentRepository,
	blobs storage.BlobStore,
	extractor *extract.Extractor,
	idx *index.VectorIndex,
	opts ...Option,
) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		docs:      docs,
		blobs:     blobs,
		extractor: extractor,
		chunker:   chunk.Default(),
		idx:       idx,
		pool:      pool,
		logger:    slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.writer = newTransitionWriter(docs, p.logger)

	return p, nil
}

// Begin accepts an uploaded document. The raw bytes are persisted, a record
// is created in StatusUploaded, and processing is scheduled asynchronously.
// Processing errors never fail the upload; they surface via Status.
func (p *Pipeline) Begin(ctx context.Context, filename string, data []byte) (*core.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, core.ErrEmptyFilename
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", core.ErrMalformedInput)
	}

	ref, checksum, err := p.blobs.Put(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		Id:       core.NewID(),
		Filename: filename,
		BlobRef:  ref,
		Checksum: checksum,
		Status:   core.StatusUploaded,
	}
	if err := p.docs.PutDocument(ctx, doc); err != nil {
		return nil, err
	}

	p.logger.Info("document accepted",
		"document", doc.Id, "filename", filename, "bytes", len(data))

	p.schedule(doc.Id, data)
	return doc, nil
}

// Reindex re-runs extraction and indexing for a document that has reached a
// resting state, using the original uploaded bytes from the blob store.
func (p *Pipeline) Reindex(ctx context.Context, id core.ID) error {
	doc, err := p.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !doc.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrNotResting, doc.Status)
	}

	data, err := p.blobs.Get(ctx, doc.BlobRef, doc.Checksum)
	if err != nil {
		if errors.Is(err, storage.ErrChecksumMismatch) {
			// The stored bytes no longer match the record; reprocessing them
			// would index content the user never uploaded.
			terr := p.writer.transitionTo(id, core.StatusUploaded, "", "")
			if terr == nil {
				terr = p.writer.transitionTo(id, core.StatusProcessing, "", "")
			}
			if terr == nil {
				terr = p.writer.transitionTo(id, core.StatusFailed, "", "stored file corrupted: checksum mismatch")
			}
			if terr != nil {
				p.logger.Error("transition failed", "document", id, "err", terr)
			}
			return fmt.Errorf("%w: %v", core.ErrMalformedInput, err)
		}
		return err
	}

	if err := p.writer.transitionTo(id, core.StatusUploaded, "", ""); err != nil {
		return err
	}

	p.logger.Info("document reindex requested", "document", id)
	p.schedule(id, data)
	return nil
}

// Status returns the current document record.
func (p *Pipeline) Status(ctx context.Context, id core.ID) (*core.Document, error) {
	return p.docs.GetDocument(ctx, id)
}

// Delete removes a document, its index entries and its stored bytes.
// Documents still being processed cannot be deleted.
func (p *Pipeline) Delete(ctx context.Context, id core.ID) error {
	doc, err := p.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == core.StatusProcessing {
		return fmt.Errorf("%w: %s", ErrNotResting, doc.Status)
	}

	if err := p.idx.Remove(ctx, id); err != nil {
		return err
	}
	if err := p.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if doc.BlobRef != "" && !p.blobShared(ctx, doc) {
		if err := p.blobs.Delete(ctx, doc.BlobRef); err != nil {
			p.logger.Warn("blob cleanup failed", "document", id, "err", err)
		}
	}
	return nil
}

// blobShared reports whether another document references the same stored
// bytes. The blob store deduplicates identical uploads, so the file must
// outlive all but the last referencing document. When the check itself fails
// the bytes are kept; an orphaned file is recoverable, a destroyed shared
// one is not.
func (p *Pipeline) blobShared(ctx context.Context, doc *core.Document) bool {
	others, err := p.docs.ListDocuments(ctx)
	if err != nil {
		p.logger.Warn("cannot check blob references, keeping stored bytes",
			"document", doc.Id, "err", err)
		return true
	}
	for _, other := range others {
		if other.Id != doc.Id && other.BlobRef == doc.BlobRef {
			return true
		}
	}
	return false
}

// schedule submits background processing for a document. Errors submitting
// to the pool mark the document failed immediately.
func (p *Pipeline) schedule(id core.ID, data []byte) {
	err := p.pool.Submit(func() {
		p.process(id, data)
	})
	if err != nil {
		p.logger.Error("failed to submit processing job", "document", id, "err", err)
		if terr := p.writer.transitionTo(id, core.StatusProcessing, "", ""); terr == nil {
			p.writer.transitionTo(id, core.StatusFailed, "", "processing could not be scheduled")
		}
	}
}

// process runs extraction, chunking and indexing for one document.
// Every document passes through StatusProcessing, even when the work is
// instantaneous, so observers always see the full lifecycle.
func (p *Pipeline) process(id core.ID, data []byte) {
	ctx := context.Background()

	if err := p.writer.transitionTo(id, core.StatusProcessing, "", ""); err != nil {
		p.logger.Error("cannot start processing", "document", id, "err", err)
		return
	}

	result, err := p.extractor.Extract(ctx, data)
	if err != nil {
		p.fail(id, err)
		return
	}

	chunks, err := p.chunker.Split(id, result.Text)
	if err != nil {
		p.fail(id, err)
		return
	}

	report, err := p.idx.IndexDocument(ctx, id, chunks)
	if err != nil {
		if errors.Is(err, core.ErrIndexing) {
			// Extraction worked, so the text is kept and the document stays
			// usable; it just cannot be retrieved by similarity search.
			p.logger.Warn("indexing unavailable, document downgraded",
				"document", id, "err", err)
			if terr := p.writer.transitionTo(id, core.StatusProcessed, result.Text, ""); terr != nil {
				p.logger.Error("transition failed", "document", id, "err", terr)
			}
			return
		}
		p.fail(id, err)
		return
	}

	if err := p.writer.transitionTo(id, core.StatusIndexed, result.Text, ""); err != nil {
		p.logger.Error("transition failed", "document", id, "err", err)
		return
	}

	p.logger.Info("document processed",
		"document", id,
		"method", result.Method,
		"fallback", result.UsedFallback,
		"chunks", report.Chunks,
		"embedder", report.Embedder)
}

// fail marks a document failed with a user-facing error message.
func (p *Pipeline) fail(id core.ID, cause error) {
	p.logger.Error("document processing failed", "document", id, "err", cause)
	if err := p.writer.transitionTo(id, core.StatusFailed, "", cause.Error()); err != nil {
		p.logger.Error("transition failed", "document", id, "err", err)
	}
}

// Release stops the worker pool and the transition writer.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
	if p.writer != nil {
		p.writer.close()
	}
}
