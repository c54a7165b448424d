// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package dartos ingests PDF documents and answers questions over them.
//
// The Service type is the external interface: it wires storage, extraction,
// chunking, the vector index and the query orchestrator together. Uploads
// are accepted immediately and processed in the background; progress is
// observable through document status.
package dartos

import (
	"context"
	"log/slog"

	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/ai/lexical"
	"github.com/poiesic/dartos/ai/openai"
	"github.com/poiesic/dartos/chunk"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/extract"
	"github.com/poiesic/dartos/extract/tesseract"
	"github.com/poiesic/dartos/index"
	"github.com/poiesic/dartos/ingestion"
	"github.com/poiesic/dartos/query"
	"github.com/poiesic/dartos/storage"
	"github.com/poiesic/dartos/storage/badger"
	"github.com/poiesic/dartos/storage/fsblob"
)

// Service is the document ingestion and retrieval system.
type Service struct {
	backend      *badger.Backend
	docs         storage.DocumentRepository
	vectors      storage.VectorRepository
	blobs        storage.BlobStore
	loader       *ai.Loader
	generator    ai.Generator
	idx          *index.VectorIndex
	pipeline     *ingestion.Pipeline
	orchestrator *query.Orchestrator
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	chunker     *chunk.Chunker
	ocrEngine   extract.OCREngine
	extractOpts []extract.Option
	indexOpts   []index.Option
	poolSize    int
	defaultTopK int
	strictModel bool
}

// WithAIConfig sets the embedding/chat backend configuration.
func WithAIConfig(cfg *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithChunking overrides the default chunk size and overlap.
func WithChunking(size, overlap int) ServiceOption {
	return func(o *serviceOptions) {
		if c, err := chunk.New(size, overlap); err == nil {
			o.chunker = c
		}
	}
}

// WithOCREngine replaces the default tesseract OCR engine.
func WithOCREngine(engine extract.OCREngine) ServiceOption {
	return func(o *serviceOptions) {
		if engine != nil {
			o.ocrEngine = engine
		}
	}
}

// WithExtractionOptions passes tuning options to the text extractor.
func WithExtractionOptions(opts ...extract.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.extractOpts = append(o.extractOpts, opts...)
	}
}

// WithIndexOptions passes tuning options to the vector index.
func WithIndexOptions(opts ...index.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.indexOpts = append(o.indexOpts, opts...)
	}
}

// WithPoolSize sets the background processing worker count.
func WithPoolSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.poolSize = size
	}
}

// WithDefaultTopK sets the retrieval depth used when queries pass topK <= 0.
func WithDefaultTopK(k int) ServiceOption {
	return func(o *serviceOptions) {
		o.defaultTopK = k
	}
}

// WithStrictModel makes query answering fail when the language model is
// unreachable instead of returning a degraded result.
func WithStrictModel(strict bool) ServiceOption {
	return func(o *serviceOptions) {
		o.strictModel = strict
	}
}

// New creates a Service with its database at dbPath and raw uploads under
// blobDir.
func New(dbPath, blobDir string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	docs, vectors, backend, err := badger.NewRepositories(dbPath)
	if err != nil {
		return nil, err
	}

	blobs, err := fsblob.New(blobDir)
	if err != nil {
		backend.Close()
		return nil, err
	}

	logger := slog.Default()

	// The preferred embedder may be unreachable at startup; the loader
	// settles that on first use, falling back to the lexical embedder.
	preferred, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		logger.Warn("embedding backend unusable at startup", "err", err)
		preferred = nil
	}
	loader := ai.NewLoader(preferred, lexical.New(), options.aiConfig)

	generator, err := openai.NewGenerator(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	idx := index.New(vectors, loader, options.indexOpts...)

	ocrEngine := options.ocrEngine
	if ocrEngine == nil {
		ocrEngine = tesseract.New()
	}
	extractor, err := extract.New([]extract.Strategy{
		extract.NewNativeStrategy(),
		extract.NewOCRStrategy(ocrEngine),
	}, options.extractOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	pipelineOpts := []ingestion.Option{}
	if options.chunker != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithChunker(options.chunker))
	}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingestion.NewPipeline(docs, blobs, extractor, idx, pipelineOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	orchestratorOpts := []query.Option{
		query.WithStrictModel(options.strictModel),
	}
	if options.defaultTopK > 0 {
		orchestratorOpts = append(orchestratorOpts, query.WithDefaultTopK(options.defaultTopK))
	}
	orchestrator := query.NewOrchestrator(idx, generator, orchestratorOpts...)

	return &Service{
		backend:      backend,
		docs:         docs,
		vectors:      vectors,
		blobs:        blobs,
		loader:       loader,
		generator:    generator,
		idx:          idx,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

// Ingest accepts an uploaded PDF and schedules background processing.
// The returned ID can be polled with Status.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte) (core.ID, error) {
	doc, err := s.pipeline.Begin(ctx, filename, raw)
	if err != nil {
		return "", err
	}
	return doc.Id, nil
}

// Status returns the current document record.
func (s *Service) Status(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.pipeline.Status(ctx, id)
}

// Documents lists all documents ordered by upload time.
func (s *Service) Documents(ctx context.Context) ([]*core.Document, error) {
	return s.docs.ListDocuments(ctx)
}

// Reindex re-runs extraction and indexing from the stored upload bytes.
func (s *Service) Reindex(ctx context.Context, id core.ID) error {
	return s.pipeline.Reindex(ctx, id)
}

// Delete removes a document, its index entries and its stored bytes.
func (s *Service) Delete(ctx context.Context, id core.ID) error {
	return s.pipeline.Delete(ctx, id)
}

// Answer retrieves relevant chunks and asks the language model for a
// grounded answer. See query.Orchestrator.Answer for semantics.
func (s *Service) Answer(ctx context.Context, q, instruction string, topK int) (*core.QueryResult, error) {
	return s.orchestrator.Answer(ctx, q, instruction, topK)
}

// Degraded reports whether embedding fell back to the built-in lexical
// embedder. Meaningful only after the first embedding operation.
func (s *Service) Degraded() bool {
	return s.loader.Degraded()
}

// Close stops background processing and releases storage.
func (s *Service) Close() error {
	// Stop accepting work before tearing down storage.
	s.pipeline.Release()

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
