package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired indicates a missing document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrBlobStoreRequired indicates a missing blob store.
	ErrBlobStoreRequired = errors.New("blob store is required")

	// ErrExtractorRequired indicates a missing text extractor.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrIndexRequired indicates a missing vector index.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrNotResting indicates a lifecycle operation on a document that is
	// still being processed.
	ErrNotResting = errors.New("document is still processing")

	// ErrPipelineClosed indicates a submission after Release.
	ErrPipelineClosed = errors.New("pipeline is closed")
)
