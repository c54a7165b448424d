// Package ingestion provides pipeline orchestration for document processing.
//
// The Pipeline type manages the document lifecycle, including:
//   - Persisting uploaded bytes and creating the document record
//   - Extracting text (with OCR fallback) asynchronously
//   - Chunking and vector-indexing the extracted text
//
// Processing is performed concurrently using a worker pool. Status changes
// are funnelled through a single writer goroutine so every document follows
// the legal lifecycle: uploaded -> processing -> indexed | processed |
// failed. Errors during async processing are logged and recorded on the
// document but never fail the upload operation itself.
package ingestion
