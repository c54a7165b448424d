package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique, stable identifier for a document.
type ID string

// NewID generates a fresh document identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ChecksumBytes computes a 64-bit BLAKE2b digest of data. It is recorded
// alongside stored blobs so re-indexing can detect altered bytes.
func ChecksumBytes(data []byte) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// Status is the lifecycle state of a document in the ingestion pipeline.
type Status int

const (
	// StatusUploaded means the document has been accepted but not yet processed.
	StatusUploaded Status = iota + 1
	// StatusProcessing means background extraction/indexing is in flight.
	StatusProcessing
	// StatusIndexed means extraction and vector indexing both succeeded.
	StatusIndexed
	// StatusProcessed means extraction succeeded but indexing did not;
	// the document content is viewable, just not retrievable via query.
	StatusProcessed
	// StatusFailed means extraction itself failed; ErrorMessage holds the detail.
	StatusFailed
)

// String returns the persisted/user-visible name of the status.
func (s Status) String() string {
	switch s {
	case StatusUploaded:
		return "uploaded"
	case StatusProcessing:
		return "processing"
	case StatusIndexed:
		return "indexed"
	case StatusProcessed:
		return "processed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a resting state.
func (s Status) Terminal() bool {
	switch s {
	case StatusIndexed, StatusProcessed, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from one status to another is a legal
// state-machine step. Terminal states may only be reset to StatusUploaded,
// which models an external re-ingestion request as a new attempt.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusUploaded:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusIndexed || to == StatusProcessed || to == StatusFailed
	case StatusIndexed, StatusProcessed, StatusFailed:
		return to == StatusUploaded
	default:
		return false
	}
}

// StatusDetail returns a human-readable progress message for a status.
func StatusDetail(s Status) string {
	switch s {
	case StatusUploaded:
		return "Document uploaded, waiting to be processed"
	case StatusProcessing:
		return "Extracting text and indexing document"
	case StatusIndexed:
		return "Document fully processed and indexed"
	case StatusProcessed:
		return "Document processed (indexing unavailable)"
	case StatusFailed:
		return "Processing failed"
	default:
		return "Unknown status"
	}
}

// Document is an uploaded PDF moving through the ingestion pipeline.
// It is mutated only through state-machine transitions.
type Document struct {
	Id           ID
	Filename     string
	BlobRef      string // location of the raw bytes in the blob store
	Checksum     uint64 // BLAKE2b-64 of the raw bytes
	Content      string // extracted text, empty until extraction succeeds
	Status       Status
	ErrorMessage string // set iff Status == StatusFailed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chunk is a bounded, overlapping slice of a document's extracted text.
// Its only independent identity is (DocumentId, Seq).
type Chunk struct {
	DocumentId ID
	Seq        int
	Start      int // character span [Start, End) within the source text
	End        int
	Text       string
}

// IndexEntry is one embedded chunk as stored by the vector repository.
type IndexEntry struct {
	DocumentId ID
	Seq        int
	Text       string
	Vector     []float32
}

// SearchResult is an index entry matched by a similarity query.
type SearchResult struct {
	Entry *IndexEntry
	Score float32
}

// QueryResult is the transient outcome of answering one query.
type QueryResult struct {
	Query       string
	Instruction string
	Chunks      []string // ranked chunk texts used as context
	Answer      string
	NoDocuments bool // true when the index held nothing to retrieve
	Degraded    bool // true when the language model was unavailable
}
