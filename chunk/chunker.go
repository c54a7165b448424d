// Package chunk splits extracted document text into overlapping fixed-size
// windows used as the unit of embedding and retrieval.
package chunk

import (
	"errors"
	"fmt"

	"github.com/poiesic/dartos/core"
)

// Policy defaults. Overlap preserves context continuity across chunk
// boundaries without excessive duplication.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// ErrInvalidWindow indicates an unusable (size, overlap) pair.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Split partitions text into chunks of size characters, each window advancing
// by size-overlap. Windows count runes, not bytes, so a multibyte character
// is never split across a chunk edge and spans are character offsets. The
// final chunk may be shorter than size; text shorter than size yields exactly
// one chunk equal to the whole text.
//
// Split is pure: identical input always yields the identical chunk sequence.
func Split(docID core.ID, text string, size, overlap int) ([]core.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidWindow, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < size", ErrInvalidWindow, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]core.Chunk, 0, (len(runes)+step-1)/step)

	for seq, start := 0, 0; start < len(runes); seq, start = seq+1, start+step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, core.Chunk{
			DocumentId: docID,
			Seq:        seq,
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// Chunker carries a fixed window policy, typically built once from
// configuration and shared by the ingestion pipeline.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker, validating the window parameters up front.
func New(size, overlap int) (*Chunker, error) {
	if _, err := Split("", "x", size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a Chunker with the policy defaults.
func Default() *Chunker {
	c, _ := New(DefaultSize, DefaultOverlap)
	return c
}

// Split partitions text using the chunker's window policy.
func (c *Chunker) Split(docID core.ID, text string) ([]core.Chunk, error) {
	return Split(docID, text, c.size, c.overlap)
}

// Size returns the configured window size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int { return c.overlap }
