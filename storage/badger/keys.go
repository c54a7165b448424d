package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/dartos/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentDatePrefix = "docrecd"
	vectorPrefix       = "vecrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id
func makeDocumentDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := documentDatePrefix + ":"
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeVectorKey generates a composite key for an index entry.
// Format: prefix:docID:seq
func makeVectorKey(docID core.ID, seq int) []byte {
	prefix := makeVectorDocPrefix(docID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// BigEndian keeps entries ordered by sequence within a document
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makeVectorDocPrefix generates the key prefix covering all of one
// document's index entries.
func makeVectorDocPrefix(docID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorPrefix, docID))
}
