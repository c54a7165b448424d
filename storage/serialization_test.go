package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/core"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:        core.NewID(),
		Filename:  "report.pdf",
		BlobRef:   "blobs/ab/report.pdf",
		Checksum:  0xdeadbeefcafe,
		Content:   "extracted body text",
		Status:    core.StatusIndexed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalDocument_FailedState(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.Document{
		Id:           core.NewID(),
		Filename:     "broken.pdf",
		Status:       core.StatusFailed,
		ErrorMessage: "no extractable text",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc.ErrorMessage, decoded.ErrorMessage)
	assert.Equal(t, core.StatusFailed, decoded.Status)
}

func TestMarshalUnmarshalIndexEntry(t *testing.T) {
	entry := &core.IndexEntry{
		DocumentId: core.NewID(),
		Seq:        3,
		Text:       "chunk text",
		Vector:     []float32{0.25, -0.5, 0.75},
	}

	data := MarshalIndexEntry(entry)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalIndexEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		Id:        core.NewID(),
		Filename:  "report.pdf",
		Status:    core.StatusUploaded,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}
