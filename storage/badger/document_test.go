package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

func setupRepositories(t *testing.T) (storage.DocumentRepository, storage.VectorRepository) {
	t.Helper()

	docs, vectors, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})
	return docs, vectors
}

func newTestDocument(filename string) *core.Document {
	return &core.Document{
		Id:       core.NewID(),
		Filename: filename,
		Status:   core.StatusUploaded,
	}
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		doc := newTestDocument("report.pdf")
		doc.Checksum = 12345
		require.NoError(t, docs.PutDocument(ctx, doc))

		got, err := docs.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, doc.Id, got.Id)
		assert.Equal(t, "report.pdf", got.Filename)
		assert.Equal(t, uint64(12345), got.Checksum)
		assert.False(t, got.CreatedAt.IsZero())
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("get missing document", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		_, err := docs.GetDocument(ctx, core.NewID())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put preserves creation time on update", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		doc := newTestDocument("report.pdf")
		require.NoError(t, docs.PutDocument(ctx, doc))
		created := doc.CreatedAt

		time.Sleep(5 * time.Millisecond)
		doc.Status = core.StatusProcessing
		require.NoError(t, docs.PutDocument(ctx, doc))

		got, err := docs.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, created, got.CreatedAt)
		assert.Equal(t, core.StatusProcessing, got.Status)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("put rejects invalid document", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		// Error message without failed status violates the model contract.
		doc := newTestDocument("report.pdf")
		doc.ErrorMessage = "spurious"
		assert.Error(t, docs.PutDocument(ctx, doc))
	})

	t.Run("list returns documents in creation order", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		first := newTestDocument("a.pdf")
		require.NoError(t, docs.PutDocument(ctx, first))
		time.Sleep(2 * time.Millisecond)
		second := newTestDocument("b.pdf")
		require.NoError(t, docs.PutDocument(ctx, second))

		all, err := docs.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.Id, all[0].Id)
		assert.Equal(t, second.Id, all[1].Id)
	})

	t.Run("delete removes document", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		doc := newTestDocument("report.pdf")
		require.NoError(t, docs.PutDocument(ctx, doc))
		require.NoError(t, docs.DeleteDocument(ctx, doc.Id))

		_, err := docs.GetDocument(ctx, doc.Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		all, err := docs.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("delete missing document", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		err := docs.DeleteDocument(ctx, core.NewID())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("count documents", func(t *testing.T) {
		docs, _ := setupRepositories(t)

		n, err := docs.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, docs.PutDocument(ctx, newTestDocument("a.pdf")))
		require.NoError(t, docs.PutDocument(ctx, newTestDocument("b.pdf")))

		n, err = docs.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
