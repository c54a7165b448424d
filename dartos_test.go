package dartos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

// offlineConfig points at nothing so the embedding probe fails fast and the
// service settles on the lexical fallback.
func offlineConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost("http://127.0.0.1:1"),
		ai.WithProbeTimeout(50*time.Millisecond),
	)
}

func setupService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()

	opts = append([]ServiceOption{WithAIConfig(offlineConfig())}, opts...)
	svc, err := New(t.TempDir(), t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})
	return svc
}

func waitForResting(t *testing.T, svc *Service, id core.ID) *core.Document {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := svc.Status(context.Background(), id)
		require.NoError(t, err)
		if doc.Status.Terminal() {
			return doc
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("document never reached a resting state")
	return nil
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("unparseable upload fails with captured error", func(t *testing.T) {
		svc := setupService(t)

		id, err := svc.Ingest(ctx, "garbage.pdf", []byte("not a pdf at all"))
		require.NoError(t, err)

		doc := waitForResting(t, svc, id)
		assert.Equal(t, core.StatusFailed, doc.Status)
		assert.NotEmpty(t, doc.ErrorMessage)
		assert.Empty(t, doc.Content)

		all, err := svc.Documents(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, id, all[0].Id)
	})

	t.Run("empty inputs rejected", func(t *testing.T) {
		svc := setupService(t)

		_, err := svc.Ingest(ctx, "", []byte("data"))
		assert.ErrorIs(t, err, core.ErrEmptyFilename)

		_, err = svc.Ingest(ctx, "empty.pdf", nil)
		assert.ErrorIs(t, err, core.ErrMalformedInput)
	})

	t.Run("query with no indexed documents", func(t *testing.T) {
		svc := setupService(t)

		result, err := svc.Answer(ctx, "what does the report say?", "", 0)
		require.NoError(t, err)
		assert.True(t, result.NoDocuments)
		assert.Contains(t, result.Answer, "No documents")
	})

	t.Run("reindex reuses the stored upload bytes", func(t *testing.T) {
		svc := setupService(t)

		id, err := svc.Ingest(ctx, "garbage.pdf", []byte("still not a pdf"))
		require.NoError(t, err)
		first := waitForResting(t, svc, id)
		require.Equal(t, core.StatusFailed, first.Status)

		// The bytes have not changed, so the outcome repeats.
		require.NoError(t, svc.Reindex(ctx, id))
		second := waitForResting(t, svc, id)
		assert.Equal(t, core.StatusFailed, second.Status)
		assert.NotEmpty(t, second.ErrorMessage)
	})

	t.Run("delete removes the document", func(t *testing.T) {
		svc := setupService(t)

		id, err := svc.Ingest(ctx, "garbage.pdf", []byte("bytes"))
		require.NoError(t, err)
		waitForResting(t, svc, id)

		require.NoError(t, svc.Delete(ctx, id))
		_, err = svc.Status(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("status of unknown document", func(t *testing.T) {
		svc := setupService(t)

		_, err := svc.Status(ctx, core.NewID())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
