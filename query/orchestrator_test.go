package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/ai/mock"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/index"
	"github.com/poiesic/dartos/storage/badger"
)

func setupOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *index.VectorIndex, *mock.MockGenerator) {
	t.Helper()

	_, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})

	idx := index.New(vectors, mock.NewMockEmbedder())
	generator := mock.NewMockGenerator()
	return NewOrchestrator(idx, generator, opts...), idx, generator
}

func indexChunks(t *testing.T, idx *index.VectorIndex, texts ...string) core.ID {
	t.Helper()

	docID := core.NewID()
	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{DocumentId: docID, Seq: i, Text: text}
	}
	_, err := idx.IndexDocument(context.Background(), docID, chunks)
	require.NoError(t, err)
	return docID
}

func TestAssembleContext(t *testing.T) {
	t.Run("numbered sections in rank order", func(t *testing.T) {
		results := []*core.SearchResult{
			{Entry: &core.IndexEntry{Text: "first passage"}, Score: 0.9},
			{Entry: &core.IndexEntry{Text: "second passage"}, Score: 0.5},
			{Entry: &core.IndexEntry{Text: "third passage"}, Score: 0.1},
		}

		block := AssembleContext(results)
		assert.Contains(t, block, "[Context Section 1]\nfirst passage")
		assert.Contains(t, block, "[Context Section 2]\nsecond passage")
		assert.Contains(t, block, "[Context Section 3]\nthird passage")
		assert.Contains(t, block, "---")
		assert.Less(t,
			strings.Index(block, "first passage"),
			strings.Index(block, "second passage"))
	})

	t.Run("empty results", func(t *testing.T) {
		assert.Empty(t, AssembleContext(nil))
	})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("empty corpus short circuits without model call", func(t *testing.T) {
		orch, _, generator := setupOrchestrator(t)

		result, err := orch.Answer(ctx, "what is this about?", "", 5)
		require.NoError(t, err)
		assert.True(t, result.NoDocuments)
		assert.Contains(t, result.Answer, "No documents have been uploaded")
		assert.Empty(t, result.Chunks)
		assert.Zero(t, generator.CallCount())
	})

	t.Run("grounded answer carries the retrieved chunks", func(t *testing.T) {
		orch, idx, generator := setupOrchestrator(t)
		indexChunks(t, idx, "storage engines use LSM trees", "query planners estimate cost")

		var seenPrompt string
		generator.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
			seenPrompt = prompt
			return "an answer grounded in context", nil
		}

		result, err := orch.Answer(ctx, "storage engines use LSM trees", "", 5)
		require.NoError(t, err)
		assert.Equal(t, "an answer grounded in context", result.Answer)
		assert.False(t, result.Degraded)
		assert.False(t, result.NoDocuments)
		assert.NotEmpty(t, result.Chunks)
		assert.LessOrEqual(t, len(result.Chunks), 5)
		assert.Contains(t, seenPrompt, "[Context Section 1]")
		assert.Contains(t, seenPrompt, "Question: storage engines use LSM trees")
	})

	t.Run("chunks used never exceed what is available", func(t *testing.T) {
		orch, idx, _ := setupOrchestrator(t)
		indexChunks(t, idx, "only chunk one", "only chunk two")

		result, err := orch.Answer(ctx, "anything", "", 10)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(result.Chunks), 2)
	})

	t.Run("instruction overrides the system prompt", func(t *testing.T) {
		orch, idx, generator := setupOrchestrator(t)
		indexChunks(t, idx, "some content")

		var seenSystem string
		generator.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
			seenSystem = system
			return "ok", nil
		}

		_, err := orch.Answer(ctx, "question", "Answer only in French.", 5)
		require.NoError(t, err)
		assert.Equal(t, "Answer only in French.", seenSystem)
	})

	t.Run("generator failure degrades the result", func(t *testing.T) {
		orch, idx, generator := setupOrchestrator(t)
		indexChunks(t, idx, "retrievable content")

		generator.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
			return "", fmt.Errorf("%w: connection refused", core.ErrModelUnavailable)
		}

		result, err := orch.Answer(ctx, "question", "", 5)
		require.NoError(t, err)
		assert.True(t, result.Degraded)
		assert.Contains(t, result.Answer, "unavailable")
		assert.NotEmpty(t, result.Chunks)
	})

	t.Run("strict model surfaces generator failure", func(t *testing.T) {
		orch, idx, generator := setupOrchestrator(t, WithStrictModel(true))
		indexChunks(t, idx, "retrievable content")

		generator.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
			return "", errors.New("boom")
		}

		_, err := orch.Answer(ctx, "question", "", 5)
		assert.ErrorIs(t, err, core.ErrModelUnavailable)
	})

	t.Run("oversized topK is clamped not rejected", func(t *testing.T) {
		orch, idx, _ := setupOrchestrator(t)
		indexChunks(t, idx, "content")

		result, err := orch.Answer(ctx, "question", "", index.MaxTopK+50)
		require.NoError(t, err)
		assert.False(t, result.Degraded)
	})
}
