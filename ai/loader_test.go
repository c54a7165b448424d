package ai_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/ai/mock"
)

func TestLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("uses preferred embedder when probe succeeds", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(preferred, fallback, ai.DefaultConfig())

		vec, err := loader.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.NotEmpty(t, vec)
		assert.False(t, loader.Degraded())
		assert.Zero(t, fallback.CallCount())
	})

	t.Run("degrades to fallback when probe fails", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		preferred.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("connection refused")
		}
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(preferred, fallback, ai.DefaultConfig())

		vec, err := loader.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.NotEmpty(t, vec)
		assert.True(t, loader.Degraded())
	})

	t.Run("probe runs only once", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(preferred, fallback, ai.DefaultConfig())

		_, err := loader.EmbedText(ctx, "first")
		require.NoError(t, err)
		_, err = loader.EmbedText(ctx, "second")
		require.NoError(t, err)

		// One probe call plus two delegated calls.
		assert.Equal(t, 3, preferred.CallCount())
	})

	t.Run("concurrent first callers settle on one decision", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		preferred.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("unreachable")
		}
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(preferred, fallback, ai.DefaultConfig())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := loader.EmbedText(ctx, "race")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.True(t, loader.Degraded())
		// One probe attempt only, regardless of caller count.
		assert.Equal(t, 1, preferred.CallCount())
	})

	t.Run("probe failure surfaces when fallback disabled", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		probeErr := errors.New("model not found")
		preferred.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, probeErr
		}
		cfg := ai.NewConfig(ai.WithFallback(false))
		loader := ai.NewLoader(preferred, mock.NewMockEmbedder(), cfg)

		_, err := loader.EmbedText(ctx, "hello")
		require.ErrorIs(t, err, probeErr)
		assert.False(t, loader.Degraded())

		// The decision is cached, later calls fail the same way.
		_, err = loader.EmbedTexts(ctx, []string{"a", "b"})
		require.ErrorIs(t, err, probeErr)
	})

	t.Run("status readable while first use is in flight", func(t *testing.T) {
		preferred := mock.NewMockEmbedder()
		preferred.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("unreachable")
		}
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(preferred, fallback, ai.DefaultConfig())

		// Observers like a health endpoint poll Degraded and Name without
		// ever embedding; they must not race the resolving goroutines.
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := loader.EmbedText(ctx, "race")
				assert.NoError(t, err)
			}()
			wg.Add(1)
			go func() {
				defer wg.Done()
				loader.Degraded()
				assert.NotEmpty(t, loader.Name())
			}()
		}
		wg.Wait()

		assert.True(t, loader.Degraded())
		assert.Equal(t, "mock", loader.Name())
	})

	t.Run("nil preferred resolves straight to fallback", func(t *testing.T) {
		fallback := mock.NewMockEmbedder()
		loader := ai.NewLoader(nil, fallback, ai.DefaultConfig())

		_, err := loader.EmbedText(ctx, "hello")
		require.NoError(t, err)
		assert.True(t, loader.Degraded())
	})
}
