package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the embedding strategy, e.g. for degradation logging.
	Name() string
}

// Generator produces a natural-language answer from a fully assembled prompt.
// It wraps an external language model and may fail or time out; callers are
// expected to degrade gracefully rather than propagate its errors.
type Generator interface {
	// Generate invokes the language model with a system instruction and a
	// user prompt and returns the response text.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Provider aggregates the AI services behind one configuration, ensuring the
// embedder and the generator share resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
