// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic
// behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockGen := mock.NewMockGenerator()
//	mockGen.GenerateFunc = func(ctx context.Context, system, prompt string) (string, error) {
//	    return "", errors.New("model offline")
//	}
//
//	// Check call counts
//	count := mockGen.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockGenerator: Returns a short canned answer
//   - MockProvider: Aggregates mock embedder and generator
package mock
