// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for AI services used in Dartos.
//
// This package defines interfaces for text embeddings and answer generation.
// It follows the dependency inversion principle, allowing the indexing and
// query layers to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces grounded answers from a system prompt and user prompt
//   - Provider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes three implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/lexical: Dependency-free hashed bag-of-words embedder used when no
//     embedding backend is reachable
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Embedding Degradation
//
// Production deployments may run without a reachable embedding service. The
// Loader type arbitrates between the preferred (openai) embedder and the
// lexical fallback: on first use it probes the preferred backend, and on
// failure it settles on the fallback for the remainder of the process. The
// decision is made exactly once; concurrent first callers await the same
// outcome via sync.Once.
//
//	loader := ai.NewLoader(preferred, lexical.New(), cfg)
//	vec, err := loader.EmbedText(ctx, "some chunk text")
//	if loader.Degraded() {
//	    // retrieval quality is reduced but functional
//	}
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewEmbedder, mock.NewGenerator) return
// CONCRETE types to enable test assertions and behavior injection via the
// mock's public methods (CallCount, WithXFunc, Reset, etc.).
package ai
