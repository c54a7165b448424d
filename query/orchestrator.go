package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/dartos/ai"
	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/index"
)

// Answer texts for the two valid-but-empty retrieval outcomes.
const (
	noDocumentsAnswer = "No documents have been uploaded yet. Please upload some PDF documents first."
	noMatchesAnswer   = "No relevant content found in the uploaded documents for this query. " +
		"Try rephrasing your question or uploading more relevant documents."
	degradedAnswer = "The language model is currently unavailable. " +
		"The most relevant document passages are included below."
)

// defaultSystemPrompt is used when the caller supplies no instruction.
const defaultSystemPrompt = "You are an AI assistant that analyzes documents and provides " +
	"helpful summaries and explanations. Use the provided context to answer the user's " +
	"question accurately and comprehensively. If the context doesn't contain relevant " +
	"information, state that clearly."

// Orchestrator runs the retrieval-then-generate flow for one query at a time.
// It is stateless and safe for concurrent use.
type Orchestrator struct {
	idx         *index.VectorIndex
	generator   ai.Generator
	defaultTopK int
	strictModel bool
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDefaultTopK overrides the result count used when callers pass topK <= 0.
func WithDefaultTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.defaultTopK = k
		}
	}
}

// WithStrictModel makes generator failures return ErrModelUnavailable
// instead of a degraded result.
func WithStrictModel(strict bool) Option {
	return func(o *Orchestrator) {
		o.strictModel = strict
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates a query orchestrator over the given index and
// generator.
func NewOrchestrator(idx *index.VectorIndex, generator ai.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		idx:         idx,
		generator:   generator,
		defaultTopK: index.DefaultTopK,
		logger:      slog.Default().With("component", "query"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer retrieves context for the query and asks the language model for a
// grounded answer. instruction overrides the default system prompt when
// non-empty. topK <= 0 selects the configured default; values above
// index.MaxTopK are clamped.
//
// An empty corpus short-circuits without touching the embedder or the model.
// A generator failure degrades the result to the retrieved chunks unless
// strict-model mode is enabled.
func (o *Orchestrator) Answer(ctx context.Context, query, instruction string, topK int) (*core.QueryResult, error) {
	if topK <= 0 {
		topK = o.defaultTopK
	}
	if topK > index.MaxTopK {
		topK = index.MaxTopK
	}

	result := &core.QueryResult{
		Query:       query,
		Instruction: instruction,
		Chunks:      []string{},
	}

	matches, err := o.retrieve(ctx, query, topK)
	if errors.Is(err, core.ErrEmptyCollection) {
		o.logger.Debug("query against empty corpus", "query", query)
		result.NoDocuments = true
		result.Answer = noDocumentsAnswer
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		result.Answer = noMatchesAnswer
		return result, nil
	}
	result.Chunks = chunkTexts(matches)

	system := defaultSystemPrompt
	if instruction != "" {
		system = instruction
	}
	prompt := fmt.Sprintf("Context from documents:\n%s\n\nQuestion: %s\n\nPlease provide a comprehensive answer based on the context above.",
		AssembleContext(matches), query)

	answer, err := o.generator.Generate(ctx, system, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if o.strictModel {
			return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
		}
		o.logger.Warn("language model unavailable, returning degraded answer",
			"query", query, "err", err)
		result.Degraded = true
		result.Answer = degradedAnswer
		return result, nil
	}

	result.Answer = answer
	return result, nil
}

// retrieve searches the index, signalling an entirely empty corpus with
// core.ErrEmptyCollection before any embedding work happens.
func (o *Orchestrator) retrieve(ctx context.Context, query string, topK int) ([]*core.SearchResult, error) {
	empty, err := o.idx.IsEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, core.ErrEmptyCollection
	}
	return o.idx.Search(ctx, query, topK)
}
