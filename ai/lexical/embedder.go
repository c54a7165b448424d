// Package lexical implements a dependency-free embedding fallback.
//
// When no embedding backend is reachable the system still has to index and
// retrieve documents. The lexical embedder maps text into a fixed-dimension
// hashed bag-of-words vector: tokens are lowercased, hashed into buckets, and
// the resulting count vector is L2-normalized so cosine similarity behaves
// like normalized term overlap. Retrieval quality is reduced but deterministic
// and fully offline.
package lexical

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/poiesic/dartos/ai"
)

// DefaultDimension matches the dimensionality commonly produced by small
// sentence-embedding models so stored vectors stay comparable in size.
const DefaultDimension = 384

// Embedder is a hashed bag-of-words embedder. It is stateless and safe for
// concurrent use.
type Embedder struct {
	dimension int
}

var _ ai.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithDimension overrides the output vector dimensionality.
func WithDimension(dim int) Option {
	return func(e *Embedder) {
		if dim > 0 {
			e.dimension = dim
		}
	}
}

// New creates a lexical embedder.
func New(opts ...Option) *Embedder {
	e := &Embedder{dimension: DefaultDimension}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedText generates a normalized hashed bag-of-words vector for text.
func (e *Embedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	normalize(vec)
	return vec, nil
}

// EmbedTexts generates vectors for multiple texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Name identifies this embedder.
func (e *Embedder) Name() string {
	return "lexical-hash"
}

// tokenize splits text into lowercased alphanumeric runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales vec to unit length in place. Zero vectors stay zero.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
