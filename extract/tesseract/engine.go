// Package tesseract adapts the tesseract OCR engine to extract.OCREngine.
package tesseract

import (
	"context"

	"github.com/otiai10/gosseract/v2"

	"github.com/poiesic/dartos/extract"
)

// Engine runs OCR through a local tesseract installation.
//
// gosseract clients are not safe for concurrent use, so Engine creates one
// per Recognize call. Page images arrive one at a time from the extraction
// pipeline, which keeps the per-call setup cost acceptable.
type Engine struct {
	languages []string
}

var _ extract.OCREngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages sets the tesseract language models to load. Default is "eng".
func WithLanguages(langs ...string) Option {
	return func(e *Engine) {
		if len(langs) > 0 {
			e.languages = langs
		}
	}
}

// New creates a tesseract-backed OCR engine.
func New(opts ...Option) *Engine {
	e := &Engine{languages: []string{"eng"}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recognize extracts text from a PNG-encoded page image.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}
	return client.Text()
}
