package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/poiesic/dartos/core"
)

// OCREngine recognizes text in a rendered page image. The image is PNG
// encoded. Implementations live outside this package so the fallback logic
// does not depend on a tesseract installation.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// OCRStrategy rasterizes each PDF page and runs it through an OCR engine.
// It is the fallback for scanned documents with no usable text layer.
type OCRStrategy struct {
	engine OCREngine
}

// NewOCRStrategy creates a strategy that OCRs rendered page images.
func NewOCRStrategy(engine OCREngine) *OCRStrategy {
	return &OCRStrategy{engine: engine}
}

// Name identifies this strategy.
func (s *OCRStrategy) Name() string {
	return "ocr"
}

// Extract renders every page and concatenates the recognized text.
func (s *OCRStrategy) Extract(ctx context.Context, data []byte) (*Result, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedInput, err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}

		text, err := s.engine.Recognize(ctx, buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("recognizing page %d: %w", i+1, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\f")
		}
		sb.WriteString(text)
	}

	return &Result{Text: strings.TrimSpace(sb.String()), Pages: pages}, nil
}
