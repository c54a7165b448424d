package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/poiesic/dartos/core"
)

// Strategy produces text from raw document bytes. Implementations wrap
// unparseable-input failures in core.ErrMalformedInput so the extractor can
// distinguish bad uploads from strategies that simply found nothing.
type Strategy interface {
	// Name identifies the strategy in logs and results.
	Name() string

	// Extract parses data and returns the recovered text.
	Extract(ctx context.Context, data []byte) (*Result, error)
}

// NativeStrategy reads the text layer embedded in a PDF.
type NativeStrategy struct{}

// NewNativeStrategy creates a strategy reading the PDF's embedded text layer.
func NewNativeStrategy() *NativeStrategy {
	return &NativeStrategy{}
}

// Name identifies this strategy.
func (s *NativeStrategy) Name() string {
	return "native"
}

// Extract pulls the text layer from every page.
func (s *NativeStrategy) Extract(ctx context.Context, data []byte) (*Result, error) {
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

		text, err := doc.Text(i)
		if err != nil {
			// A single broken page should not sink the document.
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\f")
		}
		sb.WriteString(text)
	}

	return &Result{Text: strings.TrimSpace(sb.String()), Pages: pages}, nil
}
