package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dartos/core"
)

// stubStrategy returns a fixed result or error.
type stubStrategy struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ []byte) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	return &r, nil
}

func richText(pages int) string {
	page := strings.Repeat("sufficiently dense extracted prose ", 12)
	return strings.TrimSpace(strings.Repeat(page+"\n", pages))
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	data := []byte("%PDF-1.7 stub")

	t.Run("first sufficient strategy wins", func(t *testing.T) {
		native := &stubStrategy{name: "native", result: &Result{Text: richText(2), Pages: 2}}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: richText(2), Pages: 2}}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		result, err := extractor.Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "native", result.Method)
		assert.False(t, result.UsedFallback)
		assert.Zero(t, ocr.calls)
	})

	t.Run("stub text layer falls through to ocr", func(t *testing.T) {
		// A scanned document often carries a near-empty text layer.
		native := &stubStrategy{name: "native", result: &Result{Text: "p.1", Pages: 3}}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: richText(3), Pages: 3}}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		result, err := extractor.Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "ocr", result.Method)
		assert.True(t, result.UsedFallback)
		assert.Equal(t, 1, native.calls)
	})

	t.Run("best insufficient candidate is still returned", func(t *testing.T) {
		native := &stubStrategy{name: "native", result: &Result{Text: "short native text here", Pages: 5}}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: "even shorter", Pages: 5}}
		extractor, err := New([]Strategy{native, ocr}, WithMinTotalChars(10))
		require.NoError(t, err)

		result, err := extractor.Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "native", result.Method)
		assert.Equal(t, "short native text here", result.Text)
	})

	t.Run("best candidate below the absolute floor is rejected", func(t *testing.T) {
		native := &stubStrategy{name: "native", result: &Result{Text: "only 20 chars here!!", Pages: 1}}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: "9 chars!!", Pages: 1}}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		_, err = extractor.Extract(ctx, data)
		require.ErrorIs(t, err, core.ErrNoExtractableText)
	})

	t.Run("all strategies empty yields no extractable text", func(t *testing.T) {
		native := &stubStrategy{name: "native", result: &Result{Text: "", Pages: 1}}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: "   \n  ", Pages: 1}}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		_, err = extractor.Extract(ctx, data)
		require.ErrorIs(t, err, core.ErrNoExtractableText)
	})

	t.Run("malformed input surfaces as such", func(t *testing.T) {
		parseErr := fmt.Errorf("%w: cannot open document", core.ErrMalformedInput)
		native := &stubStrategy{name: "native", err: parseErr}
		ocr := &stubStrategy{name: "ocr", err: parseErr}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		_, err = extractor.Extract(ctx, data)
		require.ErrorIs(t, err, core.ErrMalformedInput)
	})

	t.Run("strategy failure falls through to next", func(t *testing.T) {
		native := &stubStrategy{name: "native", err: errors.New("engine crashed")}
		ocr := &stubStrategy{name: "ocr", result: &Result{Text: richText(1), Pages: 1}}
		extractor, err := New([]Strategy{native, ocr})
		require.NoError(t, err)

		result, err := extractor.Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "ocr", result.Method)
	})

	t.Run("empty input is malformed", func(t *testing.T) {
		native := &stubStrategy{name: "native", result: &Result{Text: richText(1), Pages: 1}}
		extractor, err := New([]Strategy{native})
		require.NoError(t, err)

		_, err = extractor.Extract(ctx, nil)
		require.ErrorIs(t, err, core.ErrMalformedInput)
		assert.Zero(t, native.calls)
	})

	t.Run("no strategies rejected", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
	})

	t.Run("cancelled context stops extraction", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		native := &stubStrategy{name: "native", result: &Result{Text: richText(1), Pages: 1}}
		extractor, err := New([]Strategy{native})
		require.NoError(t, err)

		_, err = extractor.Extract(cancelled, data)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSufficient(t *testing.T) {
	extractor, err := New([]Strategy{&stubStrategy{name: "native", result: &Result{}}})
	require.NoError(t, err)

	tests := []struct {
		name string
		r    Result
		want bool
	}{
		{"dense multi page", Result{Text: richText(3), Pages: 3}, true},
		{"below total floor", Result{Text: "tiny", Pages: 1}, false},
		{"below per page average", Result{Text: richText(1), Pages: 40}, false},
		{"mostly symbol noise", Result{Text: strings.Repeat(". . - - | | ", 50), Pages: 1}, false},
		{"zero pages treated as one", Result{Text: richText(1), Pages: 0}, true},
		{"garbled repeated run", Result{Text: richText(1) + strings.Repeat("x", 12), Pages: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractor.sufficient(&tt.r))
		})
	}
}
