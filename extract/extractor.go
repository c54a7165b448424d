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


package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/poiesic/dartos/core"
)

// Sufficiency thresholds. A result below these is treated as a stub text
// layer (common in scanned PDFs) and extraction falls through to the next
// strategy.
const (
	// DefaultMinCharsPerPage is the minimum average character count per page.
	DefaultMinCharsPerPage = 200

	// DefaultMinInkRatio is the minimum fraction of letters and digits among
	// all runes. Filters out results that are mostly whitespace or symbol
	// noise.
	DefaultMinInkRatio = 0.25

	// DefaultMinTotalChars is the absolute floor below which a result is
	// never considered sufficient, regardless of page count.
	DefaultMinTotalChars = 50

	// repeatedRunLimit marks a result as garbage when any non-whitespace
	// character repeats this many times in a row. Broken text layers tend to
	// decode as long runs of a single glyph.
	repeatedRunLimit = 10
)

// Result is the outcome of a single extraction strategy.
type Result struct {
	// Text is the extracted plain text, pages joined by form feeds.
	Text string

	// Pages is the number of pages in the source document.
	Pages int

	// Method names the strategy that produced the text.
	Method string

	// UsedFallback is true when a strategy other than the primary one
	// produced the text.
	UsedFallback bool
}

// Extractor runs extraction strategies in order until one produces
// sufficient text.
type Extractor struct {
	strategies      []Strategy
	minCharsPerPage int
	minInkRatio     float64
	minTotalChars   int
	logger          *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinCharsPerPage overrides the per-page sufficiency threshold.
func WithMinCharsPerPage(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minCharsPerPage = n
		}
	}
}

// WithMinInkRatio overrides the letter/digit density threshold.
func WithMinInkRatio(ratio float64) Option {
	return func(e *Extractor) {
		if ratio >= 0 && ratio <= 1 {
			e.minInkRatio = ratio
		}
	}
}

// WithMinTotalChars overrides the absolute character floor.
func WithMinTotalChars(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.minTotalChars = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor running the given strategies in order.
func New(strategies []Strategy, opts ...Option) (*Extractor, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one extraction strategy is required")
	}

	e := &Extractor{
		strategies:      strategies,
		minCharsPerPage: DefaultMinCharsPerPage,
		minInkRatio:     DefaultMinInkRatio,
		minTotalChars:   DefaultMinTotalChars,
		logger:          slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs the strategies in order and returns the first sufficient
// result. If no strategy produces sufficient text, the best candidate at or
// above the absolute character floor is returned anyway so downstream stages
// can still index whatever was found. Returns core.ErrNoExtractableText when
// every strategy comes back below the floor, and core.ErrMalformedInput when
// the bytes cannot be parsed at all.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", core.ErrMalformedInput)
	}

	var best *Result
	var lastErr error

	for pos, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := strategy.Extract(ctx, data)
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				"strategy", strategy.Name(), "err", err)
			lastErr = err
			continue
		}
		result.Method = strategy.Name()
		result.UsedFallback = pos > 0

		if e.sufficient(result) {
			e.logger.Debug("extraction complete",
				"strategy", strategy.Name(),
				"pages", result.Pages,
				"chars", len(result.Text))
			return result, nil
		}

		e.logger.Debug("extraction result insufficient, trying next strategy",
			"strategy", strategy.Name(),
			"chars", len(strings.TrimSpace(result.Text)))

		if best == nil || inkChars(result.Text) > inkChars(best.Text) {
			best = result
		}
	}

	// A candidate below the absolute floor is no better than nothing.
	if best != nil && len(strings.TrimSpace(best.Text)) >= e.minTotalChars {
		e.logger.Warn("no strategy met sufficiency thresholds, using best candidate",
			"strategy", best.Method, "chars", len(best.Text))
		return best, nil
	}

	if lastErr != nil {
		if errors.Is(lastErr, core.ErrMalformedInput) {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoExtractableText, lastErr)
	}
	return nil, core.ErrNoExtractableText
}

// sufficient applies the text-layer heuristics to a strategy result.
func (e *Extractor) sufficient(r *Result) bool {
	trimmed := strings.TrimSpace(r.Text)
	if len(trimmed) < e.minTotalChars {
		return false
	}

	pages := r.Pages
	if pages < 1 {
		pages = 1
	}
	if len(trimmed)/pages < e.minCharsPerPage {
		return false
	}

	total := 0
	ink := 0
	for _, ch := range trimmed {
		total++
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			ink++
		}
	}
	if total == 0 {
		return false
	}
	if float64(ink)/float64(total) < e.minInkRatio {
		return false
	}

	return !hasRepeatedRun(trimmed, repeatedRunLimit)
}

// hasRepeatedRun reports whether any non-whitespace rune repeats at least
// limit times consecutively.
func hasRepeatedRun(text string, limit int) bool {
	var prev rune
	run := 0
	for _, ch := range text {
		if unicode.IsSpace(ch) {
			prev, run = 0, 0
			continue
		}
		if ch == prev {
			run++
			if run >= limit {
				return true
			}
		} else {
			prev, run = ch, 1
		}
	}
	return false
}

// inkChars counts letters and digits, used to rank insufficient candidates.
func inkChars(text string) int {
	n := 0
	for _, ch := range text {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			n++
		}
	}
	return n
}
