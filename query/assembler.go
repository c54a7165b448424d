// Package query answers natural-language questions over the indexed corpus.
// It retrieves the most similar chunks, assembles them into a numbered
// context block and hands the block to a language model for grounding.
package query

import (
	"fmt"
	"strings"

	"github.com/poiesic/dartos/core"
)

// sectionDelimiter separates context sections in the assembled prompt.
const sectionDelimiter = "\n---\n"

// AssembleContext formats ranked search results into the numbered context
// block fed to the language model. Sections appear in rank order, best match
// first.
func AssembleContext(results []*core.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	sections := make([]string, len(results))
	for i, result := range results {
		sections[i] = fmt.Sprintf("[Context Section %d]\n%s", i+1, result.Entry.Text)
	}
	return strings.Join(sections, sectionDelimiter)
}

// chunkTexts extracts the chunk texts from ranked results.
func chunkTexts(results []*core.SearchResult) []string {
	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Entry.Text
	}
	return texts
}
