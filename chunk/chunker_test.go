package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/dartos/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_WindowSpans(t *testing.T) {
	// 2300 chars with size=1000, overlap=200 must produce spans
	// [0,1000), [800,1800), [1600,2300).
	text := strings.Repeat("a", 2300)

	chunks, err := Split("doc-1", text, 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1000, chunks[0].End)
	assert.Equal(t, 800, chunks[1].Start)
	assert.Equal(t, 1800, chunks[1].End)
	assert.Equal(t, 1600, chunks[2].Start)
	assert.Equal(t, 2300, chunks[2].End)

	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
		assert.Equal(t, core.ID("doc-1"), c.DocumentId)
		assert.Equal(t, text[c.Start:c.End], c.Text)
	}
}

func TestSplit_RoundTrip(t *testing.T) {
	// Concatenating chunks in order while dropping each chunk's leading
	// overlap reconstructs the source exactly.
	cases := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"exact multiple", strings.Repeat("x", 4000), 1000, 200},
		{"short tail", strings.Repeat("paragraph text ", 311), 1000, 200},
		{"no overlap", strings.Repeat("y", 2500), 500, 0},
		{"tiny windows", "the quick brown fox jumps over the lazy dog", 8, 3},
		{"single chunk", "short", 1000, 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Split("d", tc.text, tc.size, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			var b strings.Builder
			for i, c := range chunks {
				if i == 0 {
					b.WriteString(c.Text)
					continue
				}
				b.WriteString(c.Text[tc.overlap:])
			}
			assert.Equal(t, tc.text, b.String())
		})
	}
}

func TestSplit_MultibyteRunes(t *testing.T) {
	t.Run("window edges never split a rune", func(t *testing.T) {
		// 1000 three-byte runes fit one 1000-character window exactly.
		text := strings.Repeat("€", 1000)

		chunks, err := Split("d", text, 1000, 200)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, 1000, chunks[0].End)
		assert.True(t, utf8.ValidString(chunks[0].Text))
		assert.Equal(t, text, chunks[0].Text)
	})

	t.Run("spans are character offsets", func(t *testing.T) {
		text := strings.Repeat("héllo wörld ", 300) // 3600 runes
		runes := []rune(text)

		chunks, err := Split("d", text, 1000, 200)
		require.NoError(t, err)
		require.Len(t, chunks, 5)

		var b strings.Builder
		for i, c := range chunks {
			assert.True(t, utf8.ValidString(c.Text))
			assert.Equal(t, string(runes[c.Start:c.End]), c.Text)
			if i == 0 {
				b.WriteString(c.Text)
				continue
			}
			b.WriteString(string([]rune(c.Text)[200:]))
		}
		assert.Equal(t, text, b.String())
	})
}

func TestSplit_Degenerate(t *testing.T) {
	t.Run("text shorter than size", func(t *testing.T) {
		chunks, err := Split("d", "hello", 1000, 200)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello", chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, 5, chunks[0].End)
	})

	t.Run("empty text", func(t *testing.T) {
		chunks, err := Split("d", "", 1000, 200)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("text exactly size", func(t *testing.T) {
		chunks, err := Split("d", strings.Repeat("z", 1000), 1000, 200)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})
}

func TestSplit_InvalidWindow(t *testing.T) {
	_, err := Split("d", "text", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Split("d", "text", -5, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Split("d", "text", 100, 100)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Split("d", "text", 100, 150)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Split("d", "text", 100, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism ", 500)
	a, err := Split("d", text, 333, 57)
	require.NoError(t, err)
	b, err := Split("d", text, 333, 57)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := Default()
		assert.Equal(t, DefaultSize, c.Size())
		assert.Equal(t, DefaultOverlap, c.Overlap())
	})

	t.Run("rejects bad window", func(t *testing.T) {
		_, err := New(10, 10)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("splits with policy", func(t *testing.T) {
		c, err := New(10, 2)
		require.NoError(t, err)
		chunks, err := c.Split("d", strings.Repeat("q", 26))
		require.NoError(t, err)
		assert.Len(t, chunks, 3)
	})
}
