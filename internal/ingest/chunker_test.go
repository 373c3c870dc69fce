package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "One sentence.", []string{"One sentence."}},
		{"multiple", "First. Second! Third?", []string{"First.", "Second!", "Third?"}},
		{"no trailing punctuation", "First. Second without end", []string{"First.", "Second without end"}},
		{"decimal not split", "Version 2.5 is out. Next.", []string{"Version 2.5 is out.", "Next."}},
		{"collapses whitespace", "A  b.\n\nC d.", []string{"A b.", "C d."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	var parts []string
	for i := 0; i < 20; i++ {
		parts = append(parts, "This sentence is about forty characters long.")
	}
	text := strings.Join(parts, " ")

	chunks := chunkText(text, 200, 50)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five."
	chunks := chunkText(text, 25, 12)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share at least one sentence.
	for i := 1; i < len(chunks); i++ {
		prevLast := lastSentence(chunks[i-1])
		assert.Contains(t, chunks[i], prevLast)
	}
}

func lastSentence(chunk string) string {
	sentences := splitSentences(chunk)
	return sentences[len(sentences)-1]
}

func TestChunkTextOversizedSentence(t *testing.T) {
	long := strings.Repeat("word ", 100) + "end."
	chunks := chunkText(long, 50, 10)
	require.Len(t, chunks, 1)
}

func TestChunkTextShortSentenceBeforeOversized(t *testing.T) {
	// A tiny first chunk whose entire content fits inside the overlap
	// budget must not stall the scan on the following long sentence.
	text := "Hi. " + strings.Repeat("x", 900) + "."
	chunks := chunkText(text, 800, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Hi.", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "xxx"))
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, chunkText("   ", 100, 10))
}
