package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

func TestNew_RejectsOverlapNotSmallerThanMaxSize(t *testing.T) {
	_, err := New(Config{MaxSize: 100, Overlap: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(Config{MaxSize: 100, Overlap: 150})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(Config{MaxSize: 0, Overlap: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(Config{MaxSize: 100, Overlap: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestChunk_ExactOverlapWindows(t *testing.T) {
	// 2500 uniform characters with max 1000 / overlap 200 must yield
	// exactly three chunks, each sharing exactly 200 characters with
	// its predecessor.
	c, err := New(Config{MaxSize: 1000, Overlap: 200})
	require.NoError(t, err)

	doc := &domain.Document{ID: "pricing", Title: "Pricing", Content: strings.Repeat("a", 2500)}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 1000, chunks[0].EndOffset)
	assert.Equal(t, 800, chunks[1].StartOffset)
	assert.Equal(t, 1800, chunks[1].EndOffset)
	assert.Equal(t, 1600, chunks[2].StartOffset)
	assert.Equal(t, 2500, chunks[2].EndOffset)

	// Shared text: first 200 chars of chunk 2 == last 200 of chunk 1.
	assert.Equal(t, chunks[0].Content[800:1000], chunks[1].Content[:200])
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(Config{MaxSize: 300, Overlap: 60, IncludeTitle: true, MaxTitleLength: 40})
	require.NoError(t, err)

	doc := &domain.Document{
		ID:      "doc-1",
		Title:   "Machine Learning Services",
		Content: strings.Repeat("The company builds machine learning solutions for banks. ", 40),
	}

	first, err := c.Chunk(doc)
	require.NoError(t, err)
	second, err := c.Chunk(doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].StartOffset, second[i].StartOffset)
		assert.Equal(t, first[i].EndOffset, second[i].EndOffset)
	}
}

func TestChunk_IDsStableAndUnique(t *testing.T) {
	c, err := New(Config{MaxSize: 100, Overlap: 20})
	require.NoError(t, err)

	doc := &domain.Document{ID: "doc-9", Content: strings.Repeat("x", 450)}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for i, ch := range chunks {
		assert.Equal(t, domain.ChunkID("doc-9", i), ch.ID)
		assert.False(t, seen[ch.ID], "duplicate chunk id %s", ch.ID)
		seen[ch.ID] = true
	}
}

func TestChunk_TitlePrefixCountsTowardMaxSize(t *testing.T) {
	c, err := New(Config{MaxSize: 200, Overlap: 40, IncludeTitle: true, MaxTitleLength: 60})
	require.NoError(t, err)

	doc := &domain.Document{ID: "d", Title: "Offices", Content: strings.Repeat("b", 1000)}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		assert.True(t, strings.HasPrefix(ch.Content, "[Offices] "))
		assert.LessOrEqual(t, len([]rune(ch.Content)), 200)
	}
}

func TestChunk_TitleTruncated(t *testing.T) {
	c, err := New(Config{MaxSize: 500, Overlap: 50, IncludeTitle: true, MaxTitleLength: 10})
	require.NoError(t, err)

	doc := &domain.Document{ID: "d", Title: "A very long page title", Content: "short body"}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "[A very ...] "))
}

func TestChunk_TinyTitleLimitCutsWithoutEllipsis(t *testing.T) {
	c, err := New(Config{MaxSize: 100, Overlap: 10, IncludeTitle: true, MaxTitleLength: 2})
	require.NoError(t, err)

	doc := &domain.Document{ID: "d", Title: "Pricing", Content: "short body"}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "[Pr] "))
}

func TestChunk_PrefersSentenceBoundaries(t *testing.T) {
	c, err := New(Config{MaxSize: 100, Overlap: 10})
	require.NoError(t, err)

	// Sentences of 25 chars; a hard cut at 100 would land mid-sentence,
	// so the chunker snaps back to the nearest terminator.
	sentence := "Twenty-four charss here. " // 25 chars
	doc := &domain.Document{ID: "d", Content: strings.TrimSpace(strings.Repeat(sentence, 12))}

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	first := chunks[0]
	assert.True(t, strings.HasSuffix(first.Content, "."),
		"chunk should end at a sentence boundary, got %q", first.Content)
}

func TestChunk_EmptyContent(t *testing.T) {
	c, err := New(Config{MaxSize: 100, Overlap: 10})
	require.NoError(t, err)

	chunks, err := c.Chunk(&domain.Document{ID: "d", Content: "   \n  "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_TitleLeavesNoBodyRoom(t *testing.T) {
	c, err := New(Config{MaxSize: 30, Overlap: 10, IncludeTitle: true, MaxTitleLength: 28})
	require.NoError(t, err)

	doc := &domain.Document{ID: "d", Title: strings.Repeat("T", 28), Content: "some body text"}
	_, err = c.Chunk(doc)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "a   b\t\tc", "a b c"},
		{"collapses newlines", "a\n\n\nb", "a\nb"},
		{"normalises quotes", "«quoted»", `"quoted"`},
		{"normalises dashes", "a — b – c", "a - b - c"},
		{"ellipsis", "wait…", "wait..."},
		{"trims", "  a  ", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
