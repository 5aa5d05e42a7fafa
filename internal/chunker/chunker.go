// Package chunker splits cleaned document text into overlapping,
// deterministically identified chunks for indexing.
package chunker

import (
	"fmt"
	"strings"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// Default configuration values, matching the corpus build defaults.
const (
	DefaultMaxSize        = 1000
	DefaultOverlap        = 200
	DefaultMaxTitleLength = 100
)

// boundarySearchFraction bounds how far back from a hard cut the
// chunker will look for a sentence boundary, as a fraction of the
// chunk body capacity.
const boundarySearchFraction = 5

// Config controls chunking behaviour.
type Config struct {
	// MaxSize is the maximum chunk length in characters, including
	// any title prefix.
	MaxSize int

	// Overlap is the exact number of trailing characters each chunk
	// shares with its successor.
	Overlap int

	// IncludeTitle prefixes every chunk with the document title.
	IncludeTitle bool

	// MaxTitleLength truncates the title prefix.
	MaxTitleLength int
}

// Chunker produces chunks from documents. The same document and
// configuration always yield byte-identical chunks and ids, so
// reindexing is idempotent.
type Chunker struct {
	cfg Config
}

// New validates the configuration and returns a Chunker.
// Overlap must be strictly smaller than MaxSize, and the title prefix
// must leave room for at least one character of body past the overlap.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk max size must be positive, got %d", domain.ErrInvalidConfig, cfg.MaxSize)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidConfig, cfg.Overlap)
	}
	if cfg.Overlap >= cfg.MaxSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than max size %d", domain.ErrInvalidConfig, cfg.Overlap, cfg.MaxSize)
	}
	if cfg.IncludeTitle && cfg.MaxTitleLength <= 0 {
		cfg.MaxTitleLength = DefaultMaxTitleLength
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk splits a document into chunks. Offsets are rune offsets into
// the cleaned document text, excluding the title prefix.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	cleaned := CleanText(doc.Content)
	if cleaned == "" {
		return nil, nil
	}

	prefix := c.titlePrefix(doc.Title)
	bodyCap := c.cfg.MaxSize - len([]rune(prefix))
	if bodyCap <= c.cfg.Overlap {
		return nil, fmt.Errorf("%w: title prefix of %d characters leaves no room for chunk body (max size %d, overlap %d)",
			domain.ErrInvalidConfig, len([]rune(prefix)), c.cfg.MaxSize, c.cfg.Overlap)
	}

	runes := []rune(cleaned)
	chunks := make([]domain.Chunk, 0, len(runes)/(bodyCap-c.cfg.Overlap)+1)

	start := 0
	position := 0
	for start < len(runes) {
		end := start + bodyCap
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToBoundary(runes, start, end, bodyCap, c.cfg.Overlap)
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, position),
			DocumentID:  doc.ID,
			Content:     prefix + string(runes[start:end]),
			Position:    position,
			StartOffset: start,
			EndOffset:   end,
		})
		position++

		if end == len(runes) {
			break
		}
		// The next chunk starts exactly Overlap characters before the
		// previous end, so consecutive chunks share that many
		// characters of source text.
		start = end - c.cfg.Overlap
	}

	return chunks, nil
}

// titlePrefix formats the truncated title the way the crawled corpus
// expects it: "[Title] ". Returns "" when titles are disabled or the
// document has none.
func (c *Chunker) titlePrefix(title string) string {
	if !c.cfg.IncludeTitle {
		return ""
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	runes := []rune(title)
	if len(runes) > c.cfg.MaxTitleLength {
		if c.cfg.MaxTitleLength > 3 {
			title = string(runes[:c.cfg.MaxTitleLength-3]) + "..."
		} else {
			// No room for an ellipsis, hard cut.
			title = string(runes[:c.cfg.MaxTitleLength])
		}
	}
	return "[" + title + "] "
}

// snapToBoundary moves a hard cut back to the nearest sentence or
// paragraph boundary, if one exists within the search window. The cut
// never moves before start+overlap+1, which guarantees forward
// progress, and never more than a fifth of the body capacity, which
// keeps chunks reasonably full.
func snapToBoundary(runes []rune, start, end, bodyCap, overlap int) int {
	floor := end - bodyCap/boundarySearchFraction
	if lo := start + overlap + 1; floor < lo {
		floor = lo
	}
	for i := end - 1; i > floor; i-- {
		if isBoundary(runes[i-1], runes[i]) {
			return i
		}
	}
	return end
}

// isBoundary reports whether a cut between prev and cur lands after a
// sentence terminator or at a paragraph break.
func isBoundary(prev, cur rune) bool {
	if prev == '\n' {
		return true
	}
	switch prev {
	case '.', '!', '?', ';':
		return cur == ' ' || cur == '\n'
	}
	return false
}

// CleanText normalises raw crawled text before chunking: runs of
// whitespace collapse to single spaces (newlines are preserved as
// paragraph markers), typographic quotes and dashes are normalised,
// and leading/trailing whitespace is trimmed.
func CleanText(text string) string {
	replacements := strings.NewReplacer(
		"«", `"`, "»", `"`, // guillemets
		"„", `"`, "“", `"`, "”", `"`,
		"—", "-", "–", "-", "‒", "-",
		"…", "...",
	)
	text = replacements.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	newline := false
	for _, r := range text {
		switch {
		case r == '\n':
			newline = true
			space = false
		case r == ' ' || r == '\t' || r == '\r':
			space = true
		default:
			if b.Len() > 0 {
				if newline {
					b.WriteRune('\n')
				} else if space {
					b.WriteRune(' ')
				}
			}
			newline = false
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
