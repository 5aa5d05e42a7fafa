// Package jsonfile loads crawled documents from a JSON corpus file.
// The file is an array of page records produced by an external crawler;
// each record carries the page url, title, content, and optional
// metadata.
package jsonfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// minContentLength is the minimum trimmed content length for a page to
// be indexed. Shorter pages are navigation stubs and error pages.
const minContentLength = 50

// Ensure Loader implements the interface.
var _ driven.CorpusLoader = (*Loader)(nil)

// page mirrors one crawled record in the corpus file.
type page struct {
	URL     string `json:"url"`
	State   string `json:"state"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Loader reads documents from a crawled JSON file.
type Loader struct {
	path string
}

// New creates a loader for the given corpus file path.
func New(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the corpus file location.
func (l *Loader) Path() string {
	return l.path
}

// Load parses the corpus file and returns documents suitable for
// indexing. Pages without enough content are skipped.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var pages []page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parsing corpus file: %w", err)
	}

	now := time.Now().UTC()
	skipped := 0
	documents := make([]domain.Document, 0, len(pages))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(p.Content)) < minContentLength {
			logger.Debug("Skipping page with too little content: %s", p.URL)
			skipped++
			continue
		}

		title := p.Title
		if title == "" {
			title = "Untitled"
		}

		documents = append(documents, domain.Document{
			ID:      documentID(p.URL, i),
			URL:     p.URL,
			Title:   title,
			Content: p.Content,
			Metadata: map[string]string{
				"state":  p.State,
				"source": l.path,
			},
			CreatedAt: now,
		})
	}

	logger.Info("Loaded %d documents from %s (%d skipped)", len(documents), l.path, skipped)
	if len(documents) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	return documents, nil
}

// documentID derives a stable id from the page url so repeated index
// builds produce identical document and chunk ids. Pages without a url
// fall back to their record position.
func documentID(url string, position int) string {
	if url == "" {
		return fmt.Sprintf("page-%04d", position)
	}
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:6])
}
