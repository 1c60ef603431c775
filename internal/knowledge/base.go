// Package knowledge manages the agent's searchable knowledge base: curated
// game records plus web documents discovered while answering questions.
package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/jsonfile"
	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
)

const (
	indexFile    = "ingested_index.json"
	documentsDir = "documents"
	snippetLen   = 500
	dedupPrefix  = 200
)

// IndexEntry records one ingested web document.
type IndexEntry struct {
	ID         string    `json:"id"`
	IngestedAt time.Time `json:"ingested_at"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
}

// WebDocument is an external document offered to the knowledge base.
type WebDocument struct {
	Title   string
	URL     string
	Content string
	Source  string
	Query   string
}

// Base wraps a vector store with the dedup index and traceability backups
// kept under dir.
type Base struct {
	store  vectordb.VectorStore
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	index map[string]IndexEntry
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Base) { b.logger = logging.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Base) { b.now = now }
}

// New opens the knowledge base rooted at dir. The dedup index is loaded if
// present; an unreadable index is logged and treated as empty.
func New(store vectordb.VectorStore, dir string, opts ...Option) *Base {
	b := &Base{
		store:  store,
		dir:    dir,
		logger: zap.NewNop(),
		now:    time.Now,
		index:  make(map[string]IndexEntry),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := jsonfile.Read(b.indexPath(), &b.index); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("could not read ingested index, starting empty",
				zap.String("path", b.indexPath()), zap.Error(err))
		}
		b.index = make(map[string]IndexEntry)
	}
	if b.index == nil {
		b.index = make(map[string]IndexEntry)
	}
	return b
}

// Store exposes the underlying vector store.
func (b *Base) Store() vectordb.VectorStore { return b.store }

func (b *Base) indexPath() string { return filepath.Join(b.dir, indexFile) }

func (b *Base) backupPath(name string) string {
	return filepath.Join(b.dir, documentsDir, name)
}

// DedupKey returns the stable key for a web document: sha256 of
// "url|title" when either is non-empty, else of the first 200 characters
// of content.
func DedupKey(url, title, content string) string {
	url, title = strings.TrimSpace(url), strings.TrimSpace(title)
	raw := url + "|" + title
	if url == "" && title == "" {
		r := []rune(content)
		raw = string(r[:min(len(r), dedupPrefix)])
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// AddDocument stores a web document unless one with the same dedup key was
// ingested before. It returns false without touching storage for a
// duplicate. Index and backup write failures are logged; the document
// stays added.
func (b *Base) AddDocument(ctx context.Context, doc WebDocument) (bool, error) {
	key := DedupKey(doc.URL, doc.Title, doc.Content)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.index[key]; seen {
		b.logger.Debug("document already ingested", zap.String("key", key))
		return false, nil
	}

	now := b.now().UTC()
	id := "doc_" + uuid.NewString()
	meta := vectordb.DocumentMetadata{
		Kind:       vectordb.KindWeb,
		Title:      strings.TrimSpace(doc.Title),
		URL:        strings.TrimSpace(doc.URL),
		Source:     doc.Source,
		Query:      doc.Query,
		Snippet:    truncate(doc.Content, snippetLen),
		IngestedAt: now,
	}
	if err := b.store.AddDocuments(ctx, []vectordb.Document{{ID: id, Content: doc.Content, Metadata: meta}}); err != nil {
		return false, fmt.Errorf("storing document: %w", err)
	}

	b.index[key] = IndexEntry{ID: id, IngestedAt: now, Title: meta.Title, URL: meta.URL}
	if err := jsonfile.Write(b.indexPath(), b.index); err != nil {
		b.logger.Warn("could not update ingested index", zap.Error(err))
	}

	backup := struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}{
		Content: doc.Content,
		Metadata: map[string]any{
			"title":       meta.Title,
			"url":         meta.URL,
			"source":      meta.Source,
			"query":       meta.Query,
			"snippet":     meta.Snippet,
			"ingested_at": now,
		},
	}
	if err := jsonfile.Write(b.backupPath(id+".json"), backup); err != nil {
		b.logger.Debug("could not back up ingested document", zap.Error(err))
	}

	b.logger.Info("added document to knowledge base", zap.String("id", id), zap.String("url", meta.URL))
	return true, nil
}

// IngestedCount returns the number of entries in the dedup index.
func (b *Base) IngestedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.index)
}

// Index returns a copy of the dedup index.
func (b *Base) Index() map[string]IndexEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]IndexEntry, len(b.index))
	for k, v := range b.index {
		out[k] = v
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
