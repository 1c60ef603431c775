package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/embeddings"
	"github.com/ziadkadry99/udaplay/internal/logging"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "udaplay_games"

// listQuery is the query text used to enumerate a collection; chromem has
// no scan API so List ranks everything against it and keeps all results.
const listQuery = "video game"

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	name       string
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
	logger     *zap.Logger
}

// NewChromemStore creates an in-memory store.
func NewChromemStore(embedder embeddings.Embedder, collection string, logger *zap.Logger) (*ChromemStore, error) {
	return newStore(chromem.NewDB(), embedder, collection, logger)
}

// NewPersistentChromemStore opens (or creates) a store persisted under dir.
// Every write is flushed to disk by chromem.
func NewPersistentChromemStore(dir string, embedder embeddings.Embedder, collection string, logger *zap.Logger) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("opening vector store at %s: %w", dir, err)
	}
	return newStore(db, embedder, collection, logger)
}

func newStore(db *chromem.DB, embedder embeddings.Embedder, collection string, logger *zap.Logger) (*ChromemStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	logger = logging.OrNop(logger)
	logger.Debug("opened vector collection",
		zap.String("collection", collection), zap.Int("documents", col.Count()))

	return &ChromemStore{
		db:         db,
		name:       collection,
		collection: col,
		embedFunc:  ef,
		logger:     logger,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	if err := s.collection.AddDocuments(ctx, chromDocs, 1); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// Filtering happens here rather than in chromem so that a filter
	// matching fewer than nResults documents never trips its size check.
	where := buildWhereClause(filter)
	n := min(limit, count)
	if where != nil {
		n = count
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, 0, min(limit, len(results)))
	for _, r := range results {
		if !matches(r.Metadata, where) {
			continue
		}
		out = append(out, SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		})
		if len(out) == limit {
			break
		}
	}
	s.logger.Debug("searched vector collection",
		zap.String("collection", s.name), zap.Int("limit", limit), zap.Int("results", len(out)))
	return out, nil
}

func (s *ChromemStore) List(ctx context.Context, filter *SearchFilter) ([]Document, error) {
	results, err := s.Search(ctx, listQuery, s.collection.Count(), filter)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return docs, nil
}

func (s *ChromemStore) Get(ctx context.Context, id string) (Document, bool, error) {
	d, err := s.collection.GetByID(ctx, id)
	if err != nil {
		// chromem reports a missing ID as an error.
		return Document{}, false, nil
	}
	return Document{ID: d.ID, Content: d.Content, Metadata: mapToMetadata(d.Metadata)}, true, nil
}

func (s *ChromemStore) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", s.name, err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", s.name, err)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for
// chromem. Empty values are omitted.
func metadataToMap(m DocumentMetadata) map[string]string {
	md := map[string]string{"kind": string(m.Kind)}
	set := func(k, v string) {
		if v != "" {
			md[k] = v
		}
	}
	set("name", m.Name)
	set("platform", m.Platform)
	set("genre", m.Genre)
	set("publisher", m.Publisher)
	set("description", m.Description)
	if m.YearOfRelease != 0 {
		md["year_of_release"] = strconv.Itoa(m.YearOfRelease)
	}
	set("title", m.Title)
	set("url", m.URL)
	set("source", m.Source)
	set("snippet", m.Snippet)
	set("query", m.Query)
	if !m.IngestedAt.IsZero() {
		md["ingested_at"] = m.IngestedAt.UTC().Format(time.RFC3339)
	}
	return md
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	year, _ := strconv.Atoi(m["year_of_release"])
	ingested, _ := time.Parse(time.RFC3339, m["ingested_at"])

	return DocumentMetadata{
		Kind:          DocumentKind(m["kind"]),
		Name:          m["name"],
		Platform:      m["platform"],
		Genre:         m["genre"],
		Publisher:     m["publisher"],
		Description:   m["description"],
		YearOfRelease: year,
		Title:         m["title"],
		URL:           m["url"],
		Source:        m["source"],
		Snippet:       m["snippet"],
		Query:         m["query"],
		IngestedAt:    ingested,
	}
}

// buildWhereClause converts a SearchFilter to an exact-match metadata clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Kind != nil {
		where["kind"] = string(*filter.Kind)
	}
	if filter.Platform != nil {
		where["platform"] = *filter.Platform
	}
	if filter.Genre != nil {
		where["genre"] = *filter.Genre
	}

	if len(where) == 0 {
		return nil
	}
	return where
}

func matches(md, where map[string]string) bool {
	for k, v := range where {
		if md[k] != v {
			return false
		}
	}
	return true
}
