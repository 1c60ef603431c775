package vectordb

import "context"

// VectorStore defines the interface for storing and searching documents by embeddings.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// List returns every document matching filter.
	List(ctx context.Context, filter *SearchFilter) ([]Document, error)

	// Get returns the document with the given ID.
	Get(ctx context.Context, id string) (Document, bool, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Count returns the total number of documents in the store.
	Count() int
}
