package vectordb

import "time"

// DocumentKind distinguishes curated game records from ingested web pages.
type DocumentKind string

const (
	KindGame DocumentKind = "game"
	KindWeb  DocumentKind = "web"
)

// Document represents a piece of content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a document. Game
// fields are set for KindGame, Title/URL/Source for KindWeb.
type DocumentMetadata struct {
	Kind DocumentKind

	Name          string
	Platform      string
	Genre         string
	Publisher     string
	Description   string
	YearOfRelease int

	Title   string
	URL     string
	Source  string
	Snippet string
	Query   string

	IngestedAt time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter allows narrowing search results by metadata fields.
type SearchFilter struct {
	Kind     *DocumentKind
	Platform *string
	Genre    *string
}

// KindFilter is shorthand for a filter on document kind only.
func KindFilter(k DocumentKind) *SearchFilter {
	return &SearchFilter{Kind: &k}
}
