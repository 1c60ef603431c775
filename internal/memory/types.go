package memory

import "time"

// Limits on the bounded sequences kept by the store. Oldest entries are
// dropped first.
const (
	MaxFactsPerUser    = 50
	MaxContextItems    = 50
	MaxInteractions    = 100
	MaxLearnedFacts    = 20
	MaxFactLength      = 300
	MinFactSourceLen   = 50
	interactionExcerpt = 200
	contextExcerpt     = 100
)

// FactType classifies a learned fact by its content.
type FactType string

const (
	FactRelease   FactType = "release_info"
	FactGenre     FactType = "genre_info"
	FactPlatform  FactType = "platform_info"
	FactPublisher FactType = "publisher_info"
	FactReview    FactType = "review_info"
	FactGeneral   FactType = "general_info"
)

// Fact is a bounded snippet learned from a web result.
type Fact struct {
	Content        string    `json:"content"`
	Source         string    `json:"source"`
	Title          string    `json:"title"`
	Query          string    `json:"query"`
	Timestamp      time.Time `json:"timestamp"`
	RelevanceScore float64   `json:"relevance_score"`
	FactType       FactType  `json:"fact_type"`
	// UserID is set only on facts returned by LearnedFacts.
	UserID string `json:"user_id,omitempty"`
}

// Preferences is a user's accumulated preference profile. Lists only grow.
type Preferences struct {
	Genres      []string  `json:"genres"`
	Platforms   []string  `json:"platforms"`
	Publishers  []string  `json:"publishers"`
	Interests   []string  `json:"interests"`
	LastUpdated time.Time `json:"last_updated"`
}

func (p *Preferences) count() int {
	return len(p.Genres) + len(p.Platforms) + len(p.Publishers) + len(p.Interests)
}

// Interaction records one answered question.
type Interaction struct {
	Timestamp     time.Time `json:"timestamp"`
	UserQuery     string    `json:"user_query"`
	AgentResponse string    `json:"agent_response"`
	UserID        string    `json:"user_id"`
	SuccessScore  float64   `json:"success_score"`
}

// ContextItem is one entry of the shared conversation context log.
type ContextItem struct {
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id"`
	UserQuery     string    `json:"user_query"`
	AgentResponse string    `json:"agent_response"`
	ContextType   string    `json:"context_type"`
}

// Pattern counts successful web searches for a query.
type Pattern struct {
	QueryPattern string     `json:"query_pattern"`
	SuccessCount int        `json:"success_count"`
	AvgResults   float64    `json:"avg_results"`
	LastSuccess  *time.Time `json:"last_success"`
}

// WebResult is the subset of a web search hit the store learns from.
type WebResult struct {
	Title          string
	URL            string
	Content        string
	RelevanceScore float64
}

// Recommendations summarizes a user's profile for personalization.
type Recommendations struct {
	PreferredGenres          []string `json:"preferred_genres"`
	PreferredPlatforms       []string `json:"preferred_platforms"`
	PreferredPublishers      []string `json:"preferred_publishers"`
	Interests                []string `json:"interests"`
	RecommendationConfidence float64  `json:"recommendation_confidence"`
	BasedOnInteractions      int      `json:"based_on_interactions"`
	LastUpdated              string   `json:"last_updated"`
}

// Stats describes the size of the store.
type Stats struct {
	TotalFacts               int    `json:"total_facts"`
	TotalUsers               int    `json:"total_users"`
	TotalInteractions        int    `json:"total_interactions"`
	ConversationContextItems int    `json:"conversation_context_items"`
	LearnedPatterns          int    `json:"learned_patterns"`
	MemoryFile               string `json:"memory_file"`
	LastUpdated              string `json:"last_updated"`
}

// document is the on-disk layout of the memory file.
type document struct {
	Facts                  map[string][]Fact       `json:"facts"`
	UserPreferences        map[string]*Preferences `json:"user_preferences"`
	ConversationContext    []ContextItem           `json:"conversation_context"`
	LearnedPatterns        map[string]*Pattern     `json:"learned_patterns"`
	SuccessfulInteractions []Interaction           `json:"successful_interactions"`
	LastUpdated            *time.Time              `json:"last_updated,omitempty"`
}

func newDocument() document {
	return document{
		Facts:                  make(map[string][]Fact),
		UserPreferences:        make(map[string]*Preferences),
		ConversationContext:    []ContextItem{},
		LearnedPatterns:        make(map[string]*Pattern),
		SuccessfulInteractions: []Interaction{},
	}
}
