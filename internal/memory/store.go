// Package memory persists what the agent learns across sessions: facts
// extracted from web results, per-user preference profiles, a conversation
// context log and an interaction log. The whole store is rewritten to a
// single JSON file after every mutation.
package memory

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/jsonfile"
	"github.com/ziadkadry99/udaplay/internal/logging"
)

// DefaultUserID is used when a caller does not identify the user.
const DefaultUserID = "default"

// recentInteractionWindow bounds BasedOnInteractions in recommendations.
const recentInteractionWindow = 7 * 24 * time.Hour

// Store is a JSON-file backed learning store. It is safe for concurrent
// use within one process; concurrent writers in other processes are
// last-writer-wins.
type Store struct {
	mu     sync.Mutex
	path   string
	doc    document
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the store from path. A missing or unreadable file yields an
// empty store; read errors are logged, never returned.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		doc:    newDocument(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var doc document
	if err := jsonfile.Read(path, &doc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error("could not load memory, starting empty", zap.String("path", path), zap.Error(err))
		}
		return s
	}
	s.doc = normalize(doc)
	return s
}

func normalize(d document) document {
	if d.Facts == nil {
		d.Facts = make(map[string][]Fact)
	}
	if d.UserPreferences == nil {
		d.UserPreferences = make(map[string]*Preferences)
	}
	if d.LearnedPatterns == nil {
		d.LearnedPatterns = make(map[string]*Pattern)
	}
	if d.ConversationContext == nil {
		d.ConversationContext = []ContextItem{}
	}
	if d.SuccessfulInteractions == nil {
		d.SuccessfulInteractions = []Interaction{}
	}
	return d
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// LearnFromWebSearch stores a fact for every result with enough content,
// grows the user's preference profile from keywords in the query and
// counts the search as a successful pattern when it produced results.
func (s *Store) LearnFromWebSearch(query string, results []WebResult, totalResults int, userID string) {
	if len(results) == 0 {
		return
	}
	userID = orDefault(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, r := range results {
		if fact, ok := extractFact(query, r, now); ok {
			s.storeFactLocked(fact, userID)
		}
	}

	s.updatePreferencesLocked(query, userID, now)

	if totalResults > 0 {
		s.learnPatternLocked(query, totalResults, now)
	}

	s.saveLocked()
}

// LearnFromConversation logs a scored interaction, extracts interests the
// user expressed and appends to the conversation context.
func (s *Store) LearnFromConversation(question, answer, userID string) {
	userID = orDefault(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.doc.SuccessfulInteractions = append(s.doc.SuccessfulInteractions, Interaction{
		Timestamp:     now,
		UserQuery:     question,
		AgentResponse: truncate(answer, interactionExcerpt),
		UserID:        userID,
		SuccessScore:  SuccessScore(answer),
	})
	s.doc.SuccessfulInteractions = keepLast(s.doc.SuccessfulInteractions, MaxInteractions)

	prefs := s.profileLocked(userID, now)
	for _, interest := range ExtractInterests(question) {
		prefs.Interests = appendUnique(prefs.Interests, interest)
	}

	s.doc.ConversationContext = append(s.doc.ConversationContext, ContextItem{
		Timestamp:     now,
		UserID:        userID,
		UserQuery:     question,
		AgentResponse: truncate(answer, contextExcerpt),
		ContextType:   "conversation",
	})
	s.doc.ConversationContext = keepLast(s.doc.ConversationContext, MaxContextItems)

	s.saveLocked()
}

// PersonalizedRecommendations summarizes what is known about a user.
func (s *Store) PersonalizedRecommendations(userID string) Recommendations {
	userID = orDefault(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Recommendations{
		PreferredGenres:     []string{},
		PreferredPlatforms:  []string{},
		PreferredPublishers: []string{},
		Interests:           []string{},
		LastUpdated:         "Never",
	}
	if prefs, ok := s.doc.UserPreferences[userID]; ok {
		rec.PreferredGenres = append(rec.PreferredGenres, prefs.Genres...)
		rec.PreferredPlatforms = append(rec.PreferredPlatforms, prefs.Platforms...)
		rec.PreferredPublishers = append(rec.PreferredPublishers, prefs.Publishers...)
		rec.Interests = append(rec.Interests, prefs.Interests...)
		rec.RecommendationConfidence = recommendationConfidence(prefs)
		if !prefs.LastUpdated.IsZero() {
			rec.LastUpdated = prefs.LastUpdated.Format(time.RFC3339)
		}
	}

	cutoff := s.now().Add(-recentInteractionWindow)
	for _, in := range s.doc.SuccessfulInteractions {
		if in.UserID == userID && !in.Timestamp.Before(cutoff) {
			rec.BasedOnInteractions++
		}
	}
	return rec
}

// LearnedFacts returns the most relevant facts across all users, newest
// first among equals, optionally filtered to those whose content contains
// topic (case-insensitive).
func (s *Store) LearnedFacts(topic string) []Fact {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(topic)
	all := []Fact{}
	for userID, facts := range s.doc.Facts {
		for _, f := range facts {
			if needle != "" && !strings.Contains(strings.ToLower(f.Content), needle) {
				continue
			}
			f.UserID = userID
			all = append(all, f)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].RelevanceScore != all[j].RelevanceScore {
			return all[i].RelevanceScore > all[j].RelevanceScore
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	if len(all) > MaxLearnedFacts {
		all = all[:MaxLearnedFacts]
	}
	return all
}

// ConversationContext returns up to limit of the user's most recent
// context entries, newest first.
func (s *Store) ConversationContext(userID string, limit int) []ContextItem {
	userID = orDefault(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []ContextItem{}
	for _, c := range s.doc.ConversationContext {
		if c.UserID == userID {
			items = append(items, c)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Stats reports counts over the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, facts := range s.doc.Facts {
		total += len(facts)
	}
	st := Stats{
		TotalFacts:               total,
		TotalUsers:               len(s.doc.UserPreferences),
		TotalInteractions:        len(s.doc.SuccessfulInteractions),
		ConversationContextItems: len(s.doc.ConversationContext),
		LearnedPatterns:          len(s.doc.LearnedPatterns),
		MemoryFile:               s.path,
		LastUpdated:              "Never",
	}
	if s.doc.LastUpdated != nil {
		st.LastUpdated = s.doc.LastUpdated.Format(time.RFC3339)
	}
	return st
}

func (s *Store) storeFactLocked(fact Fact, userID string) {
	facts := s.doc.Facts[userID]
	for i := range facts {
		if facts[i].Content == fact.Content {
			facts[i] = fact
			return
		}
	}
	s.doc.Facts[userID] = keepLast(append(facts, fact), MaxFactsPerUser)
}

func (s *Store) profileLocked(userID string, now time.Time) *Preferences {
	prefs, ok := s.doc.UserPreferences[userID]
	if !ok {
		prefs = &Preferences{
			Genres:      []string{},
			Platforms:   []string{},
			Publishers:  []string{},
			Interests:   []string{},
			LastUpdated: now,
		}
		s.doc.UserPreferences[userID] = prefs
	}
	return prefs
}

func (s *Store) updatePreferencesLocked(query, userID string, now time.Time) {
	prefs := s.profileLocked(userID, now)
	q := strings.ToLower(query)
	for _, g := range preferenceGenres {
		if strings.Contains(q, g) {
			prefs.Genres = appendUnique(prefs.Genres, g)
		}
	}
	for _, p := range preferencePlatforms {
		if strings.Contains(q, p) {
			prefs.Platforms = appendUnique(prefs.Platforms, p)
		}
	}
	prefs.LastUpdated = now
}

func (s *Store) learnPatternLocked(query string, totalResults int, now time.Time) {
	key := patternKey(query)
	p, ok := s.doc.LearnedPatterns[key]
	if !ok {
		p = &Pattern{QueryPattern: query}
		s.doc.LearnedPatterns[key] = p
	}
	p.SuccessCount++
	p.AvgResults = (p.AvgResults + float64(totalResults)) / 2
	ts := now
	p.LastSuccess = &ts
}

func (s *Store) saveLocked() {
	now := s.now()
	s.doc.LastUpdated = &now
	if err := jsonfile.Write(s.path, s.doc); err != nil {
		s.logger.Error("could not save memory", zap.String("path", s.path), zap.Error(err))
	}
}

func patternKey(query string) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return fmt.Sprintf("search_pattern_%d", h.Sum32()%1000)
}

func recommendationConfidence(p *Preferences) float64 {
	return min(1.0, float64(p.count())/10)
}

func orDefault(userID string) string {
	if userID == "" {
		return DefaultUserID
	}
	return userID
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func keepLast[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return append([]T(nil), items[len(items)-n:]...)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
