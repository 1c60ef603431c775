package memory

import (
	"strings"
	"time"
	"unicode/utf8"
)

var (
	preferenceGenres    = []string{"action", "rpg", "adventure", "racing", "sports", "fighting", "puzzle", "strategy"}
	preferencePlatforms = []string{"playstation", "xbox", "nintendo", "pc", "mobile"}
	interestTriggers    = []string{"like", "love", "enjoy", "favorite", "prefer"}
	domainTerms         = []string{"game", "platform", "genre", "publisher"}
	assertiveTerms      = []string{"definitely", "certainly", "specifically"}
)

// factRules are checked in order; the first matching rule wins.
var factRules = []struct {
	kind     FactType
	keywords []string
}{
	{FactRelease, []string{"released", "launch", "came out"}},
	{FactGenre, []string{"genre", "type", "category"}},
	{FactPlatform, []string{"platform", "console", "system"}},
	{FactPublisher, []string{"publisher", "developer", "studio"}},
	{FactReview, []string{"review", "rating", "score"}},
}

// ClassifyFact assigns a fact type by keyword matching.
func ClassifyFact(content string) FactType {
	c := strings.ToLower(content)
	for _, rule := range factRules {
		if containsAny(c, rule.keywords) {
			return rule.kind
		}
	}
	return FactGeneral
}

// SuccessScore rates an answer: 0.5 base, +0.2 for length over 100,
// +0.2 for domain terms, +0.1 for assertive language, capped at 1.
func SuccessScore(answer string) float64 {
	score := 0.5
	if len(answer) > 100 {
		score += 0.2
	}
	a := strings.ToLower(answer)
	if containsAny(a, domainTerms) {
		score += 0.2
	}
	if containsAny(a, assertiveTerms) {
		score += 0.1
	}
	return min(1.0, score)
}

// ExtractInterests returns the word following each trigger word ("like",
// "love", ...) that appears as a whole word in question.
func ExtractInterests(question string) []string {
	words := strings.Fields(strings.ToLower(question))
	var out []string
	for _, trigger := range interestTriggers {
		for i, w := range words {
			if w != trigger {
				continue
			}
			if i+1 < len(words) {
				out = appendUnique(out, words[i+1])
			}
			break
		}
	}
	return out
}

func extractFact(query string, r WebResult, now time.Time) (Fact, bool) {
	if utf8.RuneCountInString(r.Content) < MinFactSourceLen {
		return Fact{}, false
	}
	return Fact{
		Content:        truncate(r.Content, MaxFactLength),
		Source:         r.URL,
		Title:          r.Title,
		Query:          query,
		Timestamp:      now,
		RelevanceScore: r.RelevanceScore,
		FactType:       ClassifyFact(r.Content),
	}, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
