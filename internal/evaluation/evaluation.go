// Package evaluation judges whether retrieved knowledge is enough to answer
// a question without searching the web.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/llm"
	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
)

// Recommendation is the next action suggested by an evaluation.
type Recommendation string

const (
	ProceedWithAnswer Recommendation = "proceed_with_answer"
	SearchWeb         Recommendation = "search_web"
)

// Status marks whether the report came from the judge or from a fallback.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// NoEntriesDescription is used when retrieval returned nothing.
const NoEntriesDescription = "No games were retrieved from the database"

// JudgeTemperature keeps the judge close to deterministic.
const JudgeTemperature = 0.1

// Report is the outcome of one evaluation.
type Report struct {
	Useful         bool           `json:"useful"`
	Description    string         `json:"description"`
	Confidence     float64        `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
	Status         Status         `json:"status"`
	Err            error          `json:"-"`
}

// NeedsWebSearch applies the sufficiency rule: search the web unless the
// report is useful with confidence at or above threshold.
func (r Report) NeedsWebSearch(threshold float64) bool {
	return !r.Useful || r.Confidence < threshold
}

// Gateway asks an LLM judge to evaluate retrieval results.
type Gateway struct {
	judge  llm.Generator
	logger *zap.Logger
}

// New creates a Gateway around judge. Use NewJudge to build a judge with
// the expected settings from a provider.
func New(judge llm.Generator, logger *zap.Logger) *Gateway {
	return &Gateway{judge: judge, logger: logging.OrNop(logger)}
}

// NewJudge returns a JSON-mode generator at JudgeTemperature.
func NewJudge(p llm.Provider, model string) llm.Generator {
	return &llm.ProviderGenerator{
		Provider:    p,
		Model:       model,
		Temperature: JudgeTemperature,
		JSONMode:    true,
	}
}

// Evaluate judges res against question. An empty result short-circuits to
// a search_web report without calling the judge. Judge and parse failures
// become a degraded search_web report; no error is returned.
func (g *Gateway) Evaluate(ctx context.Context, question string, res retrieval.Result) Report {
	if res.Empty() {
		g.logger.Debug("no games retrieved; recommending web search")
		return Report{
			Description:    NoEntriesDescription,
			Recommendation: SearchWeb,
			Status:         StatusOK,
		}
	}

	out, err := g.judge.Generate(ctx, systemPrompt, buildPrompt(question, res.Entries))
	if err != nil {
		return g.degraded(err)
	}

	var verdict struct {
		Useful         bool    `json:"useful"`
		Description    string  `json:"description"`
		Confidence     float64 `json:"confidence"`
		Recommendation string  `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &verdict); err != nil {
		return g.degraded(fmt.Errorf("parsing judge response: %w", err))
	}

	rec := Recommendation(verdict.Recommendation)
	if rec != ProceedWithAnswer && rec != SearchWeb {
		rec = SearchWeb
		if verdict.Useful {
			rec = ProceedWithAnswer
		}
	}
	return Report{
		Useful:         verdict.Useful,
		Description:    verdict.Description,
		Confidence:     retrieval.Clamp(verdict.Confidence),
		Recommendation: rec,
		Status:         StatusOK,
	}
}

func (g *Gateway) degraded(err error) Report {
	g.logger.Error("error during evaluation", zap.Error(err))
	return Report{
		Description:    "Error during evaluation: " + err.Error(),
		Recommendation: SearchWeb,
		Status:         StatusDegraded,
		Err:            err,
	}
}

const systemPrompt = "You are an expert evaluator for a video game research system. " +
	"Your task is to evaluate if the retrieved game documents are sufficient to answer " +
	"the user's question. Give a detailed explanation so it's possible to take appropriate action."

func buildPrompt(question string, entries []retrieval.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Question: %s\n\nRetrieved Games:", question)
	for i, e := range entries {
		fmt.Fprintf(&b, "\n\n%d. %s", i+1, e.Render("   "))
	}
	b.WriteString(criteria)
	return b.String()
}

const criteria = `

Please evaluate whether the retrieved game information is sufficient to answer the user's question. Consider:

1. Relevance: Do the retrieved games directly relate to what the user is asking?
2. Completeness: Is there enough information to provide a comprehensive answer?
3. Accuracy: Are the game details accurate and up-to-date?
4. Specificity: Does the information match the specific aspects of the question?

IMPORTANT: If the retrieved games contain relevant information that can answer the user's question (even partially), mark as useful. Only recommend web search if:
- No games match the query at all
- The question is about very recent games not in the database
- The question requires current/real-time information (sales, reviews, etc.)
- The question is about technical details not covered in descriptions
- The question is about publishers or games not in the database

Respond with a JSON object containing:
- "useful": boolean - whether the documents are sufficient to answer the question
- "description": string - detailed explanation of your evaluation
- "confidence": float (0.0-1.0) - your confidence in this evaluation
- "recommendation": string - next action ("proceed_with_answer" or "search_web")
`
