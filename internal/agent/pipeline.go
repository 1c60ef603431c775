package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/evaluation"
	"github.com/ziadkadry99/udaplay/internal/history"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/memory"
	"github.com/ziadkadry99/udaplay/internal/output"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
	"github.com/ziadkadry99/udaplay/internal/statemachine"
	"github.com/ziadkadry99/udaplay/internal/websearch"
)

const (
	// synthesisWebResults is the number of web results given to the
	// synthesizer.
	synthesisWebResults = 3
	webExcerptLen       = 200

	noResponse = "No response generated"
)

const synthesisSystemPrompt = "You are UdaPlay, a knowledgeable gaming industry expert."

// run holds what one query has gathered so far.
type run struct {
	question  string
	userID    string
	local     retrieval.Result
	report    evaluation.Report
	web       websearch.ResultSet
	usedWeb   []websearch.Result
	answer    string
	sources   []string
	method    string
	confident float64
}

// ProcessQuery answers question. It never fails: errors and panics from
// any stage become a response with SearchMethod "error" and zero
// confidence, and the state machine is reset.
func (a *Agent) ProcessQuery(ctx context.Context, question string, opts ...QueryOption) (resp Response) {
	qo := queryOptions{userID: a.cfg.UserID}
	for _, o := range opts {
		o(&qo)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("query pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = a.failed(ctx, question, qo.userID, start, fmt.Errorf("%v", r))
		}
	}()

	r := &run{question: question, userID: qo.userID}
	if err := a.answer(ctx, r); err != nil {
		a.logger.Error("query pipeline failed", zap.String("question", question), zap.Error(err))
		return a.failed(ctx, question, qo.userID, start, err)
	}

	resp = Response{
		Answer:       r.answer,
		Confidence:   r.confident,
		Sources:      r.sources,
		SearchMethod: r.method,
		Timestamp:    a.now(),
	}
	resp.Duration = resp.Timestamp.Sub(start)
	resp.HistoryID = a.learn(ctx, r, resp)
	return resp
}

// answer runs retrieval, evaluation, the optional web fallback and
// synthesis.
func (a *Agent) answer(ctx context.Context, r *run) error {
	m := a.deps.Machine
	if m.State() != statemachine.Idle {
		a.logger.Warn("previous query was interrupted, resetting state", zap.String("state", string(m.State())))
		m.Reset()
	}

	m.Transition(statemachine.Retrieving)
	r.local = a.deps.Retriever.Search(ctx, r.question, a.cfg.RetrievalLimit)
	if r.local.Degraded() {
		a.logger.Warn("local retrieval degraded", zap.Error(r.local.Err))
	}
	a.logger.Info("retrieved games", zap.Int("count", len(r.local.Entries)))

	m.Transition(statemachine.Evaluating)
	r.report = a.deps.Evaluator.Evaluate(ctx, r.question, r.local)
	a.logger.Info("evaluated retrieval",
		zap.Bool("useful", r.report.Useful),
		zap.Float64("confidence", r.report.Confidence),
		zap.String("status", string(r.report.Status)))

	if r.report.NeedsWebSearch(a.cfg.SufficiencyThreshold) {
		m.Transition(statemachine.WebSearch)
		r.web = a.deps.WebSearch.Search(ctx, r.question, a.cfg.WebMaxResults)
		if r.web.Err != nil {
			a.logger.Warn("web search degraded", zap.Error(r.web.Err))
		}
		r.usedWeb = r.web.Results[:min(synthesisWebResults, len(r.web.Results))]
		a.logger.Info("searched the web", zap.Int("count", r.web.TotalResults))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.sources, r.method = provenance(!r.local.Empty(), len(r.usedWeb) > 0)
	text, err := a.deps.Synthesizer.Generate(ctx, synthesisSystemPrompt, synthesisPrompt(r))
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		text = noResponse
	}
	r.answer = text
	r.confident = ParseConfidence(text, a.cfg.DefaultConfidence)
	return nil
}

// provenance derives the sources list and search method.
func provenance(local, web bool) ([]string, string) {
	sources := []string{}
	if local {
		sources = append(sources, MethodVectorDB)
	}
	if web {
		sources = append(sources, MethodWebSearch)
	}
	switch {
	case local && web:
		return sources, MethodCombined
	case web:
		return sources, MethodWebSearch
	default:
		return sources, MethodVectorDB
	}
}

func synthesisPrompt(r *run) string {
	var ctx []string
	if !r.local.Empty() {
		ctx = append(ctx, "LOCAL GAME DATABASE RESULTS:")
		for _, e := range r.local.Entries {
			ctx = append(ctx, "- "+e.Render("  "))
		}
	}
	if len(r.usedWeb) > 0 {
		ctx = append(ctx, "\nWEB SEARCH RESULTS:")
		for _, w := range r.usedWeb {
			ctx = append(ctx, fmt.Sprintf("- %s\n  URL: %s\n  Content: %s...", w.Title, w.URL, excerpt(w.Content, webExcerptLen)))
		}
	}
	ctx = append(ctx, "\nEVALUATION: "+r.report.Description)

	return fmt.Sprintf(`Based on the following information, provide a comprehensive and accurate answer to the user's question about games.

USER QUESTION: %s

AVAILABLE INFORMATION:
%s

INSTRUCTIONS:
1. Provide a clear, detailed answer based on the available information
2. Include specific game details (titles, platforms, years, genres, publishers)
3. Cite your sources (local database, web search, etc.)
4. If information is limited, acknowledge this and suggest what additional information might be helpful
5. Be conversational but informative
6. End with a confidence level (0.0 to 1.0) for your answer

ANSWER:`, r.question, strings.Join(ctx, "\n"))
}

// ParseConfidence reads the number following the last "confidence:" marker
// in text, clamped to [0, 1]. It returns def when there is no parsable
// marker.
func ParseConfidence(text string, def float64) float64 {
	lower := strings.ToLower(text)
	i := strings.LastIndex(lower, "confidence:")
	if i < 0 {
		return def
	}
	fields := strings.Fields(lower[i+len("confidence:"):])
	if len(fields) == 0 {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimRight(fields[0], ".,;)*"), 64)
	if err != nil {
		return def
	}
	return retrieval.Clamp(v)
}

// learn runs the post-answer side effects. Each one is isolated: a failure
// is logged and the rest still run. It returns the history id, if any.
func (a *Agent) learn(ctx context.Context, r *run, resp Response) string {
	if len(r.web.Results) > 0 {
		a.isolate("persist web documents", func() {
			for _, w := range r.web.Results {
				added, err := a.addDocument(ctx, w, r.question)
				if err != nil {
					a.logger.Warn("failed to persist web document", zap.String("url", w.URL), zap.Error(err))
				} else if !added {
					a.logger.Debug("skipped duplicate web document", zap.String("url", w.URL))
				}
			}
		})
		a.isolate("learn from web search", func() {
			a.deps.Memory.LearnFromWebSearch(r.question, memoryResults(r.web.Results), r.web.TotalResults, r.userID)
		})
	}
	a.isolate("learn from conversation", func() {
		a.deps.Memory.LearnFromConversation(r.question, resp.Answer, r.userID)
	})
	a.isolate("update transcript", func() {
		a.transcript = append(a.transcript, Turn{User: r.question, Assistant: resp.Answer, Timestamp: resp.Timestamp})
	})

	var id string
	a.isolate("record history", func() {
		id = a.record(ctx, r, resp)
	})

	if a.deps.Notifier != nil {
		a.isolate("notify webhooks", func() {
			event := a.deps.Output.Webhook(resp.OutputAnswer(r.question), output.EventGameQuery)
			if err := a.deps.Notifier.Dispatch(context.WithoutCancel(ctx), event); err != nil {
				a.logger.Warn("failed to notify webhooks", zap.Error(err))
			}
		})
	}

	a.isolate("finish state", func() {
		a.deps.Machine.Transition(statemachine.Answering)
		a.deps.Machine.Transition(statemachine.Idle)
		a.deps.Machine.Persist()
	})
	return id
}

func (a *Agent) addDocument(ctx context.Context, w websearch.Result, question string) (bool, error) {
	if a.deps.Documents == nil {
		return false, nil
	}
	return a.deps.Documents.AddDocument(ctx, knowledge.WebDocument{
		Title:   w.Title,
		URL:     w.URL,
		Content: w.Content,
		Source:  websearch.Method,
		Query:   question,
	})
}

func (a *Agent) record(ctx context.Context, r *run, resp Response) string {
	if a.deps.History == nil {
		return ""
	}
	entry := history.Entry{
		Timestamp:            resp.Timestamp,
		UserID:               r.userID,
		Question:             r.question,
		Answer:               resp.Answer,
		Confidence:           resp.Confidence,
		SearchMethod:         resp.SearchMethod,
		Sources:              resp.Sources,
		LocalResults:         len(r.local.Entries),
		EvaluationUseful:     r.report.Useful,
		EvaluationConfidence: r.report.Confidence,
		DurationMS:           resp.Duration.Milliseconds(),
	}
	for _, w := range r.usedWeb {
		entry.WebResults = append(entry.WebResults, history.WebResult{Title: w.Title, URL: w.URL, RelevanceScore: w.RelevanceScore})
	}
	// A cancelled request still gets its history row.
	id, err := a.deps.History.Record(context.WithoutCancel(ctx), entry)
	if err != nil {
		a.logger.Warn("failed to record query history", zap.Error(err))
		return ""
	}
	return id
}

// isolate runs fn, logging and swallowing a panic.
func (a *Agent) isolate(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("side effect failed", zap.String("step", step), zap.Any("panic", r))
		}
	}()
	fn()
}

// failed builds the error response and returns the machine to idle.
func (a *Agent) failed(ctx context.Context, question, userID string, start time.Time, err error) Response {
	resp := Response{
		Answer:       "I encountered an error while processing your question: " + err.Error(),
		Confidence:   0,
		Sources:      []string{},
		SearchMethod: MethodError,
		Timestamp:    a.now(),
	}
	resp.Duration = resp.Timestamp.Sub(start)
	a.isolate("reset state", a.deps.Machine.Reset)
	a.isolate("record history", func() {
		resp.HistoryID = a.record(ctx, &run{question: question, userID: userID}, resp)
	})
	return resp
}

func memoryResults(results []websearch.Result) []memory.WebResult {
	out := make([]memory.WebResult, len(results))
	for i, r := range results {
		out[i] = memory.WebResult{Title: r.Title, URL: r.URL, Content: r.Content, RelevanceScore: r.RelevanceScore}
	}
	return out
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
