package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/udaplay/internal/agent"
	"github.com/ziadkadry99/udaplay/internal/output"
)

// Response formats accepted by POST /api/query besides the structured
// output formats.
const (
	formatAPI       = "api_response"
	formatWebhook   = "webhook"
	formatAnalytics = "analytics"
	formatHTML      = "html"
)

type queryRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
	// Format is one of api_response (default), webhook, analytics, html,
	// or a structured output format (standard, detailed, minimal, api).
	Format string `json:"format"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	f := s.agent.Formatter()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, f.APIError(errors.New("invalid request body")))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, f.APIError(errors.New("question is required")))
		return
	}

	resp := s.agent.ProcessQuery(r.Context(), req.Question, agent.WithUserID(req.UserID))
	ans := resp.OutputAnswer(req.Question)

	switch strings.ToLower(req.Format) {
	case "", formatAPI:
		writeJSON(w, http.StatusOK, f.APIResponse(ans))
	case formatWebhook:
		writeJSON(w, http.StatusOK, f.Webhook(ans, output.EventGameQuery))
	case formatAnalytics:
		writeJSON(w, http.StatusOK, f.Analytics(ans, req.UserID))
	case formatHTML:
		html, err := f.HTML(ans)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	default:
		writeJSON(w, http.StatusOK, s.agent.StructuredResponse(req.Question, resp, req.Format))
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Info())
}

func (s *Server) handleMemoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.MemoryStats())
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.LearnedFacts(r.URL.Query().Get("topic")))
}

func (s *Server) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.PersonalizedRecommendations(chi.URLParam(r, "userID")))
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10)
	writeJSON(w, http.StatusOK, s.agent.ConversationContext(chi.URLParam(r, "userID"), limit))
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	turns := s.agent.ConversationHistory()
	if turns == nil {
		turns = []agent.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	s.agent.ClearConversation()
	w.WriteHeader(http.StatusNoContent)
}

type recommendationRequest struct {
	Preferences string `json:"preferences"`
	Type        string `json:"type"`
	Limit       int    `json:"limit"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Preferences) == "" {
		writeError(w, http.StatusBadRequest, "preferences are required")
		return
	}
	writeJSON(w, http.StatusOK, s.agent.Recommend(r.Context(), req.Preferences, req.Type, req.Limit))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.agent.AnalyzeTrends(r.Context(), q.Get("type"), q.Get("period")))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.DetectTrending(r.Context(), r.URL.Query().Get("criteria"), intParam(r, "limit", 10)))
}

type sentimentRequest struct {
	Text      string `json:"text"`
	GameTitle string `json:"game_title"`
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, s.agent.AnalyzeSentiment(r.Context(), req.Text, req.GameTitle))
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
