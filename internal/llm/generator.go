package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderGenerator adapts a Provider to the Generator interface with fixed
// request settings.
type ProviderGenerator struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Generate sends a system and user message and returns the reply text.
func (g *ProviderGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var msgs []Message
	if systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: userPrompt})

	resp, err := g.Provider.Complete(ctx, CompletionRequest{
		Model:       g.Model,
		Messages:    msgs,
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		JSONMode:    g.JSONMode,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", g.Provider.Name(), err)
	}
	return resp.Content, nil
}

// ExtractJSON returns the JSON object embedded in text, stripping markdown
// code fences and any prose around the outermost braces.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
