package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// GeminiCategorizer asks Gemini to file a new podcast under one of the known
// categories.
type GeminiCategorizer struct {
	client *genai.Client
	model  string
}

func NewGeminiCategorizer(ctx context.Context, apiKey, model string) (*GeminiCategorizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCategorizer{client: client, model: model}, nil
}

func (g *GeminiCategorizer) Close() error {
	return g.client.Close()
}

func (g *GeminiCategorizer) SuggestCategory(ctx context.Context, title, topics string) (string, error) {
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(CategoryPrompt(title, topics)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return MatchCategory(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

func CategoryPrompt(title, topics string) string {
	return fmt.Sprintf(
		"Pick the single best category for this podcast from: %s.\n"+
			"Answer with the category name only.\n\nTitle: %s\nTopics: %s",
		strings.Join(models.KnownCategories, ", "), title, topics,
	)
}

// MatchCategory maps a free-form model answer onto a known category, falling
// back to the default.
func MatchCategory(answer string) string {
	a := strings.ToLower(strings.Trim(strings.TrimSpace(answer), `."'*`))
	if a == "" {
		return models.DefaultCategory
	}
	for _, c := range models.KnownCategories {
		if strings.ToLower(c) == a {
			return c
		}
	}
	for _, c := range models.KnownCategories {
		if strings.Contains(a, strings.ToLower(c)) {
			return c
		}
	}
	return models.DefaultCategory
}
