package analysis

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator produces a text completion for one model invocation. parts are
// concatenated by the backend in order (system instruction first).
type Generator interface {
	Generate(ctx context.Context, model string, parts []string) (string, error)
}

// GeminiGenerator calls the Google Generative AI API.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

func (g *GeminiGenerator) Close() error { return g.client.Close() }

func (g *GeminiGenerator) Generate(ctx context.Context, model string, parts []string) (string, error) {
	m := g.client.GenerativeModel(model)
	in := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		in = append(in, genai.Text(p))
	}
	resp, err := m.GenerateContent(ctx, in...)
	if err != nil {
		return "", fmt.Errorf("gemini: model %s: %w", model, err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
