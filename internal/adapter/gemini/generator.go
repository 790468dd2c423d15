package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"news-chat/internal/domain"
)

// Generator answers prompts with a Gemini model through the generative-ai SDK.
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *slog.Logger
}

func NewGenerator(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Generator{
		client: client,
		model:  client.GenerativeModel(model),
		name:   model,
		logger: logger,
	}, nil
}

// Generate issues one non-streaming request. A non-positive maxTokens keeps the model default.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	start := time.Now()

	model := g.model
	if maxTokens > 0 {
		m := *g.model
		m.SetMaxOutputTokens(int32(maxTokens))
		model = &m
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.ErrorContext(ctx, "gemini_generate_failed",
			slog.String("model", g.name),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := collectText(resp)
	g.logger.InfoContext(ctx, "gemini_generate_completed",
		slog.String("model", g.name),
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("answer_chars", len(out.Text)),
		slog.Bool("done", out.Done),
		slog.Duration("elapsed", time.Since(start)))

	return out, nil
}

func (g *Generator) Version() string {
	return g.name
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// collectText joins the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) *domain.LLMResponse {
	if resp == nil || len(resp.Candidates) == 0 {
		return &domain.LLMResponse{}
	}
	cand := resp.Candidates[0]

	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return &domain.LLMResponse{
		Text: sb.String(),
		Done: cand.FinishReason == genai.FinishReasonStop,
	}
}

var _ domain.LLMClient = (*Generator)(nil)
