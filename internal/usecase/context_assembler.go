package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"news-chat/internal/domain"
)

// ContextAssembler turns retrieved articles and history into one model answer.
type ContextAssembler interface {
	Respond(ctx context.Context, query string, articles []domain.Article, history []domain.Turn) (string, error)
}

type contextAssembler struct {
	builder   PromptBuilder
	llm       domain.LLMClient
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewContextAssembler(builder PromptBuilder, llm domain.LLMClient, maxTokens int, timeout time.Duration, logger *slog.Logger) ContextAssembler {
	return &contextAssembler{
		builder:   builder,
		llm:       llm,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

func (a *contextAssembler) Respond(ctx context.Context, query string, articles []domain.Article, history []domain.Turn) (string, error) {
	prompt := a.builder.Build(PromptInput{
		Query:    query,
		Articles: articles,
		History:  history,
	})

	var resp *domain.LLMResponse
	err := callUpstream(ctx, "generator", a.timeout, domain.ErrGenerationFailed, func(ctx context.Context) error {
		var err error
		resp, err = a.llm.Generate(ctx, prompt, a.maxTokens)
		return err
	})
	if err != nil {
		return "", err
	}

	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: model %s returned empty text", domain.ErrGenerationFailed, a.llm.Version())
	}
	if !resp.Done {
		a.logger.WarnContext(ctx, "llm_response_incomplete", slog.String("model", a.llm.Version()))
	}

	return strings.TrimSpace(resp.Text), nil
}
