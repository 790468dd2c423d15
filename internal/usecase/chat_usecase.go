package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"news-chat/internal/domain"
	"news-chat/internal/infra/logger"
	"news-chat/internal/infra/metrics"
)

// ChatState is the orchestrator's progress through one chat turn.
type ChatState string

const (
	ChatStateReceived         ChatState = "received"
	ChatStateHistoryLoaded    ChatState = "history_loaded"
	ChatStateArticlesResolved ChatState = "articles_resolved"
	ChatStateResponded        ChatState = "responded"
	ChatStateFailed           ChatState = "failed"
)

// ChatInput is one user message addressed to a session.
type ChatInput struct {
	SessionID string `json:"sessionId" validate:"notblank"`
	Message   string `json:"message" validate:"notblank"`
}

type ChatOutput struct {
	Answer   string
	Articles []domain.Article
}

// ChatError reports the state the turn had reached when it failed.
type ChatError struct {
	Stage ChatState
	Err   error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat failed after %s: %v", e.Stage, e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// ChatUsecase answers one chat turn.
type ChatUsecase interface {
	Chat(ctx context.Context, input ChatInput) (*ChatOutput, error)
}

type chatUsecase struct {
	sessions  SessionStore
	retriever Retriever
	assembler ContextAssembler
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewChatUsecase(sessions SessionStore, retriever Retriever, assembler ContextAssembler, logger *slog.Logger) ChatUsecase {
	return &chatUsecase{
		sessions:  sessions,
		retriever: retriever,
		assembler: assembler,
		validate:  domain.NewValidator(),
		logger:    logger,
	}
}

func (u *chatUsecase) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	start := time.Now()
	ctx = logger.WithSessionID(ctx, input.SessionID)
	log := logger.FromContext(ctx, u.logger)

	if err := u.validate.Struct(input); err != nil {
		return nil, u.fail(ctx, log, ChatStateReceived, fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}

	// The history window covers stored turns only. The in-flight message reaches
	// the model as the question and is persisted only with its answer.
	history, err := u.sessions.GetHistory(ctx, input.SessionID)
	if err != nil {
		return nil, u.fail(ctx, log, ChatStateReceived, err)
	}
	userTurn := domain.UserTurn(input.Message)

	articles, err := u.retriever.Retrieve(ctx, input.Message)
	if err != nil {
		return nil, u.fail(ctx, log, ChatStateHistoryLoaded, err)
	}

	answer, err := u.assembler.Respond(ctx, input.Message, articles, history)
	if err != nil {
		return nil, u.fail(ctx, log, ChatStateArticlesResolved, err)
	}

	if err := u.sessions.AppendTurns(ctx, input.SessionID, userTurn, domain.AssistantTurn(answer)); err != nil {
		return nil, u.fail(ctx, log, ChatStateArticlesResolved, err)
	}

	metrics.RecordChat(string(ChatStateResponded))
	log.InfoContext(ctx, "chat_turn_completed",
		slog.Int("history_turns", len(history)),
		slog.Int("articles", len(articles)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &ChatOutput{Answer: answer, Articles: articles}, nil
}

func (u *chatUsecase) fail(ctx context.Context, log *slog.Logger, reached ChatState, err error) error {
	metrics.RecordChat(string(ChatStateFailed))
	metrics.RecordStageFailure(string(reached))

	level := slog.LevelError
	if errors.Is(err, domain.ErrValidation) {
		level = slog.LevelInfo
	}
	log.Log(logger.WithChatStage(ctx, string(reached)), level, "chat_turn_failed",
		slog.String(string(logger.ChatStageKey), string(reached)),
		slog.String("error", err.Error()))

	return &ChatError{Stage: reached, Err: err}
}

func isCorrupt(err error) bool {
	return err != nil && errors.Is(err, domain.ErrCorruptState)
}
