package rag_http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"news-chat/internal/domain"
	"news-chat/internal/infra/logger"
	"news-chat/internal/usecase"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	sessions usecase.SessionStore
	chat     usecase.ChatUsecase
	probes   map[string]Pinger
	logger   *slog.Logger
}

func NewHandler(sessions usecase.SessionStore, chat usecase.ChatUsecase, probes map[string]Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		chat:     chat,
		probes:   probes,
		logger:   logger,
	}
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Message  string           `json:"message"`
	Articles []domain.Article `json:"articles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession starts an empty conversation.
// (POST /session)
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := h.requestContext(c)

	sessionID, err := h.sessions.CreateSession(ctx)
	if err != nil {
		return h.failure(c, ctx, "create_session_failed", err, "Failed to create session")
	}
	return c.JSON(http.StatusOK, map[string]string{"sessionId": sessionID})
}

// Chat answers one message within a session.
// (POST /chat)
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing sessionId or message"})
	}

	ctx := logger.WithSessionID(h.requestContext(c), req.SessionID)
	out, err := h.chat.Chat(ctx, usecase.ChatInput{SessionID: req.SessionID, Message: req.Message})
	if err != nil {
		return h.chatFailure(c, ctx, err)
	}

	articles := out.Articles
	if articles == nil {
		articles = []domain.Article{}
	}
	return c.JSON(http.StatusOK, chatResponse{Message: out.Answer, Articles: articles})
}

// History returns the session transcript, empty when unknown or expired.
// (GET /history/:sessionId)
func (h *Handler) History(c echo.Context) error {
	sessionID := c.Param("sessionId")
	ctx := logger.WithSessionID(h.requestContext(c), sessionID)

	history, err := h.sessions.GetHistory(ctx, sessionID)
	if err != nil {
		return h.failure(c, ctx, "get_history_failed", err, "Failed to load history")
	}
	return c.JSON(http.StatusOK, history)
}

// ClearSession deletes the session. Clearing an unknown session succeeds.
// (POST /session/:sessionId, DELETE /session/:sessionId)
func (h *Handler) ClearSession(c echo.Context) error {
	sessionID := c.Param("sessionId")
	ctx := logger.WithSessionID(h.requestContext(c), sessionID)

	if err := h.sessions.ClearSession(ctx, sessionID); err != nil {
		return h.failure(c, ctx, "clear_session_failed", err, "Failed to clear session")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Session cleared"})
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings every backing service; any failure makes the instance not ready.
func (h *Handler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	ready := true
	for name, p := range h.probes {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "unavailable"
			ready = false
			h.logger.WarnContext(ctx, "readiness_check_failed", slog.String("dependency", name), slog.String("error", err.Error()))
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": checks})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (h *Handler) chatFailure(c echo.Context, ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing sessionId or message"})
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return h.failure(c, ctx, "chat_request_failed", err, "Upstream timeout")
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrRetrievalFailed):
		return h.failure(c, ctx, "chat_request_failed", err, "Failed to fetch articles")
	default:
		return h.failure(c, ctx, "chat_request_failed", err, "Chat failed")
	}
}

// failure logs the cause and returns a body without internal detail.
func (h *Handler) failure(c echo.Context, ctx context.Context, event string, err error, message string) error {
	status := statusFor(err)
	logger.FromContext(ctx, h.logger).ErrorContext(ctx, event,
		slog.Int("status", status),
		slog.String("error", err.Error()))
	return c.JSON(status, errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	return ctx
}
