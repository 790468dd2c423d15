package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

// Business context keys, following the OTel attribute naming style with a 'news.' prefix.
const (
	SessionIDKey ContextKey = "news.session.id"
	RequestIDKey ContextKey = "news.request.id"
	ChatStageKey ContextKey = "news.chat.stage"
)

var contextKeys = []ContextKey{SessionIDKey, RequestIDKey, ChatStageKey}

// FromContext returns base enriched with the business attributes stored in ctx.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}

	var fields []any
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			fields = append(fields, string(key), v)
		}
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// WithSessionID adds the chat session id to context for observability
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithRequestID adds the HTTP request id to context for observability
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithChatStage records the current orchestrator stage
func WithChatStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ChatStageKey, stage)
}
