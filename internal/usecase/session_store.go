package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"news-chat/internal/domain"
	"news-chat/internal/infra/metrics"
)

const (
	// SessionTTL is the sliding lifetime of a session; every append resets it.
	SessionTTL = 3600 * time.Second

	sessionKeyPrefix = "session:"

	// legacyAssistantRole is how older stored histories tagged model replies.
	legacyAssistantRole domain.Role = "bot"
)

// SessionKey derives the cache-store key for a session id.
func SessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// SessionStore owns conversation history keyed by session id.
type SessionStore interface {
	// CreateSession persists an empty history before returning the new id.
	CreateSession(ctx context.Context) (string, error)
	// GetHistory returns an empty slice for unknown or expired sessions.
	GetHistory(ctx context.Context, sessionID string) ([]domain.Turn, error)
	// AppendTurns appends in order and resets the session TTL.
	AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error
	// ClearSession deletes the session; clearing an absent session succeeds.
	ClearSession(ctx context.Context, sessionID string) error
}

type sessionStore struct {
	store    domain.CacheStore
	validate *validator.Validate
	newID    func() string
	timeout  time.Duration
}

type SessionStoreOption func(*sessionStore)

// WithSessionIDGenerator overrides uuid.NewString.
func WithSessionIDGenerator(fn func() string) SessionStoreOption {
	return func(s *sessionStore) {
		s.newID = fn
	}
}

// WithSessionTimeout bounds each cache-store call.
func WithSessionTimeout(d time.Duration) SessionStoreOption {
	return func(s *sessionStore) {
		s.timeout = d
	}
}

func NewSessionStore(store domain.CacheStore, opts ...SessionStoreOption) SessionStore {
	s := &sessionStore{
		store:    store,
		validate: domain.NewValidator(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionStore) CreateSession(ctx context.Context) (string, error) {
	sessionID := s.newID()
	if err := s.save(ctx, sessionID, []domain.Turn{}); err != nil {
		return "", err
	}
	metrics.RecordSession("create")
	return sessionID, nil
}

func (s *sessionStore) GetHistory(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}

	var (
		raw   []byte
		found bool
	)
	err := callUpstream(ctx, "session_store", s.timeout, domain.ErrStoreUnavailable, func(ctx context.Context) error {
		var err error
		raw, found, err = s.store.Get(ctx, SessionKey(sessionID))
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Turn{}, nil
	}

	return s.decode(raw)
}

func (s *sessionStore) AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	for i, turn := range turns {
		if err := s.validate.Struct(turn); err != nil {
			return fmt.Errorf("%w: turn %d: %v", domain.ErrValidation, i, err)
		}
	}

	history, err := s.GetHistory(ctx, sessionID)
	if err != nil {
		return err
	}

	updated := make([]domain.Turn, 0, len(history)+len(turns))
	updated = append(updated, history...)
	updated = append(updated, turns...)

	if err := s.save(ctx, sessionID, updated); err != nil {
		return err
	}
	metrics.RecordSession("append")
	return nil
}

func (s *sessionStore) ClearSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}

	err := callUpstream(ctx, "session_store", s.timeout, domain.ErrStoreUnavailable, func(ctx context.Context) error {
		return s.store.Delete(ctx, SessionKey(sessionID))
	})
	if err != nil {
		return err
	}
	metrics.RecordSession("clear")
	return nil
}

func (s *sessionStore) save(ctx context.Context, sessionID string, turns []domain.Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to encode session history: %w", err)
	}

	return callUpstream(ctx, "session_store", s.timeout, domain.ErrStoreUnavailable, func(ctx context.Context) error {
		return s.store.Set(ctx, SessionKey(sessionID), payload, SessionTTL)
	})
}

func (s *sessionStore) decode(raw []byte) ([]domain.Turn, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var turns []domain.Turn
	if err := dec.Decode(&turns); err != nil {
		return nil, fmt.Errorf("%w: session history: %w", domain.ErrCorruptState, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: session history: trailing data", domain.ErrCorruptState)
	}

	for i := range turns {
		if turns[i].Role == legacyAssistantRole {
			turns[i].Role = domain.RoleAssistant
		}
		if err := s.validate.Struct(turns[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return nil, fmt.Errorf("%w: session history turn %d: %v", domain.ErrCorruptState, i, verrs)
			}
			return nil, fmt.Errorf("%w: session history turn %d: %w", domain.ErrCorruptState, i, err)
		}
	}

	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}
