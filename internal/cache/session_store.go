package cache

import (
	"context"
	"errors"
	"time"

	"github.com/temic137/forms-sub004/internal/engine"
	"github.com/temic137/forms-sub004/internal/models"
)

// FormSession is one respondent's progress through a form.
type FormSession struct {
	ID           string                  `json:"id"`
	FormID       uint                    `json:"form_id"`
	FormVersion  int                     `json:"form_version"`
	State        engine.NavState         `json:"state"`
	Answers      map[string]models.Value `json:"answers"`
	RespondentID *string                 `json:"respondent_id,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// SessionStore persists navigator state between requests. Each save resets
// the session's expiry.
type SessionStore interface {
	Save(ctx context.Context, session *FormSession) error
	// Get returns nil, nil when the session does not exist or has expired.
	Get(ctx context.Context, formID uint, sessionID string) (*FormSession, error)
	Delete(ctx context.Context, formID uint, sessionID string) error
	// DeleteForForm drops every open session of a form.
	DeleteForForm(ctx context.Context, formID uint) error
}

type sessionStore struct {
	cache CacheService
	ttl   time.Duration
}

func NewSessionStore(cache CacheService, ttl time.Duration) SessionStore {
	return &sessionStore{cache: cache, ttl: ttl}
}

func (s *sessionStore) Save(ctx context.Context, session *FormSession) error {
	return s.cache.Set(ctx, sessionKey(session.FormID, session.ID), session, s.ttl)
}

func (s *sessionStore) Get(ctx context.Context, formID uint, sessionID string) (*FormSession, error) {
	var session FormSession
	err := s.cache.Get(ctx, sessionKey(formID, sessionID), &session)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.Answers == nil {
		session.Answers = make(map[string]models.Value)
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, formID uint, sessionID string) error {
	return s.cache.Delete(ctx, sessionKey(formID, sessionID))
}

func (s *sessionStore) DeleteForForm(ctx context.Context, formID uint) error {
	return s.cache.DeletePattern(ctx, formSessionsPattern(formID))
}
