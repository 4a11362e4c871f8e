package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

var ErrInvalidSession = errors.New("invalid session")

type contextKey string

// SessionContextKey carries the authenticated *store.SessionRecord through
// request contexts.
const SessionContextKey contextKey = "session"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionManager struct {
	store  store.SessionStore
	cfg    *config.AppConfig
	logger *utils.Logger
}

func NewSessionManager(store store.SessionStore, cfg *config.AppConfig, logger *utils.Logger) *SessionManager {
	return &SessionManager{store: store, cfg: cfg, logger: logger}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User, ip, userAgent string) (*store.SessionRecord, error) {
	id := uuid.Must(uuid.NewV4()).String()
	now := time.Now().UTC()
	sess := &store.SessionRecord{
		ID:         id,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.cfg.EffectiveSessionTTL()),
	}
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate loads a session, rejecting unknown or expired ids. Expired rows
// are deleted opportunistically; the scheduler sweeps the rest.
func (m *SessionManager) Validate(ctx context.Context, sessID string) (*store.SessionRecord, error) {
	if sessID == "" {
		return nil, ErrInvalidSession
	}
	sess, err := m.store.GetSession(ctx, sessID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidSession
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = m.store.DeleteSession(ctx, sessID)
		return nil, ErrInvalidSession
	}
	return sess, nil
}

func (m *SessionManager) Refresh(ctx context.Context, sessID string) error {
	return m.store.UpdateActivity(ctx, sessID, time.Now().UTC(), m.cfg.EffectiveSessionTTL())
}

func (m *SessionManager) Delete(ctx context.Context, sessID string) error {
	return m.store.DeleteSession(ctx, sessID)
}
