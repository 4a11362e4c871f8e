package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
)

type memorySessions struct {
	sessions map[string]*store.SessionRecord
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*store.SessionRecord{}}
}

func (m *memorySessions) SaveSession(ctx context.Context, sess *store.SessionRecord) error {
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memorySessions) GetSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	return m.sessions[id], nil
}

func (m *memorySessions) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *memorySessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (m *memorySessions) UpdateActivity(ctx context.Context, id string, now time.Time, extendBy time.Duration) error {
	if sess, ok := m.sessions[id]; ok {
		sess.LastSeenAt = now
		sess.ExpiresAt = now.Add(extendBy)
	}
	return nil
}

func TestSessionManagerCreateAndValidate(t *testing.T) {
	sessions := newMemorySessions()
	mgr := NewSessionManager(sessions, &config.AppConfig{SessionTTL: time.Hour}, nil)
	ctx := context.Background()

	sess, err := mgr.Create(ctx, &store.User{ID: 3, Username: "control", Role: "supervisor"}, "10.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a generated session id")
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", got)
	}

	loaded, err := mgr.Validate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if loaded.UserID != 3 || loaded.Role != "supervisor" {
		t.Fatalf("unexpected session %+v", loaded)
	}
}

func TestSessionManagerRejectsExpired(t *testing.T) {
	sessions := newMemorySessions()
	mgr := NewSessionManager(sessions, &config.AppConfig{SessionTTL: time.Hour}, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	sessions.sessions["old"] = &store.SessionRecord{ID: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)}

	if _, err := mgr.Validate(ctx, "old"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if sessions.sessions["old"] != nil {
		t.Fatal("expected expired session to be deleted on validation")
	}
}

func TestSessionManagerRejectsUnknown(t *testing.T) {
	mgr := NewSessionManager(newMemorySessions(), &config.AppConfig{}, nil)
	if _, err := mgr.Validate(context.Background(), ""); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for empty id, got %v", err)
	}
	if _, err := mgr.Validate(context.Background(), "nope"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for unknown id, got %v", err)
	}
}

func TestSessionTTLCapped(t *testing.T) {
	sessions := newMemorySessions()
	mgr := NewSessionManager(sessions, &config.AppConfig{SessionTTL: 48 * time.Hour}, nil)
	sess, err := mgr.Create(context.Background(), &store.User{ID: 1, Username: "x"}, "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != 12*time.Hour {
		t.Fatalf("expected ttl capped at 12h, got %s", got)
	}
}
