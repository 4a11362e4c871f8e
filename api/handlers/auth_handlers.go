package handlers

import (
	"net/http"
	"strings"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/auth"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

const sessionCookieName = "kestrel_session"

type AuthHandler struct {
	cfg      *config.AppConfig
	users    store.UsersStore
	sessions *auth.SessionManager
	audits   store.AuditStore
	logger   *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sessions *auth.SessionManager, audits store.AuditStore, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, sessions: sessions, audits: audits, logger: logger}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := decodeJSON(r, &cred); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(cred.Username)
	if username == "" || cred.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.logger.Errorf("login lookup %q: %v", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !user.Active {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	ok, err := auth.VerifyPassword(cred.Password, user.PasswordHash)
	if err != nil || !ok {
		if h.audits != nil {
			_ = h.audits.Log(r.Context(), "user:"+username, "auth.login.fail", clientAddr(r))
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	sess, err := h.sessions.Create(r.Context(), user, clientAddr(r), r.UserAgent())
	if err != nil {
		h.logger.Errorf("create session for %q: %v", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	_ = h.users.TouchLogin(r.Context(), user.ID, time.Now().UTC())
	if h.audits != nil {
		_ = h.audits.Log(r.Context(), "user:"+username, "auth.login", clientAddr(r))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"user": user,
		"role": user.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		_ = h.sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetUser(r.Context(), sess.UserID)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user": user,
		"role": user.Role,
	})
}

func clientAddr(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		addr = addr[:i]
	}
	return addr
}
