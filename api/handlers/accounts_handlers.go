package handlers

import (
	"net/http"
	"strings"

	"kestrel-eoc/core/auth"
	"kestrel-eoc/core/rbac"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

type AccountsHandler struct {
	users  store.UsersStore
	audits store.AuditStore
	logger *utils.Logger
}

func NewAccountsHandler(users store.UsersStore, audits store.AuditStore, logger *utils.Logger) *AccountsHandler {
	return &AccountsHandler{users: users, audits: audits, logger: logger}
}

type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	if req.Role != "" && !rbac.IsValidRole(req.Role) {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}
	existing, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.logger.Errorf("create user lookup: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "username already taken", http.StatusConflict)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Errorf("hash password: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	user := &store.User{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}
	if _, err := h.users.CreateUser(r.Context(), user); err != nil {
		h.logger.Errorf("create user %q: %v", req.Username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if sess := currentSession(r); sess != nil && h.audits != nil {
		_ = h.audits.Log(r.Context(), "user:"+sess.Username, "accounts.create", user.Username)
	}
	respondJSON(w, http.StatusCreated, user)
}

type AuditHandler struct {
	audits store.AuditStore
	logger *utils.Logger
}

func NewAuditHandler(audits store.AuditStore, logger *utils.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = 200
	}
	entries, err := h.audits.ListAudit(r.Context(), limit)
	if err != nil {
		h.logger.Errorf("list audit: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
