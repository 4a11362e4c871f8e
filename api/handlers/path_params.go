package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kestrel-eoc/core/auth"
	"kestrel-eoc/core/store"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func idParam(r *http.Request, key string) (int64, bool) {
	raw := strings.TrimSpace(urlParam(r, key))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	return n
}

// currentSession returns the authenticated session placed on the context by
// the session middleware, or nil for unauthenticated test requests.
func currentSession(r *http.Request) *store.SessionRecord {
	if v := r.Context().Value(auth.SessionContextKey); v != nil {
		return v.(*store.SessionRecord)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
