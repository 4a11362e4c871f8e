package handlers

import (
	"errors"
	"net/http"
	"strings"

	"kestrel-eoc/core/logbook"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

type LogsHandler struct {
	logbook *logbook.Service
	logs    store.LogsStore
	logger  *utils.Logger
}

func NewLogsHandler(logbookSvc *logbook.Service, logs store.LogsStore, logger *utils.Logger) *LogsHandler {
	return &LogsHandler{logbook: logbookSvc, logs: logs, logger: logger}
}

func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	var in logbook.CreateLogInput
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	in.EventID = eventID
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	entry, warnings, err := h.logbook.CreateImmutableLog(r.Context(), in, sess.UserID)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"log":      entry,
		"warnings": warnings,
	})
}

func (h *LogsHandler) Amend(w http.ResponseWriter, r *http.Request) {
	originalID, ok := idParam(r, "log_id")
	if !ok {
		http.Error(w, "invalid log id", http.StatusBadRequest)
		return
	}
	var in logbook.CreateLogInput
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	entry, warnings, err := h.logbook.AmendLog(r.Context(), originalID, in, sess.UserID)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"log":      entry,
		"warnings": warnings,
	})
}

func (h *LogsHandler) writeCreateError(w http.ResponseWriter, err error) {
	var verr *logbook.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   verr.Error(),
			"field":   verr.Field,
		})
		return
	}
	h.logger.Errorf("create log entry: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	filter := store.LogFilter{
		EventID:      eventID,
		Status:       strings.TrimSpace(q.Get("status")),
		IncidentType: strings.TrimSpace(q.Get("incident_type")),
		Type:         strings.TrimSpace(q.Get("type")),
		OpenOnly:     q.Get("open") == "true",
		Limit:        queryInt(r, "limit"),
		Offset:       queryInt(r, "offset"),
	}
	logs, err := h.logs.ListLogs(r.Context(), filter)
	if err != nil {
		h.logger.Errorf("list logs for event %d: %v", eventID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *LogsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "log_id")
	if !ok {
		http.Error(w, "invalid log id", http.StatusBadRequest)
		return
	}
	entry, err := h.logs.GetLog(r.Context(), id)
	if err != nil {
		h.logger.Errorf("get log %d: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "log entry not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// MatchState returns the match-flow rows plus the latest derived score for
// scoreboard views.
func (h *LogsHandler) MatchState(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	rows, err := h.logs.ListMatchLogs(r.Context(), eventID)
	if err != nil {
		h.logger.Errorf("list match logs for event %d: %v", eventID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	home, away := 0, 0
	var minute *int
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		if last.HomeScore != nil {
			home = *last.HomeScore
		}
		if last.AwayScore != nil {
			away = *last.AwayScore
		}
		minute = last.MatchMinute
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries":      rows,
		"home_score":   home,
		"away_score":   away,
		"match_minute": minute,
	})
}
