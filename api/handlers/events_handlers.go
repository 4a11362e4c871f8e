package handlers

import (
	"net/http"
	"strings"
	"time"

	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

type EventsHandler struct {
	events store.EventsStore
	users  store.UsersStore
	audits store.AuditStore
	logger *utils.Logger
}

func NewEventsHandler(events store.EventsStore, users store.UsersStore, audits store.AuditStore, logger *utils.Logger) *EventsHandler {
	return &EventsHandler{events: events, users: users, audits: audits, logger: logger}
}

type createEventRequest struct {
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	EventDate time.Time `json:"event_date"`
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	ev := &store.Event{
		Name:      req.Name,
		Venue:     req.Venue,
		EventDate: req.EventDate,
	}
	if sess != nil {
		ev.CreatedBy = sess.UserID
	}
	if _, err := h.events.CreateEvent(r.Context(), ev); err != nil {
		h.logger.Errorf("create event: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if h.audits != nil && sess != nil {
		_ = h.audits.Log(r.Context(), "user:"+sess.Username, "events.create", ev.Name)
	}
	respondJSON(w, http.StatusCreated, ev)
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	events, err := h.events.ListEvents(r.Context(), activeOnly)
	if err != nil {
		h.logger.Errorf("list events: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	ev, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		h.logger.Errorf("get event %d: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if ev == nil {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

type assignPositionRequest struct {
	UserID   int64  `json:"user_id"`
	Callsign string `json:"callsign"`
	Position string `json:"position"`
}

func (h *EventsHandler) AssignPosition(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	var req assignPositionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Callsign) == "" {
		http.Error(w, "user_id and callsign required", http.StatusBadRequest)
		return
	}
	user, err := h.users.GetUser(r.Context(), req.UserID)
	if err != nil {
		h.logger.Errorf("assign position user lookup: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	// One active assignment per user per event; release the previous one.
	if prev, err := h.users.ActiveAssignment(r.Context(), req.UserID, eventID); err == nil && prev != nil {
		_ = h.users.ReleasePosition(r.Context(), prev.ID)
	}
	pa := &store.PositionAssignment{
		EventID:  eventID,
		UserID:   req.UserID,
		Callsign: req.Callsign,
		Position: req.Position,
	}
	if _, err := h.users.AssignPosition(r.Context(), pa); err != nil {
		h.logger.Errorf("assign position: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if sess := currentSession(r); sess != nil && h.audits != nil {
		_ = h.audits.Log(r.Context(), "user:"+sess.Username, "events.position.assign", pa.Callsign)
	}
	respondJSON(w, http.StatusCreated, pa)
}
