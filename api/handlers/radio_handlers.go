package handlers

import (
	"net/http"
	"strings"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/radio"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

type RadioHandler struct {
	cfg    *config.AppConfig
	radio  store.RadioStore
	bridge *radio.Bridge
	logger *utils.Logger
}

func NewRadioHandler(cfg *config.AppConfig, radioStore store.RadioStore, bridge *radio.Bridge, logger *utils.Logger) *RadioHandler {
	return &RadioHandler{cfg: cfg, radio: radioStore, bridge: bridge, logger: logger}
}

type ingestRequest struct {
	Callsign   string    `json:"callsign"`
	Channel    string    `json:"channel"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
	Process    bool      `json:"process"`
}

// Ingest stores one transcript row and, when asked, runs it through the
// analyzer and incident bridge in the same request.
func (h *RadioHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	msg := &store.RadioMessage{
		EventID:    eventID,
		Callsign:   req.Callsign,
		Channel:    req.Channel,
		Message:    req.Message,
		ReceivedAt: req.ReceivedAt,
	}
	if _, err := h.radio.CreateMessage(r.Context(), msg); err != nil {
		h.logger.Errorf("store radio message: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !req.Process {
		respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
		return
	}
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.bridge.ProcessMessage(r.Context(), msg.ID, eventID, sess.UserID, h.cfg.Radio.AutoCreateIncidents)
	if err != nil {
		h.logger.Errorf("process radio message %d: %v", msg.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": msg,
		"result":  result,
	})
}

func (h *RadioHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "id")
	if !ok {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	messages, err := h.radio.ListMessages(r.Context(), eventID, queryInt(r, "limit"))
	if err != nil {
		h.logger.Errorf("list radio messages for event %d: %v", eventID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// Process re-runs analysis on a stored message and drives incident creation.
func (h *RadioHandler) Process(w http.ResponseWriter, r *http.Request) {
	messageID, ok := idParam(r, "message_id")
	if !ok {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.bridge.ProcessMessage(r.Context(), messageID, 0, sess.UserID, h.cfg.Radio.AutoCreateIncidents)
	if err != nil {
		h.logger.Errorf("process radio message %d: %v", messageID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
