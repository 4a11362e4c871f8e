package radio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/logbook"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

// Bridge turns inbound radio transcripts into logbook entries: it classifies
// each message, suppresses near-duplicates of recently logged incidents, and
// drives the same immutable-writer path manual entries use.
type Bridge struct {
	cfg      *config.AppConfig
	analyzer Analyzer
	radio    store.RadioStore
	logs     store.LogsStore
	logbook  *logbook.Service
	audits   store.AuditStore
	logger   *utils.Logger
}

func NewBridge(cfg *config.AppConfig, analyzer Analyzer, radioStore store.RadioStore, logs store.LogsStore, logbookSvc *logbook.Service, audits store.AuditStore, logger *utils.Logger) *Bridge {
	if analyzer == nil {
		analyzer = NewKeywordAnalyzer()
	}
	return &Bridge{cfg: cfg, analyzer: analyzer, radio: radioStore, logs: logs, logbook: logbookSvc, audits: audits, logger: logger}
}

type ProcessResult struct {
	Analyzed        bool   `json:"analyzed"`
	Category        string `json:"category,omitempty"`
	Priority        string `json:"priority,omitempty"`
	IncidentCreated bool   `json:"incident_created"`
	IncidentID      *int64 `json:"incident_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type IncidentOutcome struct {
	IncidentCreated bool     `json:"incident_created"`
	IncidentID      *int64   `json:"incident_id,omitempty"`
	LogNumber       string   `json:"log_number,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// ProcessMessage analyzes one stored radio message, persists the analysis on
// the message row and, when autoCreate is set and the classifier says the
// traffic warrants it, creates an incident through the immutable log writer.
func (b *Bridge) ProcessMessage(ctx context.Context, messageID, eventID, userID int64, autoCreate bool) (*ProcessResult, error) {
	msg, err := b.radio.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("radio message %d not found", messageID)
	}
	if eventID <= 0 {
		eventID = msg.EventID
	}
	analysis := b.analyzer.Analyze(msg.Message)
	if err := b.radio.SetAnalysis(ctx, msg.ID, analysis.Category, analysis.Priority, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}
	result := &ProcessResult{Analyzed: true, Category: analysis.Category, Priority: analysis.Priority}
	if !autoCreate || !b.analyzer.ShouldCreateIncident(msg.Message) {
		return result, nil
	}
	outcome, err := b.CreateIncidentFromMessage(ctx, msg, eventID, userID)
	if err != nil {
		return nil, err
	}
	result.IncidentCreated = outcome.IncidentCreated
	result.IncidentID = outcome.IncidentID
	result.Reason = outcome.Reason
	return result, nil
}

// CreateIncidentFromMessage creates a logbook incident from a radio message
// unless the message is already linked or duplicates a recently logged
// incident. Duplicate detection and the already-linked short-circuit are
// successful no-op outcomes, not errors.
func (b *Bridge) CreateIncidentFromMessage(ctx context.Context, msg *store.RadioMessage, eventID, userID int64) (*IncidentOutcome, error) {
	if msg == nil {
		return nil, fmt.Errorf("radio message is required")
	}
	if msg.IncidentID != nil {
		return &IncidentOutcome{
			IncidentID: msg.IncidentID,
			Reason:     "Incident already linked to this radio message",
		}, nil
	}

	window := b.cfg.Radio.EffectiveDuplicateWindow()
	since := time.Now().UTC().Add(-window)
	recent, err := b.logs.ListLogsLoggedSince(ctx, eventID, since)
	if err != nil {
		return nil, fmt.Errorf("recent incidents for duplicate check: %w", err)
	}
	if dup := b.findDuplicate(msg.Message, recent); dup != nil {
		category := messageCategory(dup.IncidentType)
		if err := b.radio.LinkIncident(ctx, msg.ID, dup.ID, category); err != nil && b.logger != nil {
			b.logger.Errorf("link radio message %d to duplicate incident %d: %v", msg.ID, dup.ID, err)
		}
		return &IncidentOutcome{
			IncidentID: &dup.ID,
			Reason:     fmt.Sprintf("Duplicate incident detected within the last %s; linked to %s", window, dup.LogNumber),
		}, nil
	}

	details := b.analyzer.ExtractIncidentDetails(msg.Message)
	input := logbook.CreateLogInput{
		EventID:          eventID,
		Occurrence:       details.Description,
		ActionTaken:      "Reported over radio; control room response in progress",
		IncidentType:     details.Type,
		Priority:         details.Priority,
		Location:         details.Location,
		CallsignFrom:     msg.Callsign,
		CallsignTo:       "Control",
		TimeOfOccurrence: msg.ReceivedAt,
		EntryType:        logbook.EntryContemporaneous,
		Source:           logbook.SourceRadio,
	}
	created, warnings, err := b.logbook.CreateImmutableLog(ctx, input, userID)
	if err != nil {
		return nil, err
	}

	// The incident exists from here on. A failed back-reference update is
	// tolerated: losing the incident would be worse than losing the link.
	category := messageCategory(details.Type)
	if err := b.radio.LinkIncident(ctx, msg.ID, created.ID, category); err != nil {
		if b.logger != nil {
			b.logger.Errorf("link radio message %d to incident %d: %v", msg.ID, created.ID, err)
		}
		warnings = append(warnings, "incident created but radio message back-reference update failed")
	}
	if b.audits != nil {
		_ = b.audits.Log(ctx, fmt.Sprintf("user:%d", userID), "radio.incident.auto_create",
			fmt.Sprintf("event_id=%d|message_id=%d|log_id=%d|log_number=%s", eventID, msg.ID, created.ID, created.LogNumber))
	}
	return &IncidentOutcome{
		IncidentCreated: true,
		IncidentID:      &created.ID,
		LogNumber:       created.LogNumber,
		Warnings:        warnings,
	}, nil
}

// findDuplicate compares the candidate transcript against recently logged
// occurrences by keyword overlap: words longer than three characters,
// substring containment in either direction, and at least half the
// candidate's keywords matched.
func (b *Bridge) findDuplicate(message string, recent []store.IncidentLog) *store.IncidentLog {
	candidate := Keywords(message)
	if len(candidate) == 0 {
		return nil
	}
	threshold := b.cfg.Radio.EffectiveDuplicateThreshold()
	for i := range recent {
		existing := Keywords(recent[i].Occurrence)
		if len(existing) == 0 {
			continue
		}
		matched := 0
		for _, kw := range candidate {
			for _, ex := range existing {
				if strings.Contains(ex, kw) || strings.Contains(kw, ex) {
					matched++
					break
				}
			}
		}
		if float64(matched)/float64(len(candidate)) >= threshold {
			return &recent[i]
		}
	}
	return nil
}

// messageCategory is the radio-side category stored on the message row.
func messageCategory(incidentType string) string {
	switch incidentType {
	case "Medical", "Fire":
		return "emergency"
	default:
		return "incident"
	}
}
