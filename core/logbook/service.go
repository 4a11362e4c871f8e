package logbook

import (
	"context"
	"fmt"
	"time"

	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

// Service is the append-only persistence boundary for the event logbook.
// All derivation (classification, match state, log number, callsign) happens
// here, before the single insert; no code path through this service updates
// an existing log row.
type Service struct {
	cfg    *config.AppConfig
	logs   store.LogsStore
	events store.EventsStore
	users  store.UsersStore
	audits store.AuditStore
	logger *utils.Logger
}

func NewService(cfg *config.AppConfig, logs store.LogsStore, events store.EventsStore, users store.UsersStore, audits store.AuditStore, logger *utils.Logger) *Service {
	return &Service{cfg: cfg, logs: logs, events: events, users: users, audits: audits, logger: logger}
}

// CreateImmutableLog validates, classifies, derives and persists exactly one
// new log entry. Warnings carry non-fatal fallback notes (event or callsign
// lookups that degraded); an error means nothing was written.
func (s *Service) CreateImmutableLog(ctx context.Context, in CreateLogInput, userID int64) (*store.IncidentLog, []string, error) {
	return s.create(ctx, in, userID, nil)
}

// AmendLog appends a new trailing entry referencing the original. The
// original row is never touched; the audit trail is the chain of amendments.
func (s *Service) AmendLog(ctx context.Context, originalID int64, in CreateLogInput, userID int64) (*store.IncidentLog, []string, error) {
	original, err := s.logs.GetLog(ctx, originalID)
	if err != nil {
		return nil, nil, err
	}
	if original == nil {
		return nil, nil, &ValidationError{Field: "amends_id", Reason: "original log entry not found"}
	}
	if in.EventID == 0 {
		in.EventID = original.EventID
	}
	if in.EventID != original.EventID {
		return nil, nil, &ValidationError{Field: "event_id", Reason: "amendment must belong to the original entry's event"}
	}
	return s.create(ctx, in, userID, &originalID)
}

func (s *Service) create(ctx context.Context, in CreateLogInput, userID int64, amendsID *int64) (*store.IncidentLog, []string, error) {
	if err := ValidateCreateLog(in); err != nil {
		return nil, nil, err
	}
	var warnings []string

	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	source := in.Source
	if source != SourceRadio {
		source = SourceManual
	}

	status := in.Status
	if status == "" {
		status = StatusOpen
	}
	isClosed := false
	if ShouldAutoClose(in.IncidentType, priority) {
		status = StatusLogged
		isClosed = true
	}

	entry := &store.IncidentLog{
		EventID:                    in.EventID,
		Occurrence:                 in.Occurrence,
		ActionTaken:                in.ActionTaken,
		IncidentType:               in.IncidentType,
		Priority:                   priority,
		Location:                   in.Location,
		PhotoURL:                   in.PhotoURL,
		CallsignFrom:               in.CallsignFrom,
		CallsignTo:                 in.CallsignTo,
		TimeOfOccurrence:           in.TimeOfOccurrence.UTC(),
		TimeLogged:                 in.TimeLogged,
		EntryType:                  in.EntryType,
		RetrospectiveJustification: in.RetrospectiveJustification,
		Status:                     status,
		IsClosed:                   isClosed,
		Type:                       TypeIncident,
		AmendsID:                   amendsID,
		Source:                     source,
		LoggedBy:                   userID,
	}

	if IsMatchFlowType(in.IncidentType) {
		prior, err := s.logs.ListMatchLogs(ctx, in.EventID)
		if err != nil {
			return nil, nil, fmt.Errorf("match log history: %w", err)
		}
		state := DeriveMatchState(prior, in.IncidentType, entry.TimeOfOccurrence)
		entry.Type = TypeMatchLog
		entry.Category = CategoryFootball
		entry.MatchMinute = state.MatchMinute
		home, away := state.HomeScore, state.AwayScore
		entry.HomeScore = &home
		entry.AwayScore = &away
	}

	eventName, eventDate, eventWarnings := s.resolveEvent(ctx, in.EventID)
	warnings = append(warnings, eventWarnings...)

	callsign, callsignWarnings := ResolveCallsign(ctx, s.users, userID, in.EventID, s.cfg.Logbook.FallbackCallsign)
	warnings = append(warnings, callsignWarnings...)
	entry.LoggedByCallsign = callsign

	number := NumberSpec(eventName, eventDate, source, s.cfg.Logbook)
	if _, err := s.logs.CreateLog(ctx, entry, number); err != nil {
		return nil, warnings, fmt.Errorf("persist log entry: %w", err)
	}

	if s.audits != nil {
		action := "logbook.create"
		if amendsID != nil {
			action = "logbook.amend"
		}
		_ = s.audits.Log(ctx, fmt.Sprintf("user:%d", userID), action,
			fmt.Sprintf("event_id=%d|log_id=%d|log_number=%s", entry.EventID, entry.ID, entry.LogNumber))
	}
	if s.logger != nil {
		s.logger.Printf("log %s created for event %d (%s)", entry.LogNumber, entry.EventID, entry.IncidentType)
	}
	return entry, warnings, nil
}

// resolveEvent fetches the event name and date for log numbering. Lookup
// failure is non-fatal: the configured fallback name and today's date are
// used, and the degradation is surfaced as a warning.
func (s *Service) resolveEvent(ctx context.Context, eventID int64) (string, time.Time, []string) {
	fallbackName := s.cfg.Logbook.FallbackEventName
	if fallbackName == "" {
		fallbackName = "Event"
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("event lookup for log numbering: %v", err)
		}
		return fallbackName, time.Now().UTC(), []string{"event lookup failed; log number uses fallback event name and current date"}
	}
	if event == nil {
		return fallbackName, time.Now().UTC(), []string{"event not found; log number uses fallback event name and current date"}
	}
	name := event.Name
	if name == "" {
		name = fallbackName
	}
	date := event.EventDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return name, date, nil
}
