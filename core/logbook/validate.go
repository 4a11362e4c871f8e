package logbook

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError marks a client-fixable problem with a log payload. Nothing
// is persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CreateLogInput is the caller-supplied part of a log entry. Derived fields
// (log number, callsign, match state, lifecycle flags) are filled by the
// service and always win over caller values.
type CreateLogInput struct {
	EventID                    int64     `json:"event_id"`
	Occurrence                 string    `json:"occurrence"`
	ActionTaken                string    `json:"action_taken"`
	IncidentType               string    `json:"incident_type"`
	Priority                   string    `json:"priority"`
	Location                   string    `json:"location"`
	PhotoURL                   string    `json:"photo_url"`
	CallsignFrom               string    `json:"callsign_from"`
	CallsignTo                 string    `json:"callsign_to"`
	TimeOfOccurrence           time.Time `json:"time_of_occurrence"`
	TimeLogged                 time.Time `json:"time_logged"`
	EntryType                  string    `json:"entry_type"`
	RetrospectiveJustification string    `json:"retrospective_justification"`
	Status                     string    `json:"status"`
	Source                     string    `json:"source"`
}

// ValidateCreateLog enforces the contemporaneous/retrospective entry rules.
// It has no side effects and passes a valid payload through unchanged.
func ValidateCreateLog(in CreateLogInput) error {
	if in.EventID <= 0 {
		return &ValidationError{Field: "event_id", Reason: "required"}
	}
	if strings.TrimSpace(in.Occurrence) == "" {
		return &ValidationError{Field: "occurrence", Reason: "required"}
	}
	if strings.TrimSpace(in.ActionTaken) == "" {
		return &ValidationError{Field: "action_taken", Reason: "required"}
	}
	if strings.TrimSpace(in.IncidentType) == "" {
		return &ValidationError{Field: "incident_type", Reason: "required"}
	}
	if in.TimeOfOccurrence.IsZero() {
		return &ValidationError{Field: "time_of_occurrence", Reason: "required"}
	}
	switch in.EntryType {
	case EntryContemporaneous:
	case EntryRetrospective:
		if strings.TrimSpace(in.RetrospectiveJustification) == "" {
			return &ValidationError{Field: "retrospective_justification", Reason: "required for retrospective entries"}
		}
	default:
		return &ValidationError{Field: "entry_type", Reason: "must be contemporaneous or retrospective"}
	}
	switch in.Priority {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return &ValidationError{Field: "priority", Reason: "must be high, medium or low"}
	}
	return nil
}
