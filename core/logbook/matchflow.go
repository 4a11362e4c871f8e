package logbook

import (
	"time"

	"kestrel-eoc/core/store"
)

// MatchState is the score and clock snapshot stored on a match-flow entry.
// It is recomputed from the full history on every write; nothing stateful is
// kept between requests.
type MatchState struct {
	MatchMinute *int
	HomeScore   int
	AwayScore   int
}

// DeriveMatchState reconstructs the running score and elapsed match minute
// for a new entry of incidentType occurring at occurredAt, given every prior
// match-flow row for the event ordered by time_of_occurrence ascending.
//
// The clock runs from the first Kick Off entry. Once the new entry falls
// after the first Half Time entry, the stored minute is 45 plus the minutes
// elapsed since that Half Time entry; a Second Half Kick Off marker is
// deliberately not consulted and stoppage time is not modelled. Downstream
// consumers depend on this exact formula.
func DeriveMatchState(prior []store.IncidentLog, incidentType string, occurredAt time.Time) MatchState {
	var state MatchState
	var kickOffAt, halfTimeAt *time.Time
	for i := range prior {
		entry := &prior[i]
		switch entry.IncidentType {
		case MatchHomeGoal:
			state.HomeScore++
		case MatchAwayGoal:
			state.AwayScore++
		case MatchKickOff:
			if kickOffAt == nil {
				t := entry.TimeOfOccurrence
				kickOffAt = &t
			}
		case MatchHalfTime:
			if halfTimeAt == nil {
				t := entry.TimeOfOccurrence
				halfTimeAt = &t
			}
		}
	}
	switch incidentType {
	case MatchHomeGoal:
		state.HomeScore++
	case MatchAwayGoal:
		state.AwayScore++
	}
	if kickOffAt == nil {
		return state
	}
	var minute int
	if halfTimeAt != nil && occurredAt.After(*halfTimeAt) {
		minute = 45 + int(occurredAt.Sub(*halfTimeAt)/time.Minute)
	} else {
		minute = int(occurredAt.Sub(*kickOffAt) / time.Minute)
	}
	if minute < 0 {
		minute = 0
	}
	state.MatchMinute = &minute
	return state
}
