package logbook

import (
	"testing"
	"time"

	"kestrel-eoc/core/store"
)

func matchEntry(incidentType string, at time.Time) store.IncidentLog {
	return store.IncidentLog{
		IncidentType:     incidentType,
		Type:             TypeMatchLog,
		TimeOfOccurrence: at,
	}
}

func TestDeriveMatchStateScoreTally(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	prior := []store.IncidentLog{
		matchEntry(MatchKickOff, t0),
		matchEntry(MatchHomeGoal, t0.Add(10*time.Minute)),
		matchEntry(MatchHomeGoal, t0.Add(20*time.Minute)),
		matchEntry(MatchAwayGoal, t0.Add(30*time.Minute)),
	}
	state := DeriveMatchState(prior, MatchAwayGoal, t0.Add(40*time.Minute))
	if state.HomeScore != 2 || state.AwayScore != 2 {
		t.Fatalf("expected 2-2, got %d-%d", state.HomeScore, state.AwayScore)
	}
	if state.MatchMinute == nil || *state.MatchMinute != 40 {
		t.Fatalf("expected minute 40, got %v", state.MatchMinute)
	}
}

func TestDeriveMatchStateGoalCarryForward(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	prior := []store.IncidentLog{
		matchEntry(MatchKickOff, t0),
		matchEntry(MatchHomeGoal, t0.Add(5*time.Minute)),
		matchEntry(MatchAwayGoal, t0.Add(10*time.Minute)),
	}
	state := DeriveMatchState(prior, MatchHomeGoal, t0.Add(15*time.Minute))
	if state.HomeScore != 2 || state.AwayScore != 1 {
		t.Fatalf("expected 2-1, got %d-%d", state.HomeScore, state.AwayScore)
	}
	if state.MatchMinute == nil || *state.MatchMinute != 15 {
		t.Fatalf("expected minute 15, got %v", state.MatchMinute)
	}
}

func TestDeriveMatchStateSecondHalfMinute(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	prior := []store.IncidentLog{
		matchEntry(MatchKickOff, t0),
		matchEntry(MatchHalfTime, t0.Add(45*time.Minute)),
	}
	state := DeriveMatchState(prior, MatchHomeGoal, t0.Add(50*time.Minute))
	if state.MatchMinute == nil || *state.MatchMinute != 50 {
		t.Fatalf("expected minute 50, got %v", state.MatchMinute)
	}
	if state.HomeScore != 1 || state.AwayScore != 0 {
		t.Fatalf("expected 1-0, got %d-%d", state.HomeScore, state.AwayScore)
	}
}

func TestDeriveMatchStateNoKickOff(t *testing.T) {
	state := DeriveMatchState(nil, MatchHomeGoal, time.Now().UTC())
	if state.MatchMinute != nil {
		t.Fatalf("expected nil minute without a kick off, got %d", *state.MatchMinute)
	}
	if state.HomeScore != 1 {
		t.Fatalf("expected home score 1, got %d", state.HomeScore)
	}
}

func TestDeriveMatchStateClampsNegativeMinute(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	prior := []store.IncidentLog{matchEntry(MatchKickOff, t0)}
	state := DeriveMatchState(prior, MatchHomeGoal, t0.Add(-2*time.Minute))
	if state.MatchMinute == nil || *state.MatchMinute != 0 {
		t.Fatalf("expected clamped minute 0, got %v", state.MatchMinute)
	}
}

func TestDeriveMatchStateFirstHalfIgnoresFutureHalfTime(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)
	prior := []store.IncidentLog{
		matchEntry(MatchKickOff, t0),
		matchEntry(MatchHalfTime, t0.Add(45*time.Minute)),
	}
	state := DeriveMatchState(prior, MatchAwayGoal, t0.Add(30*time.Minute))
	if state.MatchMinute == nil || *state.MatchMinute != 30 {
		t.Fatalf("expected minute 30, got %v", state.MatchMinute)
	}
}
