package radio

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"kestrel-eoc/config"
	"kestrel-eoc/core/logbook"
	"kestrel-eoc/core/store"
)

type bridgeFixture struct {
	bridge  *Bridge
	radio   store.RadioStore
	logs    store.LogsStore
	logbook *logbook.Service
	eventID int64
	userID  int64
}

func newBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "bridge_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, nil); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := &config.AppConfig{
		Logbook: config.LogbookConfig{
			FallbackEventName: "Event",
			FallbackCallsign:  "Unknown",
			ManualSeqPad:      3,
			RadioSeqPad:       4,
		},
		Radio: config.RadioConfig{
			AutoCreateIncidents: true,
			DuplicateWindow:     5 * time.Minute,
			DuplicateThreshold:  0.5,
		},
	}

	events := store.NewEventsStore(db)
	users := store.NewUsersStore(db)
	logs := store.NewLogsStore(db)
	radioStore := store.NewRadioStore(db)
	audits := store.NewAuditStore(db)

	eventID, err := events.CreateEvent(ctx, &store.Event{
		Name:      "Wembley Stadium",
		EventDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	userID, err := users.CreateUser(ctx, &store.User{Username: "control", PasswordHash: "x", FirstName: "Control", LastName: "Room"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	logbookSvc := logbook.NewService(cfg, logs, events, users, audits, nil)
	bridge := NewBridge(cfg, nil, radioStore, logs, logbookSvc, audits, nil)
	return &bridgeFixture{bridge: bridge, radio: radioStore, logs: logs, logbook: logbookSvc, eventID: eventID, userID: userID}
}

func (f *bridgeFixture) storeMessage(t *testing.T, text string) *store.RadioMessage {
	t.Helper()
	msg := &store.RadioMessage{
		EventID:  f.eventID,
		Callsign: "S4",
		Channel:  "1",
		Message:  text,
	}
	if _, err := f.radio.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("store radio message: %v", err)
	}
	return msg
}

func TestCreateIncidentFromMessage(t *testing.T) {
	f := newBridgeFixture(t)
	ctx := context.Background()
	msg := f.storeMessage(t, "Fight breaking out at block 104, urgent response needed")

	outcome, err := f.bridge.CreateIncidentFromMessage(ctx, msg, f.eventID, f.userID)
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	if !outcome.IncidentCreated || outcome.IncidentID == nil {
		t.Fatalf("expected incident creation, got %+v", outcome)
	}
	if !strings.HasSuffix(outcome.LogNumber, "-0001") {
		t.Fatalf("expected radio padding in log number, got %q", outcome.LogNumber)
	}

	entry, err := f.logs.GetLog(ctx, *outcome.IncidentID)
	if err != nil || entry == nil {
		t.Fatalf("reload incident: %v", err)
	}
	if entry.IncidentType != "Security" {
		t.Fatalf("expected Security incident, got %q", entry.IncidentType)
	}
	if entry.Source != logbook.SourceRadio {
		t.Fatalf("expected radio source, got %q", entry.Source)
	}
	if entry.CallsignFrom != "S4" || entry.CallsignTo != "Control" {
		t.Fatalf("unexpected callsigns %q -> %q", entry.CallsignFrom, entry.CallsignTo)
	}

	linked, err := f.radio.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if linked.IncidentID == nil || *linked.IncidentID != entry.ID {
		t.Fatalf("expected message linked to incident %d, got %v", entry.ID, linked.IncidentID)
	}
}

func TestCreateIncidentFromMessageDuplicate(t *testing.T) {
	f := newBridgeFixture(t)
	ctx := context.Background()

	existing, _, err := f.logbook.CreateImmutableLog(ctx, logbook.CreateLogInput{
		EventID:          f.eventID,
		Occurrence:       "Medical casualty collapsed north gate concourse",
		ActionTaken:      "Medics dispatched",
		IncidentType:     "Medical",
		TimeOfOccurrence: time.Now().UTC(),
		EntryType:        logbook.EntryContemporaneous,
	}, f.userID)
	if err != nil {
		t.Fatalf("create existing incident: %v", err)
	}

	msg := f.storeMessage(t, "Medic needed, casualty collapsed north gate")
	outcome, err := f.bridge.CreateIncidentFromMessage(ctx, msg, f.eventID, f.userID)
	if err != nil {
		t.Fatalf("duplicate check: %v", err)
	}
	if outcome.IncidentCreated {
		t.Fatal("expected duplicate suppression, got a new incident")
	}
	if outcome.IncidentID == nil || *outcome.IncidentID != existing.ID {
		t.Fatalf("expected link to incident %d, got %v", existing.ID, outcome.IncidentID)
	}
	if !strings.Contains(outcome.Reason, existing.LogNumber) {
		t.Fatalf("expected reason to name %s, got %q", existing.LogNumber, outcome.Reason)
	}

	linked, err := f.radio.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if linked.IncidentID == nil || *linked.IncidentID != existing.ID {
		t.Fatalf("expected message linked to %d, got %v", existing.ID, linked.IncidentID)
	}
}

func TestCreateIncidentFromMessageAlreadyLinked(t *testing.T) {
	f := newBridgeFixture(t)
	incidentID := int64(42)
	msg := &store.RadioMessage{ID: 7, EventID: f.eventID, Message: "anything", IncidentID: &incidentID}

	outcome, err := f.bridge.CreateIncidentFromMessage(context.Background(), msg, f.eventID, f.userID)
	if err != nil {
		t.Fatalf("already-linked check: %v", err)
	}
	if outcome.IncidentCreated {
		t.Fatal("expected no new incident for a linked message")
	}
	if outcome.IncidentID == nil || *outcome.IncidentID != incidentID {
		t.Fatalf("expected existing incident id, got %v", outcome.IncidentID)
	}
	if !strings.Contains(outcome.Reason, "already linked") {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestProcessMessageRoutineTraffic(t *testing.T) {
	f := newBridgeFixture(t)
	ctx := context.Background()
	msg := f.storeMessage(t, "Radio check, all quiet on channel one")

	result, err := f.bridge.ProcessMessage(ctx, msg.ID, 0, f.userID, true)
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if !result.Analyzed {
		t.Fatal("expected message to be analyzed")
	}
	if result.IncidentCreated {
		t.Fatal("expected no incident from routine traffic")
	}

	stored, err := f.radio.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if !stored.Analyzed || stored.AnalyzedAt == nil {
		t.Fatal("expected analysis to be persisted on the message row")
	}
}

func TestProcessMessageAutoCreate(t *testing.T) {
	f := newBridgeFixture(t)
	ctx := context.Background()
	msg := f.storeMessage(t, "Crowd surge at gate 3, urgent")

	result, err := f.bridge.ProcessMessage(ctx, msg.ID, 0, f.userID, true)
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if result.Category != "crowd" || result.Priority != "high" {
		t.Fatalf("unexpected analysis %q/%q", result.Category, result.Priority)
	}
	if !result.IncidentCreated || result.IncidentID == nil {
		t.Fatalf("expected incident creation, got %+v", result)
	}
}

func TestFindDuplicateThreshold(t *testing.T) {
	f := newBridgeFixture(t)
	recent := []store.IncidentLog{{ID: 1, Occurrence: "Medical casualty collapsed north gate"}}

	if dup := f.bridge.findDuplicate("Medic needed casualty collapsed north gate", recent); dup == nil {
		t.Fatal("expected keyword overlap to flag a duplicate")
	}
	if dup := f.bridge.findDuplicate("Lost property handed in at the box office", recent); dup != nil {
		t.Fatal("expected unrelated traffic to pass")
	}
}
