package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// IncidentLog is one row of the append-only event logbook. Rows are inserted
// through CreateLog and never updated afterwards; amendments are new rows
// pointing back via AmendsID.
type IncidentLog struct {
	ID                         int64      `json:"id"`
	EventID                    int64      `json:"event_id"`
	LogNumber                  string     `json:"log_number"`
	Occurrence                 string     `json:"occurrence"`
	ActionTaken                string     `json:"action_taken"`
	IncidentType               string     `json:"incident_type"`
	Priority                   string     `json:"priority"`
	Location                   string     `json:"location,omitempty"`
	PhotoURL                   string     `json:"photo_url,omitempty"`
	CallsignFrom               string     `json:"callsign_from,omitempty"`
	CallsignTo                 string     `json:"callsign_to,omitempty"`
	LoggedByCallsign           string     `json:"logged_by_callsign"`
	TimeOfOccurrence           time.Time  `json:"time_of_occurrence"`
	TimeLogged                 time.Time  `json:"time_logged"`
	Timestamp                  time.Time  `json:"timestamp"`
	EntryType                  string     `json:"entry_type"`
	RetrospectiveJustification string     `json:"retrospective_justification,omitempty"`
	Status                     string     `json:"status"`
	IsClosed                   bool       `json:"is_closed"`
	Type                       string     `json:"type"`
	Category                   string     `json:"category,omitempty"`
	MatchMinute                *int       `json:"match_minute,omitempty"`
	HomeScore                  *int       `json:"home_score,omitempty"`
	AwayScore                  *int       `json:"away_score,omitempty"`
	AmendsID                   *int64     `json:"amends_id,omitempty"`
	Source                     string     `json:"source"`
	LoggedBy                   int64      `json:"logged_by"`
	CreatedAt                  time.Time  `json:"created_at"`
}

// LogNumberSpec carries the caller-derived parts of a log number. The
// sequence itself is allocated inside the insert transaction.
type LogNumberSpec struct {
	Prefix      string
	DateSegment string
	Pad         int
}

type LogFilter struct {
	EventID      int64
	Status       string
	IncidentType string
	Type         string
	OpenOnly     bool
	Limit        int
	Offset       int
}

type LogsStore interface {
	CreateLog(ctx context.Context, log *IncidentLog, number LogNumberSpec) (int64, error)
	GetLog(ctx context.Context, id int64) (*IncidentLog, error)
	GetLogByNumber(ctx context.Context, eventID int64, logNumber string) (*IncidentLog, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]IncidentLog, error)
	// ListMatchLogs returns every match-flow row for the event ordered by
	// time_of_occurrence ascending; score and clock are re-derived from it on
	// every match-flow write.
	ListMatchLogs(ctx context.Context, eventID int64) ([]IncidentLog, error)
	// ListLogsLoggedSince returns rows whose time_logged falls at or after
	// since, newest first. The radio bridge uses it for duplicate suppression.
	ListLogsLoggedSince(ctx context.Context, eventID int64, since time.Time) ([]IncidentLog, error)
}

type logsStore struct {
	db *sql.DB
}

func NewLogsStore(db *sql.DB) LogsStore {
	return &logsStore{db: db}
}

const logColumns = `id, event_id, log_number, occurrence, action_taken, incident_type, priority, location, photo_url,
	callsign_from, callsign_to, logged_by_callsign, time_of_occurrence, time_logged, timestamp,
	entry_type, retrospective_justification, status, is_closed, log_type, category,
	match_minute, home_score, away_score, amends_id, source, logged_by, created_at`

func (s *logsStore) CreateLog(ctx context.Context, log *IncidentLog, number LogNumberSpec) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(log.LogNumber) == "" {
		seq, err := s.nextLogSeqTx(ctx, tx, log.EventID)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		log.LogNumber = buildLogNumber(number, seq)
	}
	now := time.Now().UTC()
	if log.TimeLogged.IsZero() {
		log.TimeLogged = now
	}
	log.Timestamp = log.TimeOfOccurrence
	log.CreatedAt = now
	res, err := tx.ExecContext(ctx, `
		INSERT INTO incident_logs(event_id, log_number, occurrence, action_taken, incident_type, priority, location, photo_url,
			callsign_from, callsign_to, logged_by_callsign, time_of_occurrence, time_logged, timestamp,
			entry_type, retrospective_justification, status, is_closed, log_type, category,
			match_minute, home_score, away_score, amends_id, source, logged_by, created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		log.EventID, log.LogNumber, log.Occurrence, log.ActionTaken, log.IncidentType, log.Priority, log.Location, log.PhotoURL,
		log.CallsignFrom, log.CallsignTo, log.LoggedByCallsign, log.TimeOfOccurrence.UTC(), log.TimeLogged.UTC(), log.Timestamp.UTC(),
		log.EntryType, log.RetrospectiveJustification, log.Status, boolToInt(log.IsClosed), log.Type, log.Category,
		nullableInt(log.MatchMinute), nullableInt(log.HomeScore), nullableInt(log.AwayScore), nullableID(log.AmendsID), log.Source, log.LoggedBy, now)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, _ := res.LastInsertId()
	log.ID = id
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// nextLogSeqTx bumps the per-event counter row atomically so concurrent
// writers can never be handed the same sequence number.
func (s *logsStore) nextLogSeqTx(ctx context.Context, tx *sql.Tx, eventID int64) (int64, error) {
	var seq int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO log_seq_counters(event_id, seq)
		VALUES(?,1)
		ON CONFLICT (event_id)
		DO UPDATE SET seq = log_seq_counters.seq + 1
		RETURNING seq
	`, eventID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func buildLogNumber(number LogNumberSpec, seq int64) string {
	pad := number.Pad
	if pad <= 0 {
		pad = 3
	}
	return fmt.Sprintf("%s-%s-%0*d", number.Prefix, number.DateSegment, pad, seq)
}

func (s *logsStore) GetLog(ctx context.Context, id int64) (*IncidentLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM incident_logs WHERE id=?`, id)
	return scanLog(row)
}

func (s *logsStore) GetLogByNumber(ctx context.Context, eventID int64, logNumber string) (*IncidentLog, error) {
	if strings.TrimSpace(logNumber) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM incident_logs WHERE event_id=? AND log_number=?`,
		eventID, strings.TrimSpace(logNumber))
	return scanLog(row)
}

func (s *logsStore) ListLogs(ctx context.Context, filter LogFilter) ([]IncidentLog, error) {
	var clauses []string
	var args []any
	if filter.EventID > 0 {
		clauses = append(clauses, "event_id=?")
		args = append(args, filter.EventID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.IncidentType != "" {
		clauses = append(clauses, "incident_type=?")
		args = append(args, filter.IncidentType)
	}
	if filter.Type != "" {
		clauses = append(clauses, "log_type=?")
		args = append(args, filter.Type)
	}
	if filter.OpenOnly {
		clauses = append(clauses, "is_closed=0")
	}
	query := `SELECT ` + logColumns + ` FROM incident_logs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY time_of_occurrence DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []IncidentLog
	for rows.Next() {
		log, err := scanLogRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, log)
	}
	return res, rows.Err()
}

func (s *logsStore) ListMatchLogs(ctx context.Context, eventID int64) ([]IncidentLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+` FROM incident_logs
		WHERE event_id=? AND log_type='match_log'
		ORDER BY time_of_occurrence ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []IncidentLog
	for rows.Next() {
		log, err := scanLogRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, log)
	}
	return res, rows.Err()
}

func (s *logsStore) ListLogsLoggedSince(ctx context.Context, eventID int64, since time.Time) ([]IncidentLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+` FROM incident_logs
		WHERE event_id=? AND time_logged >= ?
		ORDER BY time_logged DESC, id DESC`, eventID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []IncidentLog
	for rows.Next() {
		log, err := scanLogRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, log)
	}
	return res, rows.Err()
}

func scanLog(row *sql.Row) (*IncidentLog, error) {
	var l IncidentLog
	var isClosed int
	var matchMinute, homeScore, awayScore sql.NullInt64
	var amendsID sql.NullInt64
	if err := row.Scan(&l.ID, &l.EventID, &l.LogNumber, &l.Occurrence, &l.ActionTaken, &l.IncidentType, &l.Priority, &l.Location, &l.PhotoURL,
		&l.CallsignFrom, &l.CallsignTo, &l.LoggedByCallsign, &l.TimeOfOccurrence, &l.TimeLogged, &l.Timestamp,
		&l.EntryType, &l.RetrospectiveJustification, &l.Status, &isClosed, &l.Type, &l.Category,
		&matchMinute, &homeScore, &awayScore, &amendsID, &l.Source, &l.LoggedBy, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	l.IsClosed = isClosed == 1
	l.MatchMinute = intPtr(matchMinute)
	l.HomeScore = intPtr(homeScore)
	l.AwayScore = intPtr(awayScore)
	l.AmendsID = int64Ptr(amendsID)
	return &l, nil
}

func scanLogRow(rows *sql.Rows) (IncidentLog, error) {
	var l IncidentLog
	var isClosed int
	var matchMinute, homeScore, awayScore sql.NullInt64
	var amendsID sql.NullInt64
	if err := rows.Scan(&l.ID, &l.EventID, &l.LogNumber, &l.Occurrence, &l.ActionTaken, &l.IncidentType, &l.Priority, &l.Location, &l.PhotoURL,
		&l.CallsignFrom, &l.CallsignTo, &l.LoggedByCallsign, &l.TimeOfOccurrence, &l.TimeLogged, &l.Timestamp,
		&l.EntryType, &l.RetrospectiveJustification, &l.Status, &isClosed, &l.Type, &l.Category,
		&matchMinute, &homeScore, &awayScore, &amendsID, &l.Source, &l.LoggedBy, &l.CreatedAt); err != nil {
		return l, err
	}
	l.IsClosed = isClosed == 1
	l.MatchMinute = intPtr(matchMinute)
	l.HomeScore = intPtr(homeScore)
	l.AwayScore = intPtr(awayScore)
	l.AmendsID = int64Ptr(amendsID)
	return l, nil
}
