package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type RadioMessage struct {
	ID         int64      `json:"id"`
	EventID    int64      `json:"event_id"`
	Callsign   string     `json:"callsign,omitempty"`
	Channel    string     `json:"channel,omitempty"`
	Message    string     `json:"message"`
	Analyzed   bool       `json:"analyzed"`
	Category   string     `json:"category,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	IncidentID *int64     `json:"incident_id,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}

type RadioStore interface {
	CreateMessage(ctx context.Context, msg *RadioMessage) (int64, error)
	GetMessage(ctx context.Context, id int64) (*RadioMessage, error)
	ListMessages(ctx context.Context, eventID int64, limit int) ([]RadioMessage, error)
	SetAnalysis(ctx context.Context, id int64, category, priority string, at time.Time) error
	LinkIncident(ctx context.Context, id, incidentID int64, category string) error
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type radioStore struct {
	db *sql.DB
}

func NewRadioStore(db *sql.DB) RadioStore {
	return &radioStore{db: db}
}

func (s *radioStore) CreateMessage(ctx context.Context, msg *RadioMessage) (int64, error) {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO radio_messages(event_id, callsign, channel, message, analyzed, category, priority, incident_id, received_at, analyzed_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		msg.EventID, strings.TrimSpace(msg.Callsign), strings.TrimSpace(msg.Channel), msg.Message,
		boolToInt(msg.Analyzed), msg.Category, msg.Priority, nullableID(msg.IncidentID), msg.ReceivedAt.UTC(), nullableTime(msg.AnalyzedAt))
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	msg.ID = id
	return id, nil
}

func (s *radioStore) GetMessage(ctx context.Context, id int64) (*RadioMessage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, callsign, channel, message, analyzed, category, priority, incident_id, received_at, analyzed_at
		FROM radio_messages WHERE id=?`, id)
	var m RadioMessage
	var analyzed int
	var incidentID sql.NullInt64
	var analyzedAt sql.NullTime
	if err := row.Scan(&m.ID, &m.EventID, &m.Callsign, &m.Channel, &m.Message, &analyzed, &m.Category, &m.Priority, &incidentID, &m.ReceivedAt, &analyzedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Analyzed = analyzed == 1
	m.IncidentID = int64Ptr(incidentID)
	m.AnalyzedAt = timePtr(analyzedAt)
	return &m, nil
}

func (s *radioStore) ListMessages(ctx context.Context, eventID int64, limit int) ([]RadioMessage, error) {
	query := `
		SELECT id, event_id, callsign, channel, message, analyzed, category, priority, incident_id, received_at, analyzed_at
		FROM radio_messages WHERE event_id=? ORDER BY received_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RadioMessage
	for rows.Next() {
		var m RadioMessage
		var analyzed int
		var incidentID sql.NullInt64
		var analyzedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.EventID, &m.Callsign, &m.Channel, &m.Message, &analyzed, &m.Category, &m.Priority, &incidentID, &m.ReceivedAt, &analyzedAt); err != nil {
			return nil, err
		}
		m.Analyzed = analyzed == 1
		m.IncidentID = int64Ptr(incidentID)
		m.AnalyzedAt = timePtr(analyzedAt)
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s *radioStore) SetAnalysis(ctx context.Context, id int64, category, priority string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE radio_messages SET analyzed=1, category=?, priority=?, analyzed_at=? WHERE id=?`,
		category, priority, at.UTC(), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *radioStore) LinkIncident(ctx context.Context, id, incidentID int64, category string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE radio_messages SET incident_id=?, category=? WHERE id=?`,
		incidentID, category, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *radioStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM radio_messages WHERE received_at < ? AND incident_id IS NULL`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
