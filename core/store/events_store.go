package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue,omitempty"`
	EventDate time.Time `json:"event_date"`
	Status    string    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventsStore interface {
	CreateEvent(ctx context.Context, ev *Event) (int64, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context, activeOnly bool) ([]Event, error)
}

type eventsStore struct {
	db *sql.DB
}

func NewEventsStore(db *sql.DB) EventsStore {
	return &eventsStore{db: db}
}

func (s *eventsStore) CreateEvent(ctx context.Context, ev *Event) (int64, error) {
	if strings.TrimSpace(ev.Status) == "" {
		ev.Status = "active"
	}
	if ev.EventDate.IsZero() {
		ev.EventDate = time.Now().UTC()
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events(name, venue, event_date, status, created_by, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?)`,
		strings.TrimSpace(ev.Name), strings.TrimSpace(ev.Venue), ev.EventDate.UTC(), ev.Status, ev.CreatedBy, now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	ev.ID = id
	ev.CreatedAt = now
	ev.UpdatedAt = now
	return id, nil
}

func (s *eventsStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, venue, event_date, status, created_by, created_at, updated_at
		FROM events WHERE id=?`, id)
	var ev Event
	if err := row.Scan(&ev.ID, &ev.Name, &ev.Venue, &ev.EventDate, &ev.Status, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (s *eventsStore) ListEvents(ctx context.Context, activeOnly bool) ([]Event, error) {
	query := `SELECT id, name, venue, event_date, status, created_by, created_at, updated_at FROM events`
	if activeOnly {
		query += ` WHERE status='active'`
	}
	query += ` ORDER BY event_date DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Venue, &ev.EventDate, &ev.Status, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}
