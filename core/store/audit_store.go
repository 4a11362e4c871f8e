package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditStore interface {
	Log(ctx context.Context, actor, action, detail string) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Log(ctx context.Context, actor, action, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log(actor, action, detail, created_at)
		VALUES(?,?,?,?)`,
		strings.TrimSpace(actor), strings.TrimSpace(action), detail, time.Now().UTC())
	return err
}

func (s *auditStore) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	query := `SELECT id, actor, action, detail, created_at FROM audit_log ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
