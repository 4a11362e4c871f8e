package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PositionAssignment binds a user to a radio callsign for one event. The
// logbook resolves logged_by_callsign through it.
type PositionAssignment struct {
	ID       int64  `json:"id"`
	EventID  int64  `json:"event_id"`
	UserID   int64  `json:"user_id"`
	Callsign string `json:"callsign"`
	Position string `json:"position,omitempty"`
	Active   bool   `json:"active"`
}

type UsersStore interface {
	CreateUser(ctx context.Context, u *User) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) error

	AssignPosition(ctx context.Context, pa *PositionAssignment) (int64, error)
	ActiveAssignment(ctx context.Context, userID, eventID int64) (*PositionAssignment, error)
	ReleasePosition(ctx context.Context, id int64) error
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

func (s *usersStore) CreateUser(ctx context.Context, u *User) (int64, error) {
	if strings.TrimSpace(u.Role) == "" {
		u.Role = "steward"
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(username, password_hash, first_name, last_name, role, active, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(u.Username), u.PasswordHash, strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName), u.Role, boolToInt(true), now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	u.Active = true
	u.CreatedAt = now
	u.UpdatedAt = now
	return id, nil
}

func (s *usersStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, first_name, last_name, role, active, last_login_at, created_at, updated_at
		FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, first_name, last_name, role, active, last_login_at, created_at, updated_at
		FROM users WHERE username=?`, strings.TrimSpace(username))
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var active int
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &active, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Active = active == 1
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

func (s *usersStore) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=?, updated_at=? WHERE id=?`, at.UTC(), time.Now().UTC(), id)
	return err
}

func (s *usersStore) AssignPosition(ctx context.Context, pa *PositionAssignment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO position_assignments(event_id, user_id, callsign, position, active)
		VALUES(?,?,?,?,1)`,
		pa.EventID, pa.UserID, strings.TrimSpace(pa.Callsign), strings.TrimSpace(pa.Position))
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	pa.ID = id
	pa.Active = true
	return id, nil
}

func (s *usersStore) ActiveAssignment(ctx context.Context, userID, eventID int64) (*PositionAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, callsign, position, active
		FROM position_assignments
		WHERE user_id=? AND event_id=? AND active=1
		ORDER BY id DESC LIMIT 1`, userID, eventID)
	var pa PositionAssignment
	var active int
	if err := row.Scan(&pa.ID, &pa.EventID, &pa.UserID, &pa.Callsign, &pa.Position, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	pa.Active = active == 1
	return &pa, nil
}

func (s *usersStore) ReleasePosition(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE position_assignments SET active=0 WHERE id=?`, id)
	return err
}
