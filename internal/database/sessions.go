package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one chat session of the front-end
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession starts a new session with a random id
func (d *DB) CreateSession() (*Session, error) {
	id := uuid.NewString()
	if _, err := d.Exec(`INSERT INTO sessions (id) VALUES (?)`, id); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return d.GetSession(id)
}

// GetSession returns ErrNotFound if the session does not exist
func (d *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := d.QueryRow(`SELECT id, created_at FROM sessions WHERE id = ?`, id).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes the session and, through the foreign key, its history
func (d *DB) DeleteSession(id string) error {
	result, err := d.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
