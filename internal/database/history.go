package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omriShneor/taskquest/internal/agent"
)

// HistoryEntry is one (input, response) pair. Summary is nil when the run failed
// and Response holds the message that was shown instead.
type HistoryEntry struct {
	ID        int64                  `json:"id"`
	SessionID string                 `json:"session_id"`
	Input     string                 `json:"input"`
	Response  string                 `json:"response"`
	Summary   *agent.WorkflowSummary `json:"summary,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// AppendHistory stores an entry for an existing session
func (d *DB) AppendHistory(sessionID, input, response string, summary *agent.WorkflowSummary) (*HistoryEntry, error) {
	if _, err := d.GetSession(sessionID); err != nil {
		return nil, err
	}

	var summaryJSON sql.NullString
	totalXP := 0
	if summary != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to encode summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(data), Valid: true}
		totalXP = summary.TotalXP
	}

	result, err := d.Exec(`
		INSERT INTO history (session_id, input, response, summary_json, total_xp)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, input, response, summaryJSON, totalXP)
	if err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get history id: %w", err)
	}

	entries, err := d.queryHistory(`WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// ListHistory returns the session's entries, newest first
func (d *DB) ListHistory(sessionID string) ([]HistoryEntry, error) {
	if _, err := d.GetSession(sessionID); err != nil {
		return nil, err
	}
	return d.queryHistory(`WHERE session_id = ? ORDER BY id DESC`, sessionID)
}

// ClearHistory deletes the session's entries and keeps the session
func (d *DB) ClearHistory(sessionID string) error {
	if _, err := d.GetSession(sessionID); err != nil {
		return err
	}
	if _, err := d.Exec(`DELETE FROM history WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// SessionXP sums the XP earned in a session
func (d *DB) SessionXP(sessionID string) (int, error) {
	var total int
	err := d.QueryRow(`SELECT COALESCE(SUM(total_xp), 0) FROM history WHERE session_id = ?`, sessionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum session xp: %w", err)
	}
	return total, nil
}

func (d *DB) queryHistory(where string, args ...any) ([]HistoryEntry, error) {
	rows, err := d.Query(`
		SELECT id, session_id, input, response, summary_json, created_at
		FROM history `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e           HistoryEntry
			summaryJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Input, &e.Response, &summaryJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if summaryJSON.Valid {
			var summary agent.WorkflowSummary
			if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
				return nil, fmt.Errorf("failed to decode summary: %w", err)
			}
			e.Summary = &summary
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
