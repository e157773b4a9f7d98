package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Roles a turn can have.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session's history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserTurn and AssistantTurn are shorthands for building history.
func UserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// AppendTurns adds turns to the end of a session's history in one
// transaction.
func (db *DB) AppendTurns(sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	for _, t := range turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("invalid role %q", t.Role)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(`SELECT turn_count FROM sessions WHERE session_id = ?`, sessionID).Scan(&next)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("get turn count: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, t := range turns {
		if _, err := tx.Exec(`
			INSERT INTO turns (session_id, seq, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, next, t.Role, t.Content, now); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		next++
	}

	if _, err := tx.Exec(`
		UPDATE sessions SET turn_count = ?, updated_at = ? WHERE session_id = ?
	`, next, now, sessionID); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return tx.Commit()
}

// GetTurns returns a session's history in order. A session with no turns
// yields an empty slice; an unknown session yields ErrSessionNotFound.
func (db *DB) GetTurns(sessionID string) ([]Turn, error) {
	s, err := db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	rows, err := db.Query(`
		SELECT role, content FROM turns WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ResetTurns clears a session's history but keeps the session.
func (db *DB) ResetTurns(sessionID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE sessions SET turn_count = 0, updated_at = ? WHERE session_id = ?
	`, time.Now().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if _, err := tx.Exec(`DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	return tx.Commit()
}
