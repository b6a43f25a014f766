package store

import (
	"database/sql"
	"errors"
	"time"
)

// Stop reasons recorded when a capture session ends.
const (
	StopReasonUser        = "stopped"
	StopReasonQuit        = "quit"
	StopReasonEndOfStream = "end_of_stream"
	StopReasonShutdown    = "shutdown"
)

// Session is one Start/Stop cycle of the capture loop.
type Session struct {
	ID         string     `json:"id"`
	CameraID   int        `json:"camera_id"`
	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
}

// SessionRepository records capture session boundaries.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new open session. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_id, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.CameraID, sess.StartedAt,
	)
	return err
}

// Close marks a session as stopped with the given reason.
func (r *SessionRepository) Close(id, reason string, stoppedAt time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET stopped_at = ?, stop_reason = ? WHERE id = ?`,
		stoppedAt, reason, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, camera_id, started_at, stopped_at, stop_reason
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves the most recent sessions, newest first. A limit <= 0 returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, camera_id, started_at, stopped_at, stop_reason
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var stoppedAt sql.NullTime

	if err := row.Scan(&sess.ID, &sess.CameraID, &sess.StartedAt, &stoppedAt, &sess.StopReason); err != nil {
		return nil, err
	}
	if stoppedAt.Valid {
		t := stoppedAt.Time
		sess.StoppedAt = &t
	}
	return sess, nil
}
