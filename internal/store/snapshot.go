package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a catalog entry for a JPEG written to disk.
type Snapshot struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Path      string    `json:"path"`
	Counter   int       `json:"counter"`
	Faces     int       `json:"faces"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRepository provides catalog operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot record, assigning an ID if it has none.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	var sessionID any
	if snap.SessionID != "" {
		sessionID = snap.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, session_id, path, counter, faces, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, sessionID, snap.Path, snap.Counter, snap.Faces, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, session_id, path, counter, faces, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

// List retrieves the most recent snapshots, newest first. A limit <= 0 returns all.
func (r *SnapshotRepository) List(limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT id, session_id, path, counter, faces, created_at
		 FROM snapshots ORDER BY created_at DESC, counter DESC LIMIT ?`,
		limit,
	)
}

// ListBySession retrieves the snapshots taken during a session in save order.
func (r *SnapshotRepository) ListBySession(sessionID string) ([]*Snapshot, error) {
	return r.query(
		`SELECT id, session_id, path, counter, faces, created_at
		 FROM snapshots WHERE session_id = ? ORDER BY counter`,
		sessionID,
	)
}

// Count returns the number of cataloged snapshots.
func (r *SnapshotRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (r *SnapshotRepository) query(q string, args ...any) ([]*Snapshot, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snaps, nil
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	snap := &Snapshot{}
	var sessionID sql.NullString

	if err := row.Scan(&snap.ID, &sessionID, &snap.Path, &snap.Counter, &snap.Faces, &snap.CreatedAt); err != nil {
		return nil, err
	}
	snap.SessionID = sessionID.String
	return snap, nil
}
