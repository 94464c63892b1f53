// Package idstore persists the per-project, per-format-family mapping from
// object guid to exported uniqueId, together with the export history.
package idstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// Assignment is one persisted guid→uniqueId row.
type Assignment struct {
	ObjectType string
	ObjectGUID string
	UniqueID   int64
}

// State is everything stored for one (project, family) scope. NextID is a
// high-water mark kept separately from the rows so that uniqueIds of removed
// objects are never handed out again.
type State struct {
	Assignments []Assignment
	NextID      int64
}

// ExportRecord is one line of export history.
type ExportRecord struct {
	ID         int64
	ProjectID  string
	Family     string
	ExportedAt time.Time
	ByteCount  int64
	NodeCount  int64
}

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Load returns the stored state for the scope. An empty scope yields a fresh
// state with NextID 1 and no error.
func (s *Store) Load(ctx context.Context, projectID, family string) (State, error) {
	st := State{NextID: 1}

	err := s.DB.QueryRowContext(ctx,
		`SELECT next_id FROM id_sequences WHERE project_id=? AND family=?`,
		projectID, family).Scan(&st.NextID)
	if err != nil && err != sql.ErrNoRows {
		return State{}, fmt.Errorf("load sequence: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT object_type, object_guid, unique_id
		   FROM external_ids
		  WHERE project_id=? AND family=?
		  ORDER BY unique_id`,
		projectID, family)
	if err != nil {
		return State{}, fmt.Errorf("load assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ObjectType, &a.ObjectGUID, &a.UniqueID); err != nil {
			return State{}, fmt.Errorf("scan assignment: %w", err)
		}
		st.Assignments = append(st.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("load assignments: %w", err)
	}
	return st, nil
}

// Replace swaps the scope's rows for the given set, advances the high-water
// sequence, and appends an export-history record, all in one transaction.
// Rows for objects absent from the new set are dropped; their uniqueIds stay
// burned via the sequence.
func (s *Store) Replace(ctx context.Context, projectID, family string, assignments []Assignment, nextID int64, rec ExportRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM external_ids WHERE project_id=? AND family=?`,
		projectID, family); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO external_ids(project_id, family, object_type, object_guid, unique_id)
			 VALUES (?,?,?,?,?)`,
			projectID, family, a.ObjectType, a.ObjectGUID, a.UniqueID); err != nil {
			return fmt.Errorf("insert assignment %s: %w", a.ObjectGUID, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO id_sequences(project_id, family, next_id) VALUES (?,?,?)
		 ON CONFLICT(project_id, family) DO UPDATE SET next_id=MAX(next_id, excluded.next_id)`,
		projectID, family, nextID); err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exports(project_id, family, exported_at, byte_count, node_count)
		 VALUES (?,?,?,?,?)`,
		projectID, family, rec.ExportedAt.UTC().Format(time.RFC3339), rec.ByteCount, rec.NodeCount); err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return tx.Commit()
}

// Reset drops all assignments and the sequence for the scope. The next
// export starts a fresh identifier space.
func (s *Store) Reset(ctx context.Context, projectID, family string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM external_ids WHERE project_id=? AND family=?`,
		projectID, family); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM id_sequences WHERE project_id=? AND family=?`,
		projectID, family); err != nil {
		return fmt.Errorf("clear sequence: %w", err)
	}
	return tx.Commit()
}

// History lists export records for a project, newest first. projectID ""
// lists everything.
func (s *Store) History(ctx context.Context, projectID string) ([]ExportRecord, error) {
	query := `SELECT id, project_id, family, exported_at, byte_count, node_count
	            FROM exports ORDER BY id DESC`
	args := []any{}
	if projectID != "" {
		query = `SELECT id, project_id, family, exported_at, byte_count, node_count
		           FROM exports WHERE project_id=? ORDER BY id DESC`
		args = append(args, projectID)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var r ExportRecord
		var at string
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Family, &at, &r.ByteCount, &r.NodeCount); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		r.ExportedAt, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, fmt.Errorf("parse export time: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
