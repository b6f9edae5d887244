package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
)

// ClosureStore holds the latest denormalized closure snapshot. The snapshot is
// replaced wholesale on each refresh so readers never see a partial batch.
type ClosureStore struct {
	db *sql.DB
}

// NewClosureStore creates a store over an opened database.
func NewClosureStore(db *sql.DB) *ClosureStore {
	return &ClosureStore{db: db}
}

// ReplaceAll swaps the snapshot for a new batch in one transaction.
func (s *ClosureStore) ReplaceAll(ctx context.Context, closures []domain.RoadClosure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM closure_snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO closure_snapshot (id, road_name, status, note, lat, lng, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			road_name = excluded.road_name,
			status = excluded.status,
			note = excluded.note,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range closures {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.RoadName, string(c.Status), c.Note, c.Lat, c.Lng, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert closure %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// List returns snapshot closures, most recently updated first. A non-empty
// status narrows the result to that status.
func (s *ClosureStore) List(ctx context.Context, status domain.Status) ([]domain.RoadClosure, error) {
	query := `SELECT id, road_name, status, note, lat, lng, updated_at
	          FROM closure_snapshot`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshot: %w", err)
	}
	defer rows.Close()

	var out []domain.RoadClosure
	for rows.Next() {
		var (
			c      domain.RoadClosure
			status string
		)
		if err := rows.Scan(&c.ID, &c.RoadName, &status, &c.Note, &c.Lat, &c.Lng, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan closure: %w", err)
		}
		c.Status = domain.Status(status)
		out = append(out, c)
	}
	return out, rows.Err()
}
