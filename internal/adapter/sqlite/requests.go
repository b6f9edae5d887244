package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
)

// RequestStore persists debris pickup requests and their update timelines.
type RequestStore struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewRequestStore creates a store over an opened database.
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db, clock: clockwork.NewRealClock()}
}

// Insert saves a new request and returns it with its assigned ID, timestamps,
// and resolved zone name. Status defaults to NEW when unset.
func (s *RequestStore) Insert(ctx context.Context, req domain.DebrisRequest) (domain.DebrisRequest, error) {
	if req.Status == "" {
		req.Status = domain.RequestNew
	}
	now := s.clock.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO debris_requests
			(full_name, address, email, phone, zone_id, status, priority, notes, lat, lng, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.FullName, req.Address, req.Email, req.Phone, req.ZoneID,
		string(req.Status), req.Priority, req.Notes, req.Lat, req.Lng,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return domain.DebrisRequest{}, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.DebrisRequest{}, fmt.Errorf("insert request id: %w", err)
	}
	req.ID = int(id)

	if req.ZoneID != nil {
		if err := s.db.QueryRowContext(ctx,
			`SELECT name FROM zones WHERE id = ?`, *req.ZoneID,
		).Scan(&req.ZoneName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.DebrisRequest{}, fmt.Errorf("zone %d: %w", *req.ZoneID, domain.ErrNotFound)
			}
			return domain.DebrisRequest{}, fmt.Errorf("resolve zone: %w", err)
		}
	}
	return req, nil
}

// Get returns one request by ID with its zone name resolved.
func (s *RequestStore) Get(ctx context.Context, id int) (domain.DebrisRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.full_name, r.address, r.email, r.phone, r.zone_id,
		        COALESCE(z.name, ''), r.status, r.priority, r.notes,
		        r.lat, r.lng, r.created_at, r.updated_at
		 FROM debris_requests r
		 LEFT JOIN zones z ON z.id = r.zone_id
		 WHERE r.id = ?`, id)
	return scanRequest(row)
}

// List returns all requests, newest first.
func (s *RequestStore) List(ctx context.Context) ([]domain.DebrisRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.full_name, r.address, r.email, r.phone, r.zone_id,
		        COALESCE(z.name, ''), r.status, r.priority, r.notes,
		        r.lat, r.lng, r.created_at, r.updated_at
		 FROM debris_requests r
		 LEFT JOIN zones z ON z.id = r.zone_id
		 ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []domain.DebrisRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// UpdateStatus sets a request's status and bumps updated_at.
func (s *RequestStore) UpdateStatus(ctx context.Context, id int, status domain.RequestStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE debris_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a request. Timeline entries cascade.
func (s *RequestStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debris_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertUpdate appends a timeline entry to a request.
func (s *RequestStore) InsertUpdate(ctx context.Context, upd domain.RequestUpdate) (domain.RequestUpdate, error) {
	upd.CreatedAt = s.clock.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO request_updates (request_id, note, created_by, created_at)
		 VALUES (?, ?, ?, ?)`,
		upd.RequestID, upd.Note, upd.CreatedBy, upd.CreatedAt,
	)
	if err != nil {
		return domain.RequestUpdate{}, fmt.Errorf("insert update: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.RequestUpdate{}, fmt.Errorf("insert update id: %w", err)
	}
	upd.ID = int(id)
	return upd, nil
}

// Timeline returns a request's update entries, newest first.
func (s *RequestStore) Timeline(ctx context.Context, requestID int) ([]domain.RequestUpdate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, note, created_by, created_at
		 FROM request_updates
		 WHERE request_id = ?
		 ORDER BY created_at DESC, id DESC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	defer rows.Close()

	var out []domain.RequestUpdate
	for rows.Next() {
		var u domain.RequestUpdate
		if err := rows.Scan(&u.ID, &u.RequestID, &u.Note, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Zones returns all pickup zones.
func (s *RequestStore) Zones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color_hex FROM zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var out []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.ColorHex); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (domain.DebrisRequest, error) {
	var (
		req    domain.DebrisRequest
		status string
	)
	err := row.Scan(
		&req.ID, &req.FullName, &req.Address, &req.Email, &req.Phone,
		&req.ZoneID, &req.ZoneName, &status, &req.Priority, &req.Notes,
		&req.Lat, &req.Lng, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DebrisRequest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DebrisRequest{}, fmt.Errorf("scan request: %w", err)
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}
