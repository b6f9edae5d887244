package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

// RequestStore is the persistence surface the request service consumes.
type RequestStore interface {
	Insert(ctx context.Context, req domain.DebrisRequest) (domain.DebrisRequest, error)
	Get(ctx context.Context, id int) (domain.DebrisRequest, error)
	List(ctx context.Context) ([]domain.DebrisRequest, error)
	UpdateStatus(ctx context.Context, id int, status domain.RequestStatus) error
	Delete(ctx context.Context, id int) error
	InsertUpdate(ctx context.Context, upd domain.RequestUpdate) (domain.RequestUpdate, error)
	Timeline(ctx context.Context, requestID int) ([]domain.RequestUpdate, error)
	Zones(ctx context.Context) ([]domain.Zone, error)
}

// Timeline pairs a request with its update history, newest first.
type Timeline struct {
	Request domain.DebrisRequest   `json:"request"`
	Updates []domain.RequestUpdate `json:"updates"`
}

// Requests manages debris pickup requests and their timelines.
type Requests struct {
	store   RequestStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRequests creates the request service.
func NewRequests(store RequestStore, logger *slog.Logger, metrics *observability.Metrics) *Requests {
	return &Requests{store: store, logger: logger, metrics: metrics}
}

// Create validates and saves a new pickup request. FullName and Address are
// required; other fields are optional.
func (s *Requests) Create(ctx context.Context, req domain.DebrisRequest) (domain.DebrisRequest, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.FullName == "" || req.Address == "" {
		return domain.DebrisRequest{}, fmt.Errorf("fullName and address are required: %w", domain.ErrInvalid)
	}

	created, err := s.store.Insert(ctx, req)
	if err != nil {
		return domain.DebrisRequest{}, err
	}

	s.metrics.RequestsCreated.Inc()
	s.logger.Info("debris request created",
		"id", created.ID, "zone", created.ZoneName, "priority", created.Priority)
	return created, nil
}

// Get returns one request.
func (s *Requests) Get(ctx context.Context, id int) (domain.DebrisRequest, error) {
	return s.store.Get(ctx, id)
}

// List returns all requests, newest first.
func (s *Requests) List(ctx context.Context) ([]domain.DebrisRequest, error) {
	return s.store.List(ctx)
}

// GetTimeline returns a request together with its updates.
func (s *Requests) GetTimeline(ctx context.Context, id int) (Timeline, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return Timeline{}, err
	}
	updates, err := s.store.Timeline(ctx, id)
	if err != nil {
		return Timeline{}, err
	}
	return Timeline{Request: req, Updates: updates}, nil
}

// AppendUpdate adds a timeline note to an existing request.
func (s *Requests) AppendUpdate(ctx context.Context, id int, note, createdBy string) (domain.RequestUpdate, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.RequestUpdate{}, fmt.Errorf("note is required: %w", domain.ErrInvalid)
	}

	// Verify the request exists so a typo'd ID fails loudly instead of
	// creating an orphan rejected by the foreign key.
	if _, err := s.store.Get(ctx, id); err != nil {
		return domain.RequestUpdate{}, err
	}

	return s.store.InsertUpdate(ctx, domain.RequestUpdate{
		RequestID: id,
		Note:      note,
		CreatedBy: strings.TrimSpace(createdBy),
	})
}

// SetStatus transitions a request's status and records the change on its
// timeline.
func (s *Requests) SetStatus(ctx context.Context, id int, status, changedBy string) (domain.DebrisRequest, error) {
	parsed, ok := domain.ParseRequestStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return domain.DebrisRequest{}, fmt.Errorf("status must be NEW, SCHEDULED, or COMPLETE: %w", domain.ErrInvalid)
	}

	if err := s.store.UpdateStatus(ctx, id, parsed); err != nil {
		return domain.DebrisRequest{}, err
	}

	if _, err := s.store.InsertUpdate(ctx, domain.RequestUpdate{
		RequestID: id,
		Note:      fmt.Sprintf("Status changed to %s", parsed),
		CreatedBy: strings.TrimSpace(changedBy),
	}); err != nil {
		return domain.DebrisRequest{}, err
	}

	return s.store.Get(ctx, id)
}

// Delete removes a request and its timeline.
func (s *Requests) Delete(ctx context.Context, id int) error {
	return s.store.Delete(ctx, id)
}

// Zones lists the pickup zones.
func (s *Requests) Zones(ctx context.Context) ([]domain.Zone, error) {
	return s.store.Zones(ctx)
}
