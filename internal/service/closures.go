// Package service holds the application logic between the HTTP layer and the
// feed, storage, and messaging adapters.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

// FeedSource is the feed client surface the closure service consumes. In
// production it is the cached NCDOT client.
type FeedSource interface {
	CountyIncidents(ctx context.Context, countyID int) ([]domain.RawIncident, error)
	Counties(ctx context.Context) ([]domain.County, error)
}

// SnapshotReader serves the last stored closure batch for the default county.
type SnapshotReader interface {
	List(ctx context.Context, status domain.Status) ([]domain.RoadClosure, error)
}

// DefaultCountyID is Cumberland County in the NCDOT county directory.
const DefaultCountyID = 26

// Closures serves normalized road closures from the live NCDOT feed, with an
// optional stored-snapshot fallback for the default county.
type Closures struct {
	feed          FeedSource
	snapshot      SnapshotReader
	defaultCounty int
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClosures creates the closure service.
func NewClosures(feed FeedSource, defaultCounty int, logger *slog.Logger, metrics *observability.Metrics) *Closures {
	if defaultCounty == 0 {
		defaultCounty = DefaultCountyID
	}
	return &Closures{
		feed:          feed,
		defaultCounty: defaultCounty,
		logger:        logger,
		metrics:       metrics,
	}
}

// UseSnapshotFallback serves the stored snapshot when the live feed fails.
// The snapshot only ever holds the default county, so other counties still
// surface the feed error.
func (s *Closures) UseSnapshotFallback(reader SnapshotReader) {
	s.snapshot = reader
}

// GetClosures fetches the county's current incidents and returns them as
// normalized closures, most recently updated first. countyName is resolved
// against the county directory and falls back to the default county when blank
// or unresolvable. statusFilter narrows the result when it names a valid
// status and is ignored otherwise.
func (s *Closures) GetClosures(ctx context.Context, countyName, statusFilter string) ([]domain.RoadClosure, error) {
	return s.GetClosuresForCounty(ctx, s.resolveCounty(ctx, countyName), statusFilter)
}

// GetClosuresForCounty is GetClosures with the county directory lookup skipped;
// callers that already know the NCDOT county ID use it directly.
func (s *Closures) GetClosuresForCounty(ctx context.Context, countyID int, statusFilter string) ([]domain.RoadClosure, error) {
	if countyID <= 0 {
		countyID = s.defaultCounty
	}

	incidents, err := s.feed.CountyIncidents(ctx, countyID)
	if err != nil {
		if s.snapshot != nil && countyID == s.defaultCounty {
			return s.serveFromSnapshot(ctx, statusFilter, err)
		}
		return nil, fmt.Errorf("fetch incidents for county %d: %w", countyID, err)
	}

	closures := make([]domain.RoadClosure, 0, len(incidents))
	for _, raw := range incidents {
		closures = append(closures, domain.Normalize(raw))
	}

	if want, ok := domain.ParseStatus(statusFilter); ok {
		filtered := closures[:0]
		for _, c := range closures {
			if c.Status == want {
				filtered = append(filtered, c)
			}
		}
		closures = filtered
	}

	sort.SliceStable(closures, func(i, j int) bool {
		return closures[i].UpdatedAt.After(closures[j].UpdatedAt)
	})

	s.metrics.ClosuresServed.Add(float64(len(closures)))
	return closures, nil
}

// serveFromSnapshot answers a default-county read from the stored snapshot
// after a feed failure. When the snapshot read also fails the original feed
// error wins; it is the one callers can act on.
func (s *Closures) serveFromSnapshot(ctx context.Context, statusFilter string, feedErr error) ([]domain.RoadClosure, error) {
	var status domain.Status
	if want, ok := domain.ParseStatus(statusFilter); ok {
		status = want
	}

	closures, err := s.snapshot.List(ctx, status)
	if err != nil {
		s.logger.Error("snapshot fallback failed", "error", err)
		return nil, fmt.Errorf("fetch incidents for county %d: %w", s.defaultCounty, feedErr)
	}

	s.logger.Warn("live feed unavailable, serving stored snapshot",
		"error", feedErr, "closures", len(closures))
	s.metrics.ClosuresServed.Add(float64(len(closures)))
	return closures, nil
}

// resolveCounty maps a county name onto a directory ID. Lookup failures fall
// back to the default county so the closures endpoint stays available when the
// directory is down.
func (s *Closures) resolveCounty(ctx context.Context, name string) int {
	if strings.TrimSpace(name) == "" {
		return s.defaultCounty
	}

	counties, err := s.feed.Counties(ctx)
	if err != nil {
		s.logger.Warn("county directory lookup failed, using default county",
			"error", err, "county", name, "default", s.defaultCounty)
		return s.defaultCounty
	}

	wanted := normCountyName(name)
	for _, c := range counties {
		if strings.EqualFold(normCountyName(c.Name), wanted) {
			return c.ID
		}
	}
	for _, c := range counties {
		have := normCountyName(c.Name)
		if containsFold(have, wanted) || containsFold(wanted, have) {
			return c.ID
		}
	}

	s.logger.Warn("unknown county, using default",
		"county", name, "default", s.defaultCounty)
	return s.defaultCounty
}

// normCountyName strips a trailing or embedded " County" so "Wake County"
// resolves the same as "Wake".
func normCountyName(s string) string {
	for {
		idx := indexFold(s, " County")
		if idx < 0 {
			return strings.TrimSpace(s)
		}
		s = s[:idx] + s[idx+len(" County"):]
	}
}

func containsFold(s, substr string) bool {
	return indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
