package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

type fakeFeed struct {
	incidents   map[int][]domain.RawIncident
	counties    []domain.County
	countiesErr error
	feedErr     error

	lastCountyID  int
	countyCalls   int
	directoryHits int
}

func (f *fakeFeed) CountyIncidents(_ context.Context, countyID int) ([]domain.RawIncident, error) {
	f.countyCalls++
	f.lastCountyID = countyID
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return f.incidents[countyID], nil
}

func (f *fakeFeed) Counties(_ context.Context) ([]domain.County, error) {
	f.directoryHits++
	if f.countiesErr != nil {
		return nil, f.countiesErr
	}
	return f.counties, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClosures(feed *fakeFeed) *Closures {
	return NewClosures(feed, DefaultCountyID, testLogger(), observability.NewMetricsForTesting())
}

func TestGetClosures_NormalizesAndSorts(t *testing.T) {
	feed := &fakeFeed{incidents: map[int][]domain.RawIncident{
		DefaultCountyID: {
			{"id": float64(1), "road": "I-95", "condition": "ROAD CLOSED", "lastUpdate": "2026-08-26T10:00:00Z"},
			{"id": float64(2), "road": "NC-24", "condition": "LANE CLOSED", "lastUpdate": "2026-08-26T12:00:00Z"},
			{"id": float64(3), "road": "US-301", "lastUpdate": "2026-08-26T11:00:00Z"},
		},
	}}

	closures, err := newClosures(feed).GetClosures(context.Background(), "", "")
	require.NoError(t, err)

	require.Len(t, closures, 3)
	assert.Equal(t, "NC-24", closures[0].RoadName, "most recently updated first")
	assert.Equal(t, "US-301", closures[1].RoadName)
	assert.Equal(t, "I-95", closures[2].RoadName)
	assert.Equal(t, domain.StatusClosed, closures[2].Status)
	assert.Equal(t, domain.StatusOpen, closures[1].Status)
}

func TestGetClosures_StatusFilter(t *testing.T) {
	feed := &fakeFeed{incidents: map[int][]domain.RawIncident{
		DefaultCountyID: {
			{"id": float64(1), "road": "Main St", "condition": "OPEN"},
			{"id": float64(2), "road": "Oak Ave"},
			{"id": float64(3), "road": "I-95", "condition": "LANE CLOSED"},
		},
	}}
	svc := newClosures(feed)
	ctx := context.Background()

	open, err := svc.GetClosures(ctx, "", "OPEN")
	require.NoError(t, err)
	assert.Len(t, open, 2, "explicit OPEN and defaulted OPEN both match")

	closed, err := svc.GetClosures(ctx, "", "CLOSED")
	require.NoError(t, err)
	assert.Empty(t, closed)

	partial, err := svc.GetClosures(ctx, "", "partial")
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, "I-95", partial[0].RoadName)
}

func TestGetClosures_InvalidFilterIgnored(t *testing.T) {
	feed := &fakeFeed{incidents: map[int][]domain.RawIncident{
		DefaultCountyID: {
			{"id": float64(1), "road": "Main St"},
			{"id": float64(2), "road": "Oak Ave"},
		},
	}}

	closures, err := newClosures(feed).GetClosures(context.Background(), "", "BOGUS")
	require.NoError(t, err)
	assert.Len(t, closures, 2)
}

func TestGetClosures_FeedError(t *testing.T) {
	feed := &fakeFeed{feedErr: errors.New("feed down")}

	_, err := newClosures(feed).GetClosures(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

type fakeSnapshotReader struct {
	closures   []domain.RoadClosure
	err        error
	lastStatus domain.Status
	calls      int
}

func (f *fakeSnapshotReader) List(_ context.Context, status domain.Status) ([]domain.RoadClosure, error) {
	f.calls++
	f.lastStatus = status
	if f.err != nil {
		return nil, f.err
	}
	out := f.closures
	if status != "" {
		out = nil
		for _, c := range f.closures {
			if c.Status == status {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func TestGetClosures_SnapshotFallback(t *testing.T) {
	stored := []domain.RoadClosure{
		{ID: 1, RoadName: "I-95", Status: domain.StatusClosed},
		{ID: 2, RoadName: "NC-24", Status: domain.StatusOpen},
	}

	t.Run("feed failure serves stored snapshot", func(t *testing.T) {
		feed := &fakeFeed{feedErr: errors.New("feed down")}
		reader := &fakeSnapshotReader{closures: stored}
		svc := newClosures(feed)
		svc.UseSnapshotFallback(reader)

		closures, err := svc.GetClosures(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, stored, closures)
	})

	t.Run("status filter reaches the snapshot query", func(t *testing.T) {
		feed := &fakeFeed{feedErr: errors.New("feed down")}
		reader := &fakeSnapshotReader{closures: stored}
		svc := newClosures(feed)
		svc.UseSnapshotFallback(reader)

		closures, err := svc.GetClosures(context.Background(), "", "closed")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosed, reader.lastStatus)
		require.Len(t, closures, 1)
		assert.Equal(t, "I-95", closures[0].RoadName)
	})

	t.Run("healthy feed skips the snapshot", func(t *testing.T) {
		feed := &fakeFeed{incidents: map[int][]domain.RawIncident{
			DefaultCountyID: {{"id": float64(1), "road": "I-95"}},
		}}
		reader := &fakeSnapshotReader{closures: stored}
		svc := newClosures(feed)
		svc.UseSnapshotFallback(reader)

		closures, err := svc.GetClosures(context.Background(), "", "")
		require.NoError(t, err)
		assert.Len(t, closures, 1)
		assert.Zero(t, reader.calls)
	})

	t.Run("other counties still surface the feed error", func(t *testing.T) {
		feed := &fakeFeed{feedErr: errors.New("feed down")}
		reader := &fakeSnapshotReader{closures: stored}
		svc := newClosures(feed)
		svc.UseSnapshotFallback(reader)

		_, err := svc.GetClosuresForCounty(context.Background(), 92, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed down")
		assert.Zero(t, reader.calls)
	})

	t.Run("snapshot failure returns the feed error", func(t *testing.T) {
		feed := &fakeFeed{feedErr: errors.New("feed down")}
		reader := &fakeSnapshotReader{err: errors.New("disk error")}
		svc := newClosures(feed)
		svc.UseSnapshotFallback(reader)

		_, err := svc.GetClosures(context.Background(), "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feed down")
	})
}

func TestResolveCounty(t *testing.T) {
	directory := []domain.County{
		{ID: 26, Name: "Cumberland"},
		{ID: 92, Name: "Wake"},
		{ID: 60, Name: "New Hanover"},
	}

	tests := []struct {
		name   string
		county string
		wantID int
	}{
		{"blank uses default", "", 26},
		{"exact", "Wake", 92},
		{"exact case insensitive", "wake", 92},
		{"strips county suffix", "Wake County", 92},
		{"partial name", "Hanover", 60},
		{"directory name inside query", "New Hanover County NC", 60},
		{"unknown falls back", "Atlantis", 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{counties: directory}
			_, err := newClosures(feed).GetClosures(context.Background(), tt.county, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, feed.lastCountyID)
		})
	}
}

func TestResolveCounty_SkipsDirectoryWhenBlank(t *testing.T) {
	feed := &fakeFeed{}
	_, err := newClosures(feed).GetClosures(context.Background(), "", "")
	require.NoError(t, err)
	assert.Zero(t, feed.directoryHits)
}

func TestResolveCounty_DirectoryErrorFallsBack(t *testing.T) {
	feed := &fakeFeed{countiesErr: errors.New("directory down")}

	_, err := newClosures(feed).GetClosures(context.Background(), "Wake", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCountyID, feed.lastCountyID)
}
