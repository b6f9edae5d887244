package domain

import (
	"strings"
	"time"
)

// Status classifies how passable a road is. The feed never carries these
// values directly; Normalize derives them from lane counts and condition text.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusPartial Status = "PARTIAL"
	StatusClosed  Status = "CLOSED"
)

// ParseStatus maps a free-form filter value onto a Status. The boolean is
// false for anything outside the three canonical values; callers treat that
// as "no filter" rather than an error.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOpen:
		return StatusOpen, true
	case StatusPartial:
		return StatusPartial, true
	case StatusClosed:
		return StatusClosed, true
	}
	return "", false
}

// County is one entry of the NCDOT county directory.
type County struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RawIncident is one undecoded incident record from the NCDOT feed. The feed
// is not contractually stable, so records are kept as a generic JSON tree and
// probed field by field.
type RawIncident map[string]any

// RoadClosure is the canonical, UI-facing view of one incident. It is a
// derived value recomputed on every fetch; identity across fetches comes from
// the upstream ID or, failing that, the synthetic hash ID.
type RoadClosure struct {
	ID        int       `json:"id"`
	RoadName  string    `json:"roadName"`
	Status    Status    `json:"status"`
	Note      *string   `json:"note"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Both set or both nil; the map UI depends on the pairing.
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}
