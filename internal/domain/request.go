package domain

import "time"

// RequestStatus tracks a debris pickup request through its lifecycle.
type RequestStatus string

const (
	RequestNew       RequestStatus = "NEW"
	RequestScheduled RequestStatus = "SCHEDULED"
	RequestComplete  RequestStatus = "COMPLETE"
)

// ParseRequestStatus maps a free-form value onto a RequestStatus.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestNew, RequestScheduled, RequestComplete:
		return RequestStatus(s), true
	}
	return "", false
}

// Zone is a named pickup service area shown on the map.
type Zone struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
}

// DebrisRequest is a resident's storm debris pickup request.
type DebrisRequest struct {
	ID       int           `json:"id"`
	FullName string        `json:"fullName"`
	Address  string        `json:"address"`
	Email    string        `json:"email,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	ZoneID   *int          `json:"zoneId,omitempty"`
	ZoneName string        `json:"zone,omitempty"`
	Status   RequestStatus `json:"status"`
	Priority int           `json:"priority"`
	Notes    string        `json:"notes,omitempty"`

	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RequestUpdate is one timeline entry on a debris request. Entries belong to
// exactly one request and are deleted with it.
type RequestUpdate struct {
	ID        int       `json:"-"`
	RequestID int       `json:"-"`
	Note      string    `json:"note"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
