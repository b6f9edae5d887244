package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
)

// Key alias sets observed across feed generations. Order matters: within each
// set the first non-blank value wins, which keeps extraction deterministic.
var (
	idKeys          = []string{"id", "incidentId", "OBJECTID"}
	roadKeys        = []string{"road", "roadName", "ROUTE_NAME", "ROUTE", "street", "streetName", "STREET", "STREET_NM", "roadway", "name"}
	routeKeys       = []string{"primaryRoute", "routeName", "route"}
	headlineKeys    = []string{"headline", "title"}
	descriptionKeys = []string{"description", "desc", "details", "detail", "message", "COMMENTS", "comments", "shortDescription"}
	crossStreetKeys = []string{"commonName", "CROSS_STREET", "crossStreetCommonName"}
	conditionKeys   = []string{"condition", "STATE", "status", "impact"}
	lanesClosedKeys = []string{"lanesClosed", "numLanesClosed"}
	lanesTotalKeys  = []string{"lanesTotal", "numLanes"}
	updatedKeys     = []string{"lastUpdate", "updatedAt", "last_updated", "UPDATED", "update_time", "lastUpdateTime"}
	typeKeys        = []string{"incidentType", "incidentTypeDesc", "eventType", "eventTypeDesc", "type", "category"}
	directionKeys   = []string{"direction", "dir", "directionOfTravel", "DIRECTION"}
	locationKeys    = []string{"location", "LOC_DESC"}
	scheduleKeys    = []string{"constructionDateTime", "workSchedule"}
	detourKeys      = []string{"detour", "detourDescription"}

	latKeys = []string{"latitude", "lat", "LAT", "y"}
	lngKeys = []string{"longitude", "lng", "lon", "long", "LON", "x"}

	// Highway prefixes recognized by the route-token scanner.
	routeTokens = []string{"I-", "US-", "NC-", "SR ", "NC HWY", "US HWY"}

	timeLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

const unknownRoad = "Unknown Road"

// Normalize maps one raw feed record onto the canonical RoadClosure. It is
// total over well-formed JSON: absent or malformed fields degrade to defaults
// instead of failing, so one bad record never aborts a batch. Apart from the
// updated-at fallback to the current clock, output depends only on the input.
func Normalize(raw RawIncident) RoadClosure {
	attrs := attributes(raw)

	lat, lng := extractCoordinates(raw, attrs)

	road := firstString(attrs, roadKeys)
	primaryRoute := firstString(attrs, routeKeys)
	headline := firstString(attrs, headlineKeys)
	description := firstString(attrs, descriptionKeys)
	crossStreet := firstString(attrs, crossStreetKeys)
	name := bestRoadName(road, primaryRoute, headline, description, crossStreet, lat, lng)

	condition := firstString(attrs, conditionKeys)
	lanesClosed := firstInt(attrs, lanesClosedKeys)
	lanesTotal := firstInt(attrs, lanesTotalKeys)
	status := deriveStatus(condition, lanesClosed, lanesTotal, description)

	incidentType := firstString(attrs, typeKeys)
	direction := firstString(attrs, directionKeys)
	location := firstString(attrs, locationKeys)
	schedule := firstString(attrs, scheduleKeys)
	detour := firstString(attrs, detourKeys)
	note := composeNote(incidentType, direction, lanesClosed, description, location, schedule, detour)

	updated := firstTime(attrs, updatedKeys)
	if updated.IsZero() {
		updated = clock.Now().UTC()
	}

	id := 0
	if v := firstInt(attrs, idKeys); v != nil {
		id = *v
	}
	if id == 0 {
		id = syntheticID(name, lat, lng)
	}

	return RoadClosure{
		ID:        id,
		RoadName:  name,
		Status:    status,
		Note:      note,
		UpdatedAt: updated,
		Lat:       lat,
		Lng:       lng,
	}
}

// attributes returns the object actually holding the record's fields: some
// feed variants nest everything one level under "attributes".
func attributes(raw RawIncident) map[string]any {
	if a, ok := raw["attributes"].(map[string]any); ok {
		return a
	}
	return raw
}

// firstString returns the first non-blank string found under the given keys.
// Numeric values are rendered as strings; labels are occasionally numbers in
// older feed records.
func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstInt returns the first value under the given keys that parses as an
// integer, or nil when none does. Fractional numbers are not integers; they
// fall through to the next key.
func firstInt(obj map[string]any, keys []string) *int {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			if v != math.Trunc(v) {
				continue
			}
			n := int(v)
			return &n
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstFloat returns the first value under the given keys that parses as a
// float, or nil when none does.
func firstFloat(obj map[string]any, keys []string) *float64 {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			f := v
			return &f
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstTime returns the first parseable timestamp under the given keys, in
// UTC, or the zero time when none parses. Zone-less layouts are read as UTC.
func firstTime(obj map[string]any, keys []string) time.Time {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
		case float64:
			return epochToTime(int64(v))
		}
	}
	return time.Time{}
}

// epochToTime disambiguates epoch seconds from milliseconds by magnitude:
// values above 10,000,000,000 (year 2286 in seconds) are milliseconds.
func epochToTime(v int64) time.Time {
	if v > 10_000_000_000 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// extractCoordinates probes every known coordinate placement in a fixed
// order: flat lat/lng aliases, the geometry object, then the location and
// point fields in any of their encodings. The result is all-or-nothing: a
// record resolving only one axis, or an out-of-range pair, yields neither.
func extractCoordinates(raw RawIncident, attrs map[string]any) (*float64, *float64) {
	lat := firstFloat(attrs, latKeys)
	lng := firstFloat(attrs, lngKeys)

	if lat == nil || lng == nil {
		if geom := objectField(raw, attrs, "geometry"); geom != nil {
			if lat == nil {
				lat = firstFloat(geom, []string{"y", "lat", "latitude", "LAT"})
			}
			if lng == nil {
				lng = firstFloat(geom, []string{"x", "lng", "lon", "long", "longitude", "LON"})
			}
		}
	}

	if lat == nil || lng == nil {
		for _, key := range []string{"location", "point"} {
			if la, lg, ok := parseCoordinateValue(attrs[key]); ok {
				lat, lng = &la, &lg
				break
			}
		}
	}

	if lat == nil || lng == nil || !s2.LatLngFromDegrees(*lat, *lng).IsValid() {
		return nil, nil
	}
	return lat, lng
}

// objectField looks a key up at the record root first, then among the
// attributes; geometry sits beside "attributes" in ArcGIS-style records.
func objectField(raw RawIncident, attrs map[string]any, key string) map[string]any {
	if o, ok := raw[key].(map[string]any); ok {
		return o
	}
	if o, ok := attrs[key].(map[string]any); ok {
		return o
	}
	return nil
}

// parseCoordinateValue accepts the three whole-pair encodings: an object with
// axis aliases, a two-element array, or a delimited string.
func parseCoordinateValue(v any) (lat, lng float64, ok bool) {
	switch t := v.(type) {
	case map[string]any:
		la := firstFloat(t, []string{"lat", "latitude", "y"})
		lg := firstFloat(t, []string{"lng", "lon", "long", "longitude", "x"})
		if la != nil && lg != nil {
			return *la, *lg, true
		}
		if coords, isArr := t["coordinates"].([]any); isArr {
			return coordinatePair(coords)
		}
	case []any:
		return coordinatePair(t)
	case string:
		sep := ","
		if strings.Contains(t, ";") {
			sep = ";"
		}
		parts := strings.Split(t, sep)
		if len(parts) < 2 {
			return 0, 0, false
		}
		la, errLa := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lg, errLg := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLa == nil && errLg == nil {
			return la, lg, true
		}
	}
	return 0, 0, false
}

// coordinatePair reads a two-element numeric array. Axis order is resolved by
// valid coordinate range, preferring the GeoJSON lng-first reading when both
// orders are plausible (NCDOT array pairs are GeoJSON exports in practice).
func coordinatePair(arr []any) (lat, lng float64, ok bool) {
	if len(arr) < 2 {
		return 0, 0, false
	}
	n0, ok0 := arr[0].(float64)
	n1, ok1 := arr[1].(float64)
	if !ok0 || !ok1 {
		return 0, 0, false
	}
	if s2.LatLngFromDegrees(n1, n0).IsValid() {
		return n1, n0, true
	}
	if s2.LatLngFromDegrees(n0, n1).IsValid() {
		return n0, n1, true
	}
	return 0, 0, false
}

// bestRoadName walks the display-name fallback chain; it always returns a
// non-empty string.
func bestRoadName(road, primaryRoute, headline, description, crossStreet string, lat, lng *float64) string {
	for _, s := range []string{road, primaryRoute, headline, description, crossStreet} {
		if s != "" {
			return s
		}
	}

	text := headline
	if text == "" {
		text = description
	}
	if token := extractRouteToken(text); token != "" {
		return token
	}

	if lat != nil && lng != nil {
		return fmt.Sprintf("(%.4f, %.4f)", *lat, *lng)
	}
	return unknownRoad
}

// extractRouteToken scans free text for a recognized highway prefix and
// returns the contiguous token from the prefix up to the next whitespace,
// comma, or semicolon, uppercased. Prefixes that themselves contain a space
// ("SR ", "NC HWY") keep scanning from the end of the prefix.
func extractRouteToken(text string) string {
	upper := strings.ToUpper(text)
	for _, token := range routeTokens {
		idx := strings.Index(upper, token)
		if idx < 0 {
			continue
		}
		end := idx + len(token)
		// "NC HWY"/"US HWY" are followed by a space before the number.
		if end < len(text) && text[end] == ' ' && !strings.HasSuffix(token, " ") {
			end++
		}
		for end < len(text) && !isTokenBoundary(text[end]) {
			end++
		}
		cand := strings.TrimSpace(text[idx:end])
		if len(cand) > len(token) {
			return strings.ToUpper(cand)
		}
	}
	return ""
}

func isTokenBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == ';'
}

// deriveStatus resolves the closure status from whatever signals the record
// carries. Precedence is fixed: lane counts, then the condition string, then
// the free-text description, then a bare lanes-closed count; anything else is
// OPEN. All matching is case-insensitive.
func deriveStatus(condition string, lanesClosed, lanesTotal *int, description string) Status {
	if lanesTotal != nil && *lanesTotal > 0 && lanesClosed != nil && *lanesClosed >= 0 && *lanesClosed >= *lanesTotal {
		return StatusClosed
	}

	cond := strings.ToUpper(condition)
	switch {
	case strings.Contains(cond, "ROAD CLOSED"):
		return StatusClosed
	case strings.Contains(cond, "LANE CLOSED"):
		return StatusPartial
	case strings.Contains(cond, "CLOSED"):
		return StatusPartial
	}

	reason := strings.ToUpper(description)
	if strings.Contains(reason, "LANE") && strings.Contains(reason, "CLOSED") {
		return StatusPartial
	}
	if strings.Contains(reason, "ROAD") && strings.Contains(reason, "CLOSED") {
		return StatusClosed
	}

	if lanesClosed != nil && *lanesClosed > 0 {
		return StatusPartial
	}
	return StatusOpen
}

// composeNote assembles the human-readable summary: a header from incident
// type, canonical direction, and lane count, then a body from description,
// location, work schedule, and detour. Returns nil when nothing is available,
// never an empty string.
func composeNote(incidentType, direction string, lanesClosed *int, description, location, schedule, detour string) *string {
	var headerParts []string
	if incidentType != "" {
		headerParts = append(headerParts, incidentType)
	}
	if d := canonicalDirection(direction); d != "" {
		headerParts = append(headerParts, d)
	}
	if l := lanesLabel(lanesClosed); l != "" {
		headerParts = append(headerParts, l)
	}
	header := strings.Join(headerParts, " — ")

	var bodyParts []string
	if description != "" {
		bodyParts = append(bodyParts, description)
	}
	if location != "" && !containsFold(description, location) {
		bodyParts = append(bodyParts, location)
	}
	if schedule != "" {
		bodyParts = append(bodyParts, "Work hours: "+schedule)
	}
	if detour != "" {
		bodyParts = append(bodyParts, "Detour: "+detour)
	}
	body := strings.Join(bodyParts, " ")

	var note string
	switch {
	case header == "" && body == "":
		return nil
	case header == "":
		note = body
	case body == "":
		note = header
	default:
		note = header + ". " + body
	}
	return &note
}

// canonicalDirection folds the feed's direction spellings onto a small
// canonical set; unrecognized tokens pass through uppercased.
func canonicalDirection(d string) string {
	t := strings.ToUpper(strings.TrimSpace(d))
	switch t {
	case "":
		return ""
	case "A", "ALL", "ALL DIRECTIONS":
		return "All directions"
	case "N", "NB", "NORTH", "NORTHBOUND":
		return "NB"
	case "S", "SB", "SOUTH", "SOUTHBOUND":
		return "SB"
	case "E", "EB", "EAST", "EASTBOUND":
		return "EB"
	case "W", "WB", "WEST", "WESTBOUND":
		return "WB"
	case "O", "OUTER", "OUTER LOOP":
		return "Outer Loop"
	case "I", "INNER", "INNER LOOP":
		return "Inner Loop"
	default:
		return t
	}
}

func lanesLabel(n *int) string {
	if n == nil || *n <= 0 {
		return ""
	}
	if *n == 1 {
		return "1 lane closed"
	}
	return fmt.Sprintf("%d lanes closed", *n)
}

func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(haystack), strings.ToUpper(needle))
}

// syntheticID hashes road name and coordinates into a stable positive int so
// re-fetching the same logical incident without an upstream ID yields the
// same ID. The 32-bit h=h*31+ch hash is kept bit-compatible with earlier
// deployments whose UIs persisted the IDs.
func syntheticID(roadName string, lat, lng *float64) int {
	s := roadName + "|" + coordKey(lat) + "|" + coordKey(lng)
	var h int32 = 23
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return int(absInt32(h))
}

// absInt32 folds a hash onto the non-negative range. -MinInt32 overflows back
// to MinInt32, so that one value clamps to 0, the same result as masking off
// the sign bit.
func absInt32(h int32) int32 {
	if h == math.MinInt32 {
		return 0
	}
	if h < 0 {
		return -h
	}
	return h
}

func coordKey(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
