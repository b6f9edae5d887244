// Package domain models NCDOT traffic incident data and the debris pickup
// requests built on top of it.
//
// # Data Source
//
// Incidents come from the NCDOT traffic feed at
// https://eapps.ncdot.gov/services/traffic-prod/v1/, scoped per county
// (counties/{id}/incidents?verbose=true&recent=true). The feed is not
// contractually stable: the same conceptual field shows up under different
// names, at different nesting depths, and with different encodings depending
// on the age and origin of the record.
//
// # Feed Variants
//
// Field placement:
//
//	Fields appear either at the record root or nested one level under an
//	"attributes" key (ArcGIS-style exports). Coordinates may additionally sit
//	under a sibling "geometry" object.
//
// Coordinate encodings, in probe order:
//
//	flat fields:  latitude/lat/LAT/y and longitude/lng/lon/long/LON/x
//	geometry:     {y: .., x: ..} with the same aliases
//	location/point, each of which may be
//	  - an object using the axis aliases above, or a GeoJSON-style
//	    {coordinates: [lng, lat]}
//	  - a two-element array, axis order resolved by valid coordinate range
//	    (GeoJSON lng-first preferred when both orders are plausible)
//	  - a string "lat,lng" or "lat;lng"
//
//	A record resolving only one axis is treated as having no coordinates at
//	all; consumers rely on the pair being all-or-nothing.
//
// Timestamps:
//
//	RFC 3339 strings, zone-less "2006-01-02 15:04:05" strings (assumed UTC),
//	or numeric epochs. Epoch values above 10,000,000,000 are milliseconds,
//	anything lower is seconds.
//
// Status signals:
//
//	There is no reliable status field. Status is derived from lane counts
//	(lanesClosed/lanesTotal), condition/state strings ("ROAD CLOSED",
//	"LANE CLOSED", ...), and free-text descriptions. See [Normalize].
//
// # ID Generation
//
// When a record carries no usable identifier, a synthetic one is hashed from
// road name and coordinates so the same logical incident keeps the same ID
// across fetches. See [syntheticID].
package domain
