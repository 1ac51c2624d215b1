package models

import "time"

// Source identifies which provider produced an ImageRecord. It is never mutated after creation.
type Source string

const (
	SourceStreetLevel  Source = "street-level"
	SourceSyntheticMap Source = "synthetic-map"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceStreetLevel, SourceSyntheticMap:
		return true
	}
	return false
}

// StreetLevelDetails holds fields only meaningful for real street-level photos.
type StreetLevelDetails struct {
	IsPanoramic bool `json:"is_pano"`
}

// SyntheticMapDetails holds the parameters a synthetic static-map tile was rendered with.
type SyntheticMapDetails struct {
	Style string `json:"style"`
	Zoom  int    `json:"zoom"`
}

// ImageRecord is the cache's unit of truth: one image positioned on the map.
// Exactly one of StreetLevel / SyntheticMap is set, matching Source.
type ImageRecord struct {
	ExternalID   string    `json:"external_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CapturedAt   int64     `json:"captured_at"`
	CompassAngle float64   `json:"compass_angle"`
	ThumbnailURL string    `json:"thumbnail_url"`
	FullImageURL string    `json:"full_image_url"`
	Source       Source    `json:"source"`
	DistanceKm   float64   `json:"distance_km"`
	CachedAt     time.Time `json:"cached_at,omitzero"`

	StreetLevel  *StreetLevelDetails  `json:"street_level,omitempty"`
	SyntheticMap *SyntheticMapDetails `json:"synthetic_map,omitempty"`
}

// Position implements geo.Positioned.
func (r ImageRecord) Position() (float64, float64) {
	return r.Latitude, r.Longitude
}

// IsPanoramic is false for every source other than street-level.
func (r ImageRecord) IsPanoramic() bool {
	return r.StreetLevel != nil && r.StreetLevel.IsPanoramic
}

// SetDistance is the distance setter used with geo.FilterByDistance.
func SetDistance(r *ImageRecord, km float64) {
	r.DistanceKm = km
}

// NearbyQuery is a validated (point, radius, limit) request.
type NearbyQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
	Limit     int     `json:"limit,omitempty"`
}
