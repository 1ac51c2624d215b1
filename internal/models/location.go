package models

import "time"

// Location is a persisted point of interest. Rows carrying an ExternalID are imagery-sourced
// and are also the cache's ImageRecords; the tags are independent of imagery.
type Location struct {
	ID           int64     `json:"id"`
	ExternalID   *string   `json:"external_id,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Hotspot      bool      `json:"hotspot"`
	NearGreenery bool      `json:"near_greenery"`
	Halal        bool      `json:"halal"`
	Crowded      bool      `json:"crowded"`
	CreatedAt    time.Time `json:"created_at"`
}

// LocationTags are the user-maintained flags on a Location.
type LocationTags struct {
	Hotspot      bool `json:"hotspot"`
	NearGreenery bool `json:"near_greenery"`
	Halal        bool `json:"halal"`
	Crowded      bool `json:"crowded"`
}
