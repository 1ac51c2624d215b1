package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nearby-imagery-api/internal/models"
)

const imageColumns = `external_id, latitude, longitude, source, captured_at, compass_angle,
	is_pano, map_style, map_zoom, thumbnail_url, full_image_url, cached_at`

const locationColumns = `id, external_id, latitude, longitude, hotspot, near_greenery, halal, crowded, created_at`

// imagePayloadColumns are the imagery columns written on every upsert, in imagePayload order.
var imagePayloadColumns = []string{
	"source", "captured_at", "compass_angle", "is_pano", "map_style",
	"map_zoom", "thumbnail_url", "full_image_url", "cached_at",
}

// imagePayload flattens the mutable imagery fields of rec. Variant fields that do not
// apply to the record's source are written as NULL.
func imagePayload(rec models.ImageRecord, cachedAt any) []any {
	var (
		isPano any
		style  any
		zoom   any
	)
	if rec.StreetLevel != nil {
		isPano = rec.StreetLevel.IsPanoramic
	}
	if rec.SyntheticMap != nil {
		style = rec.SyntheticMap.Style
		zoom = rec.SyntheticMap.Zoom
	}

	return []any{
		string(rec.Source),
		rec.CapturedAt,
		rec.CompassAngle,
		isPano,
		style,
		zoom,
		rec.ThumbnailURL,
		rec.FullImageURL,
		cachedAt,
	}
}

// lockOrder returns a copy of records sorted by external id. Every upsert locks rows in
// this order, so two concurrent batches over overlapping ids cannot deadlock.
func lockOrder(records []models.ImageRecord) []models.ImageRecord {
	ordered := make([]models.ImageRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExternalID < ordered[j].ExternalID
	})
	return ordered
}

// assignments renders "col = <placeholder>" for the payload columns, numbering from first.
func assignments(placeholder func(n int) string, first int) string {
	parts := make([]string, len(imagePayloadColumns))
	for i, col := range imagePayloadColumns {
		parts[i] = fmt.Sprintf("%s = %s", col, placeholder(first+i))
	}
	return strings.Join(parts, ", ")
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// applyVariant rebuilds the source-specific payload from nullable columns.
func applyVariant(rec *models.ImageRecord, isPano *bool, style *string, zoom *int) {
	switch rec.Source {
	case models.SourceStreetLevel:
		rec.StreetLevel = &models.StreetLevelDetails{}
		if isPano != nil {
			rec.StreetLevel.IsPanoramic = *isPano
		}
	case models.SourceSyntheticMap:
		rec.SyntheticMap = &models.SyntheticMapDetails{}
		if style != nil {
			rec.SyntheticMap.Style = *style
		}
		if zoom != nil {
			rec.SyntheticMap.Zoom = *zoom
		}
	}
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// excludedAssignments renders "col = excluded.col" for the payload columns.
func excludedAssignments() string {
	parts := make([]string, len(imagePayloadColumns))
	for i, col := range imagePayloadColumns {
		parts[i] = fmt.Sprintf("%s = excluded.%s", col, col)
	}
	return strings.Join(parts, ", ")
}
