package cache

import (
	"context"
	"errors"
	"fmt"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"
)

// ErrCacheWrite wraps any failure to persist image records.
var ErrCacheWrite = errors.New("cache write failure")

// Repository is the storage collaborator: a table of rows with numeric latitude and
// longitude columns, range-filterable, and upsert-on-conflict by external id.
type Repository interface {
	FindImagesInBox(ctx context.Context, box geo.BBox) ([]models.ImageRecord, error)
	UpsertImages(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error)
}

// Store is the spatial cache: a bounding-box prequery refined to the exact circle,
// because the storage layer has no geospatial index.
type Store struct {
	repo Repository
}

// NewStore creates a cache store over repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// ReadNearby returns at most limit cached records within radiusKm of the point, closest first.
// Distances are recomputed against this origin; the cache stores positions only.
func (s *Store) ReadNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.ImageRecord, error) {
	box, err := geo.BoundingBox(lat, lon, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	candidates, err := s.repo.FindImagesInBox(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to read bounding box: %w", err)
	}

	records := geo.FilterByDistance(candidates, lat, lon, radiusKm, models.SetDistance)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Upsert writes records keyed on ExternalID. Within one batch the last record for an id wins.
func (s *Store) Upsert(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error) {
	batch := dedupe(records)
	if len(batch) == 0 {
		return []models.ImageRecord{}, nil
	}

	for _, r := range batch {
		if r.ExternalID == "" {
			return nil, fmt.Errorf("cache: record without external id: %w", ErrCacheWrite)
		}
		if !r.Source.Valid() {
			return nil, fmt.Errorf("cache: record %s has unknown source %q: %w", r.ExternalID, r.Source, ErrCacheWrite)
		}
	}

	saved, err := s.repo.UpsertImages(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("cache: %v: %w", err, ErrCacheWrite)
	}

	// Keep the caller's origin-relative distances on the returned rows.
	distances := make(map[string]float64, len(batch))
	for _, r := range batch {
		distances[r.ExternalID] = r.DistanceKm
	}
	for i := range saved {
		saved[i].DistanceKm = distances[saved[i].ExternalID]
	}
	return saved, nil
}

func dedupe(records []models.ImageRecord) []models.ImageRecord {
	index := make(map[string]int, len(records))
	out := make([]models.ImageRecord, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.ExternalID]; ok {
			out[i] = r
			continue
		}
		index[r.ExternalID] = len(out)
		out = append(out, r)
	}
	return out
}
