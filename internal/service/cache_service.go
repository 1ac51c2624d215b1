package service

import (
	"context"
	"fmt"

	"nearby-imagery-api/internal/cache"
	"nearby-imagery-api/internal/models"

	"github.com/rs/zerolog"
)

// ImageCache is the spatial cache the read and write paths go through.
type ImageCache interface {
	ReadNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.ImageRecord, error)
	Upsert(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error)
}

// Aggregator produces live imagery for a neighbourhood.
type Aggregator interface {
	GetNearbyImages(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error)
}

// Refresher runs cache refreshes, either detached or awaited.
type Refresher interface {
	Dispatch(q models.NearbyQuery) bool
	Refresh(ctx context.Context, q models.NearbyQuery) ([]models.ImageRecord, error)
}

// NearbyResult is a cache read plus whether a refresh was triggered for it.
type NearbyResult struct {
	Records []models.ImageRecord `json:"data"`
	Count   int                  `json:"count"`
	Stale   bool                 `json:"stale"`
}

// PopulateResult is what a synchronous populate stored.
type PopulateResult struct {
	Records        []models.ImageRecord  `json:"data"`
	Count          int                   `json:"count"`
	CountsBySource map[models.Source]int `json:"sources"`
}

// CacheService holds the imagery cache use cases.
type CacheService struct {
	cache      ImageCache
	aggregator Aggregator
	refresher  Refresher
	freshness  cache.FreshnessPolicy
	limits     QueryLimits
	seed       models.NearbyQuery
	logger     zerolog.Logger
}

// CacheServiceOptions configures a CacheService.
type CacheServiceOptions struct {
	Freshness cache.FreshnessPolicy
	Limits    QueryLimits
	// SeedLatitude and SeedLongitude are the populate origin when a request gives none.
	SeedLatitude  float64
	SeedLongitude float64
}

// NewCacheService wires the cache use cases.
func NewCacheService(c ImageCache, aggregator Aggregator, refresher Refresher, opts CacheServiceOptions, logger zerolog.Logger) *CacheService {
	if opts.Freshness.MaxAge <= 0 {
		opts.Freshness = cache.NewFreshnessPolicy(0)
	}
	limits := opts.Limits.withDefaults()

	return &CacheService{
		cache:      c,
		aggregator: aggregator,
		refresher:  refresher,
		freshness:  opts.Freshness,
		limits:     limits,
		seed: models.NearbyQuery{
			Latitude:  opts.SeedLatitude,
			Longitude: opts.SeedLongitude,
			RadiusKm:  limits.DefaultRadiusKm,
		},
		logger: logger.With().Str("component", "imagery_cache").Logger(),
	}
}

// Limits returns the effective query limits.
func (s *CacheService) Limits() QueryLimits {
	return s.limits
}

// Seed returns the default populate origin.
func (s *CacheService) Seed() models.NearbyQuery {
	return s.seed
}

// NearbyCached reads the cache and, when the neighbourhood is stale, dispatches a
// detached refresh. The response never waits for that refresh.
func (s *CacheService) NearbyCached(ctx context.Context, q models.NearbyQuery) (*NearbyResult, error) {
	q, err := s.limits.Normalize(q)
	if err != nil {
		return nil, err
	}

	records, err := s.cache.ReadNearby(ctx, q.Latitude, q.Longitude, q.RadiusKm, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read cache: %w", err)
	}

	stale := s.freshness.IsStale(records)
	if stale {
		queued := s.refresher.Dispatch(q)
		s.logger.Debug().
			Int("records", len(records)).
			Bool("queued", queued).
			Msg("cache stale, refresh dispatched")
	}

	return &NearbyResult{Records: records, Count: len(records), Stale: stale}, nil
}

// Populate aggregates and persists synchronously. Errors writing the cache are returned.
func (s *CacheService) Populate(ctx context.Context, q models.NearbyQuery) (*PopulateResult, error) {
	q, err := s.limits.Normalize(q)
	if err != nil {
		return nil, err
	}

	records, err := s.aggregator.GetNearbyImages(ctx, q.Latitude, q.Longitude, q.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("service: failed to aggregate imagery: %w", err)
	}

	result := &PopulateResult{
		Records:        []models.ImageRecord{},
		CountsBySource: make(map[models.Source]int),
	}
	for _, r := range records {
		result.CountsBySource[r.Source]++
	}
	if len(records) == 0 {
		s.logger.Info().Float64("latitude", q.Latitude).Float64("longitude", q.Longitude).Msg("no imagery from any provider")
		return result, nil
	}

	saved, err := s.cache.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("service: failed to populate cache: %w", err)
	}

	result.Records = saved
	result.Count = len(saved)
	s.logger.Info().Int("saved", len(saved)).Interface("sources", result.CountsBySource).Msg("cache populated")
	return result, nil
}

// Refresh awaits a refresh of the neighbourhood, then returns the cache contents.
func (s *CacheService) Refresh(ctx context.Context, q models.NearbyQuery) ([]models.ImageRecord, error) {
	q, err := s.limits.Normalize(q)
	if err != nil {
		return nil, err
	}

	if _, err := s.refresher.Refresh(ctx, q); err != nil {
		return nil, fmt.Errorf("service: refresh failed: %w", err)
	}

	records, err := s.cache.ReadNearby(ctx, q.Latitude, q.Longitude, q.RadiusKm, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read cache: %w", err)
	}
	return records, nil
}
