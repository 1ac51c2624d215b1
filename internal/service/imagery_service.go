package service

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"nearby-imagery-api/internal/models"
	"nearby-imagery-api/internal/provider"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DefaultProviderTimeout bounds a single adapter call.
const DefaultProviderTimeout = 5 * time.Second

// randomPool is how many of the closest records GetRandomImage picks from.
const randomPool = 10

// ImageryService fans a query out to every configured provider and merges the results.
type ImageryService struct {
	providers []provider.Provider
	health    *provider.HealthRegistry
	timeout   time.Duration
	limits    QueryLimits
	logger    zerolog.Logger
	intn      func(n int) int
}

// NewImageryService creates the aggregator. health may be nil.
func NewImageryService(providers []provider.Provider, health *provider.HealthRegistry, timeout time.Duration, logger zerolog.Logger) *ImageryService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if health == nil {
		names := make([]string, 0, len(providers))
		for _, p := range providers {
			names = append(names, p.Name())
		}
		health = provider.NewHealthRegistry(names...)
	}

	return &ImageryService{
		providers: providers,
		health:    health,
		timeout:   timeout,
		limits:    DefaultQueryLimits(),
		logger:    logger.With().Str("component", "aggregator").Logger(),
		intn:      rand.IntN,
	}
}

// SetLimits replaces the query limits used to validate radii.
func (s *ImageryService) SetLimits(l QueryLimits) {
	s.limits = l.withDefaults()
}

// GetNearbyImages queries all providers concurrently and returns every successful
// record sorted by distance. A failing provider is logged and skipped; only an
// invalid point is an error.
func (s *ImageryService) GetNearbyImages(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error) {
	if err := ValidatePoint(lat, lon); err != nil {
		return nil, err
	}
	if err := s.limits.ValidateRadius(radiusKm); err != nil {
		return nil, err
	}

	p := pool.NewWithResults[[]models.ImageRecord]()
	for _, prov := range s.providers {
		p.Go(func() []models.ImageRecord {
			return s.fetch(ctx, prov, lat, lon, radiusKm)
		})
	}

	records := []models.ImageRecord{}
	for _, batch := range p.Wait() {
		records = append(records, batch...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DistanceKm < records[j].DistanceKm
	})
	return records, nil
}

func (s *ImageryService) fetch(ctx context.Context, prov provider.Provider, lat, lon, radiusKm float64) []models.ImageRecord {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := prov.FetchNearby(ctx, lat, lon, radiusKm)
	if err != nil {
		s.health.RecordFailure(prov.Name(), err)
		s.logger.Warn().Err(err).Str("provider", prov.Name()).Msg("provider failed, skipping")
		return nil
	}

	s.health.RecordSuccess(prov.Name())
	s.logger.Debug().Str("provider", prov.Name()).Int("records", len(records)).Msg("provider returned")
	return records
}

// GetRandomImage picks uniformly among the closest records. Returns nil when there are none.
func (s *ImageryService) GetRandomImage(ctx context.Context, lat, lon, radiusKm float64) (*models.ImageRecord, error) {
	records, err := s.GetNearbyImages(ctx, lat, lon, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	n := min(randomPool, len(records))
	picked := records[s.intn(n)]
	return &picked, nil
}

// Providers reports the configured adapters and their health.
func (s *ImageryService) Providers() []provider.Health {
	return s.health.Snapshot()
}

