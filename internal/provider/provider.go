package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nearby-imagery-api/internal/models"
)

// ErrProviderUnavailable is returned when an upstream is unreachable, rejects the
// request, or the adapter is missing its credentials.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Provider turns a (lat, lon, radius) query into normalized image records.
// An empty result is not an error.
type Provider interface {
	Name() string
	FetchNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error)
}

// Options carries provider credentials and tuning. An empty access token
// leaves that adapter out of the set entirely.
type Options struct {
	StreetLevel  StreetLevelOptions
	SyntheticMap SyntheticMapOptions
	HTTPClient   *http.Client
}

// NewSet builds the adapters that have credentials configured.
func NewSet(opts Options) []Provider {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var providers []Provider
	if opts.StreetLevel.AccessToken != "" {
		providers = append(providers, NewStreetLevel(opts.StreetLevel, client))
	}
	if opts.SyntheticMap.AccessToken != "" {
		providers = append(providers, NewSyntheticMap(opts.SyntheticMap))
	}
	return providers
}
