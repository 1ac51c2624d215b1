package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"

	"github.com/paulmach/orb"
)

const (
	syntheticMapName   = "synthetic-map"
	syntheticMapPrefix = "mapbox_"
	bearingStep        = 60
)

// SyntheticMapOptions configures the static-map tile generator.
type SyntheticMapOptions struct {
	AccessToken string
	BaseURL     string
	Style       string
	Zoom        int
	SampleCount int
}

// SyntheticMap fabricates imagery from a static-map tile service. It never
// queries the upstream; it only builds tile URLs for generated sample points.
type SyntheticMap struct {
	opts SyntheticMapOptions
	now  func() time.Time
}

// NewSyntheticMap creates a synthetic map adapter.
func NewSyntheticMap(opts SyntheticMapOptions) *SyntheticMap {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.mapbox.com"
	}
	if opts.Style == "" {
		opts.Style = "mapbox/streets-v12"
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 17
	}
	if opts.SampleCount <= 0 {
		opts.SampleCount = 10
	}
	return &SyntheticMap{opts: opts, now: time.Now}
}

// Name implements Provider.
func (s *SyntheticMap) Name() string { return syntheticMapName }

// FetchNearby generates SampleCount points on a golden-angle spiral around the origin.
func (s *SyntheticMap) FetchNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error) {
	if s.opts.AccessToken == "" {
		return nil, fmt.Errorf("%s: missing access token: %w", syntheticMapName, ErrProviderUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", syntheticMapName, err)
	}

	capturedAt := s.now().UnixMilli()
	points := geo.SpiralPoints(lat, lon, radiusKm, s.opts.SampleCount)

	records := make([]models.ImageRecord, 0, len(points))
	for i, p := range points {
		bearing := (i * bearingStep) % 360
		records = append(records, models.ImageRecord{
			ExternalID:   syntheticMapPrefix + formatCoord(p.Lat()) + "_" + formatCoord(p.Lon()) + "_" + strconv.Itoa(bearing),
			Latitude:     p.Lat(),
			Longitude:    p.Lon(),
			CapturedAt:   capturedAt,
			CompassAngle: float64(bearing),
			ThumbnailURL: s.tileURL(p, bearing, "256x256"),
			FullImageURL: s.tileURL(p, bearing, "640x480@2x"),
			Source:       models.SourceSyntheticMap,
			DistanceKm:   geo.DistanceKm(lat, lon, p.Lat(), p.Lon()),
			SyntheticMap: &models.SyntheticMapDetails{Style: s.opts.Style, Zoom: s.opts.Zoom},
		})
	}

	return records, nil
}

func (s *SyntheticMap) tileURL(p orb.Point, bearing int, size string) string {
	// {lon},{lat},{zoom},{bearing},{pitch}
	camera := strings.Join([]string{
		formatCoord(p.Lon()),
		formatCoord(p.Lat()),
		strconv.Itoa(s.opts.Zoom),
		strconv.Itoa(bearing),
		"0",
	}, ",")

	q := url.Values{}
	q.Set("access_token", s.opts.AccessToken)

	return fmt.Sprintf("%s/styles/v1/%s/static/%s/%s?%s",
		strings.TrimRight(s.opts.BaseURL, "/"), s.opts.Style, camera, size, q.Encode())
}
