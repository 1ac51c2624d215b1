package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"

	"github.com/paulmach/orb"
)

const (
	streetLevelName   = "street-level"
	streetLevelFields = "id,thumb_1024_url,thumb_256_url,captured_at,compass_angle,geometry,is_pano"
	streetLevelPrefix = "mapillary_"
)

// StreetLevelOptions configures the street-level photo index adapter.
type StreetLevelOptions struct {
	AccessToken string
	BaseURL     string
	Limit       int
}

// StreetLevel queries a street-level photo index by bounding box.
type StreetLevel struct {
	opts   StreetLevelOptions
	client *http.Client
	now    func() time.Time
}

type streetLevelResponse struct {
	Data []streetLevelImage `json:"data"`
}

type streetLevelImage struct {
	ID           string  `json:"id"`
	Thumb1024URL string  `json:"thumb_1024_url"`
	Thumb256URL  string  `json:"thumb_256_url"`
	CapturedAt   *int64  `json:"captured_at"`
	CompassAngle float64 `json:"compass_angle"`
	IsPano       bool    `json:"is_pano"`
	Geometry     *struct {
		Coordinates orb.Point `json:"coordinates"`
	} `json:"geometry"`
}

// NewStreetLevel creates a street-level adapter.
func NewStreetLevel(opts StreetLevelOptions, client *http.Client) *StreetLevel {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://graph.mapillary.com"
	}
	if opts.Limit <= 0 {
		opts.Limit = 30
	}
	return &StreetLevel{opts: opts, client: client, now: time.Now}
}

// Name implements Provider.
func (s *StreetLevel) Name() string { return streetLevelName }

// FetchNearby queries the bounding box of the circle and refines the hits to the exact
// circle. A box crossing the antimeridian is fetched as one request per side.
func (s *StreetLevel) FetchNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error) {
	if s.opts.AccessToken == "" {
		return nil, fmt.Errorf("%s: missing access token: %w", streetLevelName, ErrProviderUnavailable)
	}

	box, err := geo.BoundingBox(lat, lon, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", streetLevelName, err)
	}

	var records []models.ImageRecord
	for _, lons := range box.LonRanges() {
		batch, err := s.fetchRange(ctx, box, lons)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}

	return geo.FilterByDistance(records, lat, lon, radiusKm, models.SetDistance), nil
}

func (s *StreetLevel) fetchRange(ctx context.Context, box geo.BBox, lons [2]float64) ([]models.ImageRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(box, lons), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", streetLevelName, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %v: %w", streetLevelName, err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: api error: status %d: %w", streetLevelName, resp.StatusCode, ErrProviderUnavailable)
	}

	var payload streetLevelResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %v: %w", streetLevelName, ctx.Err(), ErrProviderUnavailable)
		}
		return nil, fmt.Errorf("%s: failed to decode response: %v: %w", streetLevelName, err, ErrProviderUnavailable)
	}

	records := make([]models.ImageRecord, 0, len(payload.Data))
	for _, img := range payload.Data {
		if img.ID == "" || img.Geometry == nil {
			continue
		}
		records = append(records, s.normalize(img))
	}
	return records, nil
}

func (s *StreetLevel) normalize(img streetLevelImage) models.ImageRecord {
	capturedAt := s.now().UnixMilli()
	if img.CapturedAt != nil && *img.CapturedAt > 0 {
		capturedAt = *img.CapturedAt
	}

	return models.ImageRecord{
		ExternalID:   streetLevelPrefix + img.ID,
		Latitude:     img.Geometry.Coordinates.Lat(),
		Longitude:    img.Geometry.Coordinates.Lon(),
		CapturedAt:   capturedAt,
		CompassAngle: normalizeAngle(img.CompassAngle),
		ThumbnailURL: img.Thumb256URL,
		FullImageURL: img.Thumb1024URL,
		Source:       models.SourceStreetLevel,
		StreetLevel:  &models.StreetLevelDetails{IsPanoramic: img.IsPano},
	}
}

// requestURL builds the query for one longitude range of box. The upstream takes
// minLon,minLat,maxLon,maxLat and does not wrap.
func (s *StreetLevel) requestURL(box geo.BBox, lons [2]float64) string {
	bbox := strings.Join([]string{
		formatCoord(lons[0]),
		formatCoord(box.MinLat),
		formatCoord(lons[1]),
		formatCoord(box.MaxLat),
	}, ",")

	q := url.Values{}
	q.Set("access_token", s.opts.AccessToken)
	q.Set("fields", streetLevelFields)
	q.Set("bbox", bbox)
	q.Set("limit", strconv.Itoa(s.opts.Limit))

	return strings.TrimRight(s.opts.BaseURL, "/") + "/images?" + q.Encode()
}

func normalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		return 0
	}
	return a
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
