package service

import (
	"errors"
	"fmt"
	"math"

	"nearby-imagery-api/internal/models"
)

// ErrInvalidQuery is returned for coordinates, radii or limits that cannot be served.
var ErrInvalidQuery = errors.New("invalid query")

// QueryLimits bounds what a nearby query may ask for.
type QueryLimits struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	DefaultLimit    int
	MaxLimit        int
}

// DefaultQueryLimits returns the limits used when none are configured.
func DefaultQueryLimits() QueryLimits {
	return QueryLimits{
		DefaultRadiusKm: 2,
		MaxRadiusKm:     50,
		DefaultLimit:    50,
		MaxLimit:        500,
	}
}

func (l QueryLimits) withDefaults() QueryLimits {
	d := DefaultQueryLimits()
	if l.DefaultRadiusKm <= 0 {
		l.DefaultRadiusKm = d.DefaultRadiusKm
	}
	if l.MaxRadiusKm <= 0 {
		l.MaxRadiusKm = d.MaxRadiusKm
	}
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = d.DefaultLimit
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = d.MaxLimit
	}
	return l
}

// Normalize validates q. A zero limit takes the default and a limit above the
// maximum is clamped; everything else out of range is ErrInvalidQuery.
func (l QueryLimits) Normalize(q models.NearbyQuery) (models.NearbyQuery, error) {
	l = l.withDefaults()

	if err := ValidatePoint(q.Latitude, q.Longitude); err != nil {
		return q, err
	}
	if err := l.ValidateRadius(q.RadiusKm); err != nil {
		return q, err
	}

	switch {
	case q.Limit < 0:
		return q, fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidQuery, q.Limit)
	case q.Limit == 0:
		q.Limit = l.DefaultLimit
	case q.Limit > l.MaxLimit:
		q.Limit = l.MaxLimit
	}
	return q, nil
}

// ValidatePoint rejects coordinates off the globe and the poles, where a bounding
// box has no longitude extent.
func ValidatePoint(lat, lon float64) error {
	if math.IsNaN(lat) || lat <= -90 || lat >= 90 {
		return fmt.Errorf("%w: latitude must be in (-90, 90), got %g", ErrInvalidQuery, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be in [-180, 180], got %g", ErrInvalidQuery, lon)
	}
	return nil
}

// ValidateRadius rejects a radius that is not a finite value in (0, MaxRadiusKm].
func (l QueryLimits) ValidateRadius(radiusKm float64) error {
	l = l.withDefaults()
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || !(radiusKm > 0) || radiusKm > l.MaxRadiusKm {
		return fmt.Errorf("%w: radius must be in (0, %g] km, got %g", ErrInvalidQuery, l.MaxRadiusKm, radiusKm)
	}
	return nil
}
