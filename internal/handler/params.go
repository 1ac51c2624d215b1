package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"nearby-imagery-api/internal/cache"
	"nearby-imagery-api/internal/models"
	"nearby-imagery-api/internal/service"

	"github.com/gin-gonic/gin"
)

// param returns the first non-empty value among names, from the query string or a form body.
func param(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			return v
		}
		if v := c.PostForm(name); v != "" {
			return v
		}
	}
	return ""
}

func floatParam(c *gin.Context, label string, names ...string) (float64, bool, error) {
	raw := param(c, names...)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%w: invalid %s format", service.ErrInvalidQuery, label)
	}
	return v, true, nil
}

// pointParams reads latitude/longitude (or lat/lon). Both must be present unless fallback is set.
func pointParams(c *gin.Context, fallback *models.NearbyQuery) (float64, float64, error) {
	lat, hasLat, err := floatParam(c, "latitude", "latitude", "lat")
	if err != nil {
		return 0, 0, err
	}
	lon, hasLon, err := floatParam(c, "longitude", "longitude", "lon")
	if err != nil {
		return 0, 0, err
	}

	if !hasLat || !hasLon {
		if fallback != nil && !hasLat && !hasLon {
			return fallback.Latitude, fallback.Longitude, nil
		}
		return 0, 0, fmt.Errorf("%w: latitude and longitude are required", service.ErrInvalidQuery)
	}
	return lat, lon, nil
}

// nearbyQuery parses the common (point, radius, limit) parameters.
func nearbyQuery(c *gin.Context, limits service.QueryLimits, fallback *models.NearbyQuery) (models.NearbyQuery, error) {
	lat, lon, err := pointParams(c, fallback)
	if err != nil {
		return models.NearbyQuery{}, err
	}

	radius, hasRadius, err := floatParam(c, "radius", "radius")
	if err != nil {
		return models.NearbyQuery{}, err
	}
	if !hasRadius {
		radius = limits.DefaultRadiusKm
	}

	q := models.NearbyQuery{Latitude: lat, Longitude: lon, RadiusKm: radius}
	if raw := param(c, "limit"); raw != "" {
		q.Limit, err = strconv.Atoi(raw)
		if err != nil {
			return models.NearbyQuery{}, fmt.Errorf("%w: invalid limit format", service.ErrInvalidQuery)
		}
	}
	return q, nil
}

// liveQuery parses and validates a query that goes straight to the providers.
func liveQuery(c *gin.Context, limits service.QueryLimits) (models.NearbyQuery, error) {
	q, err := nearbyQuery(c, limits, nil)
	if err != nil {
		return models.NearbyQuery{}, err
	}
	return limits.Normalize(q)
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cache.ErrCacheWrite):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write imagery cache"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
