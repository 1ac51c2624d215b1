package handler

import (
	"context"
	"fmt"
	"net/http"

	"nearby-imagery-api/internal/models"
	"nearby-imagery-api/internal/service"

	"github.com/gin-gonic/gin"
)

// LocationService is the tagged location use cases
type LocationService interface {
	AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error)
	FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Location, error)
}

// LocationHandler handles location requests
type LocationHandler struct {
	service LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

type addLocationRequest struct {
	Latitude     *float64 `json:"latitude" form:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" form:"longitude" binding:"required"`
	Hotspot      bool     `json:"hotspot" form:"hotspot"`
	NearGreenery bool     `json:"near_greenery" form:"near_greenery"`
	Halal        bool     `json:"halal" form:"halal"`
	Crowded      bool     `json:"crowded" form:"crowded"`
}

// AddLocation godoc
// @Summary      Add or retag a location
// @Description  Stores a location. A location already at exactly these coordinates has its tags replaced.
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        location  body  addLocationRequest  true  "Location"
// @Success      201  {object}  models.Location
// @Failure      400  {object}  map[string]string
// @Router       /api/locations [post]
func (h *LocationHandler) AddLocation(c *gin.Context) {
	var req addLocationRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	tags := models.LocationTags{
		Hotspot:      req.Hotspot,
		NearGreenery: req.NearGreenery,
		Halal:        req.Halal,
		Crowded:      req.Crowded,
	}

	location, err := h.service.AddLocation(c.Request.Context(), *req.Latitude, *req.Longitude, tags)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// GetLocation godoc
// @Summary      Find a location
// @Description  By external_id, or by exact latitude and longitude.
// @Tags         locations
// @Produce      json
// @Param        external_id  query  string  false  "Imagery id stored on the location"
// @Param        latitude     query  number  false  "Latitude (alias lat)"
// @Param        longitude    query  number  false  "Longitude (alias lon)"
// @Success      200  {object}  models.Location
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/locations [get]
func (h *LocationHandler) GetLocation(c *gin.Context) {
	var (
		location *models.Location
		err      error
	)

	if externalID := c.Query("external_id"); externalID != "" {
		location, err = h.service.FindByExternalID(c.Request.Context(), externalID)
	} else {
		var lat, lon float64
		lat, lon, err = pointParams(c, nil)
		if err != nil {
			writeError(c, fmt.Errorf("%w: external_id or latitude and longitude are required", service.ErrInvalidQuery))
			return
		}
		location, err = h.service.FindLocation(c.Request.Context(), lat, lon)
	}

	if err != nil {
		writeError(c, err)
		return
	}

	if location == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}

	c.JSON(http.StatusOK, location)
}
