package handler

import (
	"context"
	"net/http"

	"nearby-imagery-api/internal/models"
	"nearby-imagery-api/internal/provider"
	"nearby-imagery-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CacheService is the cached imagery use cases
type CacheService interface {
	NearbyCached(ctx context.Context, q models.NearbyQuery) (*service.NearbyResult, error)
	Populate(ctx context.Context, q models.NearbyQuery) (*service.PopulateResult, error)
	Refresh(ctx context.Context, q models.NearbyQuery) ([]models.ImageRecord, error)
	Limits() service.QueryLimits
	Seed() models.NearbyQuery
}

// LiveImageryService is the uncached aggregator
type LiveImageryService interface {
	GetNearbyImages(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error)
	GetRandomImage(ctx context.Context, lat, lon, radiusKm float64) (*models.ImageRecord, error)
	Providers() []provider.Health
}

// ImageryHandler handles imagery requests
type ImageryHandler struct {
	cache CacheService
	live  LiveImageryService
}

// NewImageryHandler creates a new imagery handler
func NewImageryHandler(cache CacheService, live LiveImageryService) *ImageryHandler {
	return &ImageryHandler{cache: cache, live: live}
}

// NearbyCached godoc
// @Summary      Cached imagery near a point
// @Description  Reads the cache. When the neighbourhood is stale a refresh is started in the background and stale is true.
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  true   "Latitude (alias lat)"
// @Param        longitude  query  number  true   "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Param        limit      query  int     false  "Maximum records"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/imagery/nearby-cached [get]
func (h *ImageryHandler) NearbyCached(c *gin.Context) {
	q, err := nearbyQuery(c, h.cache.Limits(), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.cache.NearbyCached(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   result.Records,
		"count":  result.Count,
		"cached": true,
		"stale":  result.Stale,
	})
}

// Populate godoc
// @Summary      Aggregate and store imagery
// @Description  Queries every configured provider and writes the results to the cache. Defaults to the seed point.
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  false  "Latitude (alias lat)"
// @Param        longitude  query  number  false  "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/imagery/populate [post]
func (h *ImageryHandler) Populate(c *gin.Context) {
	seed := h.cache.Seed()
	q, err := nearbyQuery(c, h.cache.Limits(), &seed)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.cache.Populate(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    result.Records,
		"count":   result.Count,
		"sources": result.CountsBySource,
	})
}

// Refresh godoc
// @Summary      Refresh the cache now
// @Description  Aggregates and stores imagery, waiting for completion, then returns the cached neighbourhood.
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  true   "Latitude (alias lat)"
// @Param        longitude  query  number  true   "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/imagery/refresh [post]
func (h *ImageryHandler) Refresh(c *gin.Context) {
	q, err := nearbyQuery(c, h.cache.Limits(), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	records, err := h.cache.Refresh(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

// Nearby godoc
// @Summary      Live imagery near a point
// @Description  Queries the providers directly, bypassing the cache.
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  true   "Latitude (alias lat)"
// @Param        longitude  query  number  true   "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/imagery/nearby [get]
func (h *ImageryHandler) Nearby(c *gin.Context) {
	q, err := liveQuery(c, h.cache.Limits())
	if err != nil {
		writeError(c, err)
		return
	}

	records, err := h.live.GetNearbyImages(c.Request.Context(), q.Latitude, q.Longitude, q.RadiusKm)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}

// Random godoc
// @Summary      A random image near a point
// @Description  Picks among the closest live results.
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  true   "Latitude (alias lat)"
// @Param        longitude  query  number  true   "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Success      200  {object}  models.ImageRecord
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/imagery/random [get]
func (h *ImageryHandler) Random(c *gin.Context) {
	q, err := liveQuery(c, h.cache.Limits())
	if err != nil {
		writeError(c, err)
		return
	}

	image, err := h.live.GetRandomImage(c.Request.Context(), q.Latitude, q.Longitude, q.RadiusKm)
	if err != nil {
		writeError(c, err)
		return
	}

	if image == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no imagery found near the specified coordinates"})
		return
	}

	c.JSON(http.StatusOK, image)
}

// GeoJSON godoc
// @Summary      Cached imagery as GeoJSON
// @Tags         imagery
// @Produce      json
// @Param        latitude   query  number  true   "Latitude (alias lat)"
// @Param        longitude  query  number  true   "Longitude (alias lon)"
// @Param        radius     query  number  false  "Radius in km"  default(2)
// @Param        limit      query  int     false  "Maximum records"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/imagery/geojson [get]
func (h *ImageryHandler) GeoJSON(c *gin.Context) {
	q, err := nearbyQuery(c, h.cache.Limits(), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.cache.NearbyCached(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, featureCollection(result.Records))
}

// Providers godoc
// @Summary      Configured providers and their health
// @Tags         imagery
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/imagery/providers [get]
func (h *ImageryHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.live.Providers()})
}

func featureCollection(records []models.ImageRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	points := make(orb.MultiPoint, 0, len(records))

	for _, r := range records {
		p := orb.Point{r.Longitude, r.Latitude}
		points = append(points, p)

		f := geojson.NewFeature(p)
		f.ID = r.ExternalID
		f.Properties["source"] = string(r.Source)
		f.Properties["distance_km"] = r.DistanceKm
		f.Properties["captured_at"] = r.CapturedAt
		f.Properties["compass_angle"] = r.CompassAngle
		f.Properties["thumbnail_url"] = r.ThumbnailURL
		f.Properties["full_image_url"] = r.FullImageURL
		f.Properties["is_pano"] = r.IsPanoramic()
		fc.Append(f)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}
