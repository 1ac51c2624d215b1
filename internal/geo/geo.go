package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used by every distance computation in the service.
const EarthRadiusKm = 6371.0088

// KmPerDegree is the length of one degree of latitude on the sphere of EarthRadiusKm.
const KmPerDegree = EarthRadiusKm * math.Pi / 180

// ErrPolarLatitude is returned when a bounding box is requested at ±90°, where cos(latitude) is zero.
var ErrPolarLatitude = errors.New("geo: latitude at the poles has no longitude span")

// Positioned is anything with coordinates that can carry a computed distance.
type Positioned interface {
	Position() (lat, lon float64)
}

// BBox is an axis-aligned lat/lon rectangle. MinLon/MaxLon may exceed ±180
// when the box crosses the antimeridian; use LonRanges for querying.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// DistanceKm returns the haversine great-circle distance between two points in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BoundingBox computes a rectangle that fully contains the circle of radiusKm around (lat, lon).
// The longitude half-span widens with 1/cos(latitude); if the circle reaches a pole the box
// covers every longitude.
func BoundingBox(lat, lon, radiusKm float64) (BBox, error) {
	if math.Abs(lat) >= 90 {
		return BBox{}, fmt.Errorf("%w: %f", ErrPolarLatitude, lat)
	}
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return BBox{}, fmt.Errorf("geo: invalid radius: %f", radiusKm)
	}

	angular := radiusKm / EarthRadiusKm
	dLat := toDegrees(angular)

	box := BBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
	}

	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		box.MinLon, box.MaxLon = -180, 180
		return box, nil
	}

	cosLat := math.Cos(toRadians(lat))
	ratio := math.Sin(angular) / cosLat
	if ratio >= 1 {
		box.MinLon, box.MaxLon = -180, 180
		return box, nil
	}

	// asin(sin(d)/cos(lat)) is the widest longitude the circle reaches; it is
	// never smaller than d/cos(lat), so the box has no false negatives.
	dLon := toDegrees(math.Asin(ratio))
	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon

	return box, nil
}

// LonRanges splits the box's longitude span into at most two ranges inside [-180, 180].
func (b BBox) LonRanges() [][2]float64 {
	if b.MaxLon-b.MinLon >= 360 {
		return [][2]float64{{-180, 180}}
	}
	switch {
	case b.MinLon < -180:
		return [][2]float64{{b.MinLon + 360, 180}, {-180, b.MaxLon}}
	case b.MaxLon > 180:
		return [][2]float64{{b.MinLon, 180}, {-180, b.MaxLon - 360}}
	}
	return [][2]float64{{b.MinLon, b.MaxLon}}
}

// Contains reports whether the point lies inside the box, honouring antimeridian wrap.
func (b BBox) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	for _, r := range b.LonRanges() {
		if lon >= r[0] && lon <= r[1] {
			return true
		}
	}
	return false
}

// Bound returns the box as an orb.Bound (X = longitude, Y = latitude).
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// FilterByDistance annotates each item with its distance from the origin via setDistance,
// drops those farther than maxDistanceKm and returns the rest ascending by distance.
func FilterByDistance[T Positioned](items []T, originLat, originLon, maxDistanceKm float64, setDistance func(*T, float64)) []T {
	type scored struct {
		item T
		dist float64
	}

	kept := make([]scored, 0, len(items))
	for _, item := range items {
		lat, lon := item.Position()
		d := DistanceKm(originLat, originLon, lat, lon)
		if d > maxDistanceKm {
			continue
		}
		kept = append(kept, scored{item: item, dist: d})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].dist < kept[j].dist
	})

	out := make([]T, 0, len(kept))
	for _, s := range kept {
		item := s.item
		if setDistance != nil {
			setDistance(&item, s.dist)
		}
		out = append(out, item)
	}
	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
