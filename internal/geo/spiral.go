package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// GoldenAngle is π(3-√5) radians, about 137.5°.
var GoldenAngle = math.Pi * (3 - math.Sqrt(5))

// SpiralPoints distributes count points over the disc of radiusKm around the centre
// using golden-angle spacing. Point i sits at radius sqrt(i/count)*radiusKm, which
// gives even areal coverage instead of clustering near the centre.
// Points are returned as orb.Point (X = longitude, Y = latitude) and always lie on the globe.
func SpiralPoints(centerLat, centerLon, radiusKm float64, count int) []orb.Point {
	if count <= 0 {
		return nil
	}

	cosLat := math.Cos(toRadians(centerLat))
	points := make([]orb.Point, 0, count)

	for i := 0; i < count; i++ {
		theta := float64(i) * GoldenAngle
		r := math.Sqrt(float64(i)/float64(count)) * radiusKm

		latOffset := (r / KmPerDegree) * math.Cos(theta)
		lonOffset := (r / (KmPerDegree * cosLat)) * math.Sin(theta)

		lat, lon := Wrap(centerLat+latOffset, centerLon+lonOffset)
		points = append(points, orb.Point{lon, lat})
	}

	return points
}

// Wrap brings a coordinate back onto the globe. A latitude past a pole is reflected
// to the far side of that pole, and longitude is normalized into [-180, 180).
func Wrap(lat, lon float64) (float64, float64) {
	switch {
	case lat > 90:
		lat = 180 - lat
		lon += 180
	case lat < -90:
		lat = -180 - lat
		lon += 180
	}
	return lat, NormalizeLon(lon)
}

// NormalizeLon maps any longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}
