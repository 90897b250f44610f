package geospatial

import "math"

// EarthRadiusKm is the mean Earth radius used by all distance calculations.
const EarthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance in kilometers between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

const metersPerDegree = 111320.0

// BoundingBox returns a box around a point enclosing a circle of
// radiusMeters. Latitudes are clamped to [-90, 90]; longitudes may exceed
// [-180, 180] near the antimeridian.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / metersPerDegree
	lonDelta := 180.0
	if cos := math.Cos(toRad(lat)); cos > 1e-9 {
		lonDelta = math.Min(radiusMeters/(metersPerDegree*cos), 180)
	}

	return math.Max(lat-latDelta, -90), lon - lonDelta, math.Min(lat+latDelta, 90), lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
