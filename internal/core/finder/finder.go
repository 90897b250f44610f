// Package finder ranks youth centers by great-circle distance from a
// reference location and parses the bundled center records.
//
// Everything here is pure: callers pass the reference location and the
// center list explicitly and get fresh values back.
package finder

import (
	"sort"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/pkg/geospatial"
)

// DistanceKm returns the haversine distance between two locations in kilometers.
func DistanceKm(from, to domain.Location) float64 {
	return geospatial.HaversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// Rank computes the distance from reference to every center and returns the
// centers ordered nearest first. Centers at equal distance keep their input
// order. An empty input yields an empty, non-nil slice.
//
// Coordinates are not validated: NaN or infinite input produces a NaN
// distance whose position in the output is unspecified.
func Rank(reference domain.Location, centers []domain.Center) []domain.RankedCenter {
	ranked := make([]domain.RankedCenter, len(centers))
	for i, c := range centers {
		ranked[i] = domain.RankedCenter{
			Center:     c,
			DistanceKm: DistanceKm(reference, c.Location()),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}

// WithinRadius returns the prefix of ranked whose distance is at most
// radiusKm. ranked must already be sorted. A non-positive radius keeps
// everything.
func WithinRadius(ranked []domain.RankedCenter, radiusKm float64) []domain.RankedCenter {
	if radiusKm <= 0 {
		return ranked
	}
	n := sort.Search(len(ranked), func(i int) bool {
		return ranked[i].DistanceKm > radiusKm
	})
	return ranked[:n]
}

// Limit truncates ranked to at most n entries. A non-positive n keeps everything.
func Limit(ranked []domain.RankedCenter, n int) []domain.RankedCenter {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
