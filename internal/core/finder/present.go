package finder

import (
	"fmt"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/pkg/geospatial"
)

// Rendering constants for map output.
const (
	// DefaultRadiusMeters is the radius of the circle drawn around the
	// reference point. It is a display policy, not derived from the data.
	DefaultRadiusMeters = 1000.0

	OverlayColor        uint32 = 0x550000FF
	OverlayOutlineWidth        = 0

	MarkerWidth  = 80
	MarkerHeight = 100
)

// FormatListItem renders a ranked center as "<name> - <km, 2 decimals> km".
func FormatListItem(rc domain.RankedCenter) string {
	return fmt.Sprintf("%s - %.2f km", rc.Center.Name, rc.DistanceKm)
}

// ListItems formats every ranked center, preserving order.
func ListItems(ranked []domain.RankedCenter) []string {
	items := make([]string, len(ranked))
	for i, rc := range ranked {
		items[i] = FormatListItem(rc)
	}
	return items
}

// Markers builds one captioned map marker per center, in input order.
func Markers(centers []domain.Center) []domain.Marker {
	markers := make([]domain.Marker, len(centers))
	for i, c := range centers {
		markers[i] = domain.Marker{
			Position: c.Location(),
			Caption:  c.Name,
			Width:    MarkerWidth,
			Height:   MarkerHeight,
		}
	}
	return markers
}

// Overlay returns the radius circle around reference. A non-positive
// radius falls back to DefaultRadiusMeters.
func Overlay(reference domain.Location, radiusMeters float64) domain.RadiusOverlay {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(reference.Latitude, reference.Longitude, radiusMeters)
	return domain.RadiusOverlay{
		Center:       reference,
		RadiusMeters: radiusMeters,
		Color:        OverlayColor,
		OutlineWidth: OverlayOutlineWidth,
		Bounds:       domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon},
	}
}
