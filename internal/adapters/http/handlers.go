package http

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

const (
	maxRadiusMeters = 20_037_509 // half the equatorial circumference
	sessionHeader   = "X-Session-ID"
)

// centerItem is one row of a nearby list.
type centerItem struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
	Label      string  `json:"label"`
}

// nearbyResponse is the body of GET /v1/centers/nearby.
type nearbyResponse struct {
	Reference domain.Location      `json:"reference"`
	Overlay   domain.RadiusOverlay `json:"overlay"`
	Centers   []centerItem         `json:"centers"`
}

func toNearbyResponse(res *domain.NearbyResult) nearbyResponse {
	items := make([]centerItem, len(res.Centers))
	for i, rc := range res.Centers {
		items[i] = centerItem{
			Name:       rc.Center.Name,
			Latitude:   rc.Center.Latitude,
			Longitude:  rc.Center.Longitude,
			DistanceKm: rc.DistanceKm,
			Label:      finder.FormatListItem(rc),
		}
	}
	return nearbyResponse{Reference: res.Reference, Overlay: res.Overlay, Centers: items}
}

// parseLocation reads the required lat and lon query parameters. A missing
// parameter means the caller has no position fix yet.
func parseLocation(c *fiber.Ctx) (domain.Location, string) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" || rawLon == "" {
		return domain.Location{}, "lat and lon are required"
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return domain.Location{}, "lat must be a number"
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return domain.Location{}, "lon must be a number"
	}
	loc := domain.Location{Latitude: lat, Longitude: lon}
	if !loc.Valid() {
		return domain.Location{}, "lat must be within [-90, 90] and lon within [-180, 180]"
	}
	return loc, ""
}

// ListCentersHandler returns all centers in dataset order.
func ListCentersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		centers, err := deps.Centers.List(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}

		offset, limit := pageParams(c)
		page, pg := paginate(centers, offset, limit)

		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// NearbyCentersHandler ranks centers by distance from lat/lon.
// radius (meters) is optional; without it every center is listed.
func NearbyCentersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref, msg := parseLocation(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}

		radius := c.QueryFloat("radius", 0)
		if radius < 0 || radius > maxRadiusMeters || math.IsNaN(radius) {
			return errBadRequest(c, "radius must be between 0 and 20037509 meters")
		}

		lim := deps.limits()
		limit := c.QueryInt("limit", lim.Default)
		if limit <= 0 || limit > lim.Max {
			limit = lim.Default
		}

		res, err := deps.Centers.Nearby(c.UserContext(), usecases.NearbyQuery{
			Reference:    ref,
			RadiusMeters: radius,
			Limit:        limit,
			SessionID:    c.Get(sessionHeader),
		})
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(toNearbyResponse(res))
	}
}

// MarkersHandler returns one map marker per center.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Centers.Markers(c.UserContext())
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(markers)
	}
}

// OverlayHandler returns the radius circle for lat/lon.
func OverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref, msg := parseLocation(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}
		overlay, err := deps.Centers.Overlay(ref)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(overlay)
	}
}

// ImportCentersHandler replaces the dataset with a CSV body. The first line
// is treated as a header. A body the service refuses leaves the dataset as
// it was and answers 422.
func ImportCentersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct := strings.ToLower(c.Get(fiber.HeaderContentType))
		if !strings.HasPrefix(ct, "text/csv") && !strings.HasPrefix(ct, fiber.MIMETextPlain) {
			return errUnsupportedMedia(c, "body must be text/csv")
		}
		body := c.Body()
		if len(bytes.TrimSpace(body)) == 0 {
			return errBadRequest(c, "body is empty")
		}

		n, err := deps.Centers.Import(c.UserContext(), bytes.NewReader(body), "upload")
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"imported": n})
	}
}
