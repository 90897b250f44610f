package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to the center service.
// Struct fields resolve through their json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	centerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Center",
		Fields: graphql.Fields{
			"name":      &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	rankedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RankedCenter",
		Fields: graphql.Fields{
			"center":      &graphql.Field{Type: centerType},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"label": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rc, _ := p.Source.(domain.RankedCenter)
					return finder.FormatListItem(rc), nil
				},
			},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	overlayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RadiusOverlay",
		Fields: graphql.Fields{
			"center":        &graphql.Field{Type: locationType},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"outline_width": &graphql.Field{Type: graphql.Int},
			"bounds":        &graphql.Field{Type: boundsType},
			"color": &graphql.Field{
				Type:        graphql.Int,
				Description: "ARGB fill color",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					o, _ := p.Source.(domain.RadiusOverlay)
					return int(o.Color), nil
				},
			},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyResult",
		Fields: graphql.Fields{
			"reference": &graphql.Field{Type: locationType},
			"overlay":   &graphql.Field{Type: overlayType},
			"centers":   &graphql.Field{Type: graphql.NewList(rankedType)},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"position": &graphql.Field{Type: locationType},
			"caption":  &graphql.Field{Type: graphql.String},
			"width":    &graphql.Field{Type: graphql.Int},
			"height":   &graphql.Field{Type: graphql.Int},
		},
	})

	locationArgs := graphql.FieldConfigArgument{
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}
	argLocation := func(p graphql.ResolveParams) domain.Location {
		return domain.Location{
			Latitude:  p.Args["lat"].(float64),
			Longitude: p.Args["lon"].(float64),
		}
	}

	lim := deps.limits()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"centers": &graphql.Field{
				Type:        graphql.NewList(centerType),
				Description: "All youth centers in dataset order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Centers.List(p.Context)
				},
			},
			"centersNearby": &graphql.Field{
				Type:        nearbyType,
				Description: "Centers ranked by distance from a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    locationArgs["lat"],
					"lon":    locationArgs["lon"],
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: lim.Default},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					if limit <= 0 || limit > lim.Max {
						limit = lim.Default
					}
					return deps.Centers.Nearby(p.Context, usecases.NearbyQuery{
						Reference:    argLocation(p),
						RadiusMeters: p.Args["radius"].(float64),
						Limit:        limit,
					})
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "One map marker per center",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Centers.Markers(p.Context)
				},
			},
			"overlay": &graphql.Field{
				Type:        overlayType,
				Description: "Radius circle around a location",
				Args:        locationArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Centers.Overlay(argLocation(p))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition.
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
