package domain

// Center is a youth center parsed from one data record.
// Names are not guaranteed to be unique.
type Center struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location returns the center's position.
func (c Center) Location() Location {
	return Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// RankedCenter pairs a center with its distance from a reference point.
type RankedCenter struct {
	Center     Center  `json:"center"`
	DistanceKm float64 `json:"distance_km"`
}

// Marker is a map pin for a center.
type Marker struct {
	Position Location `json:"position"`
	Caption  string   `json:"caption"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
}

// RadiusOverlay is the translucent circle drawn around the reference point.
type RadiusOverlay struct {
	Center       Location `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
	Color        uint32   `json:"color"` // ARGB
	OutlineWidth int      `json:"outline_width"`
	Bounds       Bounds   `json:"bounds"` // encloses the circle, for fitting the map view
}

// NearbyResult is the answer to a nearby query: the ranked list plus the
// overlay to render around the reference point.
type NearbyResult struct {
	Reference Location       `json:"reference"`
	Overlay   RadiusOverlay  `json:"overlay"`
	Centers   []RankedCenter `json:"centers"`
}

// LocationEvent is published whenever a client reports a new position.
type LocationEvent struct {
	SessionID string   `json:"session_id,omitempty"`
	Location  Location `json:"location"`
	Matches   int      `json:"matches"`
}

// DatasetEvent is published after the center dataset is replaced.
type DatasetEvent struct {
	Source  string `json:"source"`
	Centers int    `json:"centers"`
	// Version tags the new dataset generation; cache keys carry it.
	Version string `json:"version"`
}
