// Package core defines the shared market-area domain types exchanged
// between the surrounding application and the geometry engine.
package core

import "encoding/json"

// Market-area types stored in ma_type. The radius, drivetime and
// site_location types have dedicated generators; every other type is a
// polygon-selection type whose features come from a reference layer and
// feed the boundary unification pipeline.
const (
	TypeRadius       = "radius"
	TypeDriveTime    = "drivetime"
	TypeSiteLocation = "site_location"
	TypeZip          = "zip"
	TypeCounty       = "county"
	TypePlace        = "place"
	TypeTract        = "tract"
	TypeBlock        = "block"
	TypeBlockGroup   = "blockgroup"
	TypeCBSA         = "cbsa"
	TypeState        = "state"
	TypeUSA          = "usa"
)

// IsPolygonType reports whether maType selects features from a
// reference layer rather than deriving geometry from points.
func IsPolygonType(maType string) bool {
	switch maType {
	case TypeRadius, TypeDriveTime, TypeSiteLocation:
		return false
	}
	return maType != ""
}

// MarketArea is a stored market-area record. The engine only reads it;
// ownership stays with the surrounding application. The point/geometry
// payload fields may arrive either as JSON structures or as
// JSON-encoded strings, so they are held raw and decoded on demand.
type MarketArea struct {
	ID        string `json:"id"`
	ProjectID string `json:"project"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Type      string `json:"ma_type"`

	Style StyleSettings `json:"style_settings"`
	Order int           `json:"order"`

	RadiusPoints    json.RawMessage `json:"radius_points,omitempty"`
	DriveTimePoints json.RawMessage `json:"drive_time_points,omitempty"`
	SiteLocation    json.RawMessage `json:"site_location_data,omitempty"`
	GeometryData    json.RawMessage `json:"ma_geometry_data,omitempty"`

	Locations []PolygonLocation `json:"locations,omitempty"`
}

// NextOrder returns the paint order for a newly created market area:
// one past the highest existing order.
func NextOrder(areas []MarketArea) int {
	max := 0
	for _, ma := range areas {
		if ma.Order > max {
			max = ma.Order
		}
	}
	return max + 1
}

// SpatialReference identifies the coordinate system of a stored
// geometry by well-known ID.
type SpatialReference struct {
	WKID int `json:"wkid"`
}

// PointSpec is a loosely-typed stored point. Either longitude/latitude
// (geographic) or x/y (projected, per the spatial reference) is set.
type PointSpec struct {
	Longitude        *float64          `json:"longitude,omitempty"`
	Latitude         *float64          `json:"latitude,omitempty"`
	X                *float64          `json:"x,omitempty"`
	Y                *float64          `json:"y,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// RadiusPoint is one buffer center with its ring distances in miles.
type RadiusPoint struct {
	Center PointSpec      `json:"center"`
	Radii  []float64      `json:"radii"`
	Style  *StyleSettings `json:"style,omitempty"`
}

// DriveTimePoint is one isochrone center. Older records carry a single
// travelTimeMinutes value instead of the timeRanges list; Minutes
// resolves both forms. Polygon, when present, is a previously resolved
// isochrone kept as a cache.
type DriveTimePoint struct {
	Center            PointSpec         `json:"center"`
	TimeRanges        []float64         `json:"timeRanges,omitempty"`
	TravelTimeMinutes float64           `json:"travelTimeMinutes,omitempty"`
	Polygon           json.RawMessage   `json:"polygon,omitempty"`
	SpatialReference  *SpatialReference `json:"spatialReference,omitempty"`
}

// Minutes returns the time budgets for this point. The first entry is
// the primary one used for display.
func (p DriveTimePoint) Minutes() []float64 {
	if len(p.TimeRanges) > 0 {
		return p.TimeRanges
	}
	if p.TravelTimeMinutes > 0 {
		return []float64{p.TravelTimeMinutes}
	}
	return nil
}

// SiteLocation is a single marker point with its symbol settings.
type SiteLocation struct {
	Point   PointSpec `json:"point"`
	Size    float64   `json:"size,omitempty"`
	Color   string    `json:"color,omitempty"`
	Outline string    `json:"outline,omitempty"`
}

// PolygonLocation is a reference-layer feature selected into a
// polygon-type market area. Geometry is the (possibly low-resolution)
// geometry held at selection time; the unification pipeline prefers a
// fresh high-resolution fetch and falls back to this.
type PolygonLocation struct {
	ID           string          `json:"id"`
	Geometry     json.RawMessage `json:"geometry,omitempty"`
	Attributes   map[string]any  `json:"attributes,omitempty"`
	MarketAreaID string          `json:"marketAreaId,omitempty"`
}
