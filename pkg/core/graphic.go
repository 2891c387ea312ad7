package core

import geom "github.com/peterstace/simplefeatures/geom"

// FeatureType tags a Graphic with the kind of feature it draws. For
// polygon-selection market areas the tag is the layer type itself
// (zip, county, tract, ...).
type FeatureType string

const (
	FeatureRadius          FeatureType = "radius"
	FeatureDriveTime       FeatureType = "drivetime"
	FeatureDriveTimePoint  FeatureType = "drivetime_point"
	FeatureSiteLocation    FeatureType = "site_location"
	FeatureBoundaryFill    FeatureType = "boundary_fill"
	FeatureBoundaryOutline FeatureType = "boundary_outline"
	FeatureBoundaryHole    FeatureType = "boundary_hole"
)

// Render order within one market area. Insertion order is paint order
// on the host canvas, so fills go in before outlines and outlines
// before hole outlines.
const (
	RenderFill    = 0
	RenderOutline = 1
	RenderHole    = 2
)

// Graphic is the drawable unit the engine writes into the shared
// collection. All geometry is EPSG:3857.
type Graphic struct {
	Geometry geom.Geometry
	Symbol   Symbol

	MarketAreaID string
	FeatureType  FeatureType
	Order        int
	RenderOrder  int
	IsTemporary  bool

	// Attributes carries any extra source attributes (administrative
	// codes and the like) for popups downstream.
	Attributes map[string]any
}

// SelectedFeature is a reference-layer feature the user has picked for
// a polygon-type market area.
type SelectedFeature struct {
	Geometry     geom.Geometry
	Attributes   map[string]any
	Key          string
	LayerType    string
	MarketAreaID string
}
