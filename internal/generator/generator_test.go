package generator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tcgis/marketarea/internal/drivetime"
	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/internal/unify"
	"github.com/tcgis/marketarea/pkg/core"
)

func testService() *Service {
	return NewService(Dependencies{
		Resolver: drivetime.NewResolver(nil, nil, 0, nil),
		Unifier:  unify.NewEngine(geo.SimpleFeaturesOps{}, unify.DefaultThresholds(), nil),
	})
}

func TestRadiusGraphics(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:           "ma-1",
		Type:         core.TypeRadius,
		Order:        3,
		RadiusPoints: json.RawMessage(`[{"center":{"longitude":-97.1,"latitude":32.7},"radii":[1,3,5]}]`),
	}

	gs, scope, err := s.Graphics(context.Background(), ma)
	if err != nil {
		t.Fatalf("Graphics failed: %v", err)
	}
	if len(scope) != 1 || scope[0] != core.FeatureRadius {
		t.Errorf("unexpected scope %v", scope)
	}
	if len(gs) != 3 {
		t.Fatalf("expected one graphic per radius, got %d", len(gs))
	}
	for i, g := range gs {
		if g.FeatureType != core.FeatureRadius || g.MarketAreaID != "ma-1" {
			t.Errorf("graphic %d mislabeled: %+v", i, g)
		}
		if g.Order != 3 || g.RenderOrder != i {
			t.Errorf("graphic %d: order %d/%d, want 3/%d", i, g.Order, g.RenderOrder, i)
		}
		if g.Symbol.Kind != core.SymbolFill {
			t.Errorf("graphic %d: symbol kind %s, want fill", i, g.Symbol.Kind)
		}
	}
}

func TestRadiusGraphicsSkipsInvisible(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:   "ma-1",
		Type: core.TypeRadius,
		RadiusPoints: json.RawMessage(`[{
			"center":{"longitude":-97.1,"latitude":32.7},
			"radii":[5],
			"style":{"noFill":true,"noBorder":true}
		}]`),
	}
	if gs := s.RadiusGraphics(ma); len(gs) != 0 {
		t.Errorf("noFill+noBorder point should draw nothing, got %d", len(gs))
	}
}

func TestRadiusGraphicsNoFillOutlineOnly(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:   "ma-1",
		Type: core.TypeRadius,
		RadiusPoints: json.RawMessage(`[{
			"center":{"longitude":-97.1,"latitude":32.7},
			"radii":[5],
			"style":{"noFill":true,"fillColor":"#FF0000","fillOpacity":0.3,"borderColor":"#00FF00","borderWidth":2}
		}]`),
	}
	gs := s.RadiusGraphics(ma)
	if len(gs) != 1 {
		t.Fatalf("expected 1 graphic, got %d", len(gs))
	}
	sym := gs[0].Symbol
	if sym.Color != "" || sym.Opacity != 0 {
		t.Errorf("noFill style must suppress fill, got color=%q opacity=%v", sym.Color, sym.Opacity)
	}
	if sym.OutlineColor != "#00FF00" || sym.OutlineWidth != 2 {
		t.Errorf("border must still draw: %+v", sym)
	}
}

func TestRadiusGraphicsSkipsBadCenter(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:   "ma-1",
		Type: core.TypeRadius,
		RadiusPoints: json.RawMessage(`[
			{"center":{},"radii":[5]},
			{"center":{"longitude":-97.1,"latitude":32.7},"radii":[5]}
		]`),
	}
	gs := s.RadiusGraphics(ma)
	if len(gs) != 1 {
		t.Errorf("unresolvable center should skip only its own point, got %d graphics", len(gs))
	}
}

func TestSiteGraphics(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:           "ma-1",
		Type:         core.TypeSiteLocation,
		SiteLocation: json.RawMessage(`{"point":{"longitude":-97.1,"latitude":32.7}}`),
	}

	gs, scope, err := s.Graphics(context.Background(), ma)
	if err != nil {
		t.Fatalf("Graphics failed: %v", err)
	}
	if len(scope) != 1 || scope[0] != core.FeatureSiteLocation {
		t.Errorf("unexpected scope %v", scope)
	}
	if len(gs) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(gs))
	}
	sym := gs[0].Symbol
	if sym.Kind != core.SymbolMarker || sym.Size != defaultMarkerSize || sym.Color != defaultMarkerColor {
		t.Errorf("marker defaults not applied: %+v", sym)
	}
}

func TestDriveTimeGraphics(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:   "ma-1",
		Type: core.TypeDriveTime,
		DriveTimePoints: json.RawMessage(`[{
			"center":{"longitude":-97.1,"latitude":32.7},
			"timeRanges":[5,10]
		}]`),
	}

	gs, scope, err := s.Graphics(context.Background(), ma)
	if err != nil {
		t.Fatalf("Graphics failed: %v", err)
	}
	if len(scope) != 2 {
		t.Errorf("unexpected scope %v", scope)
	}

	var isochrones, pins int
	for _, g := range gs {
		switch g.FeatureType {
		case core.FeatureDriveTime:
			isochrones++
		case core.FeatureDriveTimePoint:
			pins++
		}
	}
	if isochrones != 2 {
		t.Errorf("expected one isochrone per budget, got %d", isochrones)
	}
	if pins != 1 {
		t.Errorf("expected one center pin, got %d", pins)
	}
}

func TestBoundaryGraphics(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:    "ma-1",
		Type:  core.TypeCounty,
		Order: 1,
		Locations: []core.PolygonLocation{
			{ID: "48113", Geometry: locationSquare(0, 0, 0.5)},
			{ID: "48085", Geometry: locationSquare(0.25, 0.25, 0.5)},
		},
	}

	gs, scope, err := s.Graphics(context.Background(), ma)
	if err != nil {
		t.Fatalf("Graphics failed: %v", err)
	}
	if len(scope) != 4 {
		t.Errorf("unexpected scope %v", scope)
	}

	var fills, outlines, holes int
	for _, g := range gs {
		switch g.FeatureType {
		case core.FeatureBoundaryFill:
			fills++
			if g.RenderOrder != core.RenderFill {
				t.Errorf("fill render order = %d", g.RenderOrder)
			}
		case core.FeatureBoundaryOutline:
			outlines++
			if g.RenderOrder != core.RenderOutline {
				t.Errorf("outline render order = %d", g.RenderOrder)
			}
		case core.FeatureBoundaryHole:
			holes++
		}
	}
	if fills != 1 || outlines != 1 || holes != 0 {
		t.Errorf("expected 1 fill / 1 outline / 0 holes, got %d/%d/%d", fills, outlines, holes)
	}
}

func TestBoundaryGraphicsNoFill(t *testing.T) {
	s := testService()
	ma := core.MarketArea{
		ID:    "ma-1",
		Type:  core.TypeCounty,
		Style: core.StyleSettings{BorderColor: "#000000", BorderWidth: 1, NoFill: true},
		Locations: []core.PolygonLocation{
			{ID: "48113", Geometry: locationSquare(0, 0, 0.5)},
		},
	}

	gs, err := s.BoundaryGraphics(context.Background(), ma)
	if err != nil {
		t.Fatalf("BoundaryGraphics failed: %v", err)
	}
	for _, g := range gs {
		if g.FeatureType == core.FeatureBoundaryFill {
			t.Error("noFill style must suppress fill graphics")
		}
	}
	if len(gs) == 0 {
		t.Error("outlines should still draw without fill")
	}
}

func TestBoundaryGraphicsNoPolygons(t *testing.T) {
	s := testService()
	ma := core.MarketArea{ID: "ma-1", Type: core.TypeCounty}

	gs, err := s.BoundaryGraphics(context.Background(), ma)
	if err != nil {
		t.Errorf("missing source polygons should draw nothing without error, got %v", err)
	}
	if len(gs) != 0 {
		t.Errorf("expected no graphics, got %d", len(gs))
	}
}

func TestGraphicsUnknownType(t *testing.T) {
	s := testService()
	if _, _, err := s.Graphics(context.Background(), core.MarketArea{ID: "x", Type: ""}); err == nil {
		t.Error("unknown type should error")
	}
}

func TestPrecomputedPolygon(t *testing.T) {
	s := testService()
	point := core.DriveTimePoint{
		Polygon:          locationSquare(100, 100, 1000),
		SpatialReference: &core.SpatialReference{WKID: 102100},
	}
	poly := s.precomputedPolygon(point)
	if poly == nil {
		t.Fatal("stored isochrone did not normalize")
	}
	if poly.AsGeometry().IsEmpty() {
		t.Error("expected a usable polygon")
	}
}

// locationSquare builds a geographic {rings} payload for a square with
// the given lower-left corner and side length in degrees.
func locationSquare(x, y, side float64) json.RawMessage {
	ring := [][]float64{
		{x, y},
		{x + side, y},
		{x + side, y + side},
		{x, y + side},
		{x, y},
	}
	b, _ := json.Marshal(map[string]any{"rings": []any{ring}})
	return b
}
