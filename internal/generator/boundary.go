package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// BoundaryGraphics unifies a polygon-selection market area into one
// boundary and produces its fill, exterior outline and hole outline
// graphics. Source polygons come from a fresh high-resolution
// reference-layer query when possible, falling back to the geometry
// held on the selected locations.
func (s *Service) BoundaryGraphics(ctx context.Context, ma core.MarketArea) ([]core.Graphic, error) {
	polygons := s.sourcePolygons(ctx, ma)
	if len(polygons) == 0 {
		s.deps.Logger.Warn("no usable polygons for boundary", "marketArea", ma.ID, "type", ma.Type)
		return nil, nil
	}

	boundary, err := s.deps.Unifier.Unify(polygons)
	if err != nil {
		// Boundary unavailable: draw nothing for this area, leave the
		// rest of the map alone.
		s.deps.Logger.Error("boundary unification failed", "marketArea", ma.ID, "error", err)
		return nil, err
	}

	style := ma.Style.OrStyleDefaults()
	var graphics []core.Graphic

	if !style.NoFill {
		for _, poly := range boundary.AsPolygons() {
			graphics = append(graphics, core.Graphic{
				Geometry:     poly.AsGeometry(),
				Symbol:       fillSymbol(style),
				MarketAreaID: ma.ID,
				FeatureType:  core.FeatureBoundaryFill,
				Order:        ma.Order,
				RenderOrder:  core.RenderFill,
			})
		}
	}
	if !style.NoBorder {
		for _, ring := range boundary.Exterior {
			graphics = append(graphics, core.Graphic{
				Geometry:     ring.AsGeometry(),
				Symbol:       lineSymbol(style),
				MarketAreaID: ma.ID,
				FeatureType:  core.FeatureBoundaryOutline,
				Order:        ma.Order,
				RenderOrder:  core.RenderOutline,
			})
		}
		for _, hole := range boundary.Holes {
			graphics = append(graphics, core.Graphic{
				Geometry:     hole.AsGeometry(),
				Symbol:       lineSymbol(style),
				MarketAreaID: ma.ID,
				FeatureType:  core.FeatureBoundaryHole,
				Order:        ma.Order,
				RenderOrder:  core.RenderHole,
			})
		}
	}
	return graphics, nil
}

// sourcePolygons gathers the constituent polygons, preferring a fresh
// reference-layer fetch over the held geometry. Malformed members are
// skipped so one bad location never empties the boundary.
func (s *Service) sourcePolygons(ctx context.Context, ma core.MarketArea) []geom.Polygon {
	if polys := s.queryHighResolution(ctx, ma); len(polys) > 0 {
		return polys
	}

	var polys []geom.Polygon
	for _, loc := range ma.Locations {
		if p, ok := s.normalizePolygon(loc.Geometry); ok {
			polys = append(polys, p)
		}
	}
	if len(polys) > 0 {
		return polys
	}

	// Last resort: the stored unified geometry from a previous save.
	if p, ok := s.normalizePolygon(ma.GeometryData); ok {
		polys = append(polys, p)
	}
	return polys
}

func (s *Service) queryHighResolution(ctx context.Context, ma core.MarketArea) []geom.Polygon {
	if s.deps.RefLayers == nil || len(ma.Locations) == 0 {
		return nil
	}
	identity, ok := s.deps.Catalog[ma.Type]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(ma.Locations))
	for _, loc := range ma.Locations {
		if loc.ID != "" {
			ids = append(ids, "'"+strings.ReplaceAll(loc.ID, "'", "''")+"'")
		}
	}
	if len(ids) == 0 {
		return nil
	}
	where := fmt.Sprintf("%s IN (%s)", identity.IDField, strings.Join(ids, ","))

	features, err := s.deps.RefLayers.Query(ctx, ma.Type, where, geo.SRIDWebMercator)
	if err != nil {
		s.deps.Logger.Warn("reference-layer query failed, using held geometry",
			"marketArea", ma.ID, "layer", ma.Type, "error", err)
		return nil
	}

	var polys []geom.Polygon
	for _, f := range features {
		c := geo.Normalize(f.Geometry, geo.SRIDWebMercator)
		if c == nil {
			continue
		}
		if c.Geometry.Type() == geom.TypePolygon {
			polys = append(polys, c.Geometry.MustAsPolygon())
		}
	}
	return polys
}

func (s *Service) normalizePolygon(raw []byte) (geom.Polygon, bool) {
	c := geo.Normalize(raw, geo.SRIDWGS84)
	if c == nil {
		return geom.Polygon{}, false
	}
	projected, err := geo.ToWebMercator(c)
	if err != nil || projected.Type() != geom.TypePolygon {
		return geom.Polygon{}, false
	}
	return projected.MustAsPolygon(), true
}
