package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// DriveTimeGraphics resolves one isochrone per time budget of each
// drive-time point, plus a center pin. A point with a precomputed
// polygon uses it for the primary budget without calling the resolver.
// Points whose every fallback stage failed contribute to the returned
// error, but the successful graphics still come back for drawing.
func (s *Service) DriveTimeGraphics(ctx context.Context, ma core.MarketArea) ([]core.Graphic, error) {
	points, err := core.DecodeDriveTimePoints(ma.DriveTimePoints)
	if err != nil {
		s.deps.Logger.Warn("undecodable drive-time points", "marketArea", ma.ID, "error", err)
		return nil, nil
	}

	style := ma.Style.OrStyleDefaults()
	var graphics []core.Graphic
	var failures []error
	for _, point := range points {
		center, ok := geo.LonLat(point.Center)
		if !ok {
			s.deps.Logger.Warn("drive-time point center did not resolve", "marketArea", ma.ID)
			continue
		}

		minutes := point.Minutes()
		if len(minutes) == 0 {
			continue
		}

		cached := s.precomputedPolygon(point)
		for i, budget := range minutes {
			var poly geom.Polygon
			if i == 0 && cached != nil {
				poly = *cached
			} else {
				resolved, err := s.deps.Resolver.Resolve(ctx, center, budget)
				if err != nil {
					failures = append(failures,
						fmt.Errorf("drive-time point %.5f,%.5f at %v min: %w", center.X, center.Y, budget, err))
					continue
				}
				poly = resolved
			}
			if !style.NoFill || !style.NoBorder {
				graphics = append(graphics, core.Graphic{
					Geometry:     poly.AsGeometry(),
					Symbol:       fillSymbol(style),
					MarketAreaID: ma.ID,
					FeatureType:  core.FeatureDriveTime,
					Order:        ma.Order,
					RenderOrder:  i,
				})
			}
		}

		if pin := geo.Normalize(point.Center, geo.SRIDWGS84); pin != nil {
			if projected, err := geo.ToWebMercator(pin); err == nil {
				graphics = append(graphics, core.Graphic{
					Geometry:     projected,
					Symbol:       core.Symbol{Kind: core.SymbolMarker, Color: style.BorderColor, Size: 10},
					MarketAreaID: ma.ID,
					FeatureType:  core.FeatureDriveTimePoint,
					Order:        ma.Order,
					RenderOrder:  len(minutes),
				})
			}
		}
	}
	return graphics, errors.Join(failures...)
}

// precomputedPolygon normalizes a point's cached isochrone, if any.
func (s *Service) precomputedPolygon(point core.DriveTimePoint) *geom.Polygon {
	if len(point.Polygon) == 0 {
		return nil
	}
	fallbackSRID := geo.SRIDWGS84
	if point.SpatialReference != nil {
		fallbackSRID = geo.NormalizeSRID(point.SpatialReference.WKID, fallbackSRID)
	}
	c := geo.Normalize(point.Polygon, fallbackSRID)
	if c == nil {
		return nil
	}
	projected, err := geo.ToWebMercator(c)
	if err != nil || projected.Type() != geom.TypePolygon {
		return nil
	}
	poly := projected.MustAsPolygon()
	return &poly
}
