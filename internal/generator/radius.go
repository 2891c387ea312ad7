package generator

import (
	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/pkg/core"
)

// RadiusGraphics buffers each radius point once per mile distance.
// Points whose center does not resolve to finite coordinates are
// rejected; a malformed point never aborts the rest of the batch.
func (s *Service) RadiusGraphics(ma core.MarketArea) []core.Graphic {
	points, err := core.DecodeRadiusPoints(ma.RadiusPoints)
	if err != nil {
		s.deps.Logger.Warn("undecodable radius points", "marketArea", ma.ID, "error", err)
		return nil
	}

	var graphics []core.Graphic
	for _, point := range points {
		center, ok := geo.LonLat(point.Center)
		if !ok {
			s.deps.Logger.Warn("radius point center did not resolve", "marketArea", ma.ID)
			continue
		}

		style := ma.Style.OrStyleDefaults()
		if point.Style != nil {
			style = *point.Style
		}
		if style.NoFill && style.NoBorder {
			continue
		}

		rings := geo.BufferRadii(center, point.Radii, s.deps.Logger)
		for i, ring := range rings {
			graphics = append(graphics, core.Graphic{
				Geometry:     ring.AsGeometry(),
				Symbol:       fillSymbol(style),
				MarketAreaID: ma.ID,
				FeatureType:  core.FeatureRadius,
				Order:        ma.Order,
				RenderOrder:  i,
			})
		}
	}
	return graphics
}
