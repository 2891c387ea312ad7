package generator

import (
	"github.com/tcgis/marketarea/internal/geo"
	"github.com/tcgis/marketarea/pkg/core"
)

// Marker defaults applied when site_location_data omits them.
const (
	defaultMarkerSize  = 24
	defaultMarkerColor = "#0078D4"
)

// SiteGraphics produces the single marker graphic for a site-location
// market area.
func (s *Service) SiteGraphics(ma core.MarketArea) []core.Graphic {
	site, err := core.DecodeSiteLocation(ma.SiteLocation)
	if err != nil || site == nil {
		if err != nil {
			s.deps.Logger.Warn("undecodable site location", "marketArea", ma.ID, "error", err)
		}
		return nil
	}

	c := geo.Normalize(site.Point, geo.SRIDWGS84)
	if c == nil {
		s.deps.Logger.Warn("site location point did not resolve", "marketArea", ma.ID)
		return nil
	}
	projected, err := geo.ToWebMercator(c)
	if err != nil {
		s.deps.Logger.Warn("projecting site location failed", "marketArea", ma.ID, "error", err)
		return nil
	}

	size := site.Size
	if size <= 0 {
		size = defaultMarkerSize
	}
	color := site.Color
	if color == "" {
		color = defaultMarkerColor
	}

	return []core.Graphic{{
		Geometry: projected,
		Symbol: core.Symbol{
			Kind:         core.SymbolMarker,
			Color:        color,
			Size:         size,
			OutlineColor: site.Outline,
		},
		MarketAreaID: ma.ID,
		FeatureType:  core.FeatureSiteLocation,
		Order:        ma.Order,
	}}
}
