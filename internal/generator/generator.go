// Package generator derives the drawable graphics for each market-area
// type and hands them to the reconciliation layer as desired state.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcgis/marketarea/internal/drivetime"
	"github.com/tcgis/marketarea/internal/reflayer"
	"github.com/tcgis/marketarea/internal/selection"
	"github.com/tcgis/marketarea/internal/unify"
	"github.com/tcgis/marketarea/pkg/core"
)

// Dependencies holds the collaborators the generators draw on.
type Dependencies struct {
	Resolver  *drivetime.Resolver
	Unifier   *unify.Engine
	RefLayers *reflayer.Client
	Catalog   map[string]selection.LayerIdentity
	Logger    *slog.Logger
}

// Service produces graphics from market-area records.
type Service struct {
	deps Dependencies
}

// NewService creates a generator service.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = selection.DefaultCatalog()
	}
	return &Service{deps: deps}
}

// Graphics derives the full drawn state for one market area, plus the
// feature-type scope a reconciliation pass should replace. A malformed
// record yields no graphics and no error; only a drive-time point with
// every fallback exhausted surfaces an error, and even then the
// remaining graphics are returned for drawing.
func (s *Service) Graphics(ctx context.Context, ma core.MarketArea) ([]core.Graphic, []core.FeatureType, error) {
	switch {
	case ma.Type == core.TypeRadius:
		return s.RadiusGraphics(ma), []core.FeatureType{core.FeatureRadius}, nil
	case ma.Type == core.TypeDriveTime:
		graphics, err := s.DriveTimeGraphics(ctx, ma)
		return graphics, []core.FeatureType{core.FeatureDriveTime, core.FeatureDriveTimePoint}, err
	case ma.Type == core.TypeSiteLocation:
		return s.SiteGraphics(ma), []core.FeatureType{core.FeatureSiteLocation}, nil
	case core.IsPolygonType(ma.Type):
		graphics, err := s.BoundaryGraphics(ctx, ma)
		scope := []core.FeatureType{
			core.FeatureBoundaryFill,
			core.FeatureBoundaryOutline,
			core.FeatureBoundaryHole,
			core.FeatureType(ma.Type),
		}
		return graphics, scope, err
	}
	return nil, nil, fmt.Errorf("unknown market-area type %q", ma.Type)
}

func fillSymbol(style core.StyleSettings) core.Symbol {
	sym := core.Symbol{Kind: core.SymbolFill}
	if !style.NoFill {
		sym.Color = style.FillColor
		sym.Opacity = style.FillOpacity
	}
	if !style.NoBorder {
		sym.OutlineColor = style.BorderColor
		sym.OutlineWidth = style.BorderWidth
	}
	return sym
}

func lineSymbol(style core.StyleSettings) core.Symbol {
	return core.Symbol{
		Kind:         core.SymbolLine,
		OutlineColor: style.BorderColor,
		OutlineWidth: style.BorderWidth,
	}
}
