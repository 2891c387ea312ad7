// Package unify merges the constituent polygons of a market area into
// a single boundary and classifies the resulting rings into exterior
// boundary and interior holes.
package unify

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tcgis/marketarea/internal/geo"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrUnionFailed is returned when no unified boundary could be
// produced, even after repairing and dropping operands. The caller
// treats that market area's boundary as unavailable rather than
// failing the whole update.
var ErrUnionFailed = errors.New("polygon union failed")

// Thresholds gate which interior rings count as real holes.
// A ring failing both gates is union/simplify numerical noise, not a
// visible void. The defaults are empirical; both are configurable.
type Thresholds struct {
	// HoleAreaRatio scales the total boundary area into the minimum
	// absolute area a hole must exceed.
	HoleAreaRatio float64
	// MinHolePerimeter is the minimum hole perimeter in map units.
	MinHolePerimeter float64
	// SimplifyTolerance is passed to the post-union simplify. Zero
	// removes only redundant vertices.
	SimplifyTolerance float64
}

// DefaultThresholds returns the gates used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HoleAreaRatio:    0.001,
		MinHolePerimeter: 100,
	}
}

// Boundary is a unified market-area outline: one or more exterior
// rings plus the interior holes that survived the noise gates.
type Boundary struct {
	Exterior []geom.LineString
	Holes    []geom.LineString
}

// Engine unions polygons and classifies boundary rings.
type Engine struct {
	ops        geo.Ops
	logger     *slog.Logger
	thresholds Thresholds
	observe    func(elapsed time.Duration, inputs, exteriors, holes, dropped int)
}

// NewEngine creates a unification engine on the given geometry ops.
func NewEngine(ops geo.Ops, thresholds Thresholds, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ops: ops, logger: logger, thresholds: thresholds}
}

// SetObserver registers a callback invoked after each successful
// unification, for performance recording.
func (e *Engine) SetObserver(fn func(elapsed time.Duration, inputs, exteriors, holes, dropped int)) {
	e.observe = fn
}

func (e *Engine) report(start time.Time, inputs, exteriors, holes, dropped int) {
	if e.observe != nil {
		e.observe(time.Since(start), inputs, exteriors, holes, dropped)
	}
}

// Unify merges the polygons into one boundary. A single polygon short
// circuits straight to ring extraction. Union failures are repaired and
// retried once per operand pair; an operand that still fails is dropped
// so the remaining inputs keep contributing. ErrUnionFailed is returned
// only when nothing usable remains.
func (e *Engine) Unify(polygons []geom.Polygon) (*Boundary, error) {
	start := time.Now()
	switch len(polygons) {
	case 0:
		return nil, fmt.Errorf("%w: no input polygons", ErrUnionFailed)
	case 1:
		b := boundaryFromPolygon(polygons[0])
		e.report(start, 1, len(b.Exterior), len(b.Holes), 0)
		return b, nil
	}

	acc := polygons[0].AsGeometry()
	dropped := 0
	for _, next := range polygons[1:] {
		merged, err := RepairRetry(e.ops.Union, e.ops.Repair, acc, next.AsGeometry(), 2)
		if err != nil {
			dropped++
			e.logger.Warn("dropping polygon from union", "error", err)
			continue
		}
		acc = merged
	}
	if acc.IsEmpty() {
		return nil, fmt.Errorf("%w: all operands dropped", ErrUnionFailed)
	}
	if dropped > 0 {
		e.logger.Info("unified boundary with dropped operands",
			"dropped", dropped, "total", len(polygons))
	}

	simplified, err := e.ops.Simplify(acc, e.thresholds.SimplifyTolerance)
	if err != nil || simplified.IsEmpty() {
		// The unsimplified union still classifies correctly, just with
		// more vertices.
		e.logger.Warn("simplify failed, using raw union", "error", err)
		simplified = acc
	}

	boundary := e.Classify(simplified)
	if boundary == nil {
		return nil, fmt.Errorf("%w: union produced no polygonal rings", ErrUnionFailed)
	}
	e.report(start, len(polygons), len(boundary.Exterior), len(boundary.Holes), dropped)
	return boundary, nil
}

// Classify splits a unified geometry's rings into exterior boundary and
// holes by their structural role: each polygon's outer ring is exterior,
// its interior rings are hole candidates. Ring winding is not trusted;
// union implementations are free to orient rings either way. An
// interior ring survives when its absolute area exceeds HoleAreaRatio
// of the total area or its perimeter exceeds MinHolePerimeter; a ring
// failing both gates is discarded as numerical noise. Returns nil for
// non-polygonal input.
func (e *Engine) Classify(g geom.Geometry) *Boundary {
	polys := polygonsOf(g)
	if len(polys) == 0 {
		return nil
	}

	var totalArea float64
	for _, p := range polys {
		totalArea += p.Area()
	}
	minHoleArea := e.thresholds.HoleAreaRatio * totalArea

	boundary := &Boundary{}
	for _, p := range polys {
		boundary.Exterior = append(boundary.Exterior, p.ExteriorRing())
		for i := 0; i < p.NumInteriorRings(); i++ {
			ring := p.InteriorRingN(i)
			area := math.Abs(e.ops.RingArea(ring))
			if area > minHoleArea || e.ops.RingPerimeter(ring) > e.thresholds.MinHolePerimeter {
				boundary.Holes = append(boundary.Holes, ring)
			}
		}
	}
	return boundary
}

// AsPolygons reassembles the boundary into one polygon per exterior
// ring, attaching each hole to the first exterior ring. Useful for
// re-unifying and for building fill graphics.
func (b *Boundary) AsPolygons() []geom.Polygon {
	polys := make([]geom.Polygon, 0, len(b.Exterior))
	for i, ext := range b.Exterior {
		rings := []geom.LineString{ext}
		if i == 0 {
			rings = append(rings, b.Holes...)
		}
		polys = append(polys, geom.NewPolygon(rings))
	}
	return polys
}

// boundaryFromPolygon extracts rings without union or gating; a stored
// single polygon's holes are authoritative, not numerical artifacts.
func boundaryFromPolygon(p geom.Polygon) *Boundary {
	b := &Boundary{Exterior: []geom.LineString{p.ExteriorRing()}}
	for i := 0; i < p.NumInteriorRings(); i++ {
		b.Holes = append(b.Holes, p.InteriorRingN(i))
	}
	return b
}

func polygonsOf(g geom.Geometry) []geom.Polygon {
	switch g.Type() {
	case geom.TypePolygon:
		return []geom.Polygon{g.MustAsPolygon()}
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		polys := make([]geom.Polygon, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			polys = append(polys, mp.PolygonN(i))
		}
		return polys
	}
	return nil
}
