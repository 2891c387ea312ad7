package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// Ops is the planar geometry surface the unification engine depends on.
// Keeping it an interface lets tests drive the repair and fallback
// paths with deliberately failing implementations.
type Ops interface {
	Union(a, b geom.Geometry) (geom.Geometry, error)
	Simplify(g geom.Geometry, tolerance float64) (geom.Geometry, error)
	// Repair resolves duplicate vertices and self-touching rings so a
	// failed union can be retried.
	Repair(g geom.Geometry) (geom.Geometry, error)
	RingArea(ring geom.LineString) float64
	RingPerimeter(ring geom.LineString) float64
}

// SimpleFeaturesOps implements Ops on the simplefeatures library.
type SimpleFeaturesOps struct{}

func (SimpleFeaturesOps) Union(a, b geom.Geometry) (geom.Geometry, error) {
	return geom.Union(a, b)
}

func (SimpleFeaturesOps) Simplify(g geom.Geometry, tolerance float64) (geom.Geometry, error) {
	return g.Simplify(tolerance)
}

func (SimpleFeaturesOps) Repair(g geom.Geometry) (geom.Geometry, error) {
	// A zero-tolerance simplify drops repeated points and collinear
	// slivers, the usual causes of union failures on stored polygons.
	repaired, err := g.Simplify(0)
	if err != nil {
		return g, err
	}
	if repaired.IsEmpty() {
		return g, nil
	}
	return repaired, nil
}

func (SimpleFeaturesOps) RingArea(ring geom.LineString) float64 {
	return SignedRingArea(ring)
}

func (SimpleFeaturesOps) RingPerimeter(ring geom.LineString) float64 {
	return ring.Length()
}

// SignedRingArea computes the shoelace area of a closed ring. Positive
// means counter-clockwise winding (an exterior ring under the OGC
// convention), negative means clockwise (a hole).
func SignedRingArea(ring geom.LineString) float64 {
	seq := ring.Coordinates()
	n := seq.Length()
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < n; i++ {
		a := seq.GetXY(i)
		b := seq.GetXY(i + 1)
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}
