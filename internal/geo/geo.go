// Package geo normalizes the loosely-typed stored geometry payloads
// into simplefeatures geometries and provides the planar primitives the
// rest of the engine builds on.
package geo

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/tcgis/marketarea/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// All drawn geometry is stored as 3857, matching what the host canvas
// paints. Stored payloads default to 4326 unless they carry a
// spatialReference.
const (
	SRIDWGS84       = 4326
	SRIDWebMercator = 3857
)

// ErrInvalidGeometry is returned when a stored payload cannot be
// resolved into a usable geometry.
var ErrInvalidGeometry = errors.New("invalid geometry payload")

// Canonical is a normalized geometry tagged with its spatial reference.
type Canonical struct {
	Geometry geom.Geometry
	SRID     int
}

// NormalizeSRID folds well-known aliases onto their canonical codes.
// 102100 is the legacy Web Mercator WKID.
func NormalizeSRID(wkid, fallback int) int {
	switch wkid {
	case 0:
		return fallback
	case 102100, 900913:
		return SRIDWebMercator
	}
	return wkid
}

// Transform reprojects every vertex of g between the given EPSG codes.
func Transform(g geom.Geometry, from, to int) (geom.Geometry, error) {
	if from == to {
		return g, nil
	}
	f := wgs84.EPSG().Transform(from, to)
	return g.TransformXY(func(xy geom.XY) geom.XY {
		x, y, _ := f(xy.X, xy.Y, 0)
		return geom.XY{X: x, Y: y}
	}), nil
}

// ToWebMercator reprojects a canonical geometry into 3857.
func ToWebMercator(c *Canonical) (geom.Geometry, error) {
	return Transform(c.Geometry, c.SRID, SRIDWebMercator)
}

// LonLat resolves a stored point spec to geographic coordinates.
// Projected x/y points are transformed back through their spatial
// reference (Web Mercator when unspecified). Returns false when the
// spec does not resolve to finite coordinates.
func LonLat(spec core.PointSpec) (geom.XY, bool) {
	if spec.Longitude != nil && spec.Latitude != nil {
		xy := geom.XY{X: *spec.Longitude, Y: *spec.Latitude}
		return xy, finiteXY(xy)
	}
	if spec.X != nil && spec.Y != nil {
		srid := SRIDWebMercator
		if spec.SpatialReference != nil {
			srid = NormalizeSRID(spec.SpatialReference.WKID, SRIDWebMercator)
		}
		f := wgs84.EPSG().Transform(srid, SRIDWGS84)
		lon, lat, _ := f(*spec.X, *spec.Y, 0)
		xy := geom.XY{X: lon, Y: lat}
		return xy, finiteXY(xy)
	}
	return geom.XY{}, false
}

func finiteXY(xy geom.XY) bool {
	return !math.IsNaN(xy.X) && !math.IsInf(xy.X, 0) &&
		!math.IsNaN(xy.Y) && !math.IsInf(xy.Y, 0)
}

// Normalize converts a stored geometry or point description into a
// canonical geometry. It accepts simplefeatures geometries, point
// specs, GeoJSON-like objects, rings/paths objects, raw JSON (string or
// bytes) of any of those, and, as a last resort, arbitrary objects
// scanned for coordinate-bearing keys. It returns nil for anything it
// cannot recognize; one malformed item must never abort a batch, so
// callers skip nil results and continue.
func Normalize(raw any, fallbackSRID int) *Canonical {
	if fallbackSRID == 0 {
		fallbackSRID = SRIDWGS84
	}
	switch v := raw.(type) {
	case nil:
		return nil
	case geom.Geometry:
		if v.IsEmpty() {
			return nil
		}
		return &Canonical{Geometry: v, SRID: fallbackSRID}
	case core.PointSpec:
		return pointFromSpec(v)
	case *core.PointSpec:
		if v == nil {
			return nil
		}
		return pointFromSpec(*v)
	case json.RawMessage:
		return normalizeJSON([]byte(v), fallbackSRID)
	case []byte:
		return normalizeJSON(v, fallbackSRID)
	case string:
		return normalizeJSON([]byte(v), fallbackSRID)
	case map[string]any:
		return normalizeMap(v, fallbackSRID)
	}
	// Unknown concrete type: try a JSON round trip into a map.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return normalizeJSON(b, fallbackSRID)
}

func normalizeJSON(data []byte, fallbackSRID int) *Canonical {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch m := v.(type) {
	case string:
		// JSON-encoded string wrapping the real payload.
		if m == "" {
			return nil
		}
		return normalizeJSON([]byte(m), fallbackSRID)
	case map[string]any:
		return normalizeMap(m, fallbackSRID)
	}
	return nil
}

func normalizeMap(m map[string]any, fallbackSRID int) *Canonical {
	srid := fallbackSRID
	if sr, ok := m["spatialReference"].(map[string]any); ok {
		if wkid, ok := sr["wkid"].(float64); ok {
			srid = NormalizeSRID(int(wkid), fallbackSRID)
		}
	}

	// GeoJSON-like {type, coordinates}.
	if _, hasType := m["type"].(string); hasType {
		if _, hasCoords := m["coordinates"]; hasCoords {
			b, err := json.Marshal(m)
			if err != nil {
				return nil
			}
			g, err := geom.UnmarshalGeoJSON(b)
			if err != nil || g.IsEmpty() {
				return nil
			}
			return &Canonical{Geometry: g, SRID: srid}
		}
	}

	// Polygon {rings} object.
	if rings, ok := m["rings"]; ok {
		p, ok := polygonFromRings(rings)
		if !ok {
			return nil
		}
		return &Canonical{Geometry: p.AsGeometry(), SRID: srid}
	}

	// Polyline {paths} object.
	if paths, ok := m["paths"]; ok {
		ls, ok := lineFromPaths(paths)
		if !ok {
			return nil
		}
		return &Canonical{Geometry: ls.AsGeometry(), SRID: srid}
	}

	// Point-likes.
	if lon, lat, ok := numberPair(m, "longitude", "latitude"); ok {
		return pointCanonical(lon, lat, SRIDWGS84)
	}
	if x, y, ok := numberPair(m, "x", "y"); ok {
		if srid == fallbackSRID && fallbackSRID == SRIDWGS84 {
			// x/y without an explicit reference is projected data.
			srid = SRIDWebMercator
		}
		return pointCanonical(x, y, srid)
	}

	// Last resort: scan for coordinate-bearing keys.
	for _, key := range []string{"coordinates", "coords", "points", "vertices"} {
		v, ok := m[key]
		if !ok {
			continue
		}
		coords, ok := coordList(v)
		if !ok {
			continue
		}
		switch {
		case len(coords) >= 3:
			ring, ok := ringFromCoords(coords)
			if !ok {
				return nil
			}
			p := geom.NewPolygon([]geom.LineString{ring})
			return &Canonical{Geometry: p.AsGeometry(), SRID: srid}
		case len(coords) == 2:
			ls, ok := lineFromCoords(coords)
			if !ok {
				return nil
			}
			return &Canonical{Geometry: ls.AsGeometry(), SRID: srid}
		case len(coords) == 1:
			return pointCanonical(coords[0][0], coords[0][1], srid)
		}
	}

	return nil
}

func pointFromSpec(spec core.PointSpec) *Canonical {
	if spec.Longitude != nil && spec.Latitude != nil {
		return pointCanonical(*spec.Longitude, *spec.Latitude, SRIDWGS84)
	}
	if spec.X != nil && spec.Y != nil {
		srid := SRIDWebMercator
		if spec.SpatialReference != nil {
			srid = NormalizeSRID(spec.SpatialReference.WKID, SRIDWebMercator)
		}
		return pointCanonical(*spec.X, *spec.Y, srid)
	}
	return nil
}

func pointCanonical(x, y float64, srid int) *Canonical {
	xy := geom.XY{X: x, Y: y}
	if !finiteXY(xy) {
		return nil
	}
	pt := geom.NewPoint(geom.Coordinates{XY: xy})
	return &Canonical{Geometry: pt.AsGeometry(), SRID: srid}
}

// numberPair reads two numeric keys from a decoded JSON object. Both
// must be present and numeric.
func numberPair(m map[string]any, xKey, yKey string) (float64, float64, bool) {
	x, xok := m[xKey].(float64)
	y, yok := m[yKey].(float64)
	if !xok || !yok {
		return 0, 0, false
	}
	return x, y, true
}

// coordList converts an arbitrary decoded JSON value into a list of
// [x y] pairs. A bare [x, y] pair is accepted as a single-entry list.
func coordList(v any) ([][]float64, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	// Bare pair of numbers.
	if _, isNum := list[0].(float64); isNum {
		if len(list) < 2 {
			return nil, false
		}
		x, xok := list[0].(float64)
		y, yok := list[1].(float64)
		if !xok || !yok {
			return nil, false
		}
		return [][]float64{{x, y}}, true
	}
	coords := make([][]float64, 0, len(list))
	for _, entry := range list {
		pair, ok := entry.([]any)
		if !ok || len(pair) < 2 {
			return nil, false
		}
		x, xok := pair[0].(float64)
		y, yok := pair[1].(float64)
		if !xok || !yok {
			return nil, false
		}
		coords = append(coords, []float64{x, y})
	}
	return coords, true
}

// ringFromCoords builds a closed linear ring. Rings with fewer than 3
// distinct vertices are rejected.
func ringFromCoords(coords [][]float64) (geom.LineString, bool) {
	if len(coords) < 3 {
		return geom.LineString{}, false
	}
	closed := coords
	first, last := coords[0], coords[len(coords)-1]
	if first[0] != last[0] || first[1] != last[1] {
		closed = append(append([][]float64{}, coords...), first)
	}
	if len(closed) < 4 {
		return geom.LineString{}, false
	}
	flat := make([]float64, 0, len(closed)*2)
	for _, c := range closed {
		if math.IsNaN(c[0]) || math.IsNaN(c[1]) {
			return geom.LineString{}, false
		}
		flat = append(flat, c[0], c[1])
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), true
}

func lineFromCoords(coords [][]float64) (geom.LineString, bool) {
	if len(coords) < 2 {
		return geom.LineString{}, false
	}
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), true
}

// polygonFromRings builds a polygon from a {rings: [...]} payload. The
// first usable ring is the exterior; later rings become interior rings.
// Individual malformed rings are skipped rather than failing the whole
// polygon.
func polygonFromRings(v any) (geom.Polygon, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return geom.Polygon{}, false
	}
	var rings []geom.LineString
	for _, entry := range list {
		coords, ok := coordList(entry)
		if !ok {
			continue
		}
		ring, ok := ringFromCoords(coords)
		if !ok {
			continue
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return geom.Polygon{}, false
	}
	return geom.NewPolygon(rings), true
}

// lineFromPaths builds a line string from the first path of a
// {paths: [...]} payload.
func lineFromPaths(v any) (geom.LineString, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return geom.LineString{}, false
	}
	coords, ok := coordList(list[0])
	if !ok {
		return geom.LineString{}, false
	}
	return lineFromCoords(coords)
}
