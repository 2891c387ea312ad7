package geo

import (
	"fmt"
	"log/slog"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// MetersPerMile converts the stored mile distances into buffer radii.
const MetersPerMile = 1609.34

// earthRadius is the WGS84 equatorial radius in meters, the sphere the
// geodesic buffer approximation is computed on.
const earthRadius = 6378137.0

// bufferSegments is the vertex count of a generated buffer ring.
const bufferSegments = 64

// GeodesicBuffer returns a polygon approximating all points within the
// given great-circle distance of a geographic center. The result is
// reprojected to 3857 for drawing.
func GeodesicBuffer(center geom.XY, meters float64) (geom.Polygon, error) {
	if meters <= 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return geom.Polygon{}, fmt.Errorf("%w: non-positive buffer distance %v", ErrInvalidGeometry, meters)
	}
	if !finiteXY(center) || math.Abs(center.Y) > 89.9 {
		return geom.Polygon{}, fmt.Errorf("%w: buffer center out of range", ErrInvalidGeometry)
	}

	lat1 := center.Y * math.Pi / 180
	lon1 := center.X * math.Pi / 180
	angular := meters / earthRadius

	flat := make([]float64, 0, (bufferSegments+1)*2)
	for i := 0; i <= bufferSegments; i++ {
		bearing := 2 * math.Pi * float64(i) / bufferSegments
		lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
			math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(
			math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
			math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
		)
		flat = append(flat, lon2*180/math.Pi, lat2*180/math.Pi)
	}

	ring := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	poly := geom.NewPolygon([]geom.LineString{ring})
	projected, err := Transform(poly.AsGeometry(), SRIDWGS84, SRIDWebMercator)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("projecting buffer ring: %w", err)
	}
	return projected.MustAsPolygon(), nil
}

// BufferRadii buffers the center once per mile distance. Output order
// matches input order so callers can derive draw order from position.
// Non-positive or non-finite distances are dropped, and a failed buffer
// skips only its own ring.
func BufferRadii(center geom.XY, miles []float64, logger *slog.Logger) []geom.Polygon {
	rings := make([]geom.Polygon, 0, len(miles))
	for _, mi := range miles {
		if mi <= 0 || math.IsNaN(mi) || math.IsInf(mi, 0) {
			continue
		}
		ring, err := GeodesicBuffer(center, mi*MetersPerMile)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping radius ring", "miles", mi, "error", err)
			}
			continue
		}
		rings = append(rings, ring)
	}
	return rings
}

// SquareAround returns an axis-aligned square centered on a geographic
// point with the given half-width in degrees, reprojected to 3857. It
// is the drive-time resolver's last fallback.
func SquareAround(center geom.XY, halfWidthDeg float64) (geom.Polygon, error) {
	if halfWidthDeg <= 0 || !finiteXY(center) {
		return geom.Polygon{}, fmt.Errorf("%w: invalid square fallback parameters", ErrInvalidGeometry)
	}
	minX, maxX := center.X-halfWidthDeg, center.X+halfWidthDeg
	minY, maxY := center.Y-halfWidthDeg, center.Y+halfWidthDeg
	flat := []float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}
	ring := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	poly := geom.NewPolygon([]geom.LineString{ring})
	projected, err := Transform(poly.AsGeometry(), SRIDWGS84, SRIDWebMercator)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("projecting square fallback: %w", err)
	}
	return projected.MustAsPolygon(), nil
}
