package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/tcgis/marketarea/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func TestNormalizeGeoJSONPolygon(t *testing.T) {
	raw := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)
	c := Normalize(raw, SRIDWGS84)
	if c == nil {
		t.Fatal("GeoJSON polygon did not normalize")
	}
	if c.SRID != SRIDWGS84 {
		t.Errorf("expected SRID %d, got %d", SRIDWGS84, c.SRID)
	}
	if c.Geometry.Type() != geom.TypePolygon {
		t.Errorf("expected polygon, got %s", c.Geometry.Type())
	}
}

func TestNormalizeRingsObject(t *testing.T) {
	raw := `{"rings":[[[0,0],[100,0],[100,100],[0,100],[0,0]]],"spatialReference":{"wkid":102100}}`
	c := Normalize(raw, SRIDWGS84)
	if c == nil {
		t.Fatal("rings object did not normalize")
	}
	if c.SRID != SRIDWebMercator {
		t.Errorf("legacy wkid 102100 should normalize to 3857, got %d", c.SRID)
	}
	if c.Geometry.Type() != geom.TypePolygon {
		t.Errorf("expected polygon, got %s", c.Geometry.Type())
	}
}

func TestNormalizeSkipsMalformedRing(t *testing.T) {
	// Second ring has only two vertices and must be dropped without
	// failing the polygon.
	raw := `{"rings":[[[0,0],[10,0],[10,10],[0,0]],[[1,1],[2,2]]]}`
	c := Normalize(raw, SRIDWebMercator)
	if c == nil {
		t.Fatal("polygon with one bad ring should still normalize")
	}
	p := c.Geometry.MustAsPolygon()
	if p.NumInteriorRings() != 0 {
		t.Errorf("malformed ring should have been dropped, got %d interior rings", p.NumInteriorRings())
	}
}

func TestNormalizeRejectsDegenerateRing(t *testing.T) {
	raw := `{"rings":[[[0,0],[1,1]]]}`
	if c := Normalize(raw, SRIDWGS84); c != nil {
		t.Errorf("ring with fewer than 3 vertices should not normalize, got %+v", c)
	}
}

func TestNormalizeStringWrapped(t *testing.T) {
	raw := json.RawMessage(`"{\"type\":\"Point\",\"coordinates\":[-97.1,32.7]}"`)
	c := Normalize(raw, SRIDWGS84)
	if c == nil {
		t.Fatal("string-wrapped payload did not normalize")
	}
	if c.Geometry.Type() != geom.TypePoint {
		t.Errorf("expected point, got %s", c.Geometry.Type())
	}
}

func TestNormalizePointLikes(t *testing.T) {
	c := Normalize(map[string]any{"longitude": -97.1, "latitude": 32.7}, SRIDWebMercator)
	if c == nil {
		t.Fatal("longitude/latitude object did not normalize")
	}
	if c.SRID != SRIDWGS84 {
		t.Errorf("geographic point should carry SRID 4326, got %d", c.SRID)
	}

	// x/y without an explicit reference is projected data.
	c = Normalize(map[string]any{"x": -10808000.0, "y": 3857000.0}, SRIDWGS84)
	if c == nil {
		t.Fatal("x/y object did not normalize")
	}
	if c.SRID != SRIDWebMercator {
		t.Errorf("bare x/y should default to 3857, got %d", c.SRID)
	}
}

func TestNormalizeRejectsPartialPoint(t *testing.T) {
	// One coordinate of a pair is not a point.
	for _, m := range []map[string]any{
		{"x": -10808000.0},
		{"longitude": -97.1},
		{"x": "west", "y": 3857000.0},
	} {
		if c := Normalize(m, SRIDWGS84); c != nil {
			t.Errorf("partial point %v should normalize to nil, got %+v", m, c)
		}
	}
}

func TestNormalizeKeyScan(t *testing.T) {
	raw := `{"points":[[0,0],[50,0],[50,50],[0,50]]}`
	c := Normalize(raw, SRIDWebMercator)
	if c == nil {
		t.Fatal("coordinate key scan did not normalize")
	}
	if c.Geometry.Type() != geom.TypePolygon {
		t.Errorf("four vertices should close into a polygon, got %s", c.Geometry.Type())
	}
}

func TestNormalizeBatchSkipsMalformed(t *testing.T) {
	batch := []any{
		`{"type":"Point","coordinates":[-97.1,32.7]}`,
		`{"rings":[[[0,0],[1,1]]]}`,
		map[string]any{"longitude": -96.8, "latitude": 32.8},
		"definitely not geometry",
		`{"rings":[[[0,0],[10,0],[10,10],[0,0]]]}`,
	}
	var ok int
	for _, raw := range batch {
		if Normalize(raw, SRIDWGS84) != nil {
			ok++
		}
	}
	if ok != 3 {
		t.Errorf("expected valid count = batch size minus malformed = 3, got %d", ok)
	}
}

func TestNormalizeGarbage(t *testing.T) {
	for _, raw := range []any{nil, "not json", `{"foo":1}`, json.RawMessage(`[]`), ""} {
		if c := Normalize(raw, SRIDWGS84); c != nil {
			t.Errorf("unrecognizable payload %v should normalize to nil, got %+v", raw, c)
		}
	}
}

func TestNormalizeSRIDAliases(t *testing.T) {
	cases := map[int]int{
		0:      SRIDWGS84,
		102100: SRIDWebMercator,
		900913: SRIDWebMercator,
		4326:   4326,
		2278:   2278,
	}
	for wkid, want := range cases {
		if got := NormalizeSRID(wkid, SRIDWGS84); got != want {
			t.Errorf("NormalizeSRID(%d) = %d, want %d", wkid, got, want)
		}
	}
}

func TestLonLatRoundTrip(t *testing.T) {
	lon, lat := -97.1, 32.7
	spec := core.PointSpec{Longitude: &lon, Latitude: &lat}
	xy, ok := LonLat(spec)
	if !ok || xy.X != lon || xy.Y != lat {
		t.Fatalf("geographic spec did not resolve: %v %v", xy, ok)
	}

	// Project the same point and resolve it back through x/y.
	pt := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: lon, Y: lat}})
	projected, err := Transform(pt.AsGeometry(), SRIDWGS84, SRIDWebMercator)
	if err != nil {
		t.Fatalf("projecting point: %v", err)
	}
	coords, ok := projected.MustAsPoint().Coordinates()
	if !ok {
		t.Fatal("projected point has no coordinates")
	}
	back, ok := LonLat(core.PointSpec{X: &coords.X, Y: &coords.Y})
	if !ok {
		t.Fatal("projected spec did not resolve")
	}
	if math.Abs(back.X-lon) > 1e-6 || math.Abs(back.Y-lat) > 1e-6 {
		t.Errorf("round trip drifted: got %v, want (%v, %v)", back, lon, lat)
	}
}

func TestLonLatRejectsNonFinite(t *testing.T) {
	bad := math.NaN()
	lat := 32.7
	if _, ok := LonLat(core.PointSpec{Longitude: &bad, Latitude: &lat}); ok {
		t.Error("NaN longitude should not resolve")
	}
	if _, ok := LonLat(core.PointSpec{}); ok {
		t.Error("empty spec should not resolve")
	}
}

func TestSignedRingArea(t *testing.T) {
	ccw := geom.NewLineString(geom.NewSequence([]float64{
		0, 0, 1, 0, 1, 1, 0, 1, 0, 0,
	}, geom.DimXY))
	if area := SignedRingArea(ccw); math.Abs(area-1) > 1e-12 {
		t.Errorf("CCW unit square area = %v, want 1", area)
	}

	cw := geom.NewLineString(geom.NewSequence([]float64{
		0, 0, 0, 1, 1, 1, 1, 0, 0, 0,
	}, geom.DimXY))
	if area := SignedRingArea(cw); math.Abs(area+1) > 1e-12 {
		t.Errorf("CW unit square area = %v, want -1", area)
	}
}
