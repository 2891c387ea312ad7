// Package drivetime resolves drive-time isochrones with a multi-stage
// fallback: routing service, then geodesic buffer, then a plain square.
package drivetime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tcgis/marketarea/internal/geo"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ServiceAreaClient computes an isochrone polygon for a center and a
// single time break. Implementations return the polygon in the
// requested spatial reference.
type ServiceAreaClient interface {
	ServiceArea(ctx context.Context, center geom.XY, minutes float64, outSR int) (geom.Polygon, error)
}

// Client calls the external service-area endpoint over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	travelMode string
	httpClient *http.Client
}

// NewClient creates a service-area client.
func NewClient(baseURL, apiKey, travelMode string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		travelMode: travelMode,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type serviceAreaResponse struct {
	Polygons []struct {
		Rings [][][]float64 `json:"rings"`
	} `json:"polygons"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ServiceArea requests one drive-time polygon. Only the first returned
// feature's geometry is used.
func (c *Client) ServiceArea(ctx context.Context, center geom.XY, minutes float64, outSR int) (geom.Polygon, error) {
	params := url.Values{}
	params.Set("facility", fmt.Sprintf("%f,%f", center.X, center.Y))
	params.Set("breakMinutes", fmt.Sprintf("%f", minutes))
	params.Set("outSR", fmt.Sprintf("%d", outSR))
	params.Set("travelMode", c.travelMode)
	params.Set("f", "json")
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/serviceArea?"+params.Encode(), nil)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("building service-area request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("service-area request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geom.Polygon{}, fmt.Errorf("service-area returned status %d", resp.StatusCode)
	}

	var payload serviceAreaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geom.Polygon{}, fmt.Errorf("decoding service-area response: %w", err)
	}
	if payload.Error != nil {
		return geom.Polygon{}, fmt.Errorf("service-area error %d: %s",
			payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Polygons) == 0 {
		return geom.Polygon{}, fmt.Errorf("service-area returned no polygons")
	}

	poly, ok := polygonFromRings(payload.Polygons[0].Rings)
	if !ok {
		return geom.Polygon{}, fmt.Errorf("service-area returned unusable rings")
	}
	return poly, nil
}

func polygonFromRings(rings [][][]float64) (geom.Polygon, bool) {
	b, err := json.Marshal(map[string]any{"rings": rings})
	if err != nil {
		return geom.Polygon{}, false
	}
	c := geo.Normalize(b, geo.SRIDWebMercator)
	if c == nil || c.Geometry.Type() != geom.TypePolygon {
		return geom.Polygon{}, false
	}
	return c.Geometry.MustAsPolygon(), true
}
