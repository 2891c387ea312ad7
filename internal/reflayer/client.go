// Package reflayer queries the reference-layer feature service that
// backs polygon-selection market areas.
package reflayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Feature is one reference-layer feature: administrative attributes
// plus its raw geometry payload, left undecoded for the normalizer.
type Feature struct {
	Attributes map[string]any  `json:"attributes"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Client queries a reference-layer endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a reference-layer client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type queryResponse struct {
	Features []Feature `json:"features"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Query fetches features of the given layer matching the where clause,
// with geometry in the requested spatial reference. The boundary
// pipeline uses this to get high-resolution source polygons before
// unioning; callers fall back to their held geometry when it fails.
func (c *Client) Query(ctx context.Context, layer, where string, outSR int) ([]Feature, error) {
	params := url.Values{}
	params.Set("where", where)
	params.Set("outSR", fmt.Sprintf("%d", outSR))
	params.Set("outFields", "*")
	params.Set("returnGeometry", "true")
	params.Set("f", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+url.PathEscape(layer)+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building layer query: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("layer query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("layer query returned status %d", resp.StatusCode)
	}

	var payload queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding layer query response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("layer query error %d: %s",
			payload.Error.Code, payload.Error.Message)
	}
	return payload.Features, nil
}
