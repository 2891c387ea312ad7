package reflayer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQuery(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"features":[
			{"attributes":{"GEOID":"48113"},"geometry":{"rings":[[[0,0],[1,0],[1,1],[0,0]]]}},
			{"attributes":{"GEOID":"48085"},"geometry":{"rings":[[[2,2],[3,2],[3,3],[2,2]]]}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	features, err := c.Query(context.Background(), "county", "GEOID IN ('48113','48085')", 3857)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].Attributes["GEOID"] != "48113" {
		t.Errorf("unexpected attributes: %+v", features[0].Attributes)
	}
	if len(features[0].Geometry) == 0 {
		t.Error("geometry payload should pass through undecoded")
	}

	if gotPath != "/county/query" {
		t.Errorf("unexpected path %s", gotPath)
	}
	for _, param := range []string{"outSR=3857", "returnGeometry=true", "f=json"} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("query missing %q: %s", param, gotQuery)
		}
	}
}

func TestQueryErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":500,"message":"layer offline"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Query(context.Background(), "county", "1=1", 3857); err == nil {
		t.Error("embedded error payload should surface as an error")
	}
}

func TestQueryHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Query(context.Background(), "county", "1=1", 3857); err == nil {
		t.Error("non-200 status should surface as an error")
	}
}
