package core

import "testing"

func TestOrStyleDefaults(t *testing.T) {
	var unset StyleSettings
	got := unset.OrStyleDefaults()
	want := DefaultStyle()
	if got != want {
		t.Errorf("unset style should resolve to defaults, got %+v", got)
	}

	custom := StyleSettings{FillColor: "#222222", FillOpacity: 0.5}
	if custom.OrStyleDefaults() != custom {
		t.Error("explicit style must pass through unchanged")
	}

	// noFill alone is a deliberate setting, not an unset record.
	noFill := StyleSettings{NoFill: true}
	if noFill.OrStyleDefaults() != noFill {
		t.Error("noFill-only style must not be replaced by defaults")
	}
}

func TestIsPolygonType(t *testing.T) {
	for _, maType := range []string{TypeRadius, TypeDriveTime, TypeSiteLocation, ""} {
		if IsPolygonType(maType) {
			t.Errorf("%q should not be a polygon type", maType)
		}
	}
	for _, maType := range []string{TypeZip, TypeCounty, TypeTract, TypeUSA} {
		if !IsPolygonType(maType) {
			t.Errorf("%q should be a polygon type", maType)
		}
	}
}

func TestNextOrder(t *testing.T) {
	if got := NextOrder(nil); got != 1 {
		t.Errorf("first area should get order 1, got %d", got)
	}
	areas := []MarketArea{{Order: 2}, {Order: 7}, {Order: 4}}
	if got := NextOrder(areas); got != 8 {
		t.Errorf("NextOrder = %d, want 8", got)
	}
}

func TestTransparentSymbol(t *testing.T) {
	sym := TransparentSymbol()
	if sym.Kind != SymbolFill || sym.Opacity != 0 {
		t.Errorf("placeholder symbol must be an invisible fill, got %+v", sym)
	}
}
