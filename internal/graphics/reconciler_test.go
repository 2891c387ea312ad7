package graphics

import (
	"context"
	"errors"
	"testing"

	"github.com/tcgis/marketarea/pkg/core"
)

func graphic(maID string, ft core.FeatureType, order, renderOrder int) core.Graphic {
	return core.Graphic{MarketAreaID: maID, FeatureType: ft, Order: order, RenderOrder: renderOrder}
}

func newTestReconciler(t *testing.T) (*Reconciler, *Store) {
	t.Helper()
	store := NewStore()
	r, err := NewReconciler(store, nil)
	if err != nil {
		t.Fatalf("NewReconciler failed: %v", err)
	}
	return r, store
}

func TestReconcileScopedReplacement(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	// Seed two market areas plus an out-of-scope feature on "a".
	_, err := r.Reconcile(ctx, []Target{
		{
			MarketAreaID: "a",
			Scope:        []core.FeatureType{core.FeatureRadius, core.FeatureSiteLocation},
			Graphics: []core.Graphic{
				graphic("a", core.FeatureRadius, 1, 0),
				graphic("a", core.FeatureRadius, 1, 1),
				graphic("a", core.FeatureSiteLocation, 1, 2),
			},
		},
		{
			MarketAreaID: "b",
			Scope:        []core.FeatureType{core.FeatureDriveTime},
			Graphics:     []core.Graphic{graphic("b", core.FeatureDriveTime, 2, 0)},
		},
	})
	if err != nil {
		t.Fatalf("seed pass failed: %v", err)
	}

	// Replace only a's radius rings.
	delta, err := r.Reconcile(ctx, []Target{{
		MarketAreaID: "a",
		Scope:        []core.FeatureType{core.FeatureRadius},
		Graphics:     []core.Graphic{graphic("a", core.FeatureRadius, 1, 0)},
	}})
	if err != nil {
		t.Fatalf("scoped pass failed: %v", err)
	}
	if delta.Removed != 2 || delta.Added != 1 {
		t.Errorf("delta = %+v, want 2 removed / 1 added", delta)
	}

	if got := len(store.ForMarketArea("b")); got != 1 {
		t.Errorf("market area b must be untouched, got %d graphics", got)
	}
	var sites, radii int
	for _, g := range store.ForMarketArea("a") {
		switch g.FeatureType {
		case core.FeatureSiteLocation:
			sites++
		case core.FeatureRadius:
			radii++
		}
	}
	if sites != 1 {
		t.Errorf("out-of-scope site graphic must survive, got %d", sites)
	}
	if radii != 1 {
		t.Errorf("expected 1 replacement radius graphic, got %d", radii)
	}
}

func TestReconcileEmptyScopeRemovesAll(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, []Target{{
		MarketAreaID: "a",
		Scope:        []core.FeatureType{core.FeatureRadius, core.FeatureSiteLocation},
		Graphics: []core.Graphic{
			graphic("a", core.FeatureRadius, 1, 0),
			graphic("a", core.FeatureSiteLocation, 1, 1),
		},
	}})
	if err != nil {
		t.Fatalf("seed pass failed: %v", err)
	}

	delta, err := r.Reconcile(ctx, []Target{{MarketAreaID: "a"}})
	if err != nil {
		t.Fatalf("removal pass failed: %v", err)
	}
	if delta.Removed != 2 {
		t.Errorf("expected both graphics removed, got %+v", delta)
	}
	if store.Len() != 0 {
		t.Errorf("store should be empty, got %d", store.Len())
	}
}

func TestReconcileOrdering(t *testing.T) {
	r, store := newTestReconciler(t)

	_, err := r.Reconcile(context.Background(), []Target{
		{
			MarketAreaID: "b",
			Scope:        []core.FeatureType{core.FeatureBoundaryFill},
			Graphics: []core.Graphic{
				graphic("b", core.FeatureBoundaryFill, 2, 1),
				graphic("b", core.FeatureBoundaryFill, 2, 0),
			},
		},
		{
			MarketAreaID: "a",
			Scope:        []core.FeatureType{core.FeatureRadius},
			Graphics:     []core.Graphic{graphic("a", core.FeatureRadius, 1, 0)},
		},
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 graphics, got %d", len(snapshot))
	}
	if snapshot[0].MarketAreaID != "a" {
		t.Errorf("lower order must paint first, got %s", snapshot[0].MarketAreaID)
	}
	if snapshot[1].RenderOrder != 0 || snapshot[2].RenderOrder != 1 {
		t.Errorf("render order must break ties: got %d then %d",
			snapshot[1].RenderOrder, snapshot[2].RenderOrder)
	}
}

func TestReconcileOrderAcrossPasses(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	// First pass draws a higher-order area; a later pass adds one that
	// belongs below it. The snapshot must still come out in paint order.
	_, err := r.Reconcile(ctx, []Target{{
		MarketAreaID: "high",
		Scope:        []core.FeatureType{core.FeatureBoundaryFill},
		Graphics:     []core.Graphic{graphic("high", core.FeatureBoundaryFill, 2, 0)},
	}})
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	_, err = r.Reconcile(ctx, []Target{{
		MarketAreaID: "low",
		Scope:        []core.FeatureType{core.FeatureRadius},
		Graphics:     []core.Graphic{graphic("low", core.FeatureRadius, 1, 0)},
	}})
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 graphics, got %d", len(snapshot))
	}
	if snapshot[0].MarketAreaID != "low" || snapshot[1].MarketAreaID != "high" {
		t.Errorf("lower-order area must precede higher across passes, got %s then %s",
			snapshot[0].MarketAreaID, snapshot[1].MarketAreaID)
	}
}

func TestReconcileBusy(t *testing.T) {
	r, _ := newTestReconciler(t)

	r.inFlight.Store(true)
	_, err := r.Reconcile(context.Background(), []Target{{MarketAreaID: "a"}})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	r.inFlight.Store(false)

	// The guard releases after a completed pass.
	if _, err := r.Reconcile(context.Background(), nil); err != nil {
		t.Errorf("pass after release should succeed: %v", err)
	}
}
