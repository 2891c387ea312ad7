package graphics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tcgis/marketarea/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrBusy is returned when a pass is requested while one is already in
// flight. The pass is dropped, not queued: the next natural trigger
// re-requests with fresh data, so last-writer-wins is acceptable.
var ErrBusy = errors.New("reconciliation already in flight")

// Target is the desired drawn state for one market area. Scope lists
// the feature types this update owns: currently drawn graphics with a
// matching market-area id and an in-scope feature type are replaced,
// everything else is preserved untouched.
type Target struct {
	MarketAreaID string
	Scope        []core.FeatureType
	Graphics     []core.Graphic
}

// Delta summarizes one applied pass.
type Delta struct {
	Added   int
	Removed int
}

// Reconciler is the sole writer of the shared Store. It computes the
// minimal add/remove set for each pass and applies it atomically, so a
// full clear-and-redraw (and its flicker) never happens.
type Reconciler struct {
	store    *Store
	logger   *slog.Logger
	inFlight atomic.Bool

	added     metric.Int64Counter
	removed   metric.Int64Counter
	dropped   metric.Int64Counter
	storeSize metric.Int64ObservableGauge
}

// NewReconciler creates a reconciler over the shared store. Uses the
// global OTel meter for metrics (no-op if not configured).
func NewReconciler(store *Store, logger *slog.Logger) (*Reconciler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{store: store, logger: logger}

	m := meter()
	var err error

	r.added, err = m.Int64Counter(
		"reconciler.graphics.added",
		metric.WithDescription("Graphics added to the shared collection"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating added counter: %w", err)
	}

	r.removed, err = m.Int64Counter(
		"reconciler.graphics.removed",
		metric.WithDescription("Graphics removed from the shared collection"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating removed counter: %w", err)
	}

	r.dropped, err = m.Int64Counter(
		"reconciler.passes.dropped",
		metric.WithDescription("Reconciliation passes dropped while one was in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	r.storeSize, err = m.Int64ObservableGauge(
		"reconciler.store.size",
		metric.WithDescription("Current number of drawn graphics"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating store size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(r.storeSize, int64(store.Len()))
			return nil
		},
		r.storeSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering store size callback: %w", err)
	}

	return r, nil
}

// Reconcile applies the targets as one atomic batch. Graphics of
// market areas not named in the targets, and temporary graphics whose
// feature type is not being replaced, are preserved. The store re-sorts
// the merged collection into paint order, so market-area order and
// render order hold even when a later pass inserts graphics that belong
// below ones already drawn.
func (r *Reconciler) Reconcile(ctx context.Context, targets []Target) (Delta, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.dropped.Add(ctx, 1)
		return Delta{}, ErrBusy
	}
	defer r.inFlight.Store(false)

	scopes := make(map[string]map[core.FeatureType]bool, len(targets))
	var additions []core.Graphic
	for _, t := range targets {
		scope, ok := scopes[t.MarketAreaID]
		if !ok {
			scope = make(map[core.FeatureType]bool, len(t.Scope))
			scopes[t.MarketAreaID] = scope
		}
		for _, ft := range t.Scope {
			scope[ft] = true
		}
		additions = append(additions, t.Graphics...)
	}

	removedCount := r.store.apply(func(g core.Graphic) bool {
		scope, ok := scopes[g.MarketAreaID]
		if !ok {
			return false
		}
		return len(scope) == 0 || scope[g.FeatureType]
	}, additions)

	attrs := metric.WithAttributes(attribute.Int("targets", len(targets)))
	r.added.Add(ctx, int64(len(additions)), attrs)
	r.removed.Add(ctx, int64(removedCount), attrs)

	r.logger.Debug("reconciled graphics",
		"targets", len(targets),
		"added", len(additions),
		"removed", removedCount,
		"drawn", r.store.Len())

	return Delta{Added: len(additions), Removed: removedCount}, nil
}
