// Package engine wires the generators, selection state and
// reconciliation layer behind the map-widget lifecycle hooks.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tcgis/marketarea/internal/generator"
	"github.com/tcgis/marketarea/internal/graphics"
	"github.com/tcgis/marketarea/internal/selection"
	"github.com/tcgis/marketarea/pkg/core"
)

// DefaultDebounce coalesces bursts of style updates into one
// reconciliation pass.
const DefaultDebounce = 300 * time.Millisecond

// reconciler is the slice of the reconciliation layer the engine uses.
type reconciler interface {
	Reconcile(ctx context.Context, targets []graphics.Target) (graphics.Delta, error)
}

// Engine drives the market-area pipeline. All mutation of the shared
// drawable collection flows through its reconciler; the hooks only
// describe desired state.
type Engine struct {
	gen      *generator.Service
	rec      reconciler
	sel      *selection.Manager
	logger   *slog.Logger
	debounce time.Duration

	// active is the liveness flag: once cleared, in-flight work may
	// finish computing but must not commit results.
	active atomic.Bool

	mu      sync.Mutex
	pending map[string]core.MarketArea
	timer   *time.Timer
}

// New creates an engine. A non-positive debounce uses DefaultDebounce.
func New(gen *generator.Service, rec reconciler, sel *selection.Manager, debounce time.Duration, logger *slog.Logger) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		gen:      gen,
		rec:      rec,
		sel:      sel,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]core.MarketArea),
	}
	e.active.Store(true)
	return e
}

// Close marks the engine inactive. In-flight asynchronous work checks
// the flag before committing, so stale results are discarded instead of
// applied.
func (e *Engine) Close() {
	e.active.Store(false)
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
}

// Active reports whether results may still be committed.
func (e *Engine) Active() bool {
	return e.active.Load()
}

// OnMarketAreasChanged regenerates and reconciles the given market
// areas in one pass. Failures of individual areas (an exhausted
// drive-time fallback, a dead union) are collected and returned for
// user notification; the other areas still draw.
func (e *Engine) OnMarketAreasChanged(ctx context.Context, areas []core.MarketArea) error {
	targets := make([]graphics.Target, 0, len(areas))
	var failures []error
	for _, ma := range areas {
		gs, scope, err := e.gen.Graphics(ctx, ma)
		if err != nil {
			failures = append(failures, err)
		}
		if scope == nil {
			continue
		}
		targets = append(targets, graphics.Target{
			MarketAreaID: ma.ID,
			Scope:        scope,
			Graphics:     gs,
		})
	}

	if !e.active.Load() {
		e.logger.Debug("discarding stale market-area update", "areas", len(areas))
		return errors.Join(failures...)
	}

	if _, err := e.rec.Reconcile(ctx, targets); err != nil {
		if errors.Is(err, graphics.ErrBusy) {
			// Dropped by design; the next trigger re-requests.
			e.logger.Debug("reconciliation pass dropped", "areas", len(areas))
			return errors.Join(failures...)
		}
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

// OnStyleChanged queues a debounced regeneration for the market area.
// Bursts of edits within the debounce window collapse into one pass.
func (e *Engine) OnStyleChanged(ctx context.Context, ma core.MarketArea) {
	e.mu.Lock()
	e.pending[ma.ID] = ma
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		if err := e.Flush(ctx); err != nil {
			e.logger.Warn("debounced style update failed", "error", err)
		}
	})
	e.mu.Unlock()
}

// Flush applies any pending debounced style updates immediately.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	pending := make([]core.MarketArea, 0, len(e.pending))
	for _, ma := range e.pending {
		pending = append(pending, ma)
	}
	e.pending = make(map[string]core.MarketArea)
	e.mu.Unlock()

	if len(pending) == 0 || !e.active.Load() {
		return nil
	}
	return e.OnMarketAreasChanged(ctx, pending)
}

// OnSelectionToggled toggles a picked feature and redraws the editing
// market area's temporary selection graphics with the transparent
// placeholder symbol. Visible styling arrives later in bulk, through
// unification.
func (e *Engine) OnSelectionToggled(ctx context.Context, f core.SelectedFeature, editingID string) error {
	e.sel.BeginEditing(editingID)
	_, selected, err := e.sel.Toggle(f)
	if err != nil {
		return err
	}

	gs := make([]core.Graphic, 0, len(selected))
	for i, sf := range selected {
		gs = append(gs, core.Graphic{
			Geometry:     sf.Geometry,
			Symbol:       core.TransparentSymbol(),
			MarketAreaID: editingID,
			FeatureType:  core.FeatureType(sf.LayerType),
			RenderOrder:  i,
			IsTemporary:  true,
			Attributes:   sf.Attributes,
		})
	}

	if !e.active.Load() {
		return nil
	}
	_, err = e.rec.Reconcile(ctx, []graphics.Target{{
		MarketAreaID: editingID,
		Scope:        []core.FeatureType{core.FeatureType(f.LayerType)},
		Graphics:     gs,
	}})
	if errors.Is(err, graphics.ErrBusy) {
		e.logger.Debug("selection reconciliation pass dropped")
		return nil
	}
	return err
}

// OnMarketAreaRemoved removes every graphic of the market area.
func (e *Engine) OnMarketAreaRemoved(ctx context.Context, marketAreaID string) error {
	if !e.active.Load() {
		return nil
	}
	_, err := e.rec.Reconcile(ctx, []graphics.Target{{
		MarketAreaID: marketAreaID,
	}})
	if errors.Is(err, graphics.ErrBusy) {
		return nil
	}
	return err
}
