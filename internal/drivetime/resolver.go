package drivetime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tcgis/marketarea/internal/geo"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrUnavailable is returned only when every fallback stage failed.
// The caller draws nothing for that point and notifies the user;
// sibling points are unaffected.
var ErrUnavailable = errors.New("drive-time polygon unavailable")

// DefaultMetersPerMinute is the average-speed heuristic behind the
// buffer fallback: a minute of driving covers roughly 800 meters.
const DefaultMetersPerMinute = 800

// squareDegreesPerMinute sizes the last-resort square fallback:
// half-width in degrees per minute of travel time.
const squareDegreesPerMinute = 0.001

// BufferFunc produces a geodesic buffer polygon; injected so tests can
// force the fallback chain.
type BufferFunc func(center geom.XY, meters float64) (geom.Polygon, error)

// Resolver produces one isochrone polygon per (center, minutes) pair.
type Resolver struct {
	svc             ServiceAreaClient
	buffer          BufferFunc
	cache           *Cache
	logger          *slog.Logger
	metersPerMinute float64
	observe         func(stage string, minutes float64, elapsed time.Duration)
}

// NewResolver creates a resolver. svc and cache may be nil, in which
// case resolution starts at the buffer fallback and nothing persists.
func NewResolver(svc ServiceAreaClient, cache *Cache, metersPerMinute float64, logger *slog.Logger) *Resolver {
	if metersPerMinute <= 0 {
		metersPerMinute = DefaultMetersPerMinute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		svc:             svc,
		buffer:          geo.GeodesicBuffer,
		cache:           cache,
		logger:          logger,
		metersPerMinute: metersPerMinute,
	}
}

// SetBuffer overrides the buffer primitive. Used by tests.
func (r *Resolver) SetBuffer(fn BufferFunc) {
	if fn != nil {
		r.buffer = fn
	}
}

// SetObserver registers a callback invoked after each successful
// resolution with the stage that produced the polygon.
func (r *Resolver) SetObserver(fn func(stage string, minutes float64, elapsed time.Duration)) {
	r.observe = fn
}

func (r *Resolver) report(stage string, minutes float64, start time.Time) {
	if r.observe != nil {
		r.observe(stage, minutes, time.Since(start))
	}
}

// Resolve returns a polygon for the center and time budget. Stages:
// cached result, routing service, geodesic buffer at minutes x
// meters-per-minute, then an axis-aligned square with half-width
// 0.001 x minutes degrees. Each stage failure is logged and non-fatal;
// ErrUnavailable propagates only when all stages fail.
func (r *Resolver) Resolve(ctx context.Context, center geom.XY, minutes float64) (geom.Polygon, error) {
	if minutes <= 0 {
		return geom.Polygon{}, fmt.Errorf("%w: non-positive time budget %v", ErrUnavailable, minutes)
	}
	start := time.Now()

	if r.cache != nil {
		if poly, ok := r.cache.Get(center, minutes); ok {
			r.report("cache", minutes, start)
			return poly, nil
		}
	}

	if r.svc != nil {
		poly, err := r.svc.ServiceArea(ctx, center, minutes, geo.SRIDWebMercator)
		if err == nil && !poly.AsGeometry().IsEmpty() {
			r.store(center, minutes, poly)
			r.report("service", minutes, start)
			return poly, nil
		}
		r.logger.Warn("service-area call failed, falling back to buffer",
			"minutes", minutes, "error", err)
	}

	poly, bufferErr := r.buffer(center, minutes*r.metersPerMinute)
	if bufferErr == nil {
		r.store(center, minutes, poly)
		r.report("buffer", minutes, start)
		return poly, nil
	}
	r.logger.Warn("buffer fallback failed, falling back to square",
		"minutes", minutes, "error", bufferErr)

	square, squareErr := geo.SquareAround(center, squareDegreesPerMinute*minutes)
	if squareErr == nil {
		r.report("square", minutes, start)
		return square, nil
	}

	return geom.Polygon{}, fmt.Errorf("%w: buffer: %v, square: %v",
		ErrUnavailable, bufferErr, squareErr)
}

func (r *Resolver) store(center geom.XY, minutes float64, poly geom.Polygon) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(center, minutes, poly); err != nil {
		r.logger.Debug("isochrone cache write failed", "error", err)
	}
}
