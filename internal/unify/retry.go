package unify

import (
	geom "github.com/peterstace/simplefeatures/geom"
)

// RepairRetry applies op to the operands and, when it fails, repairs
// both operands and retries until maxAttempts is exhausted. The inputs
// are never mutated in place; repaired copies only feed the retries.
func RepairRetry(
	op func(a, b geom.Geometry) (geom.Geometry, error),
	repair func(g geom.Geometry) (geom.Geometry, error),
	a, b geom.Geometry,
	maxAttempts int,
) (geom.Geometry, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := op(a, b)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt+1 == maxAttempts {
			break
		}
		if ra, rerr := repair(a); rerr == nil && !ra.IsEmpty() {
			a = ra
		}
		if rb, rerr := repair(b); rerr == nil && !rb.IsEmpty() {
			b = rb
		}
	}
	return geom.Geometry{}, lastErr
}
