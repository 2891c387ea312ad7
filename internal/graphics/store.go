// Package graphics owns the shared drawable collection and reconciles
// it against desired target states.
package graphics

import (
	"sort"
	"sync"

	"github.com/tcgis/marketarea/pkg/core"
)

// Store is the single shared drawable collection for a map session.
// All mutation goes through the Reconciler; other components only
// submit desired state.
type Store struct {
	mu       sync.Mutex
	graphics []core.Graphic
}

// NewStore creates an empty drawable collection.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of drawn graphics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.graphics)
}

// Snapshot returns a copy of the drawn graphics in paint order.
func (s *Store) Snapshot() []core.Graphic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Graphic, len(s.graphics))
	copy(out, s.graphics)
	return out
}

// ForMarketArea returns the drawn graphics tagged with the given id.
func (s *Store) ForMarketArea(id string) []core.Graphic {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Graphic
	for _, g := range s.graphics {
		if g.MarketAreaID == id {
			out = append(out, g)
		}
	}
	return out
}

// apply removes graphics matching the predicate, appends the additions,
// and re-sorts the merged collection into paint order, as one step under
// the lock so readers never observe a half-applied pass. Sorting after
// the merge keeps ordering correct across passes: a later pass may add
// graphics that belong below ones already drawn.
func (s *Store) apply(remove func(core.Graphic) bool, add []core.Graphic) (removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.graphics[:0]
	for _, g := range s.graphics {
		if remove != nil && remove(g) {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	merged := append(kept, add...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Order != merged[j].Order {
			return merged[i].Order < merged[j].Order
		}
		return merged[i].RenderOrder < merged[j].RenderOrder
	})
	s.graphics = merged
	return removed
}
