// Package selection tracks the reference-layer features a user has
// manually picked while editing a polygon-type market area.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tcgis/marketarea/pkg/core"
)

// ErrOwnedElsewhere is returned when a feature already belongs to a
// different market area that is not being edited.
var ErrOwnedElsewhere = errors.New("feature belongs to another market area")

// FIPSField is one component of a normalized administrative code.
type FIPSField struct {
	Name  string
	Width int
}

// LayerIdentity describes how features of one layer type are
// deduplicated: the designated unique-id field, plus an optional FIPS
// composition used as a fallback identity.
type LayerIdentity struct {
	IDField    string
	FIPSFields []FIPSField
}

// DefaultCatalog maps each polygon layer type to its identity rule.
// Tracts get the FIPS fallback because the same tract can arrive from
// different query paths with different raw object ids.
func DefaultCatalog() map[string]LayerIdentity {
	return map[string]LayerIdentity{
		core.TypeZip:        {IDField: "ZCTA5CE"},
		core.TypeCounty:     {IDField: "GEOID"},
		core.TypePlace:      {IDField: "GEOID"},
		core.TypeBlock:      {IDField: "GEOID"},
		core.TypeBlockGroup: {IDField: "GEOID"},
		core.TypeCBSA:       {IDField: "GEOID"},
		core.TypeState:      {IDField: "GEOID"},
		core.TypeUSA:        {IDField: "OBJECTID"},
		core.TypeTract: {
			IDField: "OBJECTID",
			FIPSFields: []FIPSField{
				{Name: "STATE", Width: 2},
				{Name: "COUNTY", Width: 3},
				{Name: "TRACT", Width: 6},
			},
		},
	}
}

// Manager holds the active selection. It is pure state; drawing the
// placeholder graphics is left to the reconciliation layer so the
// shared collection has a single writer.
type Manager struct {
	mu        sync.Mutex
	layers    map[string]LayerIdentity
	selected  map[string]core.SelectedFeature
	order     []string
	editingID string
	logger    *slog.Logger
}

// NewManager creates a selection manager over the given layer catalog.
// A nil catalog uses DefaultCatalog.
func NewManager(catalog map[string]LayerIdentity, logger *slog.Logger) *Manager {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		layers:   catalog,
		selected: make(map[string]core.SelectedFeature),
		logger:   logger,
	}
}

// BeginEditing marks the market area whose selection is being edited.
func (m *Manager) BeginEditing(marketAreaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editingID = marketAreaID
}

// EndEditing clears the active selection and editing context.
func (m *Manager) EndEditing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editingID = ""
	m.selected = make(map[string]core.SelectedFeature)
	m.order = nil
}

// Toggle adds the feature to the selection, or removes it when an
// identity-equal feature is already selected. Features owned by a
// different, non-editing market area are rejected. Returns whether the
// feature ended up selected plus the full selection snapshot.
func (m *Manager) Toggle(f core.SelectedFeature) (bool, []core.SelectedFeature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.identityKey(f.LayerType, f.Attributes)
	if key == "" {
		return false, m.snapshot(), fmt.Errorf("no identity for %s feature", f.LayerType)
	}

	if _, ok := m.selected[key]; ok {
		delete(m.selected, key)
		m.order = removeKey(m.order, key)
		return false, m.snapshot(), nil
	}

	if f.MarketAreaID != "" && f.MarketAreaID != m.editingID {
		return false, m.snapshot(), fmt.Errorf("%w: %s", ErrOwnedElsewhere, f.MarketAreaID)
	}

	f.Key = key
	m.selected[key] = f
	m.order = append(m.order, key)
	m.logger.Debug("feature selected", "layer", f.LayerType, "key", key)
	return true, m.snapshot(), nil
}

// Selected returns the selection in pick order.
func (m *Manager) Selected() []core.SelectedFeature {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Manager) snapshot() []core.SelectedFeature {
	out := make([]core.SelectedFeature, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.selected[key])
	}
	return out
}

// identityKey computes the dedup key for a feature. Layers with a FIPS
// composition use the normalized code when every component is present;
// otherwise the designated unique-id field applies.
func (m *Manager) identityKey(layerType string, attrs map[string]any) string {
	identity, ok := m.layers[layerType]
	if !ok {
		identity = LayerIdentity{IDField: "OBJECTID"}
	}
	if code := normalizeFIPS(identity.FIPSFields, attrs); code != "" {
		return layerType + ":" + code
	}
	if v, ok := attrs[identity.IDField]; ok {
		if s := attrString(v); s != "" {
			return layerType + ":" + s
		}
	}
	return ""
}

// normalizeFIPS composes the administrative code from its components,
// stripping non-digits and zero-padding each to its census width.
func normalizeFIPS(fields []FIPSField, attrs map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, field := range fields {
		v, ok := attrs[field.Name]
		if !ok {
			return ""
		}
		digits := digitsOf(attrString(v))
		if digits == "" {
			return ""
		}
		if len(digits) > field.Width {
			digits = digits[len(digits)-field.Width:]
		}
		for len(digits) < field.Width {
			digits = "0" + digits
		}
		b.WriteString(digits)
	}
	return b.String()
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func attrString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case int:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
