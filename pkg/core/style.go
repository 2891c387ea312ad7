package core

// StyleSettings are the stored per-market-area display settings.
type StyleSettings struct {
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	BorderColor string  `json:"borderColor"`
	BorderWidth float64 `json:"borderWidth"`
	NoFill      bool    `json:"noFill,omitempty"`
	NoBorder    bool    `json:"noBorder,omitempty"`
}

// DefaultStyle returns the style applied when a record has no
// style_settings.
func DefaultStyle() StyleSettings {
	return StyleSettings{
		FillColor:   "#0078D4",
		FillOpacity: 0.3,
		BorderColor: "#0078D4",
		BorderWidth: 2,
	}
}

// IsZero reports whether the style is entirely unset.
func (s StyleSettings) IsZero() bool {
	return s == StyleSettings{}
}

// OrStyleDefaults returns s with the default style substituted when s is
// entirely unset.
func (s StyleSettings) OrStyleDefaults() StyleSettings {
	if s.IsZero() {
		return DefaultStyle()
	}
	return s
}

// SymbolKind distinguishes how a Graphic is drawn.
type SymbolKind string

const (
	SymbolFill   SymbolKind = "fill"
	SymbolLine   SymbolKind = "line"
	SymbolMarker SymbolKind = "marker"
)

// Symbol is the resolved drawing style of a single Graphic. The hosting
// map SDK interprets it; the engine only carries it.
type Symbol struct {
	Kind         SymbolKind `json:"kind"`
	Color        string     `json:"color,omitempty"`
	Opacity      float64    `json:"opacity,omitempty"`
	OutlineColor string     `json:"outlineColor,omitempty"`
	OutlineWidth float64    `json:"outlineWidth,omitempty"`
	Size         float64    `json:"size,omitempty"`
}

// TransparentSymbol is the placeholder applied to freshly selected
// features. Visible styling is applied later in bulk by the
// unification and reconciliation pipeline.
func TransparentSymbol() Symbol {
	return Symbol{Kind: SymbolFill, Opacity: 0}
}
