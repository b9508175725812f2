package types

// Color composes a hex color and an opacity. Either part may be absent:
// Hex "" and Opacity nil.
type Color struct {
	Hex     string
	Opacity *float64
}

// NewColor returns a color with both parts set.
func NewColor(hex string, opacity float64) *Color {
	return &Color{Hex: hex, Opacity: &opacity}
}

// OpacityOr returns the opacity, or fallback when absent.
func (c *Color) OpacityOr(fallback float64) float64 {
	if c == nil || c.Opacity == nil {
		return fallback
	}
	return *c.Opacity
}

// readColor composes the color stored in hexColumn and opacityColumn. It
// returns nil when both are absent.
func readColor(r *Row, hexColumn, opacityColumn string) *Color {
	hex, _ := r.Get(hexColumn).(string)
	opacity, hasOpacity := r.Get(opacityColumn).(float64)
	if hex == "" && !hasOpacity {
		return nil
	}
	c := &Color{Hex: hex}
	if hasOpacity {
		c.Opacity = &opacity
	}
	return c
}

// writeColor decomposes c into hexColumn and opacityColumn. Both parts are
// validated before either is written; nil clears both.
func writeColor(r *Row, c *Color, hexColumn, opacityColumn string) error {
	var hex, opacity any
	if c != nil {
		if c.Hex != "" {
			hex = c.Hex
		}
		if c.Opacity != nil {
			opacity = *c.Opacity
		}
	}
	return r.SetAll(map[string]any{hexColumn: hex, opacityColumn: opacity})
}
