package chart

import (
	"fmt"
	"strings"
)

// Theme is a cosmetic palette name; it never affects validation
type Theme string

const (
	ThemePlotly  Theme = "plotly"
	ThemeSeaborn Theme = "seaborn"
	ThemeGGPlot2 Theme = "ggplot2"
	ThemeViridis Theme = "viridis"
	ThemePlasma  Theme = "plasma"
)

// DefaultTheme is used when no theme is chosen
const DefaultTheme = ThemePlotly

// AllThemes returns the selectable themes in display order
func AllThemes() []Theme {
	return []Theme{ThemePlotly, ThemeSeaborn, ThemeGGPlot2, ThemeViridis, ThemePlasma}
}

// ParseTheme resolves a theme name; empty input yields the default theme
func ParseTheme(s string) (Theme, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTheme, nil
	}
	for _, t := range AllThemes() {
		if string(t) == s {
			return t, nil
		}
	}
	return DefaultTheme, fmt.Errorf("unknown color theme %q", s)
}

// Layout carries the fixed display hints handed to the renderer
type Layout struct {
	HoverMode  string `json:"hovermode"`
	Height     int    `json:"height"`
	ShowLegend bool   `json:"showlegend"`
}

// DefaultLayout is unified x hover at a fixed 600px height
func DefaultLayout() Layout {
	return Layout{
		HoverMode:  "x unified",
		Height:     600,
		ShowLegend: true,
	}
}

// Plan is a validated, normalized description of what to render.
// Plans are values: they are replaced, never mutated.
type Plan struct {
	Kind   Kind   `json:"kind"`
	X      string `json:"x"`
	Y      Field  `json:"y"`
	Color  Field  `json:"color_by"`
	Title  string `json:"title"`
	Layout Layout `json:"layout"`
}

// DefaultTitle is "<kind> of <y>", falling back to x for kinds without a y
func DefaultTitle(kind Kind, x string, y Field) string {
	return fmt.Sprintf("%s of %s", kind, y.Or(x))
}
