package render

import (
	"dataviz/domain/chart"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette is the visual style a theme maps to
type Palette struct {
	Series     []string
	Background string
	Canvas     string
	Grid       string
	Text       string
}

var palettes = map[chart.Theme]Palette{
	chart.ThemePlotly: {
		Series:     []string{"636EFA", "EF553B", "00CC96", "AB63FA", "FFA15A", "19D3F3", "FF6692", "B6E880", "FF97FF", "FECB52"},
		Background: "FFFFFF",
		Canvas:     "E5ECF6",
		Grid:       "FFFFFF",
		Text:       "2A3F5F",
	},
	chart.ThemeSeaborn: {
		Series:     []string{"4C72B0", "DD8452", "55A868", "C44E52", "8172B3", "937860", "DA8BC3", "8C8C8C", "CCB974", "64B5CD"},
		Background: "FFFFFF",
		Canvas:     "EAEAF2",
		Grid:       "FFFFFF",
		Text:       "262626",
	},
	chart.ThemeGGPlot2: {
		Series:     []string{"F8766D", "C49A00", "53B400", "00C094", "00B6EB", "A58AFF", "FB61D7"},
		Background: "FFFFFF",
		Canvas:     "EBEBEB",
		Grid:       "FFFFFF",
		Text:       "4D4D4D",
	},
	chart.ThemeViridis: {
		Series:     []string{"440154", "482878", "3E4A89", "31688E", "26828E", "1F9E89", "35B779", "6DCD59", "B4DE2C", "FDE725"},
		Background: "FFFFFF",
		Canvas:     "FFFFFF",
		Grid:       "DDDDDD",
		Text:       "333333",
	},
	chart.ThemePlasma: {
		Series:     []string{"0D0887", "46039F", "7201A8", "9C179E", "BD3786", "D8576B", "ED7953", "FB9F3A", "FDCA26", "F0F921"},
		Background: "FFFFFF",
		Canvas:     "FFFFFF",
		Grid:       "DDDDDD",
		Text:       "333333",
	},
}

// PaletteFor returns the palette of theme, falling back to the default theme
func PaletteFor(theme chart.Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[chart.DefaultTheme]
}

// SeriesColor returns the i-th series color, cycling through the palette
func (p Palette) SeriesColor(i int) drawing.Color {
	return drawing.ColorFromHex(p.Series[i%len(p.Series)])
}

func (p Palette) backgroundStyle() gochart.Style {
	return gochart.Style{
		FillColor: drawing.ColorFromHex(p.Background),
		Padding:   gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
	}
}

func (p Palette) canvasStyle() gochart.Style {
	return gochart.Style{FillColor: drawing.ColorFromHex(p.Canvas)}
}

func (p Palette) textStyle() gochart.Style {
	return gochart.Style{FontColor: drawing.ColorFromHex(p.Text)}
}

func (p Palette) gridStyle() gochart.Style {
	return gochart.Style{StrokeColor: drawing.ColorFromHex(p.Grid), StrokeWidth: 1}
}

// colorPalette adapts a Palette to go-chart's palette interface for bar and pie charts
type colorPalette struct {
	Palette
}

func (c colorPalette) BackgroundColor() drawing.Color       { return drawing.ColorFromHex(c.Background) }
func (c colorPalette) BackgroundStrokeColor() drawing.Color { return drawing.ColorFromHex(c.Background) }
func (c colorPalette) CanvasColor() drawing.Color           { return drawing.ColorFromHex(c.Canvas) }
func (c colorPalette) CanvasStrokeColor() drawing.Color     { return drawing.ColorFromHex(c.Canvas) }
func (c colorPalette) AxisStrokeColor() drawing.Color       { return drawing.ColorFromHex(c.Text) }
func (c colorPalette) TextColor() drawing.Color             { return drawing.ColorFromHex(c.Text) }
func (c colorPalette) GetSeriesColor(index int) drawing.Color {
	return c.SeriesColor(index)
}
