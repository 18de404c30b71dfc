// Package render draws chart plans with go-chart and packages the result as
// exportable figures.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"math"
	"time"

	"dataviz/domain/chart"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"

	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	DefaultWidth = 1000
	maxXTicks    = 20
	maxBarWidth  = 60
	minBarWidth  = 4
)

// Renderer turns a validated plan over a table into a figure
type Renderer interface {
	Render(ctx context.Context, plan chart.Plan, t *table.Table, theme chart.Theme) (*Figure, error)
}

// drawable is any go-chart chart type
type drawable interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// sketch builds a chart with every label passed through text.
// SVG output needs escaped labels while raster output needs them verbatim.
type sketch func(text func(string) string) drawable

// GoChartRenderer renders plans with go-chart
type GoChartRenderer struct {
	width int
}

// NewGoChartRenderer creates a renderer producing figures width pixels wide
func NewGoChartRenderer(width int) *GoChartRenderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &GoChartRenderer{width: width}
}

// Render draws plan over t. The plan is expected to come from the planner;
// columns it names that are missing from t are reported as plan errors.
// A panic in the plotting libraries is reported as a render error.
func (r *GoChartRenderer) Render(ctx context.Context, plan chart.Plan, t *table.Table, theme chart.Theme) (fig *Figure, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Render] ❌ %s %q panicked: %v", plan.Kind, plan.Title, p)
			fig, err = nil, apperrors.RenderError("failed to draw chart", fmt.Errorf("%v", p))
		}
	}()
	return r.render(ctx, plan, t, theme)
}

func (r *GoChartRenderer) render(ctx context.Context, plan chart.Plan, t *table.Table, theme chart.Theme) (*Figure, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.RenderError("render cancelled", err)
	}
	if t == nil {
		return nil, apperrors.NoTable()
	}
	if plan.Layout.Height <= 0 {
		plan.Layout = chart.DefaultLayout()
	}

	start := time.Now()
	palette := PaletteFor(theme)

	var (
		draw sketch
		data DataTable
		err  error
	)

	switch plan.Kind {
	case chart.KindLine, chart.KindArea, chart.KindScatter:
		var frame xyFrame
		if frame, err = buildXYFrame(plan, t); err == nil {
			draw, data = r.xyChart(plan, frame, palette), xyData(plan, frame)
		}
	case chart.KindBar:
		var frame barFrame
		if frame, err = buildSumFrame(plan, t); err == nil {
			draw, data = r.barChart(plan, frame, palette), barData(plan, frame)
		}
	case chart.KindPie:
		var frame barFrame
		if frame, err = buildSumFrame(plan, t); err == nil {
			draw, data, err = r.pieChart(plan, frame, palette)
		}
	case chart.KindHistogram:
		var frame barFrame
		if frame, err = buildHistogramFrame(plan, t); err == nil {
			draw, data = r.barChart(plan, frame, palette), barData(plan, frame)
		}
	default:
		return nil, apperrors.PlanValidation("unknown chart type")
	}
	if err != nil {
		return nil, err
	}

	var svg bytes.Buffer
	if err := draw(html.EscapeString).Render(gochart.SVG, &svg); err != nil {
		return nil, apperrors.RenderError("failed to draw chart", err)
	}

	log.Printf("[Render] %s %q (%s theme) drawn in %v", plan.Kind, plan.Title, theme, time.Since(start))

	return &Figure{
		Plan:  plan,
		Theme: theme,
		SVG:   svg.Bytes(),
		Data:  data,
		draw:  draw,
	}, nil
}

func seriesStyle(kind chart.Kind, p Palette, i int) gochart.Style {
	color := p.SeriesColor(i)
	switch kind {
	case chart.KindScatter:
		return gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    5,
			DotColor:    color,
		}
	case chart.KindArea:
		return gochart.Style{
			StrokeColor: color,
			StrokeWidth: 2,
			FillColor:   color.WithAlpha(64),
		}
	default:
		return gochart.Style{
			StrokeColor: color,
			StrokeWidth: 2,
		}
	}
}

func (r *GoChartRenderer) xyChart(plan chart.Plan, frame xyFrame, p Palette) sketch {
	yName := plan.Y.Or("")

	return func(text func(string) string) drawable {
		series := make([]gochart.Series, 0, len(frame.Series))
		var xs, ys []float64
		for i, s := range frame.Series {
			series = append(series, gochart.ContinuousSeries{
				Name:    text(s.Name),
				XValues: s.X,
				YValues: s.Y,
				Style:   seriesStyle(plan.Kind, p, i),
			})
			xs = append(xs, s.X...)
			ys = append(ys, s.Y...)
		}

		xAxis := gochart.XAxis{
			Name:           text(plan.X),
			NameStyle:      p.textStyle(),
			Style:          p.textStyle(),
			GridMajorStyle: p.gridStyle(),
		}
		if frame.Categories != nil {
			xAxis.Ticks = categoryTicks(frame.Categories, text)
		} else {
			xAxis.Range = flatRange(xs)
		}

		ch := gochart.Chart{
			Title:      text(plan.Title),
			TitleStyle: p.textStyle(),
			Width:      r.width,
			Height:     plan.Layout.Height,
			Background: p.backgroundStyle(),
			Canvas:     p.canvasStyle(),
			XAxis:      xAxis,
			YAxis: gochart.YAxis{
				Name:           text(yName),
				NameStyle:      p.textStyle(),
				Style:          p.textStyle(),
				Range:          flatRange(ys),
				GridMajorStyle: p.gridStyle(),
			},
			Series: series,
		}
		if plan.Layout.ShowLegend && plan.Color.IsSet() {
			ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
		}
		return ch
	}
}

// categoryTicks labels category indexes, thinning labels when there are many.
// Unlabelled ticks half a step outside pad the axis so a single category still spans a range.
func categoryTicks(categories []string, text func(string) string) []gochart.Tick {
	step := int(math.Ceil(float64(len(categories)) / maxXTicks))
	ticks := []gochart.Tick{{Value: -0.5}}
	for i := 0; i < len(categories); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: text(categories[i])})
	}
	return append(ticks, gochart.Tick{Value: float64(len(categories)) - 0.5})
}

// flatRange widens a degenerate range around its single value; otherwise nil lets go-chart fit the data
func flatRange(values []float64) gochart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo != hi {
		return nil
	}
	return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

func (r *GoChartRenderer) barWidth(bars int) int {
	w := (r.width - 120) / bars
	return max(minBarWidth, min(maxBarWidth, w-w/5))
}

// barChart draws one bar per category, clustered by color group when there are several
func (r *GoChartRenderer) barChart(plan chart.Plan, frame barFrame, p Palette) sketch {
	grouped := len(frame.Groups) > 1

	return func(text func(string) string) drawable {
		var bars []gochart.Value
		lo, hi := 0.0, 0.0
		for _, c := range frame.Categories {
			for g, v := range c.Values {
				color := p.SeriesColor(g)
				label := ""
				if g == 0 {
					label = text(c.Label)
				}
				bars = append(bars, gochart.Value{
					Label: label,
					Value: v,
					Style: gochart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
				})
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
		if lo == hi {
			hi = lo + 1
		}

		spacing := 10
		if plan.Kind == chart.KindHistogram {
			spacing = 1
		}

		bc := gochart.BarChart{
			Title:        text(plan.Title),
			TitleStyle:   p.textStyle(),
			ColorPalette: colorPalette{p},
			Width:        r.width,
			Height:       plan.Layout.Height,
			Background:   p.backgroundStyle(),
			Canvas:       p.canvasStyle(),
			XAxis:        p.textStyle(),
			YAxis: gochart.YAxis{
				Style: p.textStyle(),
				Range: &gochart.ContinuousRange{Min: lo, Max: hi},
			},
			BarWidth:     r.barWidth(len(bars)),
			BarSpacing:   spacing,
			UseBaseValue: true,
			BaseValue:    0,
			Bars:         bars,
		}
		if grouped && plan.Layout.ShowLegend {
			names := make([]string, len(frame.Groups))
			for i, g := range frame.Groups {
				names[i] = text(g)
			}
			bc.Elements = []gochart.Renderable{groupLegend(names, p)}
		}
		return bc
	}
}

// groupLegend draws a swatch per color group in the top right corner of the canvas
func groupLegend(names []string, p Palette) gochart.Renderable {
	return func(r gochart.Renderer, canvas gochart.Box, defaults gochart.Style) {
		style := gochart.Style{FontColor: p.textStyle().FontColor, FontSize: 8}.InheritFrom(defaults)
		style.WriteTextOptionsToRenderer(r)

		widest := 0
		for _, name := range names {
			widest = max(widest, r.MeasureText(name).Width())
		}

		left := canvas.Right - widest - 24
		top := canvas.Top + 6
		for i, name := range names {
			swatch := gochart.Box{Top: top, Left: left, Right: left + 10, Bottom: top + 10}
			gochart.Draw.Box(r, swatch, gochart.Style{FillColor: p.SeriesColor(i), StrokeColor: p.SeriesColor(i), StrokeWidth: 1})

			style.WriteTextOptionsToRenderer(r)
			r.Text(name, left+14, top+9)
			top += 14
		}
	}
}

// pieChart keeps positive totals only; a slice cannot show a zero or negative share
func (r *GoChartRenderer) pieChart(plan chart.Plan, frame barFrame, p Palette) (sketch, DataTable, error) {
	totals := frame.totals()
	var kept []category
	for i, c := range frame.Categories {
		if totals[i] > 0 {
			kept = append(kept, category{Label: c.Label, Values: []float64{totals[i]}})
		}
	}
	if len(kept) == 0 {
		return nil, DataTable{}, apperrors.RenderError("pie chart needs at least one positive value", nil)
	}
	frame = barFrame{Groups: []string{plan.Y.Or("value")}, Categories: kept}

	draw := func(text func(string) string) drawable {
		values := make([]gochart.Value, len(kept))
		for i, c := range kept {
			values[i] = gochart.Value{Label: text(c.Label), Value: c.Values[0]}
		}
		return gochart.PieChart{
			Title:        text(plan.Title),
			TitleStyle:   p.textStyle(),
			ColorPalette: colorPalette{p},
			Width:        r.width,
			Height:       plan.Layout.Height,
			Background:   p.backgroundStyle(),
			Canvas:       p.canvasStyle(),
			Values:       values,
		}
	}
	return draw, barData(plan, frame), nil
}
