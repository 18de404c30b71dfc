package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"dataviz/domain/chart"
	apperrors "dataviz/internal/errors"

	gochart "github.com/wcharczuk/go-chart/v2"
)

//go:embed templates/figure.html.tmpl
var figureTemplateText string

var figureTemplate = template.Must(template.New("figure").Parse(figureTemplateText))

// DataTable is the plotted data behind a figure, one row per point or bar
type DataTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Figure is a rendered chart. SVG holds the vector drawing; raster and HTML
// exports are derived from it on demand.
type Figure struct {
	Plan  chart.Plan
	Theme chart.Theme
	SVG   []byte
	Data  DataTable

	draw sketch
}

type figureView struct {
	Title     string
	Kind      string
	Theme     string
	HoverMode string
	Height    int
	SVG       template.HTML
	Plan      chart.Plan
	Data      DataTable
}

// HTML renders the figure as a standalone document with no external assets
func (f *Figure) HTML() (string, error) {
	view := figureView{
		Title:     f.Plan.Title,
		Kind:      f.Plan.Kind.Slug(),
		Theme:     string(f.Theme),
		HoverMode: f.Plan.Layout.HoverMode,
		Height:    f.Plan.Layout.Height,
		// labels are escaped when the SVG is drawn
		SVG:  template.HTML(f.SVG),
		Plan: f.Plan,
		Data: f.Data,
	}

	var buf bytes.Buffer
	if err := figureTemplate.Execute(&buf, view); err != nil {
		return "", apperrors.RenderError("failed to build HTML export", err)
	}
	return buf.String(), nil
}

// PNG rasterizes the figure
func (f *Figure) PNG(ctx context.Context) (img []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, apperrors.RenderError("failed to draw PNG", fmt.Errorf("%v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.RenderError("render cancelled", err)
	}
	if f.draw == nil {
		return nil, apperrors.RenderError("figure has no drawing to rasterize", nil)
	}

	var buf bytes.Buffer
	if err := f.draw(verbatim).Render(gochart.PNG, &buf); err != nil {
		return nil, apperrors.RenderError("failed to draw PNG", err)
	}
	return buf.Bytes(), nil
}

func verbatim(s string) string { return s }

// ExportFilename names a download after the chart title, e.g. "Sales by Region.html"
func ExportFilename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r < 0x20 || r == 0x7f:
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "chart"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

func xyData(plan chart.Plan, frame xyFrame) DataTable {
	header := []string{plan.X, plan.Y.Or("y")}
	if color, ok := plan.Color.Name(); ok {
		header = append(header, color)
	}

	var rows [][]string
	for _, s := range frame.Series {
		for i := range s.X {
			x := formatNumber(s.X[i])
			if frame.Categories != nil {
				x = frame.Categories[int(s.X[i])]
			}
			row := []string{x, formatNumber(s.Y[i])}
			if plan.Color.IsSet() {
				row = append(row, s.Name)
			}
			rows = append(rows, row)
		}
	}
	return DataTable{Header: header, Rows: rows}
}

func barData(plan chart.Plan, frame barFrame) DataTable {
	header := []string{plan.X}
	if plan.Color.IsSet() {
		header = append(header, frame.Groups...)
	} else if plan.Kind == chart.KindHistogram {
		header = append(header, "count")
	} else {
		header = append(header, plan.Y.Or("value"))
	}

	rows := make([][]string, 0, len(frame.Categories))
	for _, c := range frame.Categories {
		row := []string{c.Label}
		for _, v := range c.Values {
			row = append(row, formatNumber(v))
		}
		rows = append(rows, row)
	}
	return DataTable{Header: header, Rows: rows}
}
