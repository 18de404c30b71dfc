package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"dataviz/domain/chart"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const blankLabel = "(blank)"

// xySeries is one color group of an x/y chart
type xySeries struct {
	Name string
	X    []float64
	Y    []float64
}

// xyFrame is the plottable data of a line, area or scatter chart
type xyFrame struct {
	Series []xySeries
	// Categories is non-nil when x is categorical; X values are then category indexes
	Categories []string
}

// category is a labelled bucket of summed values, one per color group
type category struct {
	Label  string
	Values []float64
}

// barFrame is the plottable data of bar, pie and histogram charts
type barFrame struct {
	Groups     []string
	Categories []category
}

// orderedIndex assigns ids to labels in first-appearance order
type orderedIndex struct {
	ids    map[string]int
	labels []string
}

func newOrderedIndex() *orderedIndex {
	return &orderedIndex{ids: make(map[string]int)}
}

func (o *orderedIndex) id(label string) int {
	if id, ok := o.ids[label]; ok {
		return id
	}
	id := len(o.labels)
	o.ids[label] = id
	o.labels = append(o.labels, label)
	return id
}

func planColumns(plan chart.Plan, t *table.Table) (x, y, color *table.Column, err error) {
	var ok bool
	if x, ok = t.Column(plan.X); !ok {
		return nil, nil, nil, apperrors.PlanValidation("x column %q does not exist in the table", plan.X)
	}
	if name, set := plan.Y.Name(); set {
		if y, ok = t.Column(name); !ok {
			return nil, nil, nil, apperrors.PlanValidation("y column %q does not exist in the table", name)
		}
	}
	if name, set := plan.Color.Name(); set {
		if color, ok = t.Column(name); !ok {
			return nil, nil, nil, apperrors.PlanValidation("color column %q does not exist in the table", name)
		}
	}
	return x, y, color, nil
}

func groupLabel(color *table.Column, row int) string {
	if label, ok := color.Label(row); ok {
		return label
	}
	return blankLabel
}

// buildXYFrame extracts one series per color group, skipping rows without both x and y
func buildXYFrame(plan chart.Plan, t *table.Table) (xyFrame, error) {
	xCol, yCol, colorCol, err := planColumns(plan, t)
	if err != nil {
		return xyFrame{}, err
	}
	if yCol == nil {
		return xyFrame{}, apperrors.PlanValidation("%s requires a y column", plan.Kind)
	}

	categories := newOrderedIndex()
	groups := newOrderedIndex()
	var series []xySeries

	for row := 0; row < t.RowCount(); row++ {
		yv, ok := yCol.Float(row)
		if !ok {
			continue
		}

		var xv float64
		if xCol.IsNumeric() {
			if xv, ok = xCol.Float(row); !ok {
				continue
			}
		} else {
			label, ok := xCol.Label(row)
			if !ok {
				continue
			}
			xv = float64(categories.id(label))
		}

		name := yCol.Name
		if colorCol != nil {
			name = groupLabel(colorCol, row)
		}
		g := groups.id(name)
		if g == len(series) {
			series = append(series, xySeries{Name: name})
		}
		series[g].X = append(series[g].X, xv)
		series[g].Y = append(series[g].Y, yv)
	}

	if len(series) == 0 {
		return xyFrame{}, apperrors.RenderError(
			fmt.Sprintf("no rows have values for both %q and %q", xCol.Name, yCol.Name), nil)
	}

	frame := xyFrame{Series: series}
	if !xCol.IsNumeric() {
		frame.Categories = categories.labels
	}
	return frame, nil
}

// buildSumFrame sums y per x category and color group, in first-appearance order
func buildSumFrame(plan chart.Plan, t *table.Table) (barFrame, error) {
	xCol, yCol, colorCol, err := planColumns(plan, t)
	if err != nil {
		return barFrame{}, err
	}
	if yCol == nil {
		return barFrame{}, apperrors.PlanValidation("%s requires a y column", plan.Kind)
	}

	categories := newOrderedIndex()
	groups := newOrderedIndex()
	sums := map[[2]int]float64{}

	for row := 0; row < t.RowCount(); row++ {
		yv, ok := yCol.Float(row)
		if !ok {
			continue
		}
		label, ok := xCol.Label(row)
		if !ok {
			continue
		}
		name := yCol.Name
		if colorCol != nil {
			name = groupLabel(colorCol, row)
		}
		sums[[2]int{categories.id(label), groups.id(name)}] += yv
	}

	if len(categories.labels) == 0 {
		return barFrame{}, apperrors.RenderError(
			fmt.Sprintf("no rows have values for both %q and %q", xCol.Name, yCol.Name), nil)
	}

	frame := barFrame{Groups: groups.labels, Categories: make([]category, len(categories.labels))}
	for c, label := range categories.labels {
		values := make([]float64, len(groups.labels))
		for g := range groups.labels {
			values[g] = sums[[2]int{c, g}]
		}
		frame.Categories[c] = category{Label: label, Values: values}
	}
	return frame, nil
}

// buildHistogramFrame counts x values: Sturges bins for numeric x, one bar per value otherwise
func buildHistogramFrame(plan chart.Plan, t *table.Table) (barFrame, error) {
	xCol, _, _, err := planColumns(plan, t)
	if err != nil {
		return barFrame{}, err
	}
	frame := barFrame{Groups: []string{"count"}}

	if !xCol.IsNumeric() {
		categories := newOrderedIndex()
		var counts []float64
		for row := 0; row < t.RowCount(); row++ {
			label, ok := xCol.Label(row)
			if !ok {
				continue
			}
			if id := categories.id(label); id == len(counts) {
				counts = append(counts, 0)
			}
			counts[categories.ids[label]]++
		}
		if len(counts) == 0 {
			return barFrame{}, apperrors.RenderError(fmt.Sprintf("column %q has no values", xCol.Name), nil)
		}
		for i, label := range categories.labels {
			frame.Categories = append(frame.Categories, category{Label: label, Values: []float64{counts[i]}})
		}
		return frame, nil
	}

	var values []float64
	for row := 0; row < t.RowCount(); row++ {
		if v, ok := xCol.Float(row); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return barFrame{}, apperrors.RenderError(fmt.Sprintf("column %q has no values", xCol.Name), nil)
	}
	sort.Float64s(values)

	dividers, err := binEdges(values)
	if err != nil {
		return barFrame{}, err
	}
	counts := stat.Histogram(nil, dividers, values, nil)
	for i, c := range counts {
		frame.Categories = append(frame.Categories, category{
			Label:  binLabel(dividers[i], dividers[i+1]),
			Values: []float64{c},
		})
	}
	return frame, nil
}

// binEdges returns Sturges' rule bin dividers covering sorted values.
// Edges are interpolated rather than stepped so that hi-lo may exceed the float64 range.
func binEdges(sorted []float64) ([]float64, error) {
	lo, hi := floats.Min(sorted), floats.Max(sorted)
	if lo == hi {
		return []float64{lo - 0.5, lo + 0.5}, nil
	}

	bins := int(math.Ceil(math.Log2(float64(len(sorted))))) + 1
	dividers := make([]float64, bins+1)
	for i := range dividers {
		f := float64(i) / float64(bins)
		dividers[i] = lo*(1-f) + hi*f
	}
	dividers[0] = lo
	// the last bin is half-open, so nudge its upper edge past the maximum
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	if !sort.Float64sAreSorted(dividers) {
		return nil, apperrors.RenderError(fmt.Sprintf("cannot bin values between %g and %g", lo, hi), nil)
	}
	return dividers, nil
}

func binLabel(lo, hi float64) string {
	return fmt.Sprintf("%s-%s", formatNumber(lo), formatNumber(hi))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// totals returns per-category sums across groups, used by pie charts
func (f barFrame) totals() []float64 {
	out := make([]float64, len(f.Categories))
	for i, c := range f.Categories {
		out[i] = floats.Sum(c.Values)
	}
	return out
}
