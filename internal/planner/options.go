package planner

import (
	"dataviz/domain/chart"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"
)

// RoleOptions lists the columns selectable for each role of a chart kind.
// A nil slice means the role does not apply to the kind.
type RoleOptions struct {
	Kind         chart.Kind `json:"kind"`
	XLabel       string     `json:"x_label"`
	YLabel       string     `json:"y_label,omitempty"`
	X            []string   `json:"x"`
	Y            []string   `json:"y"`
	Color        []string   `json:"color"`
	DefaultTitle string     `json:"default_title"`
}

// Options returns the selectable columns per role for kind, with the default
// title for the first selectable x and y
func Options(t *table.Table, kind chart.Kind) (RoleOptions, error) {
	if t == nil {
		return RoleOptions{}, apperrors.NoTable()
	}
	if !t.HasNumeric() {
		return RoleOptions{}, apperrors.NoNumericColumns()
	}
	if !kind.Valid() {
		return RoleOptions{}, apperrors.PlanValidation("unknown chart type")
	}

	opts := RoleOptions{
		Kind:   kind,
		XLabel: kind.XLabel(),
		YLabel: kind.YLabel(),
		X:      t.ColumnNames(),
	}
	if kind.RequiresY() {
		opts.Y = t.NumericColumns()
	}
	if kind.AllowsColor() {
		opts.Color = t.ColumnNames()
	}

	y := chart.None()
	if len(opts.Y) > 0 {
		y = chart.Some(opts.Y[0])
	}
	opts.DefaultTitle = chart.DefaultTitle(kind, opts.X[0], y)

	return opts, nil
}
