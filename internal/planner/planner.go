// Package planner validates chart selections against a table and turns them
// into normalized chart plans.
//
// Planning is a pure function of its inputs: the same table and request always
// yield an identical plan, and a rejected request never yields a partial one.
package planner

import (
	"strings"

	"dataviz/domain/chart"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"
)

// Request is the user's chart selection
type Request struct {
	Kind  chart.Kind
	X     string
	Y     chart.Field
	Color chart.Field
	Title chart.Field
}

// AvailableChartKinds returns the kinds that can be planned for t: none when the
// table has no numeric column, otherwise all of them.
func AvailableChartKinds(t *table.Table) []chart.Kind {
	if t == nil || !t.HasNumeric() {
		return []chart.Kind{}
	}
	return chart.AllKinds()
}

// Plan validates req against t and builds the chart plan
func Plan(t *table.Table, req Request) (chart.Plan, error) {
	if t == nil {
		return chart.Plan{}, apperrors.NoTable()
	}
	if !t.HasNumeric() {
		return chart.Plan{}, apperrors.NoNumericColumns()
	}
	if !req.Kind.Valid() {
		return chart.Plan{}, apperrors.PlanValidation("unknown chart type")
	}

	if req.X == "" {
		return chart.Plan{}, apperrors.PlanValidation("%s: a column must be selected", req.Kind.XLabel())
	}
	if _, err := lookup(t, chart.RoleX, req.X); err != nil {
		return chart.Plan{}, err
	}

	if err := validateY(t, req.Kind, req.Y); err != nil {
		return chart.Plan{}, err
	}
	if err := validateColor(t, req.Kind, req.Color); err != nil {
		return chart.Plan{}, err
	}

	title := chart.DefaultTitle(req.Kind, req.X, req.Y)
	if override, ok := req.Title.Name(); ok && strings.TrimSpace(override) != "" {
		title = override
	}

	return chart.Plan{
		Kind:   req.Kind,
		X:      req.X,
		Y:      req.Y,
		Color:  req.Color,
		Title:  title,
		Layout: chart.DefaultLayout(),
	}, nil
}

func validateY(t *table.Table, kind chart.Kind, y chart.Field) error {
	name, set := y.Name()
	if !kind.RequiresY() {
		if set {
			return apperrors.PlanValidation("%s does not take a y column (got %q)", kind, name)
		}
		return nil
	}

	if !set || name == "" {
		return apperrors.PlanValidation("%s: a numeric column must be selected for %s", kind.YLabel(), kind)
	}
	col, err := lookup(t, chart.RoleY, name)
	if err != nil {
		return err
	}
	if !col.IsNumeric() {
		return apperrors.PlanValidation("%s column %q is not numeric", kind.YLabel(), name)
	}
	return nil
}

func validateColor(t *table.Table, kind chart.Kind, color chart.Field) error {
	name, set := color.Name()
	if !set {
		return nil
	}
	if !kind.AllowsColor() {
		return apperrors.PlanValidation("%s does not support color grouping (got %q)", kind, name)
	}
	_, err := lookup(t, chart.RoleColor, name)
	return err
}

func lookup(t *table.Table, role chart.ColumnRole, name string) (*table.Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, apperrors.PlanValidation("%s column %q does not exist in the table", role, name)
	}
	return col, nil
}
