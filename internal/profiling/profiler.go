// Package profiling summarizes table columns for the dataset preview.
package profiling

import (
	"math"
	"sort"

	"dataviz/domain/table"
)

const topValueLimit = 5

// ValueCount is a categorical value and how often it occurs
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile describes one column of a loaded table
type ColumnProfile struct {
	Name     string           `json:"name"`
	Kind     table.ColumnKind `json:"kind"`
	Count    int              `json:"count"`
	Missing  int              `json:"missing"`
	Distinct int              `json:"distinct"`
	Numeric  *NumericSummary  `json:"numeric,omitempty"`
	Top      []ValueCount     `json:"top,omitempty"`
}

// ProfileTable profiles every column of t in column order
func ProfileTable(t *table.Table) []ColumnProfile {
	if t == nil {
		return nil
	}
	profiles := make([]ColumnProfile, 0, t.ColumnCount())
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		profiles = append(profiles, ProfileColumn(col))
	}
	return profiles
}

// ProfileColumn counts present, missing and distinct values, adding descriptive
// statistics for numeric columns and the most frequent values otherwise
func ProfileColumn(col *table.Column) ColumnProfile {
	p := ColumnProfile{Name: col.Name, Kind: col.Kind}

	counts := make(map[string]int)
	var order []string
	var numbers []float64

	for i := 0; i < col.Len(); i++ {
		label, ok := col.Label(i)
		if !ok {
			p.Missing++
			continue
		}
		p.Count++
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++

		// inf and nan parse as numbers but have no place in a summary
		if v, ok := col.Float(i); ok && !math.IsInf(v, 0) && !math.IsNaN(v) {
			numbers = append(numbers, v)
		}
	}
	p.Distinct = len(order)

	if col.IsNumeric() && len(numbers) > 0 {
		if summary, err := summarize(numbers); err == nil {
			p.Numeric = &summary
		}
		return p
	}

	// stable sort keeps first-appearance order among ties
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	for _, v := range order[:min(topValueLimit, len(order))] {
		p.Top = append(p.Top, ValueCount{Value: v, Count: counts[v]})
	}
	return p
}
