package table

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnKind is the inferred element kind of a column
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// missingMarkers are the cell values read as "no value" (the pandas default NA set)
var missingMarkers = map[string]bool{
	"":          true,
	"#N/A":      true,
	"#N/A N/A":  true,
	"#NA":       true,
	"-1.#IND":   true,
	"-1.#QNAN":  true,
	"-NaN":      true,
	"-nan":      true,
	"1.#IND":    true,
	"1.#QNAN":   true,
	"<NA>":      true,
	"N/A":       true,
	"NA":        true,
	"NULL":      true,
	"NaN":       true,
	"None":      true,
	"n/a":       true,
	"nan":       true,
	"null":      true,
}

// IsMissing reports whether a trimmed cell value counts as a missing value
func IsMissing(value string) bool {
	return missingMarkers[strings.TrimSpace(value)]
}

// Column is a named column with its raw cells and, for numeric columns, parsed values
type Column struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Values  []string   `json:"-"`
	Numbers []float64  `json:"-"`
	Missing []bool     `json:"-"`
}

// IsNumeric reports whether every non-missing cell parsed as a number
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.Values)
}

// Float returns the numeric value at row i; false for missing cells and categorical columns
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != KindNumeric || i < 0 || i >= len(c.Numbers) || c.Missing[i] {
		return 0, false
	}
	return c.Numbers[i], true
}

// Label returns the raw cell at row i; false for missing cells
func (c *Column) Label(i int) (string, bool) {
	if i < 0 || i >= len(c.Values) || c.Missing[i] {
		return "", false
	}
	return c.Values[i], true
}

// Table is an ordered set of uniquely named columns of equal length
type Table struct {
	Source  string   `json:"source"`
	Columns []Column `json:"columns"`

	index map[string]int
	rows  int
}

// New builds a table from a header row and data rows. Short rows are padded with
// missing cells; rows longer than the header are rejected. Header names are made
// unique the way spreadsheet tools do it ("a", "a.1", "Unnamed: 2").
func New(source string, headers []string, rows [][]string) (*Table, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("no columns to parse from file")
	}

	names := uniqueNames(headers)
	t := &Table{
		Source:  source,
		Columns: make([]Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(rows),
	}

	for i, name := range names {
		t.Columns[i] = Column{
			Name:    name,
			Values:  make([]string, len(rows)),
			Missing: make([]bool, len(rows)),
		}
		t.index[name] = i
	}

	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("expected %d fields in row %d, saw %d", len(names), r+1, len(row))
		}
		for c := range t.Columns {
			cell := ""
			if c < len(row) {
				cell = strings.TrimSpace(row[c])
			}
			t.Columns[c].Values[r] = cell
			t.Columns[c].Missing[r] = missingMarkers[cell]
		}
	}

	for c := range t.Columns {
		inferKind(&t.Columns[c], t.rows)
	}

	return t, nil
}

// inferKind marks a column numeric when the table has rows and every present cell parses
func inferKind(col *Column, rows int) {
	col.Kind = KindCategorical
	if rows == 0 {
		return
	}

	numbers := make([]float64, len(col.Values))
	for i, v := range col.Values {
		if col.Missing[i] {
			continue
		}
		f, ok := parseDecimal(v)
		if !ok {
			return
		}
		numbers[i] = f
	}

	col.Kind = KindNumeric
	col.Numbers = numbers
}

// parseDecimal accepts plain decimal and scientific notation only; ParseFloat
// also takes Go literal forms such as 0x1p4 and 1_000 that are not data.
func parseDecimal(s string) (float64, bool) {
	if strings.Contains(s, "_") {
		return 0, false
	}
	digits := strings.TrimLeft(s, "+-")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func uniqueNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	taken := make(map[string]bool, len(headers))

	for i, h := range headers {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		candidate := name
		for taken[candidate] {
			seen[name]++
			candidate = fmt.Sprintf("%s.%d", name, seen[name])
		}

		taken[candidate] = true
		names[i] = candidate
	}

	return names
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return t.rows
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// ColumnNames returns all column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.Columns[i], true
}

// NumericColumns returns the names of numeric columns in table order
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// HasNumeric reports whether at least one column is numeric
func (t *Table) HasNumeric() bool {
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			return true
		}
	}
	return false
}

// Preview returns up to n rows of raw cells; missing cells are empty strings
func (t *Table) Preview(n int) [][]string {
	if n > t.rows || n < 0 {
		n = t.rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(t.Columns))
		for c := range t.Columns {
			if v, ok := t.Columns[c].Label(r); ok {
				row[c] = v
			}
		}
		out[r] = row
	}
	return out
}

// Summary is the one-line message shown after a successful upload
func (t *Table) Summary() string {
	return fmt.Sprintf("Found %d rows and %d columns.", t.rows, len(t.Columns))
}
