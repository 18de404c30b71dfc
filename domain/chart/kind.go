package chart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is one of the six supported chart categories
type Kind int

const (
	KindUnknown Kind = iota
	KindLine
	KindBar
	KindScatter
	KindPie
	KindArea
	KindHistogram
)

var kindLabels = map[Kind]string{
	KindLine:      "Line Chart",
	KindBar:       "Bar Chart",
	KindScatter:   "Scatter Plot",
	KindPie:       "Pie Chart",
	KindArea:      "Area Chart",
	KindHistogram: "Histogram",
}

var kindSlugs = map[Kind]string{
	KindLine:      "line",
	KindBar:       "bar",
	KindScatter:   "scatter",
	KindPie:       "pie",
	KindArea:      "area",
	KindHistogram: "histogram",
}

// AllKinds returns every chart kind in display order
func AllKinds() []Kind {
	return []Kind{KindLine, KindBar, KindScatter, KindPie, KindArea, KindHistogram}
}

// ParseKind accepts a display label ("Bar Chart") or a slug ("bar"), case-insensitively
func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds() {
		if needle == strings.ToLower(kindLabels[k]) || needle == kindSlugs[k] {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown chart type %q", s)
}

// Valid reports whether k is a member of the closed set
func (k Kind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return "Unknown"
}

// Slug is the short lowercase identifier used in URLs and on the command line
func (k Kind) Slug() string {
	return kindSlugs[k]
}

// RequiresY reports whether the kind needs a numeric value column
func (k Kind) RequiresY() bool {
	return k.Valid() && k != KindHistogram
}

// AllowsColor reports whether the kind accepts a color-grouping column
func (k Kind) AllowsColor() bool {
	return k.Valid() && k != KindPie && k != KindHistogram
}

// XLabel is the caption of the x selector for this kind
func (k Kind) XLabel() string {
	if k == KindPie {
		return "Labels (Categories)"
	}
	return "X-Axis"
}

// YLabel is the caption of the y selector, empty when the kind has no y
func (k Kind) YLabel() string {
	switch {
	case k == KindPie:
		return "Values"
	case k.RequiresY():
		return "Y-Axis"
	default:
		return ""
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown chart kind %d", int(k))
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ColumnRole is the semantic slot a column fills in a chart
type ColumnRole string

const (
	RoleX     ColumnRole = "x"
	RoleY     ColumnRole = "y"
	RoleColor ColumnRole = "color"
)
