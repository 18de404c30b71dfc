package profiling

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
)

var errOverflow = errors.New("summary overflows float64")

// Shape labels the skew of a numeric column
type Shape string

const (
	ShapeSymmetric    Shape = "symmetric"
	ShapeRightSkewed  Shape = "right-skewed"
	ShapeLeftSkewed   Shape = "left-skewed"
	ShapeInsufficient Shape = "insufficient-data"
	skewThreshold           = 0.5
)

// NumericSummary holds descriptive statistics of a numeric column
type NumericSummary struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Shape    Shape   `json:"shape"`
	Outliers int     `json:"outliers"`
}

// summarize computes the numeric summary of data; data must be non-empty
func summarize(data []float64) (NumericSummary, error) {
	var s NumericSummary
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Q25, err = stats.PercentileNearestRank(data, 25); err != nil {
		return s, err
	}
	if s.Q75, err = stats.PercentileNearestRank(data, 75); err != nil {
		return s, err
	}

	// a single observation has no sample deviation
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}

	s.Skewness = calculateSkewness(data, s.Mean, s.StdDev)
	s.Shape = classifyShape(len(data), s.Skewness)
	s.Outliers = detectOutliers(data, s.Q25, s.Q75)
	if !s.finite() {
		return s, errOverflow
	}
	return s, nil
}

func (s NumericSummary) finite() bool {
	for _, v := range []float64{s.Mean, s.StdDev, s.Min, s.Max, s.Median, s.Q25, s.Q75, s.Skewness} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

func classifyShape(n int, skewness float64) Shape {
	switch {
	case n < 3:
		return ShapeInsufficient
	case skewness > skewThreshold:
		return ShapeRightSkewed
	case skewness < -skewThreshold:
		return ShapeLeftSkewed
	default:
		return ShapeSymmetric
	}
}

// detectOutliers counts values outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
