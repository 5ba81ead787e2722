package calc

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultMinPairs is the minimum number of complete pairs for a correlation
const DefaultMinPairs = 10

// Correlation is a Pearson correlation with its two-tailed significance.
// Sufficient is false when there were too few valid pairs or no variance;
// R and PValue are then meaningless and left at zero.
type Correlation struct {
	XField     string  `json:"x_field"`
	YField     string  `json:"y_field"`
	R          float64 `json:"r"`
	AbsR       float64 `json:"abs_r"`
	PValue     float64 `json:"p_value"`
	N          int     `json:"n"`
	Sufficient bool    `json:"sufficient"`
}

// Correlate computes Pearson's r between two fields over rows where both are numeric
func Correlate(t Table, xField, yField string, minPairs int) Correlation {
	if minPairs <= 0 {
		minPairs = DefaultMinPairs
	}
	res := Correlation{XField: xField, YField: yField}
	if t == nil {
		return res
	}

	xs := make([]float64, 0, t.Len())
	ys := make([]float64, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		x, okX := row.Float(xField)
		y, okY := row.Float(yField)
		if !okX || !okY || !isFinite(x) || !isFinite(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	res.N = len(xs)
	if res.N < minPairs || res.N < 3 {
		return res
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return res
	}
	// Clamp to [-1, 1] range (floating point precision)
	r = math.Max(-1, math.Min(1, r))

	res.R = r
	res.AbsR = math.Abs(r)
	res.PValue = correlationPValue(r, res.N)
	res.Sufficient = true
	return res
}

// correlationPValue transforms r to a t statistic and returns the two-tailed p-value
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	tStatistic := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
	return math.Max(0, math.Min(1, p))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
