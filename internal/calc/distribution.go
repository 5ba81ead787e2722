package calc

import (
	"math"

	"github.com/montanaflynn/stats"
)

// IQRMultiplier sets the Tukey fences used for outlier detection
const IQRMultiplier = 1.5

// Distribution summarises a column of numbers. The zero value means "no data".
type Distribution struct {
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"std_dev"` // sample standard deviation
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	IQR          float64 `json:"iqr"`
	LowerFence   float64 `json:"lower_fence"`
	UpperFence   float64 `json:"upper_fence"`
	OutlierCount int     `json:"outlier_count"`
}

// IsOutlier reports whether v lies outside the Tukey fences
func (d Distribution) IsOutlier(v float64) bool {
	if d.Count == 0 {
		return false
	}
	return v < d.LowerFence || v > d.UpperFence
}

// DescribeDistribution computes summary statistics for values.
// Non-finite entries are ignored; empty input returns the zero Distribution.
func DescribeDistribution(values []float64) Distribution {
	data := finite(values)
	if len(data) == 0 {
		return Distribution{}
	}

	d := Distribution{Count: len(data)}

	var err error
	if d.Mean, err = stats.Mean(data); err != nil {
		return Distribution{}
	}
	if d.Median, err = stats.Median(data); err != nil {
		return Distribution{}
	}
	if d.Min, err = stats.Min(data); err != nil {
		return Distribution{}
	}
	if d.Max, err = stats.Max(data); err != nil {
		return Distribution{}
	}

	if len(data) > 1 {
		if sd, err := stats.StandardDeviationSample(data); err == nil && !math.IsNaN(sd) {
			d.StdDev = sd
		}
	}

	d.Q1, d.Q3 = quartiles(data)
	d.IQR = d.Q3 - d.Q1
	d.LowerFence = d.Q1 - IQRMultiplier*d.IQR
	d.UpperFence = d.Q3 + IQRMultiplier*d.IQR

	for _, v := range data {
		if v < d.LowerFence || v > d.UpperFence {
			d.OutlierCount++
		}
	}

	return d
}

// quartiles uses the median-of-halves method; a single value is its own quartiles
func quartiles(data []float64) (float64, float64) {
	if len(data) == 1 {
		return data[0], data[0]
	}
	q, err := stats.Quartile(data)
	if err != nil || math.IsNaN(q.Q1) || math.IsNaN(q.Q3) {
		lo, _ := stats.Min(data)
		hi, _ := stats.Max(data)
		return lo, hi
	}
	return q.Q1, q.Q3
}

// finite drops NaN and ±Inf entries
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
