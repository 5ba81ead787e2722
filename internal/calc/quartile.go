package calc

import (
	"sort"
)

// MinQuartileRows is the smallest table that yields non-empty quartiles
const MinQuartileRows = 4

// QuartileComparison contrasts the top and bottom quarter of rows ranked by a split field
type QuartileComparison struct {
	SplitField     string  `json:"split_field"`
	MetricField    string  `json:"metric_field"`
	TopValue       float64 `json:"top_value"`    // weighted metric for the highest-split quarter
	BottomValue    float64 `json:"bottom_value"` // weighted metric for the lowest-split quarter
	TopWeight      float64 `json:"top_weight"`
	BottomWeight   float64 `json:"bottom_weight"`
	AbsoluteGap    float64 `json:"absolute_gap"` // TopValue - BottomValue
	RelativeGap    float64 `json:"relative_gap"` // AbsoluteGap / BottomValue
	AbsRelativeGap float64 `json:"abs_relative_gap"`
	RowsPerGroup   int     `json:"rows_per_group"`
	N              int     `json:"n"`
}

type quartileRow struct {
	split  float64
	weight float64
	metric float64
	index  int
}

// CompareQuartiles ranks rows by splitField and compares the population-weighted
// metricField between the top and bottom 25%. Rows missing any of the three
// fields, or with a negative weight, are skipped. When weightField is empty every
// row weighs 1. ok is false when fewer than MinQuartileRows rows qualify or the
// bottom group's value is zero.
func CompareQuartiles(t Table, splitField, weightField, metricField string) (QuartileComparison, bool) {
	res := QuartileComparison{SplitField: splitField, MetricField: metricField}
	if t == nil {
		return res, false
	}

	rows := make([]quartileRow, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		s, okS := r.Float(splitField)
		m, okM := r.Float(metricField)
		if !okS || !okM || !isFinite(s) || !isFinite(m) {
			continue
		}
		w := 1.0
		if weightField != "" {
			var okW bool
			w, okW = r.Float(weightField)
			if !okW || !isFinite(w) || w < 0 {
				continue
			}
		}
		rows = append(rows, quartileRow{split: s, weight: w, metric: m, index: i})
	}

	res.N = len(rows)
	if len(rows) < MinQuartileRows {
		return res, false
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].split == rows[j].split {
			return rows[i].index < rows[j].index
		}
		return rows[i].split < rows[j].split
	})

	k := len(rows) / 4
	bottom, bw, okB := weightedMean(rows[:k])
	top, tw, okT := weightedMean(rows[len(rows)-k:])
	if !okB || !okT || bottom == 0 {
		return res, false
	}

	res.RowsPerGroup = k
	res.TopValue = top
	res.BottomValue = bottom
	res.TopWeight = tw
	res.BottomWeight = bw
	res.AbsoluteGap = top - bottom
	res.RelativeGap = res.AbsoluteGap / bottom
	if res.RelativeGap < 0 {
		res.AbsRelativeGap = -res.RelativeGap
	} else {
		res.AbsRelativeGap = res.RelativeGap
	}
	return res, true
}

func weightedMean(rows []quartileRow) (float64, float64, bool) {
	var sumW, sumWM float64
	for _, r := range rows {
		sumW += r.weight
		sumWM += r.weight * r.metric
	}
	if sumW <= 0 {
		return 0, 0, false
	}
	return sumWM / sumW, sumW, true
}
