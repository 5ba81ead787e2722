package calc

// RowGap is the target comparison for one row
type RowGap struct {
	Index       int     `json:"index"`
	Value       float64 `json:"value"`
	Target      float64 `json:"target"`
	Below       bool    `json:"below"`
	AbsoluteGap float64 `json:"absolute_gap"` // target - value, 0 when at or above target
	RelativeGap float64 `json:"relative_gap"` // AbsoluteGap / target
	Weight      float64 `json:"weight"`
	GapUnits    float64 `json:"gap_units"`
}

// GapAnalysis aggregates per-row shortfalls against a target
type GapAnalysis struct {
	Rows            []RowGap `json:"rows"`
	Evaluated       int      `json:"evaluated"`
	BelowCount      int      `json:"below_count"`
	ShareBelow      float64  `json:"share_below"`       // BelowCount / Evaluated
	TotalGapUnits   float64  `json:"total_gap_units"`   // Σ gap·weight/scale, or Σ gap when unweighted
	AffectedWeight  float64  `json:"affected_weight"`   // Σ weight over below-target rows
	MeanRelativeGap float64  `json:"mean_relative_gap"` // mean RelativeGap over below-target rows
	MeanTarget      float64  `json:"mean_target"`       // mean target over evaluated rows
	Weighted        bool     `json:"weighted"`
}

// GapToTarget compares valueField with the row's target. When weightField is
// set the per-row gap is converted to absolute units (gap·weight/scale), which
// turns a per-capita shortfall into a count of missing units.
func GapToTarget(t Table, valueField, weightField string, target TargetFunc, scale float64) GapAnalysis {
	res := GapAnalysis{Weighted: weightField != ""}
	if t == nil || target == nil {
		return res
	}
	if scale <= 0 {
		scale = 1
	}

	var relSum, targetSum float64
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		v, ok := row.Float(valueField)
		if !ok || !isFinite(v) {
			continue
		}
		tgt, ok := target(row)
		if !ok || !isFinite(tgt) {
			continue
		}

		w := 1.0
		if res.Weighted {
			w, ok = row.Float(weightField)
			if !ok || !isFinite(w) || w < 0 {
				continue
			}
		}

		g := RowGap{Index: i, Value: v, Target: tgt, Weight: w}
		if v < tgt {
			g.Below = true
			g.AbsoluteGap = tgt - v
			if tgt != 0 {
				g.RelativeGap = g.AbsoluteGap / tgt
			}
			if res.Weighted {
				g.GapUnits = g.AbsoluteGap * w / scale
			} else {
				g.GapUnits = g.AbsoluteGap
			}
			res.BelowCount++
			res.TotalGapUnits += g.GapUnits
			res.AffectedWeight += w
			relSum += g.RelativeGap
		}

		res.Rows = append(res.Rows, g)
		res.Evaluated++
		targetSum += tgt
	}

	if res.Evaluated > 0 {
		res.ShareBelow = float64(res.BelowCount) / float64(res.Evaluated)
		res.MeanTarget = targetSum / float64(res.Evaluated)
	}
	if res.BelowCount > 0 {
		res.MeanRelativeGap = relSum / float64(res.BelowCount)
	}
	if !res.Weighted {
		res.AffectedWeight = float64(res.BelowCount)
	}
	return res
}
