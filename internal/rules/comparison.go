package rules

import (
	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/render"
)

// ExtremaComparison contrasts the highest and lowest groups in a comparative view
type ExtremaComparison struct {
	MinRelativeSpread float64
}

func (r *ExtremaComparison) Name() string { return RuleExtremaComparison }

func (r *ExtremaComparison) Description() string {
	return "Best versus worst group when the spread is material"
}

func (r *ExtremaComparison) Requirements() Requirements {
	return Requirements{
		MinSampleSize: COMPARISON_MIN_GROUPS,
		MinGroups:     COMPARISON_MIN_GROUPS,
		Needs:         []metrics.Kind{metrics.KindExtrema},
	}
}

func (r *ExtremaComparison) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	if !vc.IsComparative() {
		return false
	}
	return m.Extrema.NGroups >= COMPARISON_MIN_GROUPS && m.Extrema.RelativeSpread >= r.MinRelativeSpread
}

func (r *ExtremaComparison) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	e := m.Extrema
	var finding *builder
	if e.HasRatio {
		finding = newInsight(r.Name(), PRIORITY_EXTREMA, render.TemplateKeyFindingExtrema).
			num("ratio", narrative.KindNumber, e.Ratio, "extrema.ratio")
	} else {
		finding = newInsight(r.Name(), PRIORITY_EXTREMA, render.TemplateKeyFindingSpread).
			rate("spread", e.Spread, cfg.Unit, "extrema.spread")
	}
	finding.
		text("metric", cfg.Label(), "config.title").
		rate("min_value", e.MinValue, cfg.Unit, "extrema.min_value").
		text("min_group", e.MinGroup, "extrema.min_group").
		rate("max_value", e.MaxValue, cfg.Unit, "extrema.max_value").
		text("max_group", e.MaxGroup, "extrema.max_group")

	focusGroup, focusPosition, source := e.MaxGroup, "highest", "extrema.max_group"
	if cfg.HigherIsBetter {
		focusGroup, focusPosition, source = e.MinGroup, "lowest", "extrema.min_group"
	}
	action := newInsight(r.Name(), PRIORITY_EXTREMA_ACTION, render.TemplateRecommendationExtrema).
		labels(cfg, e.NGroups).
		text("focus_group", focusGroup, source).
		text("focus_position", focusPosition, "config.higher_is_better").
		num("n_groups", narrative.KindCount, float64(e.NGroups), "extrema.n_groups")

	return []narrative.Insight{finding.build(), action.build()}
}

// OutlierFlag names groups outside the Tukey fences of the group distribution
type OutlierFlag struct {
	MinGroups int
}

func (r *OutlierFlag) Name() string { return RuleOutlierFlag }

func (r *OutlierFlag) Description() string {
	return "Groups beyond 1.5 IQR of the quartiles"
}

func (r *OutlierFlag) Requirements() Requirements {
	return Requirements{
		MinSampleSize: r.MinGroups,
		MinGroups:     r.MinGroups,
		Needs:         []metrics.Kind{metrics.KindOutliers},
	}
}

func (r *OutlierFlag) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return vc.IsComparative() && m.Outliers.Count > 0 && m.Outliers.Highest != nil
}

func (r *OutlierFlag) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	o := m.Outliers
	top := o.Highest
	finding := newInsight(r.Name(), PRIORITY_OUTLIER, render.TemplateKeyFindingOutlier).
		labels(cfg, o.Count).
		num("outlier_count", narrative.KindCount, float64(o.Count), "outliers.count").
		text("outlier_group", top.Group, "outliers.highest.group").
		rate("outlier_value", top.Value, cfg.Unit, "outliers.highest.value")

	action := newInsight(r.Name(), PRIORITY_OUTLIER_ACTION, render.TemplateRecommendationOutlier).
		text("metric", cfg.Label(), "config.title").
		text("outlier_group", top.Group, "outliers.highest.group").
		rate("outlier_value", top.Value, cfg.Unit, "outliers.highest.value").
		rate("lower_fence", o.LowerFence, cfg.Unit, "outliers.lower_fence").
		rate("upper_fence", o.UpperFence, cfg.Unit, "outliers.upper_fence")

	return []narrative.Insight{finding.build(), action.build()}
}

// QuartileRule compares the top and bottom quarter of areas ranked by a split
// field such as a deprivation score
type QuartileRule struct {
	MinRows        int
	MinRelativeGap float64
}

func (r *QuartileRule) Name() string { return RuleQuartileComparison }

func (r *QuartileRule) Description() string {
	return "Weighted metric in the highest versus lowest quarter of the split field"
}

func (r *QuartileRule) Requirements() Requirements {
	return Requirements{
		MinSampleSize: r.MinRows,
		MinGroups:     COMPARISON_MIN_GROUPS,
		Needs:         []metrics.Kind{metrics.KindQuartiles},
		Aux:           []AuxField{AuxSplit},
	}
}

func (r *QuartileRule) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return vc.IsComparative() && m.Quartiles.N >= r.MinRows && m.Quartiles.AbsRelativeGap >= r.MinRelativeGap
}

func (r *QuartileRule) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	q := m.Quartiles
	splitLabel := firstNonEmpty(cfg.SplitLabel, humanize(cfg.SplitField))

	finding := newInsight(r.Name(), PRIORITY_QUARTILE, render.TemplateKeyFindingQuartile).
		text("metric", cfg.Label(), "config.title").
		text("split_label", splitLabel, "config.split_label").
		rate("top_value", q.TopValue, cfg.Unit, "quartiles.top_value").
		rate("bottom_value", q.BottomValue, cfg.Unit, "quartiles.bottom_value").
		num("gap", narrative.KindPercent, q.AbsRelativeGap, "quartiles.abs_relative_gap")
	out := []narrative.Insight{finding.build()}

	// Only recommend when the high-split quarter is the disadvantaged one
	topWorse := q.TopValue < q.BottomValue
	if !cfg.HigherIsBetter {
		topWorse = q.TopValue > q.BottomValue
	}
	if topWorse {
		comparison := "higher"
		if q.TopValue < q.BottomValue {
			comparison = "lower"
		}
		out = append(out, newInsight(r.Name(), PRIORITY_QUARTILE_ACTION, render.TemplateRecommendationQuartile).
			text("metric", cfg.Label(), "config.title").
			text("split_label", splitLabel, "config.split_label").
			num("gap", narrative.KindPercent, q.AbsRelativeGap, "quartiles.abs_relative_gap").
			text("comparison", comparison, "quartiles.relative_gap").
			build())
	}
	return out
}
