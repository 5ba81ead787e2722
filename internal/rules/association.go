package rules

import (
	"gonarrative/domain/narrative"
	"gonarrative/internal/calc"
	"gonarrative/internal/metrics"
	"gonarrative/internal/render"
)

// CorrelationRule reports a significant, non-negligible Pearson correlation
// between the metric and an auxiliary field
type CorrelationRule struct {
	MinPairs int
	Alpha    float64
	MinAbsR  float64
}

func (r *CorrelationRule) Name() string { return RuleCorrelation }

func (r *CorrelationRule) Description() string {
	return "Pearson correlation with an auxiliary field, two-tailed p below alpha"
}

func (r *CorrelationRule) Requirements() Requirements {
	return Requirements{
		MinSampleSize: r.MinPairs,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindCorrelation},
		Aux:           []AuxField{AuxCorrelate},
	}
}

func (r *CorrelationRule) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	c := m.Correlation
	return c.Sufficient && c.N >= r.MinPairs && c.PValue < r.Alpha && c.AbsR >= r.MinAbsR
}

func (r *CorrelationRule) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	c := m.Correlation
	strength := "moderate"
	if c.AbsR >= CORRELATION_STRONG_ABS_R {
		strength = "strong"
	}
	direction := "positive"
	if c.R < 0 {
		direction = "negative"
	}

	return []narrative.Insight{
		newInsight(r.Name(), PRIORITY_CORRELATION, render.TemplateKeyFindingCorrelation).
			text("metric", cfg.Label(), "config.title").
			text("correlate_label", firstNonEmpty(cfg.CorrelateLabel, humanize(cfg.CorrelateWith)), "config.correlate_label").
			text("strength", strength, "correlation.abs_r").
			text("direction", direction, "correlation.r").
			num("n", narrative.KindCount, float64(c.N), "correlation.n").
			num("r", narrative.KindRatio, c.R, "correlation.r").
			build(),
	}
}

// PowerLawEfficiency reports how provision volume scales with area size
type PowerLawEfficiency struct {
	MinPoints   int
	MinRSquared float64
}

func (r *PowerLawEfficiency) Name() string { return RulePowerLawEfficiency }

func (r *PowerLawEfficiency) Description() string {
	return "Log-log scaling exponent of provision against population"
}

func (r *PowerLawEfficiency) Requirements() Requirements {
	return Requirements{
		MinSampleSize: r.MinPoints,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindPowerLaw},
	}
}

func (r *PowerLawEfficiency) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return m.PowerLaw.N >= r.MinPoints && m.PowerLaw.RSquared >= r.MinRSquared
}

func (r *PowerLawEfficiency) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	pl := m.PowerLaw
	scaling := "in proportion to"
	switch pl.Scaling {
	case calc.ScalingSublinear:
		scaling = "more slowly than"
	case calc.ScalingSuperlinear:
		scaling = "faster than"
	}
	sizeLabel := firstNonEmpty(cfg.WeightLabel, humanize(cfg.DenominatorField), humanize(cfg.WeightField))

	return []narrative.Insight{
		newInsight(r.Name(), PRIORITY_POWER_LAW, render.TemplateKeyFindingPowerLaw).
			text("metric", cfg.Label(), "config.title").
			text("scaling", scaling, "power_law.scaling").
			text("size_label", sizeLabel, "config.weight_label").
			num("n", narrative.KindCount, float64(pl.N), "power_law.n").
			num("exponent", narrative.KindRatio, pl.Exponent, "power_law.exponent").
			num("r_squared", narrative.KindRatio, pl.RSquared, "power_law.r_squared").
			build(),
	}
}
