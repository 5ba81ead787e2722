package rules

import (
	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/render"
)

// DistributionSummary describes the level and centre of the metric across the view
type DistributionSummary struct{}

func (r *DistributionSummary) Name() string { return RuleDistributionSummary }

func (r *DistributionSummary) Description() string {
	return "Weighted average and median of the metric across the groups in view"
}

func (r *DistributionSummary) Requirements() Requirements {
	return Requirements{
		MinSampleSize: 1,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindDistribution},
	}
}

func (r *DistributionSummary) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return m.Distribution.Count > 0
}

func (r *DistributionSummary) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	d := m.Distribution
	var out []narrative.Insight

	if m.Aggregate != nil {
		out = append(out, newInsight(r.Name(), PRIORITY_DISTRIBUTION, render.TemplateSummaryDistribution).
			labels(cfg, d.Count).
			num("n_groups", narrative.KindCount, float64(d.Count), "distribution.count").
			rate("average", m.Aggregate.Value, cfg.Unit, "aggregate.value").
			rate("median", d.Median, cfg.Unit, "distribution.median").
			build())
	}

	out = append(out, newInsight(r.Name(), PRIORITY_DISTRIBUTION_MEDIAN, render.TemplateSummaryMedian).
		labels(cfg, d.Count).
		num("n_groups", narrative.KindCount, float64(d.Count), "distribution.count").
		rate("median", d.Median, cfg.Unit, "distribution.median").
		rate("min", d.Min, cfg.Unit, "distribution.min").
		rate("max", d.Max, cfg.Unit, "distribution.max").
		build())
	return out
}

// SingleGroupPosition places one named group against the reference population
type SingleGroupPosition struct {
	ParityBand float64
}

func (r *SingleGroupPosition) Name() string { return RuleSingleGroupPosition }

func (r *SingleGroupPosition) Description() string {
	return "Selected group's value, difference from the reference average and rank"
}

func (r *SingleGroupPosition) Requirements() Requirements {
	return Requirements{
		MinSampleSize: 1,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindPosition},
	}
}

func (r *SingleGroupPosition) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return vc.Scope == narrative.ScopeSingleGroup && m.Position.Group != ""
}

func (r *SingleGroupPosition) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	p := m.Position
	var summary *builder
	if p.AbsRelativeDifference < r.ParityBand {
		summary = newInsight(r.Name(), PRIORITY_POSITION, render.TemplateSummaryParity)
	} else {
		direction := "below"
		if p.Above {
			direction = "above"
		}
		summary = newInsight(r.Name(), PRIORITY_POSITION, render.TemplateSummaryPosition).
			num("relative_difference", narrative.KindPercent, p.AbsRelativeDifference, "position.abs_relative_difference").
			text("direction", direction, "position.above")
	}
	summary.
		text("group", p.Group, "position.group").
		text("metric", cfg.Label(), "config.title").
		rate("value", p.Value, cfg.Unit, "position.value").
		rate("reference", p.Reference, cfg.Unit, "position.reference")

	out := []narrative.Insight{summary.build()}
	if p.RankOf > 1 {
		out = append(out, newInsight(r.Name(), PRIORITY_POSITION, render.TemplateKeyFindingRank).
			labels(cfg, p.RankOf).
			text("group", p.Group, "position.group").
			num("rank", narrative.KindCount, float64(p.Rank), "position.rank").
			num("rank_of", narrative.KindCount, float64(p.RankOf), "position.rank_of").
			build())
	}
	return out
}
