package rules

import (
	"math"
	"strings"

	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/render"
)

// GapToTarget recommends closing the shortfall of below-target areas
type GapToTarget struct{}

func (r *GapToTarget) Name() string { return RuleGapToTarget }

func (r *GapToTarget) Description() string {
	return "Areas below the configured target and the provision needed to close the gap"
}

func (r *GapToTarget) Requirements() Requirements {
	return Requirements{
		MinSampleSize: 1,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindGap},
		Aux:           []AuxField{AuxTarget},
	}
}

func (r *GapToTarget) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return m.Gap.BelowCount > 0
}

// Emit offers the absolute-units sentence first; when the weight or
// provision labels are unknown it fails to render and the rate sentence is
// used instead. A gap that rounds to no whole unit only gets the rate sentence.
func (r *GapToTarget) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	g := m.Gap
	targetLabel := "minimum"
	if cfg.Target != nil && cfg.Target.Label != "" {
		targetLabel = cfg.Target.Label
	}

	var out []narrative.Insight
	if g.Weighted && math.Round(g.TotalGapUnits) >= 1 {
		out = append(out, newInsight(r.Name(), PRIORITY_GAP, render.TemplateRecommendationGap).
			num("below_count", narrative.KindCount, float64(g.BelowCount), "gap.below_count").
			num("evaluated", narrative.KindCount, float64(g.Evaluated), "gap.evaluated").
			text("target_label", targetLabel, "config.target.label").
			num("gap_units", narrative.KindCount, g.TotalGapUnits, "gap.total_gap_units").
			text("provision", provisionLabel(cfg.UnitCostKey, g.TotalGapUnits), "config.unit_cost_key").
			num("affected_weight", narrative.KindCount, g.AffectedWeight, "gap.affected_weight").
			text("weight_label", cfg.WeightLabel, "config.weight_label").
			build())
	}
	out = append(out, newInsight(r.Name(), PRIORITY_GAP_RATE, render.TemplateRecommendationGapRate).
		num("below_count", narrative.KindCount, float64(g.BelowCount), "gap.below_count").
		num("evaluated", narrative.KindCount, float64(g.Evaluated), "gap.evaluated").
		text("target_label", targetLabel, "config.target.label").
		num("mean_relative_gap", narrative.KindPercent, g.MeanRelativeGap, "gap.mean_relative_gap").
		build())
	return out
}

func provisionLabel(unitCostKey string, units float64) string {
	noun := humanize(unitCostKey)
	if noun == "" {
		return ""
	}
	if units >= 1.5 {
		return plural(noun, 2)
	}
	return noun
}

// InvestmentCase prices the gap and, when available, states its value for money
type InvestmentCase struct{}

func (r *InvestmentCase) Name() string { return RuleInvestmentCase }

func (r *InvestmentCase) Description() string {
	return "Nominal and present-value cost of closing the gap, with benefit-cost ratio"
}

func (r *InvestmentCase) Requirements() Requirements {
	return Requirements{
		MinSampleSize: 1,
		MinGroups:     1,
		Needs:         []metrics.Kind{metrics.KindGap, metrics.KindInvestment},
		Aux:           []AuxField{AuxTarget, AuxAreaType},
	}
}

func (r *InvestmentCase) Applies(vc narrative.ViewContext, m *metrics.Metrics) bool {
	return m.Investment.NominalCost > 0 && m.Investment.HorizonYears > 0
}

func (r *InvestmentCase) Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight {
	inv := m.Investment
	var out []narrative.Insight

	if m.BCR != nil && m.BCR.AppraisalYears > 0 {
		out = append(out, newInsight(r.Name(), PRIORITY_INVESTMENT_BCR, render.TemplateInvestmentBenefitToCost).
			num("nominal_cost", narrative.KindCurrency, inv.NominalCost, "investment.nominal_cost").
			num("present_value", narrative.KindCurrency, inv.PresentValue, "investment.present_value").
			num("horizon_years", narrative.KindCount, float64(inv.HorizonYears), "investment.horizon_years").
			num("bcr", narrative.KindRatio, m.BCR.Ratio, "bcr.ratio").
			num("appraisal_years", narrative.KindCount, float64(m.BCR.AppraisalYears), "bcr.appraisal_years").
			text("band", strings.ReplaceAll(string(m.BCR.Band), "_", " "), "bcr.band").
			build())
	}
	out = append(out, newInsight(r.Name(), PRIORITY_INVESTMENT, render.TemplateInvestmentEstimate).
		num("nominal_cost", narrative.KindCurrency, inv.NominalCost, "investment.nominal_cost").
		num("present_value", narrative.KindCurrency, inv.PresentValue, "investment.present_value").
		num("horizon_years", narrative.KindCount, float64(inv.HorizonYears), "investment.horizon_years").
		build())
	return out
}
