package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonarrative/domain/narrative"
	"gonarrative/internal/calc"
	"gonarrative/internal/metrics"
	"gonarrative/internal/render"
)

func testConfig() narrative.MetricConfig {
	return narrative.MetricConfig{
		ID:             "bus_stops",
		Title:          "bus stops per head",
		GroupBy:        "region",
		GroupLabel:     "region",
		ValueField:     "rate",
		Unit:           "stops",
		CorrelateWith:  "imd_score",
		CorrelateLabel: "deprivation",
		SplitField:     "imd_score",
		SplitLabel:     "deprivation score",
		UnitCostKey:    "bus_stop",
		WeightLabel:    "residents",
		HigherIsBetter: true,
	}
}

func comparative(n int) narrative.ViewContext {
	return narrative.ViewContext{Scope: narrative.ScopeAllGroups, NGroups: n, GroupBy: "region"}
}

func fullMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		Coverage:     metrics.Coverage{Rows: 40, ValidRows: 40, MatchRate: 1},
		Aggregate:    &calc.WeightedAverage{Value: 2.4, Numerator: 240, Denominator: 100, Scale: 1, N: 40},
		Distribution: &calc.Distribution{Count: 5, Mean: 2.5, Median: 2.2, Min: 1.1, Max: 9.8, Q1: 1.8, Q3: 2.9, LowerFence: 0.15, UpperFence: 4.55, OutlierCount: 1},
		Extrema:      &metrics.Extrema{MaxGroup: "London", MaxValue: 9.8, MinGroup: "East", MinValue: 1.1, Spread: 8.7, Ratio: 8.9, HasRatio: true, RelativeSpread: 3.6, NGroups: 5},
		Outliers: &metrics.Outliers{
			LowerFence: 0.15, UpperFence: 4.55, Count: 1,
			Entries: []metrics.GroupValue{{Group: "London", Value: 9.8}},
			Highest: &metrics.GroupValue{Group: "London", Value: 9.8},
		},
		Correlation: &calc.Correlation{R: -0.62, AbsR: 0.62, PValue: 0.001, N: 40, Sufficient: true},
		Quartiles:   &calc.QuartileComparison{TopValue: 1.5, BottomValue: 3.0, RelativeGap: -0.5, AbsRelativeGap: 0.5, N: 40, RowsPerGroup: 10},
		Gap:         &calc.GapAnalysis{Evaluated: 40, BelowCount: 12, ShareBelow: 0.3, TotalGapUnits: 48, AffectedWeight: 96000, MeanRelativeGap: 0.35, Weighted: true},
		Investment:  &calc.Investment{GapUnits: 48, UnitCost: 25000, NominalCost: 1.2e6, AnnualCost: 1.2e5, PresentValue: 998000, HorizonYears: 10, DiscountRate: 0.035},
		BCR:         &calc.BCR{Ratio: 2.4, Band: calc.BCRHigh, AppraisalYears: 30, DiscountRate: 0.035},
		PowerLaw:    &calc.PowerLaw{Exponent: 0.82, RSquared: 0.91, N: 40, Scaling: calc.ScalingSublinear},
	}
}

func mustRule(t *testing.T, name string) Rule {
	t.Helper()
	r, err := GetRuleFactory(name)
	require.NoError(t, err)
	return r
}

func TestGetRuleFactory(t *testing.T) {
	tests := []struct {
		name        string
		ruleName    string
		expectError bool
		wantName    string
	}{
		{"canonical", "extrema_comparison", false, RuleExtremaComparison},
		{"alias", "best_worst", false, RuleExtremaComparison},
		{"case and space", "  Gap_To_Target ", false, RuleGapToTarget},
		{"bcr alias", "bcr", false, RuleInvestmentCase},
		{"unknown", "astrology", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := GetRuleFactory(tt.ruleName)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, r.Name())
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, DefaultRuleNames, reg.Names())

	r, ok := reg.Lookup(" Outlier_Flag")
	require.True(t, ok)
	assert.Equal(t, RuleOutlierFlag, r.Name())

	_, ok = reg.Lookup("outliers")
	assert.False(t, ok, "registry lookups use canonical names only")

	configs := reg.Configs()
	require.Len(t, configs, len(DefaultRuleNames))
	assert.Equal(t, RuleCorrelation, configs[0].Name)
	for _, c := range configs {
		assert.NotEmpty(t, c.Description, c.Name)
	}
}

// stubRule fires unconditionally once past the gate
type stubRule struct {
	req Requirements
}

func (s stubRule) Name() string { return "stub" }

func (s stubRule) Requirements() Requirements { return s.req }

func (s stubRule) Applies(narrative.ViewContext, *metrics.Metrics) bool { return true }

func (s stubRule) Emit(narrative.ViewContext, *metrics.Metrics, narrative.MetricConfig) []narrative.Insight {
	return []narrative.Insight{{Rule: "stub"}}
}

func TestCheck_MinGroupsGate(t *testing.T) {
	rule := stubRule{req: Requirements{MinGroups: 3}}
	m := fullMetrics()
	m.Extrema.Spread = 1e9 // extreme values do not bypass the gate

	ok, reason := Check(rule.Requirements(), comparative(2), m, testConfig())
	assert.False(t, ok)
	assert.Contains(t, reason, "2 groups")

	ok, _ = Check(rule.Requirements(), comparative(3), m, testConfig())
	assert.True(t, ok)
}

func halfJoined(field string) func(*metrics.Metrics, *narrative.MetricConfig) {
	return func(m *metrics.Metrics, _ *narrative.MetricConfig) {
		m.Coverage.AuxMatchRates = map[string]float64{field: 0.5}
		m.Coverage.MatchRate = 0.5
	}
}

func TestCheck(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name   string
		req    Requirements
		vc     narrative.ViewContext
		mutate func(*metrics.Metrics, *narrative.MetricConfig)
		wantOK bool
	}{
		{"passes", Requirements{MinSampleSize: 10, MinGroups: 2}, comparative(5), nil, true},
		{"sample size", Requirements{MinSampleSize: 50}, comparative(5), nil, false},
		{"config floor raises groups", Requirements{MinGroups: 2}, comparative(5), func(_ *metrics.Metrics, c *narrative.MetricConfig) { c.MinGroups = 6 }, false},
		{"config floor raises sample", Requirements{}, comparative(5), func(_ *metrics.Metrics, c *narrative.MetricConfig) { c.MinSampleSize = 41 }, false},
		{"missing data", Requirements{}, comparative(5), func(m *metrics.Metrics, _ *narrative.MetricConfig) { m.Coverage.MissingFraction = 0.6 }, false},
		{"rule tolerates missing", Requirements{MaxMissingFraction: 0.7}, comparative(5), func(m *metrics.Metrics, _ *narrative.MetricConfig) { m.Coverage.MissingFraction = 0.6 }, true},
		{"low match rate on a field the rule reads", Requirements{Aux: []AuxField{AuxCorrelate}}, comparative(5), halfJoined("imd_score"), false},
		{"low match rate on a field the rule ignores", Requirements{}, comparative(5), halfJoined("imd_score"), true},
		{"unset aux slot is skipped", Requirements{Aux: []AuxField{AuxAreaType}}, comparative(5), halfJoined("imd_score"), true},
		{"target field gates gap rules", Requirements{Aux: []AuxField{AuxTarget}}, comparative(5), func(m *metrics.Metrics, c *narrative.MetricConfig) {
			c.Target = &narrative.Target{Field: "area_type"}
			halfJoined("area_type")(m, c)
		}, false},
		{"needs absent metric", Requirements{Needs: []metrics.Kind{metrics.KindGap}}, comparative(5), func(m *metrics.Metrics, _ *narrative.MetricConfig) { m.Gap = nil }, false},
		{"empty view", Requirements{MinGroups: 1}, narrative.ViewContext{Scope: narrative.ScopeSubset}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fullMetrics()
			c := cfg
			if tt.mutate != nil {
				tt.mutate(m, &c)
			}
			ok, reason := Check(tt.req, tt.vc, m, c)
			assert.Equal(t, tt.wantOK, ok, reason)
			if !ok {
				assert.NotEmpty(t, reason)
			}
		})
	}

	ok, _ := Check(Requirements{}, comparative(5), nil, cfg)
	assert.False(t, ok)
}

func TestComparisonRulesSuppressedInSingleGroupScope(t *testing.T) {
	single := narrative.ViewContext{Scope: narrative.ScopeSingleGroup, NGroups: 1, Group: "East"}
	m := fullMetrics()
	for _, name := range []string{RuleExtremaComparison, RuleOutlierFlag, RuleQuartileComparison} {
		r := mustRule(t, name)
		ok, _ := Check(r.Requirements(), single, m, testConfig())
		assert.False(t, ok, name)
		assert.False(t, r.Applies(single, m), name)
	}
}

func TestEveryRuleEmitsRenderableInsights(t *testing.T) {
	renderer, err := render.NewRenderer("£")
	require.NoError(t, err)
	m := fullMetrics()
	m.Position = &metrics.Position{Group: "East", Value: 1.1, Reference: 2.4, Difference: -1.3, RelativeDifference: -0.54, AbsRelativeDifference: 0.54, Rank: 5, RankOf: 5}

	for _, name := range DefaultRuleNames {
		t.Run(name, func(t *testing.T) {
			r := mustRule(t, name)
			vc := comparative(5)
			if name == RuleSingleGroupPosition {
				vc = narrative.ViewContext{Scope: narrative.ScopeSingleGroup, NGroups: 1, Group: "East"}
			}
			ok, reason := Check(r.Requirements(), vc, m, testConfig())
			require.True(t, ok, reason)
			require.True(t, r.Applies(vc, m))

			insights := r.Emit(vc, m, testConfig())
			require.NotEmpty(t, insights)
			for _, ins := range insights {
				assert.Equal(t, name, ins.Rule)
				_, text, err := renderer.RenderInsight(ins)
				require.NoError(t, err, ins.TemplateKey)
				assert.NotEmpty(t, text)
				for slot, ev := range ins.Evidence {
					assert.NotEmpty(t, ev.Source, "%s.%s", ins.TemplateKey, slot)
				}
			}
		})
	}
}

func TestExtremaComparison(t *testing.T) {
	r := mustRule(t, RuleExtremaComparison)
	m := fullMetrics()
	m.Extrema.RelativeSpread = 0.05
	assert.False(t, r.Applies(comparative(5), m), "narrow spreads are not narrated")

	m = fullMetrics()
	m.Extrema.HasRatio = false
	insights := r.Emit(comparative(5), m, testConfig())
	require.Len(t, insights, 2)
	assert.Equal(t, render.TemplateKeyFindingSpread, insights[0].TemplateKey)
	assert.Equal(t, "East", insights[1].Evidence["focus_group"].Text, "higher is better focuses on the lowest group")

	cfg := testConfig()
	cfg.HigherIsBetter = false
	insights = r.Emit(comparative(5), fullMetrics(), cfg)
	assert.Equal(t, "London", insights[1].Evidence["focus_group"].Text)
}

func TestCorrelationRule(t *testing.T) {
	r := mustRule(t, RuleCorrelation)
	m := fullMetrics()
	assert.True(t, r.Applies(comparative(5), m))

	ins := r.Emit(comparative(5), m, testConfig())[0]
	assert.Equal(t, "strong", ins.Evidence["strength"].Text)
	assert.Equal(t, "negative", ins.Evidence["direction"].Text)
	_, hasP := ins.Evidence["p_value"]
	assert.False(t, hasP)

	m.Correlation.PValue = 0.2
	assert.False(t, r.Applies(comparative(5), m))
	m = fullMetrics()
	m.Correlation.AbsR = 0.1
	assert.False(t, r.Applies(comparative(5), m))
}

func TestQuartileRule_RecommendsOnlyWhenHighSplitDisadvantaged(t *testing.T) {
	r := mustRule(t, RuleQuartileComparison)
	assert.Len(t, r.Emit(comparative(5), fullMetrics(), testConfig()), 2)

	m := fullMetrics()
	m.Quartiles.TopValue, m.Quartiles.BottomValue = 3.0, 1.5
	insights := r.Emit(comparative(5), m, testConfig())
	require.Len(t, insights, 1)
	assert.Equal(t, render.TemplateKeyFindingQuartile, insights[0].TemplateKey)
}

func TestGapToTarget_FallsBackWithoutLabels(t *testing.T) {
	renderer, err := render.NewRenderer("£")
	require.NoError(t, err)
	r := mustRule(t, RuleGapToTarget)

	cfg := testConfig()
	cfg.WeightLabel = ""
	insights := r.Emit(comparative(5), fullMetrics(), cfg)
	require.Len(t, insights, 2)

	sel := renderer.Select(insights)
	assert.Equal(t, render.TemplateRecommendationGapRate, sel[narrative.FragmentRecommendation].Insight.TemplateKey)

	insights = r.Emit(comparative(5), fullMetrics(), testConfig())
	sel = renderer.Select(insights)
	assert.Equal(t, render.TemplateRecommendationGap, sel[narrative.FragmentRecommendation].Insight.TemplateKey)
	assert.Contains(t, sel[narrative.FragmentRecommendation].Text, "48 more bus stops for 96,000 residents")
}

func TestGapToTarget_SubUnitGapUsesRate(t *testing.T) {
	renderer, err := render.NewRenderer("£")
	require.NoError(t, err)
	r := mustRule(t, RuleGapToTarget)

	m := fullMetrics()
	m.Gap.TotalGapUnits = 0.3
	insights := r.Emit(comparative(5), m, testConfig())
	require.Len(t, insights, 1)

	sel := renderer.Select(insights)
	rec := sel[narrative.FragmentRecommendation]
	assert.Equal(t, render.TemplateRecommendationGapRate, rec.Insight.TemplateKey)
	assert.NotContains(t, rec.Text, "0 more")

	m.Gap.TotalGapUnits = 0.6
	assert.Len(t, r.Emit(comparative(5), m, testConfig()), 2, "rounds up to one stop")
}

func TestInvestmentCase_PrefersBCR(t *testing.T) {
	renderer, err := render.NewRenderer("£")
	require.NoError(t, err)
	r := mustRule(t, RuleInvestmentCase)

	sel := renderer.Select(r.Emit(comparative(5), fullMetrics(), testConfig()))
	text := sel[narrative.FragmentInvestment].Text
	assert.Contains(t, text, "benefit-cost ratio of 2.40 over 30 years: high value for money")

	m := fullMetrics()
	m.BCR = nil
	sel = renderer.Select(r.Emit(comparative(5), m, testConfig()))
	assert.Equal(t, render.TemplateInvestmentEstimate, sel[narrative.FragmentInvestment].Insight.TemplateKey)
}

func TestSingleGroupPosition(t *testing.T) {
	r := mustRule(t, RuleSingleGroupPosition)
	vc := narrative.ViewContext{Scope: narrative.ScopeSingleGroup, NGroups: 1, Group: "East"}
	m := fullMetrics()
	m.Position = &metrics.Position{Group: "East", Value: 2.41, Reference: 2.4, AbsRelativeDifference: 0.004, Rank: 2, RankOf: 1}

	insights := r.Emit(vc, m, testConfig())
	require.Len(t, insights, 1, "no rank sentence against a single reference group")
	assert.Equal(t, render.TemplateSummaryParity, insights[0].TemplateKey)

	assert.False(t, r.Applies(comparative(5), m))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "region", plural("region", 1))
	assert.Equal(t, "regions", plural("region", 3))
	assert.Equal(t, "authorities", plural("authority", 2))
	assert.Equal(t, "LSOAs", plural("LSOA", 2))
	assert.Equal(t, "bus stops", plural("bus stop", 2))
	assert.Equal(t, "", plural("", 2))
}
