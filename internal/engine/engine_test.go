package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/rules"
	"gonarrative/internal/testkit"
)

// regionRates builds four equal-population areas per region. Region rates are
// North 1, East 2, South 3, West 4, Central 6 stops per 1,000.
func regionRates() narrative.Dataset {
	rates := []struct {
		region string
		stops  float64
	}{
		{"North", 1}, {"East", 2}, {"South", 3}, {"West", 4}, {"Central", 6},
	}
	var ds narrative.Dataset
	for _, r := range rates {
		for i := 0; i < 4; i++ {
			ds = append(ds, narrative.Record{
				"region":         narrative.NewText(r.region),
				"population":     narrative.NewNumber(1000),
				"bus_stops":      narrative.NewNumber(r.stops),
				"stops_per_1000": narrative.NewNumber(r.stops),
			})
		}
	}
	return ds
}

func regionConfig() narrative.MetricConfig {
	return narrative.MetricConfig{
		ID:               "bus_stops",
		Title:            "bus stop provision",
		GroupBy:          "region",
		GroupLabel:       "region",
		ValueField:       "stops_per_1000",
		NumeratorField:   "bus_stops",
		DenominatorField: "population",
		WeightLabel:      "residents",
		Scale:            1000,
		Unit:             "stops per 1,000 residents",
		Sources:          []string{"NaPTAN"},
		UnitCostKey:      "bus_stop",
		HigherIsBetter:   true,
	}
}

func withTarget(cfg narrative.MetricConfig, v float64) narrative.MetricConfig {
	cfg.Target = &narrative.Target{Value: &v}
	return cfg
}

func TestRun_AllGroups(t *testing.T) {
	res := New().Run(regionRates(), regionConfig(), nil)

	assert.Equal(t, narrative.ScopeAllGroups, res.Context.Scope)
	assert.Equal(t, 5, res.Context.NGroups)
	assert.Equal(t, []string{"NaPTAN"}, res.Sources)

	require.NotNil(t, res.Summary)
	assert.Equal(t, "Across 5 regions in view, bus stop provision averages 3.2 stops per 1,000 residents, with the median region at 3.0 stops per 1,000 residents.", *res.Summary)

	require.NotNil(t, res.KeyFinding)
	assert.Equal(t, "Bus stop provision ranges from 1.0 stops per 1,000 residents in North to 6.0 stops per 1,000 residents in Central, 6.0 times the lowest level.", *res.KeyFinding)

	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "Prioritise North, which has the lowest bus stop provision of the 5 regions in view.", *res.Recommendation)

	assert.Nil(t, res.Investment, "no target configured")
	assert.Contains(t, res.FiredRules(), rules.RuleExtremaComparison)
	assert.NotContains(t, res.FiredRules(), rules.RuleSingleGroupPosition)
}

func TestRun_GapAndInvestment(t *testing.T) {
	res := New().Run(regionRates(), withTarget(regionConfig(), 3), nil)

	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "8 of 20 areas fall below the minimum target; closing the gap needs about 12 more bus stops for 8,000 residents.", *res.Recommendation)

	require.NotNil(t, res.Investment)
	assert.True(t, strings.HasPrefix(*res.Investment, "Closing the gap would cost about £300k"), *res.Investment)

	require.NotNil(t, res.Evidence.Investment)
	assert.Equal(t, 300000.0, res.Evidence.Investment.NominalCost)
	assert.Equal(t, "default-2024", res.Evidence.Policy.Version)
}

func TestRun_SingleGroupSuppressesComparisons(t *testing.T) {
	full := regionRates()
	filters := narrative.FilterState{"region": "North"}
	view := full.Filter(filters.Matches)
	require.Equal(t, 4, view.Len())

	res := New().Run(view, regionConfig(), filters, WithReference(full))

	assert.Equal(t, narrative.ScopeSingleGroup, res.Context.Scope)
	assert.Equal(t, "North", res.Context.Group)

	require.NotNil(t, res.Summary)
	assert.True(t, strings.HasPrefix(*res.Summary, "In North, bus stop provision is 1.0 stops per 1,000 residents"), *res.Summary)
	assert.Contains(t, *res.Summary, "below the reference average of 3.2 stops per 1,000 residents")

	require.NotNil(t, res.KeyFinding)
	assert.Equal(t, "North ranks 5 of 5 regions on bus stop provision.", *res.KeyFinding)

	fired := res.FiredRules()
	for _, comparative := range []string{rules.RuleExtremaComparison, rules.RuleOutlierFlag, rules.RuleQuartileComparison} {
		assert.NotContains(t, fired, comparative)
	}
	for _, d := range res.Decisions {
		if d.Rule == rules.RuleExtremaComparison {
			assert.False(t, d.Passed)
			assert.Contains(t, d.FailureReason, "1 groups in view")
		}
	}
}

func TestRun_SingleGroupWithoutReferenceStaysLocal(t *testing.T) {
	full := regionRates()
	filters := narrative.FilterState{"region": "East"}
	res := New().Run(full.Filter(filters.Matches), regionConfig(), filters)

	require.NotNil(t, res.Summary)
	assert.Contains(t, *res.Summary, "in line with the reference average")
	assert.Nil(t, res.KeyFinding, "a one-group reference has nothing to rank against")
}

func TestRun_SufficiencyGate(t *testing.T) {
	cfg := regionConfig()
	cfg.MinSampleSize = 100

	res := New().Run(regionRates(), cfg, nil)
	assert.Empty(t, res.Fragments())
	assert.Empty(t, res.FiredRules())
	require.NotEmpty(t, res.Decisions)
	for _, d := range res.Decisions {
		assert.False(t, d.Passed, d.Rule)
		assert.Contains(t, d.FailureReason, "below minimum 100", d.Rule)
	}
}

func TestRun_MinGroupsGate(t *testing.T) {
	cfg := regionConfig()
	cfg.MinGroups = 6

	res := New().Run(regionRates(), cfg, nil)
	assert.Nil(t, res.Summary)
	assert.Nil(t, res.KeyFinding)
}

func TestRun_EmptyDataset(t *testing.T) {
	res := New().Run(nil, regionConfig(), narrative.FilterState{"region": "Nowhere"})

	assert.Equal(t, narrative.ScopeSubset, res.Context.Scope)
	assert.Equal(t, 0, res.Context.NGroups)
	assert.Empty(t, res.Fragments())
	require.NotNil(t, res.Evidence)
	assert.Equal(t, 0, res.Evidence.Coverage.Rows)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := regionConfig()
	cfg.ID = ""

	res := New().Run(regionRates(), cfg, nil)
	assert.Empty(t, res.Fragments())
	assert.Empty(t, res.Insights)
}

func TestRun_UnknownRulesRecorded(t *testing.T) {
	cfg := regionConfig()
	cfg.Rules = []string{"distribution", "nonsense", "distribution_summary"}

	res := New().Run(regionRates(), cfg, nil)
	assert.Equal(t, []string{rules.RuleDistributionSummary}, res.FiredRules())
	assert.Contains(t, res.Decisions, rules.Decision{Rule: "nonsense", FailureReason: "unknown rule"})
	require.NotNil(t, res.Summary)
	assert.Nil(t, res.KeyFinding)
}

func TestRun_PoorJoinOnlyGatesRulesThatReadIt(t *testing.T) {
	ds := regionRates()
	for i, r := range ds {
		if i%2 == 0 {
			r["imd_score"] = narrative.NewNumber(float64(10 + i))
		}
	}
	cfg := regionConfig()
	cfg.CorrelateWith = "imd_score"
	cfg.Rules = []string{rules.RuleDistributionSummary, rules.RuleExtremaComparison, rules.RuleCorrelation}

	res := New().Run(ds, cfg, nil)
	assert.Equal(t, []string{rules.RuleDistributionSummary, rules.RuleExtremaComparison}, res.FiredRules())
	require.NotNil(t, res.Summary)
	require.NotNil(t, res.KeyFinding)

	for _, d := range res.Decisions {
		if d.Rule == rules.RuleCorrelation {
			assert.False(t, d.Passed)
			assert.Contains(t, d.FailureReason, "imd_score match rate 0.50 below 0.80")
		}
	}
}

type panicRule struct{}

func (panicRule) Name() string {
	return "panicky"
}

func (panicRule) Requirements() rules.Requirements {
	return rules.Requirements{}
}

func (panicRule) Applies(narrative.ViewContext, *metrics.Metrics) bool {
	return true
}

func (panicRule) Emit(narrative.ViewContext, *metrics.Metrics, narrative.MetricConfig) []narrative.Insight {
	panic("boom")
}

func TestRun_FaultyRuleIsContained(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Register(panicRule{})

	res := New(WithRegistry(reg)).Run(regionRates(), regionConfig(), nil)
	require.NotNil(t, res.Summary)
	require.NotNil(t, res.KeyFinding)

	var found bool
	for _, d := range res.Decisions {
		if d.Rule == "panicky" {
			found = true
			assert.True(t, d.Passed)
			assert.False(t, d.Fired)
			assert.Contains(t, d.FailureReason, "boom")
		}
	}
	assert.True(t, found)
}

func TestRun_Idempotent(t *testing.T) {
	k := testkit.NewKit()
	e := New()
	for _, section := range k.Sections {
		a, err := json.Marshal(e.Run(k.Dataset, section, nil))
		require.NoError(t, err)
		b, err := json.Marshal(e.Run(k.Dataset, section, nil))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), section.ID)
	}
}

func TestRun_ConcurrentCallsAgree(t *testing.T) {
	k := testkit.NewKit()
	section, ok := k.Section("bus_stops")
	require.True(t, ok)
	e := New()

	want, err := json.Marshal(e.Run(k.Dataset, section, nil))
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([][]byte, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = json.Marshal(e.Run(k.Dataset, section, nil))
		}(i)
	}
	wg.Wait()
	for _, g := range got {
		assert.Equal(t, string(want), string(g))
	}
}

var numberToken = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// untracedNumbers lists every number in a rendered fragment that is not
// exactly one of the formatted values cited by the insight that won it
func untracedNumbers(t *testing.T, res Result) []string {
	t.Helper()
	renderer := New().renderer
	selected := renderer.Select(res.Insights)

	var untraced []string
	for fragment, text := range res.Fragments() {
		sel, ok := selected[fragment]
		if !ok {
			untraced = append(untraced, fmt.Sprintf("%s: no winning insight", fragment))
			continue
		}
		cited := make(map[string]bool)
		for _, ev := range sel.Insight.Evidence {
			formatted, ok := renderer.FormatEvidence(ev)
			if !ok {
				continue
			}
			for _, tok := range numberToken.FindAllString(formatted, -1) {
				cited[tok] = true
			}
		}
		for _, tok := range numberToken.FindAllString(text, -1) {
			if !cited[tok] {
				untraced = append(untraced, fmt.Sprintf("%s: %s", fragment, tok))
			}
		}
	}
	sort.Strings(untraced)
	return untraced
}

func assertNoFabrication(t *testing.T, res Result) {
	t.Helper()
	assert.Empty(t, untracedNumbers(t, res), "numbers not traceable to cited evidence")
}

func TestRun_NoFabricatedNumbers(t *testing.T) {
	k := testkit.NewKit()
	e := New()
	for _, section := range k.Sections {
		res := e.Run(k.Dataset, section, nil)
		require.NotNil(t, res.Summary, section.ID)
		assertNoFabrication(t, res)

		filters := narrative.FilterState{"region": "London"}
		single := e.Run(k.Dataset.Filter(filters.Matches), section, filters, WithReference(k.Dataset))
		assertNoFabrication(t, single)
	}

	assertNoFabrication(t, e.Run(regionRates(), withTarget(regionConfig(), 3), nil))
}

func TestRun_InventedNumbersAreDetected(t *testing.T) {
	k := testkit.NewKit()
	section, ok := k.Section("bus_stops")
	require.True(t, ok)

	res := New().Run(k.Dataset, section, nil)
	require.NotNil(t, res.Summary)
	require.Empty(t, untracedNumbers(t, res))

	invented := "Across 7 regions, 40% of areas need 3 more stops."
	res.Summary = &invented
	assert.Equal(t, []string{"summary: 3", "summary: 40", "summary: 7"}, untracedNumbers(t, res))
}

func TestRun_EvidenceTracesToMetrics(t *testing.T) {
	k := testkit.NewKit()
	section, ok := k.Section("bus_stops")
	require.True(t, ok)

	res := New().Run(k.Dataset, section, nil)
	require.NotEmpty(t, res.Insights)
	leaves := res.Evidence.Flatten()

	for _, ins := range res.Insights {
		for slot, ev := range ins.Evidence {
			require.NotEmpty(t, ev.Source, "%s.%s", ins.Rule, slot)
			if ev.Kind == narrative.KindText {
				continue
			}
			v, ok := leaves[ev.Source]
			if assert.True(t, ok, "%s.%s: %s not in metrics", ins.Rule, slot, ev.Source) {
				assert.Equal(t, v, ev.Number, "%s.%s", ins.Rule, slot)
			}
		}
	}
}
