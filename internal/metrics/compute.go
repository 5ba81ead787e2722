package metrics

import (
	"math"
	"sort"
	"strings"

	"gonarrative/domain/narrative"
	"gonarrative/internal/calc"
	"gonarrative/internal/policy"
)

// MinOutlierGroups is the smallest group count for which Tukey fences are meaningful
const MinOutlierGroups = 4

// Input is everything Compute reads. Nothing in it is mutated.
type Input struct {
	Dataset   narrative.Dataset // the current (filtered) view
	Reference narrative.Dataset // unfiltered population for positioning; Dataset when nil
	Config    narrative.MetricConfig
	Context   narrative.ViewContext
	Policy    policy.Policy
	Needs     []Kind // categories to compute; all when empty
	MinPairs  int    // correlation floor, calc.DefaultMinPairs when zero
}

// Compute builds the Metrics for one invocation. Categories whose input
// fields are absent or insufficient are left nil; it never fails.
func Compute(in Input) *Metrics {
	cfg := in.Config
	ds := in.Dataset
	ref := in.Reference
	if ref == nil {
		ref = ds
	}
	want := expandNeeds(in.Needs)

	m := &Metrics{
		MetricID: cfg.ID,
		Unit:     cfg.Unit,
		Coverage: coverage(ds, cfg),
		Policy: PolicyTrace{
			Version:                in.Policy.Version,
			InvestmentHorizonYears: in.Policy.Investment.HorizonYears,
			InvestmentDiscountRate: in.Policy.Investment.DiscountRate,
			AppraisalYears:         in.Policy.Appraisal.PeriodYears,
			AppraisalDiscountRate:  in.Policy.Appraisal.DiscountRate,
		},
	}
	if ds.Len() == 0 || !ds.HasField(cfg.ValueField) {
		return m
	}

	if agg, ok := aggregate(ds, cfg); ok {
		m.Aggregate = &agg
	}
	if agg, ok := aggregate(ref, cfg); ok {
		m.Reference = &agg
	}

	m.Groups = groupValues(ds, cfg)
	if len(m.Groups) > 0 {
		values := make([]float64, len(m.Groups))
		for i, g := range m.Groups {
			values[i] = g.Value
		}
		d := calc.DescribeDistribution(values)
		m.Distribution = &d
	}

	if want[KindExtrema] {
		m.Extrema = extrema(m)
	}
	if want[KindOutliers] {
		m.Outliers = outliers(m)
	}
	if want[KindPosition] && in.Context.Scope == narrative.ScopeSingleGroup {
		m.Position = position(m, ref, cfg)
	}
	if want[KindCorrelation] && cfg.CorrelateWith != "" && ds.HasField(cfg.CorrelateWith) {
		minPairs := in.MinPairs
		if minPairs <= 0 {
			minPairs = calc.DefaultMinPairs
		}
		c := calc.Correlate(ds, cfg.CorrelateWith, cfg.ValueField, minPairs)
		m.Correlation = &c
	}
	if want[KindQuartiles] && cfg.SplitField != "" && ds.HasField(cfg.SplitField) {
		if q, ok := calc.CompareQuartiles(ds, cfg.SplitField, weightField(cfg), cfg.ValueField); ok {
			m.Quartiles = &q
		}
	}
	if want[KindGap] && cfg.Target != nil {
		g := calc.GapToTarget(ds, cfg.ValueField, weightField(cfg), cfg.Target.Resolve, cfg.EffectiveScale())
		if g.Evaluated > 0 {
			m.Gap = &g
		}
	}
	if want[KindInvestment] && m.Gap != nil && cfg.UnitCostKey != "" {
		if cost, ok := in.Policy.UnitCost(cfg.UnitCostKey); ok {
			inv, ok := calc.InvestmentRequirement(m.Gap.TotalGapUnits, cost, in.Policy.Investment.HorizonYears, in.Policy.Investment.DiscountRate)
			if ok {
				m.Investment = &inv
			}
		}
	}
	if want[KindBCR] && m.Investment != nil && m.Gap.Weighted {
		areaType := dominantAreaType(ds, cfg.AreaTypeField, m.Gap)
		b, ok := calc.BenefitCostRatio(m.Investment.PresentValue, m.Gap.AffectedWeight, m.Gap.MeanRelativeGap,
			in.Policy.BenefitFor(areaType), in.Policy.Appraisal)
		if ok {
			m.BCR = &b
		}
	}
	if want[KindPowerLaw] {
		if x, y := sizeAndVolume(ds, cfg); len(x) > 0 {
			if pl, ok := calc.FitPowerLaw(x, y); ok {
				m.PowerLaw = &pl
			}
		}
	}
	return m
}

// expandNeeds adds the categories each requested category is derived from
func expandNeeds(needs []Kind) map[Kind]bool {
	want := make(map[Kind]bool)
	if len(needs) == 0 {
		for _, k := range []Kind{KindExtrema, KindOutliers, KindPosition, KindCorrelation,
			KindQuartiles, KindGap, KindInvestment, KindBCR, KindPowerLaw} {
			want[k] = true
		}
		return want
	}
	for _, k := range needs {
		want[k] = true
	}
	if want[KindBCR] {
		want[KindInvestment] = true
	}
	if want[KindInvestment] {
		want[KindGap] = true
	}
	return want
}

func weightField(cfg narrative.MetricConfig) string {
	if cfg.HasRawTotals() {
		return cfg.DenominatorField
	}
	return cfg.WeightField
}

func coverage(ds narrative.Dataset, cfg narrative.MetricConfig) Coverage {
	c := Coverage{Rows: ds.Len(), MatchRate: 1}
	if c.Rows == 0 {
		return c
	}
	for _, r := range ds {
		if v, ok := r.Float(cfg.ValueField); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			c.ValidRows++
		}
	}
	c.MissingFraction = 1 - float64(c.ValidRows)/float64(c.Rows)

	for _, field := range cfg.AuxiliaryFields() {
		matched := 0
		for _, r := range ds {
			if !r.Get(field).IsMissing() {
				matched++
			}
		}
		rate := float64(matched) / float64(c.Rows)
		if c.AuxMatchRates == nil {
			c.AuxMatchRates = make(map[string]float64)
		}
		c.AuxMatchRates[field] = rate
		if rate < c.MatchRate {
			c.MatchRate = rate
		}
	}
	return c
}

// aggregate rebuilds the cross-row value from raw totals, or from rates and
// weights. Without either there is no defensible aggregate and ok is false.
func aggregate(ds narrative.Dataset, cfg narrative.MetricConfig) (calc.WeightedAverage, bool) {
	if cfg.HasRawTotals() {
		var num, den []float64
		for _, r := range ds {
			n, ok1 := r.Float(cfg.NumeratorField)
			d, ok2 := r.Float(cfg.DenominatorField)
			if ok1 && ok2 {
				num = append(num, n)
				den = append(den, d)
			}
		}
		return calc.PopulationWeightedAverage(num, den, cfg.EffectiveScale())
	}
	if cfg.WeightField != "" {
		var rates, weights []float64
		for _, r := range ds {
			v, ok1 := r.Float(cfg.ValueField)
			w, ok2 := r.Float(cfg.WeightField)
			if ok1 && ok2 {
				rates = append(rates, v)
				weights = append(weights, w)
			}
		}
		return calc.WeightedRate(rates, weights)
	}
	return calc.WeightedAverage{}, false
}

// groupValues aggregates rows per group, sorted by group name. Multi-row
// groups without raw totals or weights fall back to their row mean and are
// marked unweighted.
func groupValues(ds narrative.Dataset, cfg narrative.MetricConfig) []GroupValue {
	if cfg.GroupBy == "" {
		return nil
	}
	byGroup := make(map[string]narrative.Dataset)
	for _, r := range ds {
		g, ok := r.Text(cfg.GroupBy)
		if !ok {
			continue
		}
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		byGroup[g] = append(byGroup[g], r)
	}

	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)

	out := make([]GroupValue, 0, len(names))
	for _, g := range names {
		rows := byGroup[g]
		if agg, ok := aggregate(rows, cfg); ok {
			out = append(out, GroupValue{Group: g, Value: agg.Value, Weight: agg.Denominator, Rows: agg.N, Weighted: true})
			continue
		}
		values := finiteValues(rows.Numbers(cfg.ValueField))
		if len(values) == 0 {
			continue
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		out = append(out, GroupValue{Group: g, Value: sum / float64(len(values)), Rows: len(values)})
	}
	return out
}

func finiteValues(in []float64) []float64 {
	out := in[:0:0]
	for _, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func extrema(m *Metrics) *Extrema {
	if len(m.Groups) < 2 {
		return nil
	}
	hi, lo := m.Groups[0], m.Groups[0]
	for _, g := range m.Groups[1:] {
		if g.Value > hi.Value {
			hi = g
		}
		if g.Value < lo.Value {
			lo = g
		}
	}
	e := &Extrema{
		MaxGroup: hi.Group,
		MaxValue: hi.Value,
		MinGroup: lo.Group,
		MinValue: lo.Value,
		Spread:   hi.Value - lo.Value,
		NGroups:  len(m.Groups),
	}
	if lo.Value > 0 {
		e.Ratio = hi.Value / lo.Value
		e.HasRatio = true
	}
	base := 0.0
	if m.Aggregate != nil {
		base = m.Aggregate.Value
	} else if m.Distribution != nil {
		base = m.Distribution.Mean
	}
	if base != 0 {
		e.RelativeSpread = e.Spread / math.Abs(base)
	}
	return e
}

func outliers(m *Metrics) *Outliers {
	if m.Distribution == nil || m.Distribution.Count < MinOutlierGroups {
		return nil
	}
	d := m.Distribution
	o := &Outliers{LowerFence: d.LowerFence, UpperFence: d.UpperFence, Entries: []GroupValue{}}
	var best float64
	for _, g := range m.Groups {
		if !d.IsOutlier(g.Value) {
			continue
		}
		o.Entries = append(o.Entries, g)
		if dist := math.Abs(g.Value - d.Median); o.Highest == nil || dist > best {
			g := g
			o.Highest = &g
			best = dist
		}
	}
	o.Count = len(o.Entries)
	return o
}

// position compares the single selected group with the reference population
// and ranks it among the reference groups (1 = highest value).
func position(m *Metrics, ref narrative.Dataset, cfg narrative.MetricConfig) *Position {
	if len(m.Groups) != 1 || m.Reference == nil {
		return nil
	}
	g := m.Groups[0]
	p := &Position{
		Group:      g.Group,
		Value:      g.Value,
		Reference:  m.Reference.Value,
		Difference: g.Value - m.Reference.Value,
	}
	p.Above = p.Difference > 0
	if m.Reference.Value != 0 {
		p.RelativeDifference = p.Difference / math.Abs(m.Reference.Value)
		p.AbsRelativeDifference = math.Abs(p.RelativeDifference)
	}

	refGroups := groupValues(ref, cfg)
	p.RankOf = len(refGroups)
	p.Rank = 1
	for _, rg := range refGroups {
		if rg.Group != g.Group && rg.Value > g.Value {
			p.Rank++
		}
	}
	return p
}

// dominantAreaType picks the area type carrying the most below-target weight
func dominantAreaType(ds narrative.Dataset, field string, gap *calc.GapAnalysis) string {
	if field == "" {
		return ""
	}
	weights := make(map[string]float64)
	for _, rg := range gap.Rows {
		if !rg.Below || rg.Index >= ds.Len() {
			continue
		}
		if at, ok := ds.Row(rg.Index).Text(field); ok {
			weights[strings.ToLower(strings.TrimSpace(at))] += rg.Weight
		}
	}
	best, bestW := "", -1.0
	for at, w := range weights {
		if w > bestW || (w == bestW && at < best) {
			best, bestW = at, w
		}
	}
	return best
}

// sizeAndVolume returns per-row (size, absolute volume) pairs for the
// scaling fit: denominator vs numerator, or weight vs value·weight/scale.
func sizeAndVolume(ds narrative.Dataset, cfg narrative.MetricConfig) ([]float64, []float64) {
	var x, y []float64
	switch {
	case cfg.HasRawTotals():
		for _, r := range ds {
			d, ok1 := r.Float(cfg.DenominatorField)
			n, ok2 := r.Float(cfg.NumeratorField)
			if ok1 && ok2 {
				x = append(x, d)
				y = append(y, n)
			}
		}
	case cfg.WeightField != "":
		scale := cfg.EffectiveScale()
		for _, r := range ds {
			w, ok1 := r.Float(cfg.WeightField)
			v, ok2 := r.Float(cfg.ValueField)
			if ok1 && ok2 {
				x = append(x, w)
				y = append(y, v*w/scale)
			}
		}
	}
	return x, y
}
