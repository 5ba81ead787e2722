package metrics

import (
	"encoding/json"
	"sort"
	"strconv"

	"gonarrative/internal/calc"
)

// Kind names one optional metric category
type Kind string

const (
	KindAggregate    Kind = "aggregate"
	KindReference    Kind = "reference"
	KindDistribution Kind = "distribution"
	KindGroups       Kind = "groups"
	KindExtrema      Kind = "extrema"
	KindPosition     Kind = "position"
	KindOutliers     Kind = "outliers"
	KindCorrelation  Kind = "correlation"
	KindQuartiles    Kind = "quartiles"
	KindGap          Kind = "gap"
	KindInvestment   Kind = "investment"
	KindBCR          Kind = "bcr"
	KindPowerLaw     Kind = "power_law"
)

// Coverage describes how much usable data backed the computation. Always present.
type Coverage struct {
	Rows            int                `json:"rows"`
	ValidRows       int                `json:"valid_rows"`
	MissingFraction float64            `json:"missing_fraction"`
	MatchRate       float64            `json:"match_rate"` // lowest auxiliary-field match rate, 1 when none
	AuxMatchRates   map[string]float64 `json:"aux_match_rates,omitempty"`
}

// GroupValue is the aggregate for one group, rebuilt from raw totals where possible
type GroupValue struct {
	Group    string  `json:"group"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Rows     int     `json:"rows"`
	Weighted bool    `json:"weighted"`
}

// Extrema contrasts the best- and worst-valued groups
type Extrema struct {
	MaxGroup       string  `json:"max_group"`
	MaxValue       float64 `json:"max_value"`
	MinGroup       string  `json:"min_group"`
	MinValue       float64 `json:"min_value"`
	Spread         float64 `json:"spread"`          // MaxValue - MinValue
	Ratio          float64 `json:"ratio,omitempty"` // MaxValue / MinValue when MinValue > 0
	HasRatio       bool    `json:"has_ratio"`
	RelativeSpread float64 `json:"relative_spread"` // Spread relative to the view aggregate
	NGroups        int     `json:"n_groups"`
}

// Position places the selected group against the reference population
type Position struct {
	Group                 string  `json:"group"`
	Value                 float64 `json:"value"`
	Reference             float64 `json:"reference"`
	Difference            float64 `json:"difference"`
	RelativeDifference    float64 `json:"relative_difference"`
	AbsRelativeDifference float64 `json:"abs_relative_difference"`
	Above                 bool    `json:"above"`
	Rank                  int     `json:"rank"`    // 1 = highest value among reference groups
	RankOf                int     `json:"rank_of"` // number of reference groups
}

// Outliers lists groups outside the Tukey fences of the group distribution
type Outliers struct {
	LowerFence float64      `json:"lower_fence"`
	UpperFence float64      `json:"upper_fence"`
	Count      int          `json:"count"`
	Entries    []GroupValue `json:"entries"`
	Highest    *GroupValue  `json:"highest,omitempty"` // most extreme entry by distance from the median
}

// PolicyTrace records which policy values were used so rendered years and
// rates trace back to evidence
type PolicyTrace struct {
	Version                string  `json:"version"`
	InvestmentHorizonYears int     `json:"investment_horizon_years"`
	InvestmentDiscountRate float64 `json:"investment_discount_rate"`
	AppraisalYears         int     `json:"appraisal_years"`
	AppraisalDiscountRate  float64 `json:"appraisal_discount_rate"`
}

// Metrics is the single source of truth for every number a narrative may cite.
// Optional categories are nil when their inputs were absent or insufficient.
type Metrics struct {
	MetricID     string                   `json:"metric_id"`
	Unit         string                   `json:"unit"`
	Coverage     Coverage                 `json:"coverage"`
	Aggregate    *calc.WeightedAverage    `json:"aggregate,omitempty"` // current view
	Reference    *calc.WeightedAverage    `json:"reference,omitempty"` // reference population
	Distribution *calc.Distribution       `json:"distribution,omitempty"`
	Groups       []GroupValue             `json:"groups,omitempty"`
	Extrema      *Extrema                 `json:"extrema,omitempty"`
	Position     *Position                `json:"position,omitempty"`
	Outliers     *Outliers                `json:"outliers,omitempty"`
	Correlation  *calc.Correlation        `json:"correlation,omitempty"`
	Quartiles    *calc.QuartileComparison `json:"quartiles,omitempty"`
	Gap          *calc.GapAnalysis        `json:"gap,omitempty"`
	Investment   *calc.Investment         `json:"investment,omitempty"`
	BCR          *calc.BCR                `json:"bcr,omitempty"`
	PowerLaw     *calc.PowerLaw           `json:"power_law,omitempty"`
	Policy       PolicyTrace              `json:"policy"`
}

// Has reports whether a metric category is present
func (m *Metrics) Has(k Kind) bool {
	if m == nil {
		return false
	}
	switch k {
	case KindAggregate:
		return m.Aggregate != nil
	case KindReference:
		return m.Reference != nil
	case KindDistribution:
		return m.Distribution != nil && m.Distribution.Count > 0
	case KindGroups:
		return len(m.Groups) > 0
	case KindExtrema:
		return m.Extrema != nil
	case KindPosition:
		return m.Position != nil
	case KindOutliers:
		return m.Outliers != nil
	case KindCorrelation:
		return m.Correlation != nil && m.Correlation.Sufficient
	case KindQuartiles:
		return m.Quartiles != nil
	case KindGap:
		return m.Gap != nil && m.Gap.Evaluated > 0
	case KindInvestment:
		return m.Investment != nil
	case KindBCR:
		return m.BCR != nil
	case KindPowerLaw:
		return m.PowerLaw != nil
	}
	return false
}

// Leaves flattens the metrics into dotted JSON paths (e.g. "gap.total_gap_units")
// mapped to their scalar values. Evidence sources refer to these paths.
func (m *Metrics) Leaves() map[string]interface{} {
	out := make(map[string]interface{})
	if m == nil {
		return out
	}
	data, err := json.Marshal(m)
	if err != nil {
		return out
	}
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return out
	}
	walk("", tree, out)
	return out
}

// Flatten returns only the numeric leaves
func (m *Metrics) Flatten() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range m.Leaves() {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

// Paths returns every leaf path in sorted order
func (m *Metrics) Paths() []string {
	leaves := m.Leaves()
	out := make([]string, 0, len(leaves))
	for k := range leaves {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func walk(prefix string, node interface{}, out map[string]interface{}) {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			walk(join(prefix, k), v, out)
		}
	case []interface{}:
		for i, v := range n {
			walk(join(prefix, strconv.Itoa(i)), v, out)
		}
	default:
		out[prefix] = n
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
