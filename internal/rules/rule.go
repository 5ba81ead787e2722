package rules

import (
	"fmt"
	"sort"
	"strings"

	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
)

// Rule is the contract every narrative rule satisfies. Applies and Emit are
// only called after Check has passed for the rule's Requirements.
type Rule interface {
	Name() string
	Requirements() Requirements
	Applies(vc narrative.ViewContext, m *metrics.Metrics) bool
	Emit(vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) []narrative.Insight
}

// Requirements is the declarative sufficiency gate of a rule
type Requirements struct {
	MinSampleSize      int            `json:"min_sample_size"`
	MinGroups          int            `json:"min_groups"`
	MaxMissingFraction float64        `json:"max_missing_fraction"`
	MinMatchRate       float64        `json:"min_match_rate"`
	Needs              []metrics.Kind `json:"needs"`
	Aux                []AuxField     `json:"aux_fields,omitempty"` // joined fields the rule reads
}

// AuxField names a MetricConfig slot holding a joined field
type AuxField string

const (
	AuxCorrelate AuxField = "correlate_with"
	AuxSplit     AuxField = "split_field"
	AuxAreaType  AuxField = "area_type_field"
	AuxTarget    AuxField = "target_field"
)

// Field resolves the slot to the configured dataset field, "" when unset
func (a AuxField) Field(cfg narrative.MetricConfig) string {
	switch a {
	case AuxCorrelate:
		return cfg.CorrelateWith
	case AuxSplit:
		return cfg.SplitField
	case AuxAreaType:
		return cfg.AreaTypeField
	case AuxTarget:
		if cfg.Target != nil {
			return cfg.Target.Field
		}
	}
	return ""
}

// Decision records the outcome of gating and evaluating one rule
type Decision struct {
	Rule          string `json:"rule"`
	Passed        bool   `json:"passed"`
	Fired         bool   `json:"fired"`
	Insights      int    `json:"insights"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Check applies the hard sufficiency gate. The config's own floors raise the
// rule's where they are stricter. Only the resolved context's group count is
// consulted, never the reference population's.
func Check(req Requirements, vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) (bool, string) {
	if m == nil {
		return false, "metrics unavailable"
	}
	minSample := max(req.MinSampleSize, cfg.MinSampleSize)
	if m.Coverage.ValidRows < minSample {
		return false, fmt.Sprintf("sample size %d below minimum %d", m.Coverage.ValidRows, minSample)
	}
	minGroups := max(req.MinGroups, cfg.MinGroups)
	if vc.NGroups < minGroups {
		return false, fmt.Sprintf("%d groups in view, rule needs %d", vc.NGroups, minGroups)
	}

	maxMissing := req.MaxMissingFraction
	if maxMissing <= 0 {
		maxMissing = DEFAULT_MAX_MISSING_FRACTION
	}
	if m.Coverage.MissingFraction > maxMissing {
		return false, fmt.Sprintf("missing fraction %.2f exceeds %.2f", m.Coverage.MissingFraction, maxMissing)
	}

	// only the joins this rule reads can silence it
	minMatch := req.MinMatchRate
	if minMatch <= 0 {
		minMatch = DEFAULT_MIN_MATCH_RATE
	}
	for _, aux := range req.Aux {
		field := aux.Field(cfg)
		if field == "" {
			continue
		}
		if rate, ok := m.Coverage.AuxMatchRates[field]; ok && rate < minMatch {
			return false, fmt.Sprintf("auxiliary field %s match rate %.2f below %.2f", field, rate, minMatch)
		}
	}

	for _, k := range req.Needs {
		if !m.Has(k) {
			return false, fmt.Sprintf("metric %s unavailable", k)
		}
	}
	return true, ""
}

// RuleConfig describes a registered rule for listings
type RuleConfig struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Requirements Requirements `json:"requirements"`
}

// Rule names
const (
	RuleDistributionSummary = "distribution_summary"
	RuleSingleGroupPosition = "single_group_position"
	RuleExtremaComparison   = "extrema_comparison"
	RuleOutlierFlag         = "outlier_flag"
	RuleCorrelation         = "correlation"
	RuleQuartileComparison  = "quartile_comparison"
	RuleGapToTarget         = "gap_to_target"
	RuleInvestmentCase      = "investment_case"
	RulePowerLawEfficiency  = "power_law_efficiency"
)

// DefaultRuleNames lists every rule in registry order
var DefaultRuleNames = []string{
	RuleSingleGroupPosition,
	RuleDistributionSummary,
	RuleExtremaComparison,
	RuleOutlierFlag,
	RuleQuartileComparison,
	RuleCorrelation,
	RuleGapToTarget,
	RuleInvestmentCase,
	RulePowerLawEfficiency,
}

// GetRuleFactory returns a configured rule for a name or one of its aliases
func GetRuleFactory(name string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RuleDistributionSummary, "summary", "distribution":
		return &DistributionSummary{}, nil
	case RuleSingleGroupPosition, "position", "group_position":
		return &SingleGroupPosition{ParityBand: POSITION_PARITY_BAND}, nil
	case RuleExtremaComparison, "extrema", "best_worst":
		return &ExtremaComparison{MinRelativeSpread: EXTREMA_MIN_RELATIVE_SPREAD}, nil
	case RuleOutlierFlag, "outliers":
		return &OutlierFlag{MinGroups: OUTLIER_MIN_GROUPS}, nil
	case RuleCorrelation, "correlation_analysis":
		return &CorrelationRule{
			MinPairs: CORRELATION_MIN_PAIRS,
			Alpha:    CORRELATION_ALPHA,
			MinAbsR:  CORRELATION_MIN_ABS_R,
		}, nil
	case RuleQuartileComparison, "quartiles", "deprivation_gap":
		return &QuartileRule{MinRows: QUARTILE_MIN_ROWS, MinRelativeGap: QUARTILE_MIN_RELATIVE_GAP}, nil
	case RuleGapToTarget, "gap", "target_gap":
		return &GapToTarget{}, nil
	case RuleInvestmentCase, "investment", "bcr":
		return &InvestmentCase{}, nil
	case RulePowerLawEfficiency, "power_law", "scaling":
		return &PowerLawEfficiency{MinPoints: POWER_LAW_MIN_POINTS, MinRSquared: POWER_LAW_MIN_R_SQUARED}, nil
	default:
		return nil, fmt.Errorf("unknown rule: %s", name)
	}
}

// Registry is the explicit, enumerable set of rules available to the engine
type Registry struct {
	rules map[string]Rule
	order []string
}

// NewRegistry builds a registry holding every default rule
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[string]Rule, len(DefaultRuleNames))}
	for _, name := range DefaultRuleNames {
		rule, err := GetRuleFactory(name)
		if err != nil {
			panic(err)
		}
		r.Register(rule)
	}
	return r
}

// Register adds or replaces a rule under its own name
func (r *Registry) Register(rule Rule) {
	name := rule.Name()
	if _, exists := r.rules[name]; !exists {
		r.order = append(r.order, name)
	}
	r.rules[name] = rule
}

// Lookup returns the rule registered under name (aliases are not resolved here)
func (r *Registry) Lookup(name string) (Rule, bool) {
	rule, ok := r.rules[strings.ToLower(strings.TrimSpace(name))]
	return rule, ok
}

// Names returns rule names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Configs describes every registered rule, sorted by name
func (r *Registry) Configs() []RuleConfig {
	out := make([]RuleConfig, 0, len(r.order))
	for _, name := range r.order {
		rule := r.rules[name]
		out = append(out, RuleConfig{Name: name, Description: describe(rule), Requirements: rule.Requirements()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type describer interface {
	Description() string
}

func describe(rule Rule) string {
	if d, ok := rule.(describer); ok {
		return d.Description()
	}
	return ""
}
