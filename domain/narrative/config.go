package narrative

import (
	"fmt"
	"strings"
)

// MetricConfig describes one analysis section. It is authored by the calling
// application and never mutated by the engine.
type MetricConfig struct {
	ID         string `json:"id" mapstructure:"id"`
	Title      string `json:"title" mapstructure:"title"`             // e.g. "bus stops per 1,000 residents"
	GroupBy    string `json:"group_by" mapstructure:"group_by"`       // grouping field (e.g. region, lsoa)
	GroupLabel string `json:"group_label" mapstructure:"group_label"` // singular noun for a group, e.g. "region"
	ValueField string `json:"value_field" mapstructure:"value_field"` // per-row rate or measure

	// Raw totals behind ValueField; when both are set every cross-group
	// aggregate is Σnumerator/Σdenominator·Scale.
	NumeratorField   string  `json:"numerator_field,omitempty" mapstructure:"numerator_field"`
	DenominatorField string  `json:"denominator_field,omitempty" mapstructure:"denominator_field"`
	WeightField      string  `json:"weight_field,omitempty" mapstructure:"weight_field"` // population or other weight
	WeightLabel      string  `json:"weight_label,omitempty" mapstructure:"weight_label"` // plural noun for the weight, e.g. "residents"
	Scale            float64 `json:"scale,omitempty" mapstructure:"scale"`               // per-N unit scaling, default 1
	Unit             string  `json:"unit" mapstructure:"unit"`

	Sources []string `json:"sources" mapstructure:"sources"`
	Rules   []string `json:"rules" mapstructure:"rules"`

	MinSampleSize int `json:"min_sample_size" mapstructure:"min_sample_size"`
	MinGroups     int `json:"min_groups" mapstructure:"min_groups"`

	CorrelateWith  string  `json:"correlate_with,omitempty" mapstructure:"correlate_with"`
	CorrelateLabel string  `json:"correlate_label,omitempty" mapstructure:"correlate_label"`
	SplitField     string  `json:"split_field,omitempty" mapstructure:"split_field"` // quartile split, e.g. imd_score
	SplitLabel     string  `json:"split_label,omitempty" mapstructure:"split_label"` // e.g. "deprived"
	Target         *Target `json:"target,omitempty" mapstructure:"target"`
	AreaTypeField  string  `json:"area_type_field,omitempty" mapstructure:"area_type_field"`
	UnitCostKey    string  `json:"unit_cost_key,omitempty" mapstructure:"unit_cost_key"`
	HigherIsBetter bool    `json:"higher_is_better" mapstructure:"higher_is_better"`
}

// Target is either a fixed value or a per-category policy keyed by a row field
type Target struct {
	Value      *float64           `json:"value,omitempty" mapstructure:"value"`
	Field      string             `json:"field,omitempty" mapstructure:"field"`
	ByCategory map[string]float64 `json:"by_category,omitempty" mapstructure:"by_category"`
	Default    *float64           `json:"default,omitempty" mapstructure:"default"`
	Label      string             `json:"label,omitempty" mapstructure:"label"`
}

// Resolve returns the target applicable to a row
func (t *Target) Resolve(r Record) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if t.Field != "" && len(t.ByCategory) > 0 {
		if cat, ok := r.Text(t.Field); ok {
			cat = normCategory(cat)
			for key, v := range t.ByCategory {
				if normCategory(key) == cat {
					return v, true
				}
			}
		}
		if t.Default != nil {
			return *t.Default, true
		}
		return 0, false
	}
	if t.Value != nil {
		return *t.Value, true
	}
	return 0, false
}

func normCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EffectiveScale returns Scale, defaulting to 1
func (c MetricConfig) EffectiveScale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}

// Label returns the display name for the metric
func (c MetricConfig) Label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.ValueField
}

// GroupNoun returns the singular noun for a group
func (c MetricConfig) GroupNoun() string {
	if c.GroupLabel != "" {
		return c.GroupLabel
	}
	return c.GroupBy
}

// HasRawTotals reports whether numerator and denominator fields are configured
func (c MetricConfig) HasRawTotals() bool {
	return c.NumeratorField != "" && c.DenominatorField != ""
}

// AuxiliaryFields lists joined fields whose match rate gates rules
func (c MetricConfig) AuxiliaryFields() []string {
	candidates := []string{c.CorrelateWith, c.SplitField, c.AreaTypeField}
	if c.Target != nil {
		candidates = append(candidates, c.Target.Field)
	}
	var fields []string
	seen := make(map[string]bool, len(candidates))
	for _, f := range candidates {
		if f != "" && !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// Validate checks the fields every section needs
func (c MetricConfig) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("metric config id is required")
	}
	if c.GroupBy == "" {
		return fmt.Errorf("metric config %s: group_by is required", c.ID)
	}
	if c.ValueField == "" {
		return fmt.Errorf("metric config %s: value_field is required", c.ID)
	}
	if (c.NumeratorField == "") != (c.DenominatorField == "") {
		return fmt.Errorf("metric config %s: numerator_field and denominator_field must be set together", c.ID)
	}
	if c.MinSampleSize < 0 || c.MinGroups < 0 {
		return fmt.Errorf("metric config %s: thresholds must be non-negative", c.ID)
	}
	return nil
}
