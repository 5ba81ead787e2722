package narrative

// FragmentType names one slot of rendered narrative
type FragmentType string

const (
	FragmentSummary        FragmentType = "summary"
	FragmentKeyFinding     FragmentType = "key_finding"
	FragmentRecommendation FragmentType = "recommendation"
	FragmentInvestment     FragmentType = "investment"
)

// FragmentTypes lists fragment types in output order
var FragmentTypes = []FragmentType{
	FragmentSummary,
	FragmentKeyFinding,
	FragmentRecommendation,
	FragmentInvestment,
}

// EvidenceKind tells the renderer how to format a value
type EvidenceKind string

const (
	KindText     EvidenceKind = "text"
	KindNumber   EvidenceKind = "number"   // one decimal place
	KindCount    EvidenceKind = "count"    // integer with grouping
	KindPercent  EvidenceKind = "percent"  // fraction rendered as percentage
	KindCurrency EvidenceKind = "currency" // money with k/m/bn suffix
	KindRatio    EvidenceKind = "ratio"    // two decimals
	KindRate     EvidenceKind = "rate"     // metric in its display unit
)

// Evidence is one slot value carried by an Insight
type Evidence struct {
	Kind   EvidenceKind `json:"kind"`
	Number float64      `json:"number,omitempty"`
	Text   string       `json:"text,omitempty"`
	Unit   string       `json:"unit,omitempty"` // display unit appended to rate values
	Source string       `json:"source"`         // path into Metrics, e.g. "gap.total_gap_units"
}

// NumberEvidence builds a numeric slot value traced to a metrics path
func NumberEvidence(kind EvidenceKind, v float64, source string) Evidence {
	return Evidence{Kind: kind, Number: v, Source: source}
}

// RateEvidence builds a metric value rendered in its display unit
func RateEvidence(v float64, unit, source string) Evidence {
	return Evidence{Kind: KindRate, Number: v, Unit: unit, Source: source}
}

// TextEvidence builds a text slot value
func TextEvidence(s, source string) Evidence {
	return Evidence{Kind: KindText, Text: s, Source: source}
}

// Insight is a candidate finding produced by a rule, not yet rendered
type Insight struct {
	Rule        string              `json:"rule"`
	Priority    int                 `json:"priority"` // lower renders first within a fragment type
	TemplateKey string              `json:"template_key"`
	Evidence    map[string]Evidence `json:"evidence"`
}
