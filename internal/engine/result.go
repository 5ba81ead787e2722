package engine

import (
	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/rules"
)

// Result is the composed narrative plus everything needed to audit it.
// A fragment that could not be rendered is nil, never an empty string.
type Result struct {
	Summary        *string               `json:"summary"`
	KeyFinding     *string               `json:"key_finding"`
	Recommendation *string               `json:"recommendation"`
	Investment     *string               `json:"investment"`
	Sources        []string              `json:"sources"`
	Evidence       *metrics.Metrics      `json:"evidence"`
	Context        narrative.ViewContext `json:"context"`
	Insights       []narrative.Insight   `json:"insights"`
	Decisions      []rules.Decision      `json:"decisions"`
}

func (r *Result) set(fragment narrative.FragmentType, text *string) {
	switch fragment {
	case narrative.FragmentSummary:
		r.Summary = text
	case narrative.FragmentKeyFinding:
		r.KeyFinding = text
	case narrative.FragmentRecommendation:
		r.Recommendation = text
	case narrative.FragmentInvestment:
		r.Investment = text
	}
}

// Fragment returns the text for one fragment type
func (r Result) Fragment(fragment narrative.FragmentType) (string, bool) {
	var p *string
	switch fragment {
	case narrative.FragmentSummary:
		p = r.Summary
	case narrative.FragmentKeyFinding:
		p = r.KeyFinding
	case narrative.FragmentRecommendation:
		p = r.Recommendation
	case narrative.FragmentInvestment:
		p = r.Investment
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Fragments returns the rendered fragments keyed by type
func (r Result) Fragments() map[narrative.FragmentType]string {
	out := make(map[narrative.FragmentType]string)
	for _, f := range narrative.FragmentTypes {
		if text, ok := r.Fragment(f); ok {
			out[f] = text
		}
	}
	return out
}

// FiredRules lists the rules that produced at least one insight, in evaluation order
func (r Result) FiredRules() []string {
	var out []string
	for _, d := range r.Decisions {
		if d.Fired {
			out = append(out, d.Rule)
		}
	}
	return out
}
