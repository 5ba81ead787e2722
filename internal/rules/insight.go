package rules

import (
	"strings"

	"gonarrative/domain/narrative"
)

// builder accumulates the evidence for one insight. Empty text is dropped so
// the renderer fails closed on it instead of printing a blank.
type builder struct {
	ins narrative.Insight
}

func newInsight(rule string, priority int, template string) *builder {
	return &builder{ins: narrative.Insight{
		Rule:        rule,
		Priority:    priority,
		TemplateKey: template,
		Evidence:    make(map[string]narrative.Evidence),
	}}
}

func (b *builder) num(slot string, kind narrative.EvidenceKind, v float64, source string) *builder {
	b.ins.Evidence[slot] = narrative.NumberEvidence(kind, v, source)
	return b
}

func (b *builder) rate(slot string, v float64, unit, source string) *builder {
	b.ins.Evidence[slot] = narrative.RateEvidence(v, unit, source)
	return b
}

func (b *builder) text(slot, s, source string) *builder {
	if strings.TrimSpace(s) != "" {
		b.ins.Evidence[slot] = narrative.TextEvidence(s, source)
	}
	return b
}

func (b *builder) build() narrative.Insight {
	return b.ins
}

// common text slots shared by most templates
func (b *builder) labels(cfg narrative.MetricConfig, n int) *builder {
	return b.
		text("metric", cfg.Label(), "config.title").
		text("group_noun", cfg.GroupNoun(), "config.group_label").
		text("groups", plural(cfg.GroupNoun(), n), "config.group_label")
}

func plural(noun string, n int) string {
	noun = strings.TrimSpace(noun)
	if noun == "" || n == 1 {
		return noun
	}
	switch {
	case strings.HasSuffix(noun, "s"), strings.HasSuffix(noun, "x"), strings.HasSuffix(noun, "ch"):
		return noun + "es"
	case strings.HasSuffix(noun, "y") && !strings.HasSuffix(noun, "ay") && !strings.HasSuffix(noun, "ey"):
		return strings.TrimSuffix(noun, "y") + "ies"
	case strings.ToUpper(noun) == noun:
		return noun + "s" // acronyms: LSOA -> LSOAs
	default:
		return noun + "s"
	}
}

// humanize turns a field or key name into prose: "bus_stop" -> "bus stop"
func humanize(field string) string {
	return strings.TrimSpace(strings.ReplaceAll(field, "_", " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
