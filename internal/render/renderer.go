package render

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"gonarrative/domain/narrative"
)

var (
	ErrUnknownTemplate = eris.New("unknown template")
	ErrMissingSlot     = eris.New("missing slot")
	ErrInvalidTemplate = eris.New("invalid template")
)

var slotPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Fragments maps each rendered fragment type to its text. Types that could not
// be rendered are absent, never present with an empty string.
type Fragments map[narrative.FragmentType]string

// Selection is the insight whose text won a fragment type
type Selection struct {
	Insight narrative.Insight
	Text    string
}

// Renderer substitutes insight evidence into a closed set of templates
type Renderer struct {
	templates map[string]Template
	currency  string
}

// NewRenderer validates the templates (DefaultTemplates when none are given).
// A pattern may only contain declared slots, every declared slot must be used,
// and no pattern may contain a digit: numbers arrive only through evidence.
func NewRenderer(currency string, templates ...Template) (*Renderer, error) {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	r := &Renderer{templates: make(map[string]Template, len(templates)), currency: currency}

	for _, t := range templates {
		if t.Key == "" {
			return nil, eris.Wrap(ErrInvalidTemplate, "template key is empty")
		}
		if _, dup := r.templates[t.Key]; dup {
			return nil, eris.Wrapf(ErrInvalidTemplate, "duplicate template %s", t.Key)
		}
		if !knownFragment(t.Fragment) {
			return nil, eris.Wrapf(ErrInvalidTemplate, "template %s: unknown fragment type %q", t.Key, t.Fragment)
		}
		if strings.IndexFunc(t.Pattern, unicode.IsDigit) >= 0 {
			return nil, eris.Wrapf(ErrInvalidTemplate, "template %s: literal digits in pattern", t.Key)
		}

		declared := make(map[string]bool, len(t.Slots))
		for _, s := range t.Slots {
			declared[s] = true
		}
		used := make(map[string]bool)
		for _, match := range slotPattern.FindAllStringSubmatch(t.Pattern, -1) {
			if !declared[match[1]] {
				return nil, eris.Wrapf(ErrInvalidTemplate, "template %s: undeclared slot %s", t.Key, match[1])
			}
			used[match[1]] = true
		}
		for _, s := range t.Slots {
			if !used[s] {
				return nil, eris.Wrapf(ErrInvalidTemplate, "template %s: declared slot %s is unused", t.Key, s)
			}
		}
		r.templates[t.Key] = t
	}
	return r, nil
}

func knownFragment(f narrative.FragmentType) bool {
	for _, known := range narrative.FragmentTypes {
		if f == known {
			return true
		}
	}
	return false
}

// Template returns the template registered under key
func (r *Renderer) Template(key string) (Template, bool) {
	t, ok := r.templates[key]
	return t, ok
}

// RenderInsight fills one insight's template. It fails closed: any slot
// without a concrete evidence value is an error and no text is produced.
func (r *Renderer) RenderInsight(ins narrative.Insight) (narrative.FragmentType, string, error) {
	t, ok := r.templates[ins.TemplateKey]
	if !ok {
		return "", "", eris.Wrapf(ErrUnknownTemplate, "%s", ins.TemplateKey)
	}

	values := make(map[string]string, len(t.Slots))
	for _, slot := range t.Slots {
		ev, ok := ins.Evidence[slot]
		if !ok {
			return t.Fragment, "", eris.Wrapf(ErrMissingSlot, "template %s slot %s", t.Key, slot)
		}
		s, ok := r.FormatEvidence(ev)
		if !ok {
			return t.Fragment, "", eris.Wrapf(ErrMissingSlot, "template %s slot %s has no value", t.Key, slot)
		}
		values[slot] = s
	}

	text := slotPattern.ReplaceAllStringFunc(t.Pattern, func(tok string) string {
		return values[tok[1:len(tok)-1]]
	})
	return t.Fragment, capitalise(text), nil
}

// Select picks, per fragment type, the highest-priority insight that renders.
// Ties are broken by rule name then template key so output is deterministic.
func (r *Renderer) Select(insights []narrative.Insight) map[narrative.FragmentType]Selection {
	ordered := make([]narrative.Insight, len(insights))
	copy(ordered, insights)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.TemplateKey < b.TemplateKey
	})

	out := make(map[narrative.FragmentType]Selection)
	for _, ins := range ordered {
		t, ok := r.templates[ins.TemplateKey]
		if !ok {
			continue
		}
		if _, done := out[t.Fragment]; done {
			continue
		}
		fragment, text, err := r.RenderInsight(ins)
		if err != nil || text == "" {
			continue
		}
		out[fragment] = Selection{Insight: ins, Text: text}
	}
	return out
}

// Render returns the text of each fragment type that could be rendered
func (r *Renderer) Render(insights []narrative.Insight) Fragments {
	out := make(Fragments)
	for fragment, sel := range r.Select(insights) {
		out[fragment] = sel.Text
	}
	return out
}

// FormatEvidence renders one slot value the way templates receive it
func (r *Renderer) FormatEvidence(ev narrative.Evidence) (string, bool) {
	if ev.Kind == narrative.KindText {
		s := strings.TrimSpace(ev.Text)
		return s, s != ""
	}
	if math.IsNaN(ev.Number) || math.IsInf(ev.Number, 0) {
		return "", false
	}
	switch ev.Kind {
	case narrative.KindNumber:
		return FormatNumber(ev.Number), true
	case narrative.KindCount:
		return FormatCount(ev.Number), true
	case narrative.KindPercent:
		return FormatPercent(ev.Number), true
	case narrative.KindCurrency:
		return FormatCurrency(ev.Number, r.currency), true
	case narrative.KindRatio:
		return FormatRatio(ev.Number), true
	case narrative.KindRate:
		return FormatRate(ev.Number, ev.Unit), true
	}
	return "", false
}

func capitalise(s string) string {
	c, size := utf8.DecodeRuneInString(s)
	if c == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(c)) + s[size:]
}
