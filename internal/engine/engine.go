package engine

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"gonarrative/domain/narrative"
	"gonarrative/internal/metrics"
	"gonarrative/internal/policy"
	"gonarrative/internal/render"
	"gonarrative/internal/rules"
	"gonarrative/internal/scope"
)

// Engine runs the context -> metrics -> rules -> text pipeline. It holds no
// per-call state and is safe for concurrent use once built.
type Engine struct {
	registry *rules.Registry
	renderer *render.Renderer
	policy   policy.Policy
	logger   *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithPolicy sets the appraisal and cost parameters
func WithPolicy(p policy.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithRegistry replaces the default rule registry
func WithRegistry(r *rules.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithRenderer replaces the default renderer
func WithRenderer(r *render.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithLogger sets the logger used for gated and faulted rules. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine with the default registry, policy and templates
func New(opts ...Option) *Engine {
	e := &Engine{
		policy: policy.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = rules.NewRegistry()
	}
	if e.renderer == nil {
		r, err := render.NewRenderer(e.policy.CurrencySymbol)
		if err != nil {
			panic(fmt.Sprintf("default templates are invalid: %v", err))
		}
		e.renderer = r
	}
	return e
}

// Registry exposes the rules the engine can run
func (e *Engine) Registry() *rules.Registry {
	return e.registry
}

// Policy returns the policy in effect
func (e *Engine) Policy() policy.Policy {
	return e.policy
}

type runConfig struct {
	reference narrative.Dataset
}

// RunOption adjusts a single Run
type RunOption func(*runConfig)

// WithReference supplies the unfiltered population used for single-group
// positioning. Without it the view itself is the reference.
func WithReference(ds narrative.Dataset) RunOption {
	return func(rc *runConfig) { rc.reference = ds }
}

// Run resolves the view, computes metrics, evaluates the configured rules and
// renders the winning insight per fragment type. It never returns an error and
// never panics; insufficient data yields fewer fragments.
func (e *Engine) Run(ds narrative.Dataset, cfg narrative.MetricConfig, filters narrative.FilterState, opts ...RunOption) Result {
	var rc runConfig
	for _, opt := range opts {
		opt(&rc)
	}

	vc := scope.Resolve(ds, cfg.GroupBy, filters)
	log := e.logger.With(
		zap.String("config_id", cfg.ID),
		zap.String("scope", string(vc.Scope)),
		zap.Int("n_groups", vc.NGroups),
	)

	res := Result{
		Sources:   append([]string{}, cfg.Sources...),
		Context:   vc,
		Insights:  []narrative.Insight{},
		Decisions: []rules.Decision{},
	}

	selected, decisions := e.resolveRules(cfg, log)
	res.Decisions = append(res.Decisions, decisions...)

	m := e.computeMetrics(metrics.Input{
		Dataset:   ds,
		Reference: rc.reference,
		Config:    cfg,
		Context:   vc,
		Policy:    e.policy,
		Needs:     needsOf(selected),
	}, log)
	res.Evidence = m

	if err := cfg.Validate(); err != nil {
		log.Warn("invalid metric config, no rules evaluated", zap.Error(err))
		return res
	}

	for _, rule := range selected {
		d := rules.Decision{Rule: rule.Name()}
		ok, reason := rules.Check(rule.Requirements(), vc, m, cfg)
		if !ok {
			d.FailureReason = reason
			log.Debug("rule gated", zap.String("rule", rule.Name()), zap.String("reason", reason))
			res.Decisions = append(res.Decisions, d)
			continue
		}
		d.Passed = true

		insights, err := evaluate(rule, vc, m, cfg)
		if err != nil {
			d.FailureReason = err.Error()
			log.Warn("rule fault, treated as not fired", zap.String("rule", rule.Name()), zap.Error(err))
			res.Decisions = append(res.Decisions, d)
			continue
		}
		d.Fired = len(insights) > 0
		d.Insights = len(insights)
		res.Insights = append(res.Insights, insights...)
		res.Decisions = append(res.Decisions, d)
	}

	for fragment, sel := range e.renderer.Select(res.Insights) {
		text := sel.Text
		res.set(fragment, &text)
	}
	log.Debug("narrative generated",
		zap.Int("insights", len(res.Insights)),
		zap.Int("fragments", len(res.Fragments())),
	)
	return res
}

// resolveRules maps configured names (or every registered rule when none are
// configured) onto registry rules, de-duplicated in order.
func (e *Engine) resolveRules(cfg narrative.MetricConfig, log *zap.Logger) ([]rules.Rule, []rules.Decision) {
	names := cfg.Rules
	if len(names) == 0 {
		names = e.registry.Names()
	}

	var (
		out       []rules.Rule
		decisions []rules.Decision
		seen      = make(map[string]bool)
	)
	for _, name := range names {
		rule, ok := e.registry.Lookup(name)
		if !ok {
			// accept factory aliases for registered rules
			if alias, err := rules.GetRuleFactory(name); err == nil {
				rule, ok = e.registry.Lookup(alias.Name())
			}
		}
		if !ok {
			log.Warn("unknown rule in config", zap.String("rule", name))
			decisions = append(decisions, rules.Decision{Rule: name, FailureReason: "unknown rule"})
			continue
		}
		if seen[rule.Name()] {
			continue
		}
		seen[rule.Name()] = true
		out = append(out, rule)
	}
	return out, decisions
}

func needsOf(selected []rules.Rule) []metrics.Kind {
	var needs []metrics.Kind
	for _, r := range selected {
		needs = append(needs, r.Requirements().Needs...)
	}
	if len(needs) == 0 {
		// nothing optional requested; keep Compute from defaulting to everything
		needs = []metrics.Kind{metrics.KindDistribution}
	}
	return needs
}

// computeMetrics contains a calculator fault to an evidence record with coverage only
func (e *Engine) computeMetrics(in metrics.Input, log *zap.Logger) (m *metrics.Metrics) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("metric computation fault", zap.Any("panic", r), zap.Stack("stack"))
			m = &metrics.Metrics{MetricID: in.Config.ID, Unit: in.Config.Unit}
		}
	}()
	return metrics.Compute(in)
}

// evaluate runs Applies and Emit behind a recover so one faulty rule cannot
// break the rest of the narrative
func evaluate(rule rules.Rule, vc narrative.ViewContext, m *metrics.Metrics, cfg narrative.MetricConfig) (insights []narrative.Insight, err error) {
	defer func() {
		if r := recover(); r != nil {
			insights = nil
			err = eris.Errorf("rule %s panicked: %v", rule.Name(), r)
		}
	}()
	if !rule.Applies(vc, m) {
		return nil, nil
	}
	return rule.Emit(vc, m, cfg), nil
}
