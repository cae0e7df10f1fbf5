package definition

import (
	"fmt"

	"github.com/goliatone/go-formdeps/pkg/dependency"
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/visibility"
	"github.com/goliatone/go-formdeps/pkg/visibility/cel"
	"github.com/goliatone/go-formdeps/pkg/visibility/expr"
	"github.com/goliatone/go-formdeps/pkg/visibility/exprlang"
	"github.com/goliatone/go-formdeps/pkg/visibility/js"
)

// Engines returns a registry with every built-in expression engine. `expr`
// is the default; `js` is only registered when built with the js_eval tag.
func Engines() (*visibility.Registry, error) {
	registry := visibility.NewRegistry()
	if err := registry.Register("expr", expr.New()); err != nil {
		return nil, err
	}
	if err := registry.Register("exprlang", exprlang.New()); err != nil {
		return nil, err
	}
	celEvaluator, err := cel.New()
	if err != nil {
		return nil, fmt.Errorf("definition: cel engine: %w", err)
	}
	if err := registry.Register("cel", celEvaluator); err != nil {
		return nil, err
	}
	if js.Available() {
		if err := registry.Register("js", js.New()); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// RuleSet compiles the definition's rules. Expressions are resolved through
// engines; a nil registry falls back to Engines(). The definition schema is
// always used to check paths, and rules that depend on each other in a cycle
// are rejected here rather than on first evaluation.
func (d Definition) RuleSet(engines *visibility.Registry, opts ...dependency.Option) (*dependency.RuleSet, error) {
	if engines == nil {
		var err error
		if engines, err = Engines(); err != nil {
			return nil, err
		}
	}

	rules := make([]dependency.Rule, 0, len(d.Rules))
	for i, cfg := range d.Rules {
		predicate, err := cfg.predicate(engines)
		if err != nil {
			return nil, fmt.Errorf("definition: form %q rule %d: %w", d.ID, i, err)
		}
		rules = append(rules, dependency.Rule{
			Name:      cfg.Name,
			Watch:     cfg.Watch,
			When:      predicate,
			Field:     cfg.Field,
			KeepValue: cfg.KeepValue,
		})
	}

	all := append([]dependency.Option{dependency.WithSchema(d.Schema)}, opts...)
	rs, err := dependency.NewRuleSet(rules, all...)
	if err != nil {
		return nil, err
	}
	if err := rs.Check(); err != nil {
		return nil, fmt.Errorf("definition: form %q: %w", d.ID, err)
	}
	return rs, nil
}

// NewForm builds a live form seeded with the definition's defaults and
// validate mode. Extra options are applied last.
func (d Definition) NewForm(engines *visibility.Registry, opts ...form.Option) (*form.Form, error) {
	rules, err := d.RuleSet(engines)
	if err != nil {
		return nil, err
	}
	base := []form.Option{
		form.WithSchema(d.Schema),
		form.WithDefaults(d.Defaults),
		form.WithValidateMode(d.ValidateMode),
	}
	return form.New(rules, append(base, opts...)...)
}

func (r RuleConfig) predicate(engines *visibility.Registry) (dependency.Predicate, error) {
	var parts []dependency.Predicate
	if r.Equals != nil {
		parts = append(parts, dependency.Equals(r.Equals))
	}
	if len(r.OneOf) > 0 {
		parts = append(parts, dependency.OneOf(r.OneOf...))
	}
	if r.Present {
		parts = append(parts, dependency.Present())
	}
	if r.Truthy {
		parts = append(parts, dependency.Truthy())
	}
	if r.When != "" {
		evaluator, err := engines.Lookup(r.Engine)
		if err != nil {
			return nil, err
		}
		parts = append(parts, dependency.Expression(evaluator, r.When))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("rule %s has no condition", r.Field)
	}

	predicate := parts[0]
	if len(parts) > 1 {
		predicate = dependency.All(parts...)
	}
	if r.Not {
		predicate = dependency.Not(predicate)
	}
	return predicate, nil
}
