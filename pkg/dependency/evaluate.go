package dependency

import (
	"sort"
	"time"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// Result is the outcome of an evaluation.
type Result struct {
	// Active holds the governed fields that are currently part of the form.
	Active fieldpath.PathSet
	// Inactive holds the governed fields that are not.
	Inactive fieldpath.PathSet
	// Values is a copy of the input with inactive fields removed, except
	// those governed by a KeepValue rule.
	Values map[string]any
	// Passes is the number of passes needed to confirm a stable state.
	Passes int
}

// IsActive reports whether p is a governed field that is active.
func (r Result) IsActive(p fieldpath.Path) bool {
	return r.Active.Has(p)
}

// Registered reports whether p is part of the form, that is, neither p nor
// any of its ancestors is an inactive governed field. Ungoverned fields are
// always registered.
func (r Result) Registered(p fieldpath.Path) bool {
	return !r.Inactive.Covers(p)
}

// Evaluate applies rules to values. A nil rule set activates nothing and
// returns a copy of values.
func Evaluate(values map[string]any, rules *RuleSet) (Result, error) {
	return rules.Evaluate(values)
}

// Evaluate computes the activation state for values. The input is never
// mutated. When the rule set contains a cycle, or the state keeps changing
// for more than Len()+1 passes, ErrCyclicDependency is returned and no
// partial result is produced.
func (rs *RuleSet) Evaluate(values map[string]any) (Result, error) {
	out := fieldpath.Clone(values)
	if rs == nil || len(rs.rules) == 0 {
		return Result{
			Active:   fieldpath.NewPathSet(),
			Inactive: fieldpath.NewPathSet(),
			Values:   out,
		}, nil
	}
	if rs.cycle != nil {
		return Result{}, rs.cycle
	}

	var (
		previous map[string]bool
		unstable []string
	)
	maxPasses := len(rs.rules) + 1
	for pass := 1; pass <= maxPasses; pass++ {
		state, err := rs.pass(pass, out)
		if err != nil {
			return Result{}, err
		}
		if previous != nil {
			unstable = changedFields(previous, state)
			if len(unstable) == 0 {
				return rs.result(state, out, pass), nil
			}
		}
		previous = state
	}
	return Result{}, &CyclicDependencyError{Rules: unstable, Passes: maxPasses}
}

// pass evaluates every rule once in dependency order. Inactive fields are
// settled (and cleared) as soon as their last governing rule has run, so
// rules watching them observe the cleared state within the same pass.
func (rs *RuleSet) pass(pass int, values map[string]any) (map[string]bool, error) {
	state := make(map[string]bool, len(rs.fields))
	inactive := fieldpath.NewPathSet()

	for position, idx := range rs.order {
		rule := rs.rules[idx]
		key := rule.field.String()

		if !inactive.Covers(rule.field) {
			var current any
			if !inactive.Covers(rule.watch) {
				current, _ = fieldpath.Get(values, rule.watch)
			}

			started := time.Now()
			matched, err := rule.when.Match(Input{
				Watch:  rule.watch,
				Field:  rule.field,
				Value:  current,
				Values: values,
				Extras: rs.extras,
			})
			rs.logger.LogEvaluation(EvaluationEvent{
				Rule:     rule.name,
				Watch:    rule.watch.String(),
				Field:    key,
				Pass:     pass,
				Matched:  matched && err == nil,
				Duration: time.Since(started),
				Err:      err,
			})
			if err != nil {
				return nil, &EvaluationError{
					Rule:  rule.name,
					Watch: rule.watch.String(),
					Field: key,
					Err:   err,
				}
			}
			state[key] = state[key] || matched
		} else {
			state[key] = false
		}

		if rs.last[key] == position && !state[key] {
			inactive.Add(rule.field)
			if !rs.keep[key] {
				fieldpath.Delete(values, rule.field)
			}
		}
	}
	return state, nil
}

func (rs *RuleSet) result(state map[string]bool, values map[string]any, passes int) Result {
	result := Result{
		Active:   fieldpath.NewPathSet(),
		Inactive: fieldpath.NewPathSet(),
		Values:   values,
		Passes:   passes,
	}
	for _, field := range rs.fields {
		if state[field.String()] {
			result.Active.Add(field)
		} else {
			result.Inactive.Add(field)
		}
	}
	return result
}

func changedFields(before, after map[string]bool) []string {
	var out []string
	for key, value := range after {
		if before[key] != value {
			out = append(out, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
