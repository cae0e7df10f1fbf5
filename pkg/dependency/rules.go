package dependency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// Rule declares that Field is active while When holds for the value at Watch.
// When KeepValue is set, deactivation keeps the field's value in the
// snapshot (excluded from the active set) instead of clearing it.
type Rule struct {
	Name      string
	Watch     string
	When      Predicate
	Field     string
	KeepValue bool
}

// PathChecker validates that a path exists in the form's schema.
// *schema.Schema implements it.
type PathChecker interface {
	CheckPath(fieldpath.Path) error
}

// PathCheckerFunc adapts a function to PathChecker.
type PathCheckerFunc func(fieldpath.Path) error

// CheckPath implements PathChecker.
func (f PathCheckerFunc) CheckPath(p fieldpath.Path) error { return f(p) }

// Option configures a RuleSet.
type Option func(*RuleSet)

// WithSchema validates every watched and dependent path at registration.
func WithSchema(checker PathChecker) Option {
	return func(rs *RuleSet) {
		rs.checker = checker
	}
}

// WithLogger attaches an evaluation logger.
func WithLogger(logger EvaluationLogger) Option {
	return func(rs *RuleSet) {
		if logger == nil {
			rs.logger = noopLogger{}
			return
		}
		rs.logger = logger
	}
}

// WithExtras exposes static caller context (roles, flags) to predicates.
func WithExtras(extras map[string]any) Option {
	return func(rs *RuleSet) {
		rs.extras = fieldpath.Clone(extras)
	}
}

type compiledRule struct {
	index int
	name  string
	watch fieldpath.Path
	field fieldpath.Path
	when  Predicate
	keep  bool
}

// RuleSet is an immutable, validated collection of rules.
type RuleSet struct {
	rules    []compiledRule
	order    []int
	cycle    error
	fields   []fieldpath.Path
	governed fieldpath.PathSet
	keep     map[string]bool
	last     map[string]int
	checker  PathChecker
	logger   EvaluationLogger
	extras   map[string]any
}

// NewRuleSet validates rules and prepares their evaluation order. Malformed
// paths, paths unknown to the configured schema and predicates that fail to
// compile are rejected here. Cycles are recorded and reported by Evaluate.
func NewRuleSet(rules []Rule, opts ...Option) (*RuleSet, error) {
	rs := &RuleSet{
		logger:   noopLogger{},
		governed: fieldpath.NewPathSet(),
		keep:     make(map[string]bool),
		last:     make(map[string]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rs)
		}
	}

	for i, rule := range rules {
		compiled, err := rs.compile(i, rule)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, compiled)
		if compiled.keep {
			rs.keep[compiled.field.String()] = true
		}
		if !rs.governed.Has(compiled.field) {
			rs.governed.Add(compiled.field)
			rs.fields = append(rs.fields, compiled.field)
		}
	}

	rs.order, rs.cycle = rs.sort()
	for position, idx := range rs.order {
		rs.last[rs.rules[idx].field.String()] = position
	}
	return rs, nil
}

// MustRuleSet panics when NewRuleSet fails. Intended for static rule tables.
func MustRuleSet(rules []Rule, opts ...Option) *RuleSet {
	rs, err := NewRuleSet(rules, opts...)
	if err != nil {
		panic(err)
	}
	return rs
}

func (rs *RuleSet) compile(index int, rule Rule) (compiledRule, error) {
	name := strings.TrimSpace(rule.Name)
	if name == "" {
		name = fmt.Sprintf("#%d (%s <- %s)", index, strings.TrimSpace(rule.Field), strings.TrimSpace(rule.Watch))
	}

	watch, err := rs.parsePath(name, rule.Watch)
	if err != nil {
		return compiledRule{}, err
	}
	field, err := rs.parsePath(name, rule.Field)
	if err != nil {
		return compiledRule{}, err
	}

	if rule.When == nil {
		return compiledRule{}, &InvalidPredicateError{Rule: name, Err: errors.New("predicate is nil")}
	}
	if c, ok := rule.When.(compiler); ok {
		if err := c.compile(); err != nil {
			return compiledRule{}, &InvalidPredicateError{Rule: name, Err: err}
		}
	}

	return compiledRule{
		index: index,
		name:  name,
		watch: watch,
		field: field,
		when:  rule.When,
		keep:  rule.KeepValue,
	}, nil
}

func (rs *RuleSet) parsePath(rule, raw string) (fieldpath.Path, error) {
	p, err := fieldpath.Parse(raw)
	if err != nil {
		return nil, &InvalidPathError{Rule: rule, Path: raw, Err: err}
	}
	if rs.checker != nil {
		if err := rs.checker.CheckPath(p); err != nil {
			return nil, &InvalidPathError{Rule: rule, Path: raw, Err: err}
		}
	}
	return p, nil
}

// sort orders rules so that every rule governing a field runs before the
// rules watching that field (or anything overlapping it) and before rules
// governing fields nested below it. Ties keep declaration order.
func (rs *RuleSet) sort() ([]int, error) {
	n := len(rs.rules)
	indegree := make([]int, n)
	edges := make([][]int, n)
	for i := range rs.rules {
		for j := range rs.rules {
			if rs.rules[i].field.Overlaps(rs.rules[j].watch) || encloses(rs.rules[i].field, rs.rules[j].field) {
				edges[i] = append(edges[i], j)
				indegree[j]++
			}
		}
	}

	order := make([]int, 0, n)
	done := make([]bool, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		done[next] = true
		order = append(order, next)
		for _, j := range edges[next] {
			indegree[j]--
		}
	}

	if len(order) == n {
		return order, nil
	}
	var stuck []string
	for i, rule := range rs.rules {
		if !done[i] {
			stuck = append(stuck, rule.name)
		}
	}
	return order, &CyclicDependencyError{Rules: stuck}
}

// encloses reports whether parent is a strict ancestor of child.
func encloses(parent, child fieldpath.Path) bool {
	return len(parent) < len(child) && child.HasPrefix(parent)
}

// Check reports a cycle without evaluating any values.
func (rs *RuleSet) Check() error {
	if rs == nil {
		return nil
	}
	return rs.cycle
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Fields returns the dependent paths governed by the rule set, in
// declaration order.
func (rs *RuleSet) Fields() []fieldpath.Path {
	if rs == nil {
		return nil
	}
	return append([]fieldpath.Path(nil), rs.fields...)
}

// Governs reports whether p is the dependent path of some rule.
func (rs *RuleSet) Governs(p fieldpath.Path) bool {
	if rs == nil {
		return false
	}
	return rs.governed.Has(p)
}
