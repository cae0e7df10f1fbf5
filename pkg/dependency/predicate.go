package dependency

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdeps/pkg/diff"
	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/visibility"
)

// Input is what a predicate sees: the watched value plus the surrounding
// snapshot. Values must be treated as read-only.
type Input struct {
	Watch  fieldpath.Path
	Field  fieldpath.Path
	Value  any
	Values map[string]any
	Extras map[string]any
}

// Predicate decides whether a dependent field is active.
type Predicate interface {
	Match(in Input) (bool, error)
}

// compiler is implemented by predicates that can be checked at registration.
type compiler interface {
	compile() error
}

// Func adapts a plain function over the watched value.
type Func func(value any) bool

// Match implements Predicate.
func (f Func) Match(in Input) (bool, error) {
	if f == nil {
		return false, errors.New("predicate func is nil")
	}
	return f(in.Value), nil
}

type predicateFunc func(in Input) (bool, error)

func (f predicateFunc) Match(in Input) (bool, error) { return f(in) }

// Equals matches when the watched value equals want. Numbers compare by
// value regardless of their Go type.
func Equals(want any) Predicate {
	return predicateFunc(func(in Input) (bool, error) {
		return looseEqual(in.Value, want), nil
	})
}

// OneOf matches when the watched value equals any of the options.
func OneOf(options ...any) Predicate {
	return predicateFunc(func(in Input) (bool, error) {
		for _, option := range options {
			if looseEqual(in.Value, option) {
				return true, nil
			}
		}
		return false, nil
	})
}

// Present matches when the watched value is set and not an empty string.
func Present() Predicate {
	return predicateFunc(func(in Input) (bool, error) {
		if in.Value == nil {
			return false, nil
		}
		if s, ok := in.Value.(string); ok {
			return strings.TrimSpace(s) != "", nil
		}
		return true, nil
	})
}

// Truthy matches non-zero numbers, true, non-blank strings and non-empty
// collections.
func Truthy() Predicate {
	return predicateFunc(func(in Input) (bool, error) {
		return truthy(in.Value), nil
	})
}

// Not negates p.
func Not(p Predicate) Predicate {
	return composite{parts: []Predicate{p}, combine: func(in Input, parts []Predicate) (bool, error) {
		ok, err := parts[0].Match(in)
		return !ok && err == nil, err
	}}
}

// All matches when every predicate matches.
func All(predicates ...Predicate) Predicate {
	return composite{parts: predicates, combine: func(in Input, parts []Predicate) (bool, error) {
		for _, p := range parts {
			ok, err := p.Match(in)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}}
}

// Any matches when at least one predicate matches.
func Any(predicates ...Predicate) Predicate {
	return composite{parts: predicates, combine: func(in Input, parts []Predicate) (bool, error) {
		for _, p := range parts {
			ok, err := p.Match(in)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}}
}

type composite struct {
	parts   []Predicate
	combine func(Input, []Predicate) (bool, error)
}

func (c composite) Match(in Input) (bool, error) { return c.combine(in, c.parts) }

func (c composite) compile() error {
	if len(c.parts) == 0 {
		return errors.New("composite predicate has no parts")
	}
	for i, part := range c.parts {
		if part == nil {
			return fmt.Errorf("part %d is nil", i)
		}
		if inner, ok := part.(compiler); ok {
			if err := inner.compile(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Expression evaluates rule with a visibility evaluator. The watched value is
// available to the rule as `value`; other fields are read from the snapshot.
func Expression(evaluator visibility.Evaluator, rule string) Predicate {
	return expression{evaluator: evaluator, rule: rule}
}

type expression struct {
	evaluator visibility.Evaluator
	rule      string
}

func (e expression) Match(in Input) (bool, error) {
	if e.evaluator == nil {
		return false, errors.New("expression evaluator is nil")
	}
	return e.evaluator.Eval(in.Field.String(), e.rule, visibility.Context{
		Values:  in.Values,
		Current: in.Value,
		Extras:  in.Extras,
	})
}

func (e expression) compile() error {
	if e.evaluator == nil {
		return errors.New("expression evaluator is nil")
	}
	if strings.TrimSpace(e.rule) == "" {
		return errors.New("expression is empty")
	}
	if c, ok := e.evaluator.(visibility.Compiler); ok {
		return c.Compile(e.rule)
	}
	return nil
}

func looseEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}
	if a, ok := diff.Number(got); ok {
		if b, ok := diff.Number(want); ok {
			return a == b
		}
	}
	return reflect.DeepEqual(got, want)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
		return trimmed != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := diff.Number(value); ok {
		return n != 0
	}
	return true
}
