// Package exprlang evaluates dependency rules with github.com/expr-lang/expr.
//
// Form values are exposed as top-level variables (`attendeeType == "speaker"`),
// the watched value as `value` and caller context as `extras`. Undefined
// variables evaluate to nil so rules can reference fields that are unset.
package exprlang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-formdeps/pkg/visibility"
)

// Function is a helper callable from rules.
type Function func(arguments ...any) (any, error)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFunction registers a helper callable from rules, e.g. `len_gt(tags, 2)`.
func WithFunction(name string, fn Function) Option {
	return func(e *Evaluator) {
		name = strings.TrimSpace(name)
		if name == "" || fn == nil {
			return
		}
		e.functions[name] = fn
	}
}

// Evaluator compiles rules once and caches the resulting programs.
type Evaluator struct {
	functions map[string]Function
	programs  sync.Map // rule -> *exprvm.Program
}

var (
	_ visibility.Evaluator = (*Evaluator)(nil)
	_ visibility.Compiler  = (*Evaluator)(nil)
)

// New constructs an expr-lang backed evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{functions: make(map[string]Function)}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compile checks that rule parses and type-checks.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval runs rule against ctx. Non-boolean results are rejected, nil counts
// as false.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}
	out, err := exprlang.Run(program, ctx.Env())
	if err != nil {
		return false, fmt.Errorf("visibility/exprlang: field %q: run %q: %w", fieldPath, rule, err)
	}
	switch typed := out.(type) {
	case bool:
		return typed, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("visibility/exprlang: field %q: rule %q returned %T, want bool", fieldPath, rule, out)
	}
}

func (e *Evaluator) program(rule string) (*exprvm.Program, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, fmt.Errorf("visibility/exprlang: expression must not be empty")
	}
	if cached, ok := e.programs.Load(trimmed); ok {
		return cached.(*exprvm.Program), nil
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functionNames() {
		fn := e.functions[name]
		options = append(options, exprlang.Function(name, func(arguments ...any) (any, error) {
			return fn(arguments...)
		}))
	}

	program, err := exprlang.Compile(trimmed, options...)
	if err != nil {
		return nil, fmt.Errorf("visibility/exprlang: compile %q: %w", trimmed, err)
	}
	e.programs.Store(trimmed, program)
	return program, nil
}

func (e *Evaluator) functionNames() []string {
	names := make([]string, 0, len(e.functions))
	for name := range e.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
