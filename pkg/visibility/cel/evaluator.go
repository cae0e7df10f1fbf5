// Package cel evaluates dependency rules with github.com/google/cel-go.
//
// The CEL environment is static so rules type-check at registration time:
// `value` holds the watched value, `values` the form snapshot and `extras`
// caller context. Prefer `value` or `has(values.field)` guards when reading
// fields that may be unset.
package cel

import (
	"fmt"
	"strings"
	"sync"

	celgo "github.com/google/cel-go/cel"

	"github.com/goliatone/go-formdeps/pkg/visibility"
)

const valuesName = "values"

// Option configures an Evaluator.
type Option func(*config)

type config struct {
	envOptions []celgo.EnvOption
}

// WithEnvOptions appends extra CEL environment options such as custom
// functions or macros.
func WithEnvOptions(opts ...celgo.EnvOption) Option {
	return func(cfg *config) {
		cfg.envOptions = append(cfg.envOptions, opts...)
	}
}

// Evaluator compiles CEL programs once per rule.
type Evaluator struct {
	env      *celgo.Env
	programs sync.Map // rule -> celgo.Program
}

var (
	_ visibility.Evaluator = (*Evaluator)(nil)
	_ visibility.Compiler  = (*Evaluator)(nil)
)

// New builds the shared CEL environment.
func New(opts ...Option) (*Evaluator, error) {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	envOptions := []celgo.EnvOption{
		celgo.Variable(visibility.CurrentValueName, celgo.DynType),
		celgo.Variable(valuesName, celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable(visibility.ExtrasName, celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	envOptions = append(envOptions, cfg.envOptions...)

	env, err := celgo.NewEnv(envOptions...)
	if err != nil {
		return nil, fmt.Errorf("visibility/cel: new env: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// MustNew panics when New fails.
func MustNew(opts ...Option) *Evaluator {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Compile parses and type-checks rule.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval runs rule against ctx and requires a boolean result.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}

	values := ctx.Values
	if values == nil {
		values = map[string]any{}
	}
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	out, _, err := program.Eval(map[string]any{
		visibility.CurrentValueName: ctx.Current,
		valuesName:                  values,
		visibility.ExtrasName:       extras,
	})
	if err != nil {
		return false, fmt.Errorf("visibility/cel: field %q: eval %q: %w", fieldPath, rule, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("visibility/cel: field %q: rule %q returned %T, want bool", fieldPath, rule, out.Value())
	}
	return result, nil
}

func (e *Evaluator) program(rule string) (celgo.Program, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, fmt.Errorf("visibility/cel: expression must not be empty")
	}
	if cached, ok := e.programs.Load(trimmed); ok {
		return cached.(celgo.Program), nil
	}

	ast, issues := e.env.Compile(trimmed)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("visibility/cel: compile %q: %w", trimmed, issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("visibility/cel: program %q: %w", trimmed, err)
	}
	e.programs.Store(trimmed, program)
	return program, nil
}
