//go:build js_eval

package js

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/goliatone/go-formdeps/pkg/visibility"
)

// Evaluator compiles each rule once; a fresh runtime is used per evaluation
// because goja runtimes are not safe for concurrent use.
type Evaluator struct {
	programs sync.Map // rule -> *goja.Program
}

var (
	_ visibility.Evaluator = (*Evaluator)(nil)
	_ visibility.Compiler  = (*Evaluator)(nil)
)

// New constructs a goja backed evaluator.
func New() *Evaluator { return &Evaluator{} }

// Available reports whether the JS engine is compiled in.
func Available() bool { return true }

// Compile checks that rule is a valid JavaScript expression.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.program(rule)
	return err
}

// Eval runs rule in a fresh runtime seeded from ctx.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	program, err := e.program(rule)
	if err != nil {
		return false, err
	}

	vm := goja.New()
	for key, value := range ctx.Env() {
		if err := vm.Set(key, value); err != nil {
			return false, fmt.Errorf("visibility/js: field %q: bind %q: %w", fieldPath, key, err)
		}
	}
	values := ctx.Values
	if values == nil {
		values = map[string]any{}
	}
	if err := vm.Set("values", values); err != nil {
		return false, fmt.Errorf("visibility/js: field %q: bind values: %w", fieldPath, err)
	}

	out, err := vm.RunProgram(program)
	if err != nil {
		return false, fmt.Errorf("visibility/js: field %q: run %q: %w", fieldPath, rule, err)
	}
	return out.ToBoolean(), nil
}

func (e *Evaluator) program(rule string) (*goja.Program, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, fmt.Errorf("visibility/js: expression must not be empty")
	}
	if cached, ok := e.programs.Load(trimmed); ok {
		return cached.(*goja.Program), nil
	}
	program, err := goja.Compile("rule", wrapExpression(trimmed), true)
	if err != nil {
		return nil, fmt.Errorf("visibility/js: compile %q: %w", trimmed, err)
	}
	e.programs.Store(trimmed, program)
	return program, nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}
