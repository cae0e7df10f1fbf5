//go:build !js_eval

package js

import "github.com/goliatone/go-formdeps/pkg/visibility"

// Evaluator is a placeholder that always reports ErrUnavailable.
type Evaluator struct{}

var (
	_ visibility.Evaluator = (*Evaluator)(nil)
	_ visibility.Compiler  = (*Evaluator)(nil)
)

// New returns the placeholder evaluator.
func New() *Evaluator { return &Evaluator{} }

// Available reports whether the JS engine is compiled in.
func Available() bool { return false }

// Compile always fails without the js_eval build tag.
func (*Evaluator) Compile(string) error { return ErrUnavailable }

// Eval always fails without the js_eval build tag.
func (*Evaluator) Eval(string, string, visibility.Context) (bool, error) {
	return false, ErrUnavailable
}
