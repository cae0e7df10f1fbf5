package dependency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath marks rules that reference malformed or unknown paths.
	ErrInvalidPath = errors.New("dependency: invalid path")
	// ErrInvalidPredicate marks rules whose predicate is missing or does not compile.
	ErrInvalidPredicate = errors.New("dependency: invalid predicate")
	// ErrCyclicDependency marks rule sets whose activation state cannot settle.
	ErrCyclicDependency = errors.New("dependency: cyclic dependency")
)

// InvalidPathError reports which rule and path failed registration.
type InvalidPathError struct {
	Rule string
	Path string
	Err  error
}

func (e *InvalidPathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dependency: rule %s: invalid path %q: %v", e.Rule, e.Path, e.Err)
}

func (e *InvalidPathError) Is(target error) bool { return target == ErrInvalidPath }

func (e *InvalidPathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidPredicateError reports a rule whose predicate was rejected.
type InvalidPredicateError struct {
	Rule string
	Err  error
}

func (e *InvalidPredicateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dependency: rule %s: invalid predicate: %v", e.Rule, e.Err)
}

func (e *InvalidPredicateError) Is(target error) bool { return target == ErrInvalidPredicate }

func (e *InvalidPredicateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CyclicDependencyError lists the rules that could not be ordered, or the
// fields still changing when the pass limit was hit.
type CyclicDependencyError struct {
	Rules  []string
	Passes int
}

func (e *CyclicDependencyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Passes > 0 {
		return fmt.Sprintf("dependency: cyclic dependency: activation did not settle after %d passes (unstable: %s)", e.Passes, strings.Join(e.Rules, ", "))
	}
	return fmt.Sprintf("dependency: cyclic dependency between rules: %s", strings.Join(e.Rules, ", "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// EvaluationError wraps a predicate failure with the rule that raised it.
type EvaluationError struct {
	Rule  string
	Watch string
	Field string
	Err   error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dependency: rule %s (watch=%s field=%s): %v", e.Rule, e.Watch, e.Field, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
