package visibility

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Evaluator decides whether a rule string holds for the supplied context.
// Rule evaluators back expression predicates of dependency rules.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Compiler is implemented by evaluators that can check a rule ahead of time.
// Rule sets call Compile at registration so malformed expressions fail fast.
type Compiler interface {
	Compile(rule string) error
}

// Context provides inputs to an Evaluator. Values holds the full form snapshot,
// Current the value at the watched path (exposed to rules as `value`) and
// Extras arbitrary caller context such as user roles or feature flags.
type Context struct {
	Values  map[string]any
	Current any
	Extras  map[string]any
}

// Env flattens the context into the variable set seen by expression engines.
// Snapshot keys win over the reserved `value` and `extras` names.
func (c Context) Env() map[string]any {
	env := make(map[string]any, len(c.Values)+2)
	env[CurrentValueName] = c.Current
	extras := c.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	env[ExtrasName] = extras
	for key, value := range c.Values {
		env[key] = value
	}
	return env
}

const (
	// CurrentValueName is the identifier bound to Context.Current.
	CurrentValueName = "value"
	// ExtrasName is the identifier bound to Context.Extras.
	ExtrasName = "extras"
)

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Registry maps engine names ("expr", "cel", ...) to evaluators.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
	fallback   string
}

// NewRegistry returns an empty registry. The first registered engine becomes
// the default unless SetDefault is called.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Register adds or replaces an evaluator under name.
func (r *Registry) Register(name string, evaluator Evaluator) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("visibility: engine name is required")
	}
	if evaluator == nil {
		return fmt.Errorf("visibility: engine %q: evaluator is nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[key] = evaluator
	if r.fallback == "" {
		r.fallback = key
	}
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(name string, evaluator Evaluator) {
	if err := r.Register(name, evaluator); err != nil {
		panic(err)
	}
}

// SetDefault selects the engine used when a lookup name is empty.
func (r *Registry) SetDefault(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evaluators[key]; !ok {
		return fmt.Errorf("visibility: unknown engine %q", name)
	}
	r.fallback = key
	return nil
}

// Lookup returns the evaluator for name, or the default when name is empty.
func (r *Registry) Lookup(name string) (Evaluator, error) {
	if r == nil {
		return nil, fmt.Errorf("visibility: registry is nil")
	}
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key == "" {
		key = r.fallback
	}
	evaluator, ok := r.evaluators[key]
	if !ok {
		return nil, fmt.Errorf("visibility: unknown engine %q (available: %s)", name, strings.Join(r.namesLocked(), ", "))
	}
	return evaluator, nil
}

// Names lists registered engines in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.evaluators))
	for name := range r.evaluators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
