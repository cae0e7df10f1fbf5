// Package form hosts a live snapshot of form values on top of the
// dependency tracker.
//
// Every write re-evaluates the rule set and applies the result atomically, so
// fields that become inactive lose their values (unless their rule keeps
// them) and validation never reports issues for fields that are not part of
// the form.
package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-formdeps/pkg/dependency"
	"github.com/goliatone/go-formdeps/pkg/diff"
	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// SubmitFunc receives the active values of a valid form.
type SubmitFunc func(ctx context.Context, values map[string]any) error

// PatchFunc receives the values that changed since the last commit.
type PatchFunc func(ctx context.Context, patch map[string]any) error

// Form is safe for concurrent use.
type Form struct {
	mu        sync.RWMutex
	rules     *dependency.RuleSet
	schema    *schema.Schema
	sanitizer Sanitizer
	mode      ValidateMode

	defaults map[string]any
	initial  map[string]any
	baseline map[string]any
	values   map[string]any
	state    dependency.Result
	issues   schema.Result
}

// New builds a form over rules. A nil rule set yields a form without
// conditional fields. Construction fails when the initial values cannot be
// evaluated, for example because the rules are cyclic.
func New(rules *dependency.RuleSet, opts ...Option) (*Form, error) {
	f := &Form{
		rules:  rules,
		issues: schema.Result{Valid: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.defaults == nil {
		f.defaults = make(map[string]any)
	}
	f.defaults = sanitizeValues(f.sanitizer, f.defaults)

	start := fieldpath.Clone(f.defaults)
	merge(start, sanitizeValues(f.sanitizer, f.initial))
	if err := f.apply(start); err != nil {
		return nil, err
	}
	f.baseline = f.activeValues()
	return f, nil
}

// Values returns a copy of the current snapshot, including values retained
// for inactive fields.
func (f *Form) Values() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fieldpath.Clone(f.values)
}

// ActiveValues returns a copy of the snapshot without inactive fields.
func (f *Form) ActiveValues() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.activeValues()
}

// State returns the latest evaluation result.
func (f *Form) State() dependency.Result {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return dependency.Result{
		Active:   f.state.Active.Clone(),
		Inactive: f.state.Inactive.Clone(),
		Values:   fieldpath.Clone(f.state.Values),
		Passes:   f.state.Passes,
	}
}

// Get reads the value at path.
func (f *Form) Get(path string) (any, bool) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, false
	}
	return f.get(p)
}

func (f *Form) get(p fieldpath.Path) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := fieldpath.Get(f.values, p)
	return fieldpath.CloneValue(value), ok
}

// Set writes value at path and re-evaluates the dependency rules. Writes to
// inactive fields fail with ErrInactiveField. When evaluation fails the form
// is left untouched.
func (f *Form) Set(path string, value any) error {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return fmt.Errorf("form: set %q: %w", path, err)
	}
	return f.set(p, value)
}

func (f *Form) set(p fieldpath.Path, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.schema != nil {
		if err := f.schema.CheckPath(p); err != nil {
			return fmt.Errorf("form: set %q: %w", p, err)
		}
	}
	if !f.state.Registered(p) {
		return fmt.Errorf("form: set %q: %w", p, ErrInactiveField)
	}

	candidate := fieldpath.Clone(f.values)
	if err := fieldpath.Set(candidate, p, sanitizeValue(f.sanitizer, value)); err != nil {
		return fmt.Errorf("form: set %q: %w", p, err)
	}
	if err := f.apply(candidate); err != nil {
		return err
	}
	// Once issues are showing they follow every edit.
	if f.mode == OnChange || !f.issues.Valid {
		f.issues = f.validate()
	}
	return nil
}

// Active returns the governed fields that are currently active.
func (f *Form) Active() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Active.Strings()
}

// IsActive reports whether path is part of the form. Fields not governed by
// any rule are active unless they sit below an inactive field.
func (f *Form) IsActive(path string) bool {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return false
	}
	return f.isActive(p)
}

func (f *Form) isActive(p fieldpath.Path) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Registered(p)
}

// Dirty reports whether any active field differs from the defaults.
func (f *Form) Dirty() bool {
	return len(f.DirtyFields()) > 0
}

// DirtyFields lists the active leaf paths that differ from the defaults.
func (f *Form) DirtyFields() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []string
	for _, p := range diff.Dirty(f.defaults, f.values) {
		if f.state.Registered(p) {
			out = append(out, p.String())
		}
	}
	return out
}

// Errors returns the issues from the most recent validation.
func (f *Form) Errors() schema.Result {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.issues
}

// Blur signals that the user left a field. Forms in OnBlur mode validate.
func (f *Form) Blur() schema.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == OnBlur || !f.issues.Valid {
		f.issues = f.validate()
	}
	return f.issues
}

// Validate checks the active values against the schema and stores the
// result. Issues reported for inactive fields are dropped.
func (f *Form) Validate() schema.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues = f.validate()
	return f.issues
}

// Reset replaces the defaults with values (when non-nil), re-evaluates and
// commits the result as the new clean baseline.
func (f *Form) Reset(values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	defaults := f.defaults
	if values != nil {
		defaults = sanitizeValues(f.sanitizer, fieldpath.Clone(values))
	}
	if err := f.apply(fieldpath.Clone(defaults)); err != nil {
		return err
	}
	f.defaults = defaults
	f.baseline = f.activeValues()
	f.issues = schema.Result{Valid: true}
	return nil
}

// HandleSubmit validates the form and, when valid, calls fn with a copy of
// the active values. Invalid forms return a *ValidationError.
func (f *Form) HandleSubmit(ctx context.Context, fn SubmitFunc) error {
	f.mu.Lock()
	f.issues = f.validate()
	if !f.issues.Valid {
		err := &ValidationError{Result: f.issues}
		f.mu.Unlock()
		return err
	}
	values := f.activeValues()
	f.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, values)
}

// HandleBlur implements submit-on-blur. It validates the form and calls fn
// with the fields updated since the last commit, but only when the active
// values differ from that baseline. After fn succeeds the current values
// become the new baseline. The boolean reports whether fn was called.
func (f *Form) HandleBlur(ctx context.Context, fn PatchFunc) (bool, error) {
	f.mu.Lock()
	f.issues = f.validate()
	if !f.issues.Valid {
		err := &ValidationError{Result: f.issues}
		f.mu.Unlock()
		return false, err
	}
	current := f.activeValues()
	if diff.Equal(f.baseline, current) {
		f.mu.Unlock()
		return false, nil
	}
	patch := diff.Updated(f.baseline, current)
	f.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, patch); err != nil {
			return true, err
		}
	}

	f.mu.Lock()
	f.baseline = current
	f.mu.Unlock()
	return true, nil
}

func (f *Form) apply(values map[string]any) error {
	result, err := f.rules.Evaluate(values)
	if err != nil {
		return err
	}
	f.values = result.Values
	f.state = result
	return nil
}

func (f *Form) activeValues() map[string]any {
	out := fieldpath.Clone(f.values)
	for _, p := range f.state.Inactive.Paths() {
		fieldpath.Delete(out, p)
	}
	return out
}

func (f *Form) validate() schema.Result {
	if f.schema == nil {
		return schema.Result{Valid: true}
	}
	result := f.schema.Validate(f.activeValues())
	return result.Filter(func(issue schema.Issue) bool {
		if issue.Field == "" {
			return true
		}
		p, err := fieldpath.Parse(issue.Field)
		if err != nil {
			return true
		}
		return f.state.Registered(p)
	})
}

// merge copies src into dst, descending into objects present on both sides.
func merge(dst, src map[string]any) {
	for key, value := range src {
		nested, ok := value.(map[string]any)
		existing, exists := dst[key].(map[string]any)
		if ok && exists {
			merge(existing, nested)
			continue
		}
		dst[key] = fieldpath.CloneValue(value)
	}
}
