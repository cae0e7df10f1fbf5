package form

import (
	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// ValidateMode selects when the form validates on its own.
type ValidateMode int

const (
	// OnSubmit validates only inside HandleSubmit and HandleBlur.
	OnSubmit ValidateMode = iota
	// OnChange validates after every successful Set.
	OnChange
	// OnBlur validates when Blur is called for a field.
	OnBlur
)

func (m ValidateMode) String() string {
	switch m {
	case OnChange:
		return "onChange"
	case OnBlur:
		return "onBlur"
	default:
		return "onSubmit"
	}
}

// ParseValidateMode maps the names used in form definitions to a mode.
// Unknown names fall back to OnSubmit.
func ParseValidateMode(name string) ValidateMode {
	switch name {
	case "onChange", "onchange", "change":
		return OnChange
	case "onBlur", "onblur", "blur":
		return OnBlur
	default:
		return OnSubmit
	}
}

// Option configures a Form.
type Option func(*Form)

// WithSchema validates values and checks paths passed to Set.
func WithSchema(s *schema.Schema) Option {
	return func(f *Form) {
		f.schema = s
	}
}

// WithDefaults sets the baseline used for dirty tracking and Reset.
func WithDefaults(values map[string]any) Option {
	return func(f *Form) {
		f.defaults = fieldpath.Clone(values)
	}
}

// WithValues sets the initial values. Missing values fall back to the
// defaults.
func WithValues(values map[string]any) Option {
	return func(f *Form) {
		f.initial = fieldpath.Clone(values)
	}
}

// WithSanitizer cleans every string written through Set.
func WithSanitizer(s Sanitizer) Option {
	return func(f *Form) {
		f.sanitizer = s
	}
}

// WithValidateMode selects when validation runs.
func WithValidateMode(mode ValidateMode) Option {
	return func(f *Form) {
		f.mode = mode
	}
}
