package form

import (
	"fmt"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// Scope is a view of a Form rooted at a prefix. Child components address
// their own fields ("firstName") and the scope maps them into the parent
// path space ("owner.firstName").
type Scope struct {
	form   *Form
	prefix fieldpath.Path
}

// Scope returns a view rooted at prefix.
func (f *Form) Scope(prefix string) (*Scope, error) {
	p, err := fieldpath.Parse(prefix)
	if err != nil {
		return nil, fmt.Errorf("form: scope %q: %w", prefix, err)
	}
	return &Scope{form: f, prefix: p}, nil
}

// Scope nests another view below this one.
func (s *Scope) Scope(prefix string) (*Scope, error) {
	p, err := fieldpath.Parse(prefix)
	if err != nil {
		return nil, fmt.Errorf("form: scope %q: %w", prefix, err)
	}
	return &Scope{form: s.form, prefix: fieldpath.Mount(s.prefix, p)}, nil
}

// Prefix returns the dotted prefix of the view.
func (s *Scope) Prefix() string { return s.prefix.String() }

// Path maps a child path into the parent form.
func (s *Scope) Path(child string) (string, error) {
	p, err := s.resolve(child)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// Get reads a child field.
func (s *Scope) Get(child string) (any, bool) {
	p, err := s.resolve(child)
	if err != nil {
		return nil, false
	}
	return s.form.get(p)
}

// Set writes a child field through the parent form.
func (s *Scope) Set(child string, value any) error {
	p, err := s.resolve(child)
	if err != nil {
		return err
	}
	return s.form.set(p, value)
}

// IsActive reports whether a child field is part of the form.
func (s *Scope) IsActive(child string) bool {
	p, err := s.resolve(child)
	if err != nil {
		return false
	}
	return s.form.isActive(p)
}

// Values returns a copy of the object at the prefix.
func (s *Scope) Values() map[string]any {
	value, ok := s.form.get(s.prefix)
	if !ok {
		return map[string]any{}
	}
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Errors returns the form's issues below the prefix, with fields relative to
// the view.
func (s *Scope) Errors() schema.Result {
	out := schema.Result{Valid: true}
	for _, issue := range s.form.Errors().Issues {
		p, err := fieldpath.Parse(issue.Field)
		if err != nil || issue.Field == "" {
			continue
		}
		rel, ok := fieldpath.Unmount(s.prefix, p)
		if !ok || rel.IsRoot() {
			continue
		}
		issue.Field = rel.String()
		issue.Path = rel.Pointer()
		out.Issues = append(out.Issues, issue)
	}
	out.Valid = len(out.Issues) == 0
	return out
}

func (s *Scope) resolve(child string) (fieldpath.Path, error) {
	p, err := fieldpath.Parse(child)
	if err != nil {
		return nil, fmt.Errorf("form: scope %q: %w", s.prefix, err)
	}
	return fieldpath.Mount(s.prefix, p), nil
}
