package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdeps/pkg/definition"
)

// FieldInfo is what kind matchers inspect: the listed field plus the schema
// node it resolves to (nil when the form has no schema for it).
type FieldInfo struct {
	Field  definition.Field
	Schema *openapi3.Schema
}

// Options returns the field's own options, falling back to the schema enum.
func (fi FieldInfo) Options() []string {
	if len(fi.Field.Options) > 0 {
		return fi.Field.Options
	}
	if fi.Schema == nil {
		return nil
	}
	var out []string
	for _, value := range fi.Schema.Enum {
		out = append(out, fmt.Sprint(value))
	}
	return out
}

func (fi FieldInfo) hasType(typ string) bool {
	return fi.Schema != nil && fi.Schema.Type != nil && fi.Schema.Type.Is(typ)
}

// Matcher decides whether a prompt kind should handle a field.
type Matcher func(FieldInfo) bool

type kindRule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// KindRegistry picks the prompt kind for a field. An explicit kind on the
// field wins; otherwise higher priority matchers are tried first and ties
// fall back to registration order. Unmatched fields are prompted as text.
type KindRegistry struct {
	mu    sync.RWMutex
	rules []kindRule
}

// NewKindRegistry returns a registry with the built-in matchers.
func NewKindRegistry() *KindRegistry {
	reg := &KindRegistry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher for name.
func (r *KindRegistry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, kindRule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the prompt kind for info.
func (r *KindRegistry) Resolve(info FieldInfo) string {
	if explicit := strings.TrimSpace(info.Field.Kind); explicit != "" {
		return explicit
	}
	if r == nil {
		return KindText
	}
	r.mu.RLock()
	rules := append([]kindRule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(info) {
			return entry.name
		}
	}
	return KindText
}

func (r *KindRegistry) registerBuiltins() {
	r.Register(KindSelect, 90, func(info FieldInfo) bool {
		return len(info.Options()) > 0
	})
	r.Register(KindConfirm, 80, func(info FieldInfo) bool {
		return info.hasType(openapi3.TypeBoolean)
	})
	r.Register(KindInteger, 70, func(info FieldInfo) bool {
		return info.hasType(openapi3.TypeInteger)
	})
	r.Register(KindNumber, 60, func(info FieldInfo) bool {
		return info.hasType(openapi3.TypeNumber)
	})
}
