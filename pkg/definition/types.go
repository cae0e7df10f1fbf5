package definition

import (
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// Definition is a validated form definition.
type Definition struct {
	ID           string
	Title        string
	Source       string
	ValidateMode form.ValidateMode
	Schema       *schema.Schema
	Defaults     map[string]any
	Fields       []Field
	Rules        []RuleConfig
}

// Field describes how a field is presented when prompting.
type Field struct {
	Path    string   `json:"path" yaml:"path"`
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Help    string   `json:"help,omitempty" yaml:"help,omitempty"`
	Kind    string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// RuleConfig is the declarative form of a dependency rule.
type RuleConfig struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Watch     string `json:"watch" yaml:"watch"`
	Field     string `json:"field" yaml:"field"`
	KeepValue bool   `json:"keepValue,omitempty" yaml:"keepValue,omitempty"`

	When    string `json:"when,omitempty" yaml:"when,omitempty"`
	Engine  string `json:"engine,omitempty" yaml:"engine,omitempty"`
	Equals  any    `json:"equals,omitempty" yaml:"equals,omitempty"`
	OneOf   []any  `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	Present bool   `json:"present,omitempty" yaml:"present,omitempty"`
	Truthy  bool   `json:"truthy,omitempty" yaml:"truthy,omitempty"`
	Not     bool   `json:"not,omitempty" yaml:"not,omitempty"`
}

func (r RuleConfig) hasCondition() bool {
	return r.When != "" || r.Equals != nil || len(r.OneOf) > 0 || r.Present || r.Truthy
}
