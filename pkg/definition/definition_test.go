package definition

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdeps/pkg/dependency"
	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

const attendeeDefinition = `
id: attendee
title: Conference registration
validateMode: onChange
schema:
  type: object
  required: [username, attendeeType]
  properties:
    username: { type: string, minLength: 2 }
    attendeeType: { type: string, enum: [attendee, speaker, sponsor] }
    affiliation: { type: string, enum: [company, private] }
    orgName: { type: string, minLength: 2 }
    newsletter: { type: boolean }
    topics: { type: string }
defaults:
  username: user123
  attendeeType: speaker
fields:
  - path: username
    label: Username
  - path: attendeeType
    label: Attendee type
  - path: affiliation
  - path: orgName
    label: Organisation
rules:
  - name: affiliation
    watch: attendeeType
    oneOf: [attendee, sponsor]
    field: affiliation
  - name: orgName
    watch: affiliation
    when: value == "company"
    field: orgName
  - name: topics
    watch: newsletter
    when: value == true
    engine: cel
    field: topics
    keepValue: true
`

const surveyDefinition = `{
  "title": "Survey",
  "schema": {"type": "object", "properties": {"rating": {"type": "integer"}, "comment": {"type": "string"}}},
  "rules": [{"watch": "rating", "field": "comment", "when": "value < 3", "engine": "exprlang"}]
}`

func loadStore(t *testing.T) *Store {
	t.Helper()
	store, err := LoadFS(fstest.MapFS{
		"forms/attendee.yaml": {Data: []byte(attendeeDefinition)},
		"forms/survey.json":   {Data: []byte(surveyDefinition)},
		"forms/README.md":     {Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("LoadFS returned error: %v", err)
	}
	return store
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	store := loadStore(t)
	if diff := cmp.Diff([]string{"attendee", "survey"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	def, ok := store.Definition("attendee")
	if !ok {
		t.Fatalf("attendee definition missing")
	}
	if def.ValidateMode != form.OnChange {
		t.Fatalf("expected onChange mode, got %s", def.ValidateMode)
	}
	if len(def.Fields) != 4 || def.Fields[3].Label != "Organisation" {
		t.Fatalf("unexpected fields %+v", def.Fields)
	}
	if len(def.Rules) != 3 || !def.Rules[2].KeepValue {
		t.Fatalf("unexpected rules %+v", def.Rules)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]fstest.MapFS{
		"duplicate id": {
			"a.yaml": {Data: []byte("id: same\n")},
			"b.yaml": {Data: []byte("id: same\n")},
		},
		"empty file": {
			"a.yaml": {Data: []byte("   ")},
		},
		"unknown rule path": {
			"a.yaml": {Data: []byte(`
schema: {type: object, properties: {a: {type: string}}}
rules: [{watch: a, field: missing, present: true}]
`)},
		},
		"rule without condition": {
			"a.yaml": {Data: []byte(`rules: [{watch: a, field: b}]`)},
		},
		"unknown field": {
			"a.yaml": {Data: []byte(`
schema: {type: object, properties: {a: {type: string}}}
fields: [{path: b}]
`)},
		},
	}

	for name, fsys := range cases {
		if _, err := LoadFS(fsys); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	_, err := LoadFS(cases["unknown rule path"])
	if !errors.Is(err, schema.ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath, got %v", err)
	}
}

func TestDefinition_RuleSet(t *testing.T) {
	t.Parallel()

	def, _ := loadStore(t).Definition("attendee")
	rules, err := def.RuleSet(nil)
	if err != nil {
		t.Fatalf("RuleSet returned error: %v", err)
	}

	result, err := rules.Evaluate(map[string]any{
		"username":     "user123",
		"attendeeType": "sponsor",
		"affiliation":  "company",
		"orgName":      "Acme",
		"newsletter":   false,
		"topics":       "go",
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"affiliation", "orgName"}, result.Active.Strings()); diff != "" {
		t.Fatalf("active mismatch (-want +got):\n%s", diff)
	}
	if result.Values["topics"] != "go" {
		t.Fatalf("expected kept topics value, got %v", result.Values)
	}
}

func TestDefinition_ExprLangEngine(t *testing.T) {
	t.Parallel()

	def, _ := loadStore(t).Definition("survey")
	rules, err := def.RuleSet(nil)
	if err != nil {
		t.Fatalf("RuleSet returned error: %v", err)
	}
	result, err := rules.Evaluate(map[string]any{"rating": 2, "comment": "slow"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.IsActive(dependencyPath(t, "comment")) {
		t.Fatalf("expected comment active for low rating")
	}
}

func TestDefinition_UnknownEngine(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte(`
rules: [{watch: a, field: b, when: "a", engine: lua}]
`), "inline.yaml")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, err := def.RuleSet(nil); err == nil || !strings.Contains(err.Error(), "lua") {
		t.Fatalf("expected unknown engine error, got %v", err)
	}
}

func TestDefinition_InvalidExpression(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte(`
rules: [{watch: a, field: b, when: "a == "}]
`), "inline.yaml")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, err := def.RuleSet(nil); !errors.Is(err, dependency.ErrInvalidPredicate) {
		t.Fatalf("expected ErrInvalidPredicate, got %v", err)
	}
}

func TestDefinition_CyclicRules(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte(`
rules:
  - {watch: a, field: b, equals: x}
  - {watch: b, field: a, equals: y}
`), "inline.yaml")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, err := def.RuleSet(nil); !errors.Is(err, dependency.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestDefinition_NewForm(t *testing.T) {
	t.Parallel()

	def, _ := loadStore(t).Definition("attendee")
	f, err := def.NewForm(nil)
	if err != nil {
		t.Fatalf("NewForm returned error: %v", err)
	}
	if err := f.Set("username", "x"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if f.Errors().Valid {
		t.Fatalf("onChange definition should validate on Set")
	}
	if f.IsActive("affiliation") {
		t.Fatalf("affiliation should be inactive for speakers")
	}
}

func dependencyPath(t *testing.T, raw string) fieldpath.Path {
	t.Helper()
	p, err := fieldpath.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", raw, err)
	}
	return p
}
