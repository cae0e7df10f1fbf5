package cel

import (
	"testing"

	"github.com/goliatone/go-formdeps/pkg/visibility"
)

func TestEvaluator_Eval(t *testing.T) {
	t.Parallel()

	eval := MustNew()
	ctx := visibility.Context{
		Values: map[string]any{
			"attendeeType": "speaker",
			"affiliation":  "company",
		},
		Current: "company",
		Extras:  map[string]any{"role": "admin"},
	}

	cases := map[string]bool{
		`value == "company"`:                           true,
		`values.attendeeType == "speaker"`:             true,
		`has(values.orgName) && values.orgName != ""`:  false,
		`value in ["company", "private"]`:              true,
		`extras.role == "admin" && value != "private"`: true,
	}
	for rule, want := range cases {
		got, err := eval.Eval("orgName", rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}
}

func TestEvaluator_UnsetCurrentValue(t *testing.T) {
	t.Parallel()

	eval := MustNew()
	ok, err := eval.Eval("c", `value == "y"`, visibility.Context{})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected null value to not match")
	}
}

func TestEvaluator_Compile(t *testing.T) {
	t.Parallel()

	eval := MustNew()
	if err := eval.Compile(`value == "x"`); err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if err := eval.Compile(`undeclared == 1`); err == nil {
		t.Fatalf("expected undeclared reference to fail type-check")
	}
	if err := eval.Compile(`value ==`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEvaluator_NonBoolResult(t *testing.T) {
	t.Parallel()

	eval := MustNew()
	if _, err := eval.Eval("x", `"text"`, visibility.Context{}); err == nil {
		t.Fatalf("expected error for non-boolean result")
	}
}
