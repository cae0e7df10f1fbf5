package expr

import (
	"testing"

	"github.com/goliatone/go-formdeps/pkg/visibility"
)

func mustEval(t *testing.T, eval *Evaluator, rule string, ctx visibility.Context) bool {
	t.Helper()
	ok, err := eval.Eval("field", rule, ctx)
	if err != nil {
		t.Fatalf("Eval(%q) returned error: %v", rule, err)
	}
	return ok
}

func TestEvaluatorEquality(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := visibility.Context{Values: map[string]any{"attendeeType": "speaker", "enabled": "true"}}

	if !mustEval(t, eval, `attendeeType == "speaker"`, ctx) {
		t.Fatalf("expected quoted string match")
	}
	if !mustEval(t, eval, `attendeeType == 'speaker'`, ctx) {
		t.Fatalf("expected single-quoted string match")
	}
	if !mustEval(t, eval, `attendeeType == speaker`, ctx) {
		t.Fatalf("expected bare word match")
	}
	if mustEval(t, eval, `attendeeType != "speaker"`, ctx) {
		t.Fatalf("expected inequality to be false")
	}
	if !mustEval(t, eval, `enabled == true`, ctx) {
		t.Fatalf("expected string true to coerce to bool")
	}
}

func TestEvaluatorCurrentValue(t *testing.T) {
	t.Parallel()

	eval := New()

	if !mustEval(t, eval, `value == "company"`, visibility.Context{Current: "company"}) {
		t.Fatalf("expected value to resolve to Context.Current")
	}
	if !mustEval(t, eval, `value == null`, visibility.Context{}) {
		t.Fatalf("expected unset current value to equal null")
	}
	if !mustEval(t, eval, `value == "snapshot"`, visibility.Context{
		Values:  map[string]any{"value": "snapshot"},
		Current: "current",
	}) {
		t.Fatalf("expected snapshot field named value to win")
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	if !mustEval(t, eval, "enabled", visibility.Context{Values: map[string]any{"enabled": true}}) {
		t.Fatalf("expected true")
	}
	if !mustEval(t, eval, "!enabled", visibility.Context{Values: map[string]any{"enabled": false}}) {
		t.Fatalf("expected true for !false")
	}
	if mustEval(t, eval, "missing", visibility.Context{}) {
		t.Fatalf("expected missing identifier to be falsy")
	}
}

func TestEvaluatorOrdering(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := visibility.Context{Values: map[string]any{"count": 2.0, "label": "2"}}

	cases := map[string]bool{
		"count >= 2":  true,
		"count > 2":   false,
		"count < 3":   true,
		"count <= 1":  false,
		"label >= 2":  true,
		"missing > 0": false,
	}
	for rule, want := range cases {
		if got := mustEval(t, eval, rule, ctx); got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}

	if _, err := eval.Eval("field", `count > "x"`, ctx); err == nil {
		t.Fatalf("expected error for ordering against a string literal")
	}
}

func TestEvaluatorPathLookup(t *testing.T) {
	t.Parallel()

	eval := New()

	if !mustEval(t, eval, `cta.headline != ""`, visibility.Context{
		Values: map[string]any{"cta.headline": "Hello"},
	}) {
		t.Fatalf("expected true for flattened dotted key")
	}
	if !mustEval(t, eval, `wishlist[1].text == "Item 2"`, visibility.Context{
		Values: map[string]any{
			"wishlist": []any{
				map[string]any{"text": "Item 1"},
				map[string]any{"text": "Item 2"},
			},
		},
	}) {
		t.Fatalf("expected bracketed index lookup")
	}
	if !mustEval(t, eval, `extras.role == "admin"`, visibility.Context{
		Extras: map[string]any{"role": "admin"},
	}) {
		t.Fatalf("expected extras lookup")
	}
}

func TestEvaluatorBooleanComposition(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := visibility.Context{Values: map[string]any{
		"attendeeType": "speaker",
		"affiliation":  "company",
	}}

	if !mustEval(t, eval, `attendeeType == "speaker" && affiliation == "company"`, ctx) {
		t.Fatalf("expected conjunction to hold")
	}
	if mustEval(t, eval, `attendeeType == "sponsor" && affiliation == "company"`, ctx) {
		t.Fatalf("expected conjunction mismatch")
	}
	if !mustEval(t, eval, `attendeeType == "sponsor" || (affiliation == "company" && !missing)`, ctx) {
		t.Fatalf("expected grouped disjunction to hold")
	}
}

func TestEvaluatorCompile(t *testing.T) {
	t.Parallel()

	eval := New()
	if err := eval.Compile(`value == "x"`); err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	for _, rule := range []string{`a = 1`, `a & b`, `(a == 1`, `a == `, `== 1`, `"open`} {
		if err := eval.Compile(rule); err == nil {
			t.Fatalf("Compile(%q) expected error", rule)
		}
	}
	if ok := mustEval(t, eval, "   ", visibility.Context{}); !ok {
		t.Fatalf("expected empty rule to hold")
	}
}
