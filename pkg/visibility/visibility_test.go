package visibility

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContextEnv(t *testing.T) {
	t.Parallel()

	ctx := Context{
		Values:  map[string]any{"attendeeType": "speaker"},
		Current: "speaker",
	}
	want := map[string]any{
		"attendeeType": "speaker",
		"value":        "speaker",
		"extras":       map[string]any{},
	}
	if diff := cmp.Diff(want, ctx.Env()); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	always := EvaluatorFunc(func(string, string, Context) (bool, error) { return true, nil })
	never := EvaluatorFunc(func(string, string, Context) (bool, error) { return false, nil })

	registry := NewRegistry()
	registry.MustRegister("Expr", always)
	registry.MustRegister("cel", never)

	if err := registry.Register("", always); err == nil {
		t.Fatalf("expected error for empty engine name")
	}
	if err := registry.Register("js", nil); err == nil {
		t.Fatalf("expected error for nil evaluator")
	}

	fallback, err := registry.Lookup("")
	if err != nil {
		t.Fatalf("Lookup default returned error: %v", err)
	}
	if ok, _ := fallback.Eval("x", "", Context{}); !ok {
		t.Fatalf("expected first registered engine to be the default")
	}

	if err := registry.SetDefault("cel"); err != nil {
		t.Fatalf("SetDefault returned error: %v", err)
	}
	fallback, _ = registry.Lookup(" ")
	if ok, _ := fallback.Eval("x", "", Context{}); ok {
		t.Fatalf("expected cel to be the default after SetDefault")
	}

	if _, err := registry.Lookup("lua"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
	if err := registry.SetDefault("lua"); err == nil {
		t.Fatalf("expected SetDefault to reject unknown engines")
	}
	if diff := cmp.Diff([]string{"cel", "expr"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
