package prompt

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdeps/pkg/definition"
)

func TestKindRegistry_Builtins(t *testing.T) {
	t.Parallel()

	reg := NewKindRegistry()
	cases := []struct {
		name string
		info FieldInfo
		want string
	}{
		{"no schema", FieldInfo{Field: definition.Field{Path: "a"}}, KindText},
		{"boolean", FieldInfo{Schema: openapi3.NewBoolSchema()}, KindConfirm},
		{"integer", FieldInfo{Schema: openapi3.NewIntegerSchema()}, KindInteger},
		{"number", FieldInfo{Schema: openapi3.NewFloat64Schema()}, KindNumber},
		{"enum", FieldInfo{Schema: openapi3.NewStringSchema().WithEnum("x", "y")}, KindSelect},
		{"explicit", FieldInfo{Field: definition.Field{Kind: "custom"}, Schema: openapi3.NewBoolSchema()}, "custom"},
	}
	for _, tc := range cases {
		if got := reg.Resolve(tc.info); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestKindRegistry_PriorityAndOrder(t *testing.T) {
	t.Parallel()

	reg := NewKindRegistry()
	always := func(FieldInfo) bool { return true }
	reg.Register("first", 10, always)
	reg.Register("second", 10, always)

	if got := reg.Resolve(FieldInfo{}); got != "first" {
		t.Fatalf("equal priority: got %q, want first", got)
	}

	reg.Register("secret", 100, func(info FieldInfo) bool {
		return info.Schema != nil && info.Schema.Format == "password"
	})
	info := FieldInfo{Schema: openapi3.NewStringSchema().WithFormat("password")}
	if got := reg.Resolve(info); got != "secret" {
		t.Fatalf("high priority: got %q, want secret", got)
	}
}

func TestSession_WithKindRegistry(t *testing.T) {
	t.Parallel()

	reg := &KindRegistry{}
	reg.Register(KindConfirm, 1, func(FieldInfo) bool { return true })
	session := NewSession(&stubDriver{}, nil, WithKindRegistry(reg))

	kind, options := session.describe(definition.Field{Path: "anything"})
	if kind != KindConfirm || options != nil {
		t.Fatalf("got %q %v, want confirm with no options", kind, options)
	}
}
