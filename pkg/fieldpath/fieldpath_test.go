package fieldpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Notations(t *testing.T) {
	t.Parallel()

	want := Path{Key("wishlist"), Index(1), Key("text")}
	inputs := []string{
		"wishlist.1.text",
		"wishlist[1].text",
		"/wishlist/1/text",
		"#/wishlist/1/text",
		"$.wishlist[1].text",
		"  wishlist.1.text  ",
	}
	for _, input := range inputs {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", input, err)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParse_PointerEscapes(t *testing.T) {
	t.Parallel()

	got, err := Parse("/a~1b/c~0d")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := Path{Key("a/b"), Key("c~d")}
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got.Pointer() != "/a~1b/c~0d" {
		t.Fatalf("expected pointer round trip, got %q", got.Pointer())
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "   ", "a..b", "a.", "a[0", "a]0", "a[[0]]", "/"}
	for _, input := range inputs {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Parse(%q) expected ErrInvalidPath, got %v", input, err)
		}
	}
}

func TestParse_RejectsSeparatorsInKeys(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"/a.b", "/a[0]", "#/items/x]"} {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Parse(%q) expected ErrInvalidPath, got %v", input, err)
		}
	}
	if _, err := New("a.b"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("New(\"a.b\") expected ErrInvalidPath, got %v", err)
	}
	if _, err := New(Key("a[0]")); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("New(Key(\"a[0]\")) expected ErrInvalidPath, got %v", err)
	}
}

func TestNew_RejectsNegativeIndex(t *testing.T) {
	t.Parallel()

	if _, err := New("items", -1); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	p, err := New("items", 2, "name")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.String() != "items.2.name" {
		t.Fatalf("unexpected path %q", p)
	}
}

func TestPath_Relations(t *testing.T) {
	t.Parallel()

	names := MustParse("names")
	first := MustParse("names.firstName")

	if !first.HasPrefix(names) {
		t.Fatalf("expected %v to have prefix %v", first, names)
	}
	if names.HasPrefix(first) {
		t.Fatalf("prefix relation must not be symmetric")
	}
	if !names.Overlaps(first) || !first.Overlaps(names) {
		t.Fatalf("expected overlap in both directions")
	}
	if MustParse("username").Overlaps(names) {
		t.Fatalf("unrelated paths must not overlap")
	}
	if !first.Parent().Equal(names) {
		t.Fatalf("unexpected parent %v", first.Parent())
	}
}

func TestMountUnmount(t *testing.T) {
	t.Parallel()

	prefix := MustParse("names")
	mounted := Mount(prefix, MustParse("lastName"))
	if mounted.String() != "names.lastName" {
		t.Fatalf("unexpected mounted path %q", mounted)
	}
	child, ok := Unmount(prefix, mounted)
	if !ok || child.String() != "lastName" {
		t.Fatalf("unexpected unmount result %q (%v)", child, ok)
	}
	if _, ok := Unmount(prefix, MustParse("username")); ok {
		t.Fatalf("expected unmount outside prefix to fail")
	}
}

func TestGetSetDelete(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"username": "user123",
		"names": map[string]any{
			"firstName": "Steve",
		},
	}

	if err := Set(values, MustParse("names.lastName"), "Stevenson"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := Set(values, MustParse("wishlist.1.text"), "Item 2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	want := map[string]any{
		"username": "user123",
		"names": map[string]any{
			"firstName": "Steve",
			"lastName":  "Stevenson",
		},
		"wishlist": []any{
			nil,
			map[string]any{"text": "Item 2"},
		},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	got, ok := Get(values, MustParse("wishlist[1].text"))
	if !ok || got != "Item 2" {
		t.Fatalf("unexpected Get result %v (%v)", got, ok)
	}

	if !Delete(values, MustParse("names.firstName")) {
		t.Fatalf("expected delete to report removal")
	}
	if Has(values, MustParse("names.firstName")) {
		t.Fatalf("expected names.firstName to be removed")
	}
	if Delete(values, MustParse("names.firstName")) {
		t.Fatalf("second delete must report nothing removed")
	}
	if !Delete(values, MustParse("wishlist.1")) {
		t.Fatalf("expected index delete to report removal")
	}
	if list := values["wishlist"].([]any); len(list) != 2 || list[1] != nil {
		t.Fatalf("expected index slot to be cleared in place, got %#v", list)
	}
}

func TestTypedContainers(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"prefs": map[string]string{"color": "red", "size": "m"},
		"items": []map[string]any{{"text": "a"}, {"text": "b"}},
	}

	if got, ok := Get(values, MustParse("prefs.color")); !ok || got != "red" {
		t.Fatalf("unexpected Get result %v (%v)", got, ok)
	}
	if !Delete(values, MustParse("prefs.color")) {
		t.Fatalf("expected delete from map[string]string to report removal")
	}
	if Has(values, MustParse("prefs.color")) {
		t.Fatalf("expected prefs.color to be removed")
	}
	if !Delete(values, MustParse("items.0")) {
		t.Fatalf("expected delete from []map[string]any to report removal")
	}

	if err := Set(values, MustParse("prefs.count"), 2); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := Set(values, MustParse("items.1.done"), true); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	want := map[string]any{
		"prefs": map[string]any{"size": "m", "count": 2},
		"items": []any{map[string]any(nil), map[string]any{"text": "b", "done": true}},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	clone := CloneValue(map[string]string{"k": "v"})
	if _, ok := clone.(map[string]any); !ok {
		t.Fatalf("expected clone to be map[string]any, got %T", clone)
	}
}

func TestGet_FlattenedKeys(t *testing.T) {
	t.Parallel()

	values := map[string]any{"cta.headline": "Hello"}
	got, ok := Get(values, MustParse("cta.headline"))
	if !ok || got != "Hello" {
		t.Fatalf("expected flattened lookup, got %v (%v)", got, ok)
	}
	if !Delete(values, MustParse("cta.headline")) {
		t.Fatalf("expected flattened key delete")
	}
	if len(values) != 0 {
		t.Fatalf("expected empty values, got %#v", values)
	}
}

func TestSet_Errors(t *testing.T) {
	t.Parallel()

	values := map[string]any{"username": "x"}
	if err := Set(values, MustParse("username.first"), "y"); err == nil {
		t.Fatalf("expected error when writing through a scalar")
	}
	if err := Set(values, Path{Index(0)}, "y"); err == nil {
		t.Fatalf("expected error for index at root")
	}
	if err := Set(nil, MustParse("a"), 1); err == nil {
		t.Fatalf("expected error for nil map")
	}
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"names": map[string]any{"firstName": "Steve"},
		"tags":  []any{"a"},
	}
	clone := Clone(values)
	clone["names"].(map[string]any)["firstName"] = "John"
	clone["tags"].([]any)[0] = "b"

	if values["names"].(map[string]any)["firstName"] != "Steve" {
		t.Fatalf("clone shares nested map with source")
	}
	if values["tags"].([]any)[0] != "a" {
		t.Fatalf("clone shares nested slice with source")
	}
}

func TestPathSet(t *testing.T) {
	t.Parallel()

	set := NewPathSet(MustParse("b"), MustParse("a.c"))
	if !set.Has(MustParse("a.c")) || set.Has(MustParse("a")) {
		t.Fatalf("unexpected membership")
	}
	if !set.Covers(MustParse("a.c.d")) || set.Covers(MustParse("a")) {
		t.Fatalf("unexpected coverage")
	}
	if diff := cmp.Diff([]string{"a.c", "b"}, set.Strings()); diff != "" {
		t.Fatalf("strings mismatch (-want +got):\n%s", diff)
	}
	clone := set.Clone()
	clone.Remove(MustParse("b"))
	if set.Equal(clone) {
		t.Fatalf("expected sets to differ after removal")
	}
}
