package fieldarray

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdeps/pkg/form"
)

func newWishlist(t *testing.T) (*form.Form, *Array) {
	t.Helper()
	f, err := form.New(nil, form.WithDefaults(map[string]any{
		"username": "user123",
		"wishlist": []any{
			map[string]any{"id": "1", "text": "Item 1"},
			map[string]any{"id": "2", "text": "Item 2"},
		},
	}))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}

	n := 0
	arr, err := New(f, "wishlist", WithKeyFunc(func() string {
		n++
		return fmt.Sprintf("k%d", n)
	}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return f, arr
}

func ids(t *testing.T, arr *Array) []string {
	t.Helper()
	var out []string
	for _, item := range arr.Fields() {
		out = append(out, item.Value.(map[string]any)["id"].(string))
	}
	return out
}

func keys(arr *Array) []string {
	var out []string
	for _, item := range arr.Fields() {
		out = append(out, item.Key)
	}
	return out
}

func TestArray_Operations(t *testing.T) {
	t.Parallel()

	f, arr := newWishlist(t)
	if diff := cmp.Diff([]string{"k1", "k2"}, keys(arr)); diff != "" {
		t.Fatalf("initial keys mismatch (-want +got):\n%s", diff)
	}

	steps := []struct {
		name string
		op   func() error
		ids  []string
		keys []string
	}{
		{"append", func() error { return arr.Append(map[string]any{"id": "3"}) }, []string{"1", "2", "3"}, []string{"k1", "k2", "k3"}},
		{"prepend", func() error { return arr.Prepend(map[string]any{"id": "0"}) }, []string{"0", "1", "2", "3"}, []string{"k4", "k1", "k2", "k3"}},
		{"insert", func() error { return arr.Insert(2, map[string]any{"id": "x"}) }, []string{"0", "1", "x", "2", "3"}, []string{"k4", "k1", "k5", "k2", "k3"}},
		{"swap", func() error { return arr.Swap(0, 4) }, []string{"3", "1", "x", "2", "0"}, []string{"k3", "k1", "k5", "k2", "k4"}},
		{"move", func() error { return arr.Move(2, 0) }, []string{"x", "3", "1", "2", "0"}, []string{"k5", "k3", "k1", "k2", "k4"}},
		{"remove", func() error { return arr.Remove(0, 4) }, []string{"3", "1", "2"}, []string{"k3", "k1", "k2"}},
		{"update", func() error { return arr.Update(1, map[string]any{"id": "one"}) }, []string{"3", "one", "2"}, []string{"k3", "k1", "k2"}},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s returned error: %v", step.name, err)
		}
		if diff := cmp.Diff(step.ids, ids(t, arr)); diff != "" {
			t.Fatalf("%s: ids mismatch (-want +got):\n%s", step.name, diff)
		}
		if diff := cmp.Diff(step.keys, keys(arr)); diff != "" {
			t.Fatalf("%s: keys mismatch (-want +got):\n%s", step.name, diff)
		}
	}

	stored, _ := f.Get("wishlist")
	if len(stored.([]any)) != 3 {
		t.Fatalf("expected form to hold 3 items, got %v", stored)
	}

	if err := arr.Replace([]any{map[string]any{"id": "r"}}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"k6"}, keys(arr)); diff != "" {
		t.Fatalf("replace keys mismatch (-want +got):\n%s", diff)
	}

	if err := arr.Remove(); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if arr.Len() != 0 {
		t.Fatalf("expected empty array, got %d", arr.Len())
	}
}

func TestArray_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	_, arr := newWishlist(t)
	ops := map[string]func() error{
		"insert": func() error { return arr.Insert(3, "x") },
		"remove": func() error { return arr.Remove(2) },
		"swap":   func() error { return arr.Swap(0, -1) },
		"move":   func() error { return arr.Move(5, 0) },
		"update": func() error { return arr.Update(2, "x") },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("%s: expected ErrIndexOutOfRange, got %v", name, err)
		}
	}
	if arr.Len() != 2 {
		t.Fatalf("failed operations must not change the array")
	}
}

func TestArray_ReconcilesExternalWrites(t *testing.T) {
	t.Parallel()

	f, arr := newWishlist(t)
	if err := f.Set("wishlist", []any{map[string]any{"id": "1"}}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"k1"}, keys(arr)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestArray_DefaultKeysAreUUIDs(t *testing.T) {
	t.Parallel()

	f, err := form.New(nil, form.WithDefaults(map[string]any{"tags": []any{"a", "b"}}))
	if err != nil {
		t.Fatalf("form.New returned error: %v", err)
	}
	arr, err := New(f, "tags")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	items := arr.Fields()
	if len(items[0].Key) != 36 || items[0].Key == items[1].Key {
		t.Fatalf("expected distinct uuid keys, got %q and %q", items[0].Key, items[1].Key)
	}
}
