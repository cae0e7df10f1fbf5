// Package fieldarray manages repeated field groups (wishlists, line items)
// stored as an array inside a form.
//
// Every item carries a stable key that follows it through reorderings, so
// hosts can keep per-item UI state attached to the right row.
package fieldarray

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// ErrIndexOutOfRange is returned for operations addressing a missing item.
var ErrIndexOutOfRange = errors.New("fieldarray: index out of range")

// Host stores the array. *form.Form and *form.Scope implement it.
type Host interface {
	Get(path string) (any, bool)
	Set(path string, value any) error
}

// Item is one entry of the array.
type Item struct {
	Key   string
	Index int
	Value any
}

// Option configures an Array.
type Option func(*Array)

// WithKeyFunc replaces the uuid key generator.
func WithKeyFunc(fn func() string) Option {
	return func(a *Array) {
		if fn != nil {
			a.newKey = fn
		}
	}
}

// Array is a keyed view over the array stored at a path.
type Array struct {
	mu     sync.Mutex
	host   Host
	path   string
	keys   []string
	newKey func() string
}

// New binds an array view to path on host.
func New(host Host, path string, opts ...Option) (*Array, error) {
	if host == nil {
		return nil, errors.New("fieldarray: host is nil")
	}
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("fieldarray: %w", err)
	}
	a := &Array{
		host:   host,
		path:   p.String(),
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.mu.Lock()
	a.load()
	a.mu.Unlock()
	return a, nil
}

// Path returns the dotted path of the array.
func (a *Array) Path() string { return a.path }

// Len returns the number of items.
func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.load())
}

// Fields returns the items with their keys.
func (a *Array) Fields() []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	values := a.load()
	out := make([]Item, len(values))
	for i, value := range values {
		out[i] = Item{Key: a.keys[i], Index: i, Value: value}
	}
	return out
}

// Append adds values at the end.
func (a *Array) Append(values ...any) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		return append(items, values...), append(keys, a.keysFor(len(values))...), nil
	})
}

// Prepend adds values at the start.
func (a *Array) Prepend(values ...any) error {
	return a.Insert(0, values...)
}

// Insert adds values before index. Index may equal Len to append.
func (a *Array) Insert(index int, values ...any) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		if index < 0 || index > len(items) {
			return nil, nil, outOfRange(index, len(items))
		}
		nextItems := append(append(append([]any{}, items[:index]...), values...), items[index:]...)
		nextKeys := append(append(append([]string{}, keys[:index]...), a.keysFor(len(values))...), keys[index:]...)
		return nextItems, nextKeys, nil
	})
}

// Remove deletes the items at indexes. Without indexes every item is removed.
func (a *Array) Remove(indexes ...int) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		if len(indexes) == 0 {
			return []any{}, []string{}, nil
		}
		drop := make(map[int]bool, len(indexes))
		for _, index := range indexes {
			if index < 0 || index >= len(items) {
				return nil, nil, outOfRange(index, len(items))
			}
			drop[index] = true
		}
		nextItems := make([]any, 0, len(items)-len(drop))
		nextKeys := make([]string, 0, len(items)-len(drop))
		for i := range items {
			if drop[i] {
				continue
			}
			nextItems = append(nextItems, items[i])
			nextKeys = append(nextKeys, keys[i])
		}
		return nextItems, nextKeys, nil
	})
}

// Swap exchanges two items.
func (a *Array) Swap(i, j int) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		for _, index := range []int{i, j} {
			if index < 0 || index >= len(items) {
				return nil, nil, outOfRange(index, len(items))
			}
		}
		items[i], items[j] = items[j], items[i]
		keys[i], keys[j] = keys[j], keys[i]
		return items, keys, nil
	})
}

// Move relocates the item at from so that it ends up at to.
func (a *Array) Move(from, to int) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		for _, index := range []int{from, to} {
			if index < 0 || index >= len(items) {
				return nil, nil, outOfRange(index, len(items))
			}
		}
		item, key := items[from], keys[from]
		items = append(items[:from], items[from+1:]...)
		keys = append(keys[:from], keys[from+1:]...)
		items = append(items[:to], append([]any{item}, items[to:]...)...)
		keys = append(keys[:to], append([]string{key}, keys[to:]...)...)
		return items, keys, nil
	})
}

// Update replaces the value at index and keeps its key.
func (a *Array) Update(index int, value any) error {
	return a.edit(func(items []any, keys []string) ([]any, []string, error) {
		if index < 0 || index >= len(items) {
			return nil, nil, outOfRange(index, len(items))
		}
		items[index] = value
		return items, keys, nil
	})
}

// Replace swaps the whole array. Every item gets a fresh key.
func (a *Array) Replace(values []any) error {
	return a.edit(func([]any, []string) ([]any, []string, error) {
		return append([]any{}, values...), a.keysFor(len(values)), nil
	})
}

// edit applies fn to copies of the current items and keys and writes the
// result back. Keys only change when the host accepts the write.
func (a *Array) edit(fn func(items []any, keys []string) ([]any, []string, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.load()
	items := append([]any{}, current...)
	keys := append([]string{}, a.keys...)

	nextItems, nextKeys, err := fn(items, keys)
	if err != nil {
		return err
	}
	if err := a.host.Set(a.path, nextItems); err != nil {
		return fmt.Errorf("fieldarray: write %s: %w", a.path, err)
	}
	a.keys = nextKeys
	return nil
}

// load reads the array from the host and reconciles the key list when the
// array was changed behind this view's back.
func (a *Array) load() []any {
	raw, _ := a.host.Get(a.path)
	items := toSlice(raw)
	switch {
	case len(a.keys) > len(items):
		a.keys = a.keys[:len(items)]
	case len(a.keys) < len(items):
		a.keys = append(a.keys, a.keysFor(len(items)-len(a.keys))...)
	}
	return items
}

func (a *Array) keysFor(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = a.newKey()
	}
	return out
}

func toSlice(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case map[string]any:
		// Arrays decoded from flattened form posts arrive as index-keyed objects.
		indexes := make([]int, 0, len(v))
		byIndex := make(map[int]any, len(v))
		for key, item := range v {
			p, err := fieldpath.Parse(key)
			if err != nil || len(p) != 1 {
				return nil
			}
			idx, ok := p[0].(fieldpath.Index)
			if !ok {
				return nil
			}
			indexes = append(indexes, int(idx))
			byIndex[int(idx)] = item
		}
		sort.Ints(indexes)
		out := make([]any, 0, len(indexes))
		for _, idx := range indexes {
			out = append(out, byIndex[idx])
		}
		return out
	default:
		return nil
	}
}

func outOfRange(index, length int) error {
	return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, length)
}
