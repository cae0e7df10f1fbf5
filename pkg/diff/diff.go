// Package diff compares form value snapshots.
package diff

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

var equalOptions = cmp.Options{cmpopts.EquateEmpty()}

// Equal reports whether two snapshots hold the same data. Empty and nil
// maps or slices are considered equal.
func Equal(a, b any) bool {
	return cmp.Equal(normalize(a), normalize(b), equalOptions)
}

// Updated returns the values from next that changed relative to prev. Only
// keys present in both snapshots are reported; objects are compared key by
// key and everything else (including arrays) is reported whole. The result
// is suitable as a PATCH body and is empty when nothing changed.
func Updated(prev, next map[string]any) map[string]any {
	out := make(map[string]any)
	for key, after := range next {
		before, ok := prev[key]
		if !ok {
			continue
		}
		beforeMap, beforeIsMap := before.(map[string]any)
		afterMap, afterIsMap := after.(map[string]any)
		if beforeIsMap && afterIsMap {
			if nested := Updated(beforeMap, afterMap); len(nested) > 0 {
				out[key] = nested
			}
			continue
		}
		if !Equal(before, after) {
			out[key] = fieldpath.CloneValue(after)
		}
	}
	return out
}

// Dirty returns the leaf paths whose value in values differs from defaults,
// sorted by their dotted form. Leaves missing on either side count as dirty.
func Dirty(defaults, values map[string]any) []fieldpath.Path {
	set := fieldpath.NewPathSet()
	collect(nil, defaults, values, set)
	return set.Paths()
}

func collect(prefix fieldpath.Path, before, after any, out fieldpath.PathSet) {
	// A container on one side and nothing on the other is walked against an
	// empty container so the missing leaves are reported individually.
	if before == nil {
		before = emptyLike(after)
	}
	if after == nil {
		after = emptyLike(before)
	}

	beforeMap, beforeIsMap := before.(map[string]any)
	afterMap, afterIsMap := after.(map[string]any)
	if beforeIsMap && afterIsMap {
		for _, key := range unionKeys(beforeMap, afterMap) {
			collect(prefix.Append(fieldpath.Key(key)), beforeMap[key], afterMap[key], out)
		}
		return
	}

	beforeList, beforeIsList := before.([]any)
	afterList, afterIsList := after.([]any)
	if beforeIsList && afterIsList {
		n := max(len(beforeList), len(afterList))
		for i := 0; i < n; i++ {
			var b, a any
			if i < len(beforeList) {
				b = beforeList[i]
			}
			if i < len(afterList) {
				a = afterList[i]
			}
			collect(prefix.Append(fieldpath.Index(i)), b, a, out)
		}
		return
	}

	if len(prefix) > 0 && !Equal(before, after) {
		out.Add(prefix)
	}
}

func emptyLike(value any) any {
	switch value.(type) {
	case map[string]any:
		return map[string]any{}
	case []any:
		return []any{}
	default:
		return nil
	}
}

func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []map[string]any{a, b} {
		for key := range m {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// normalize widens numbers so that an int default equals a decoded float64,
// and turns typed containers into their generic form.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case map[string]string, []map[string]any:
		return normalize(fieldpath.CloneValue(v))
	}
	if n, ok := Number(value); ok {
		return n
	}
	return value
}

// Number widens any Go numeric type to float64.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
