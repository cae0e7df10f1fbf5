package fieldpath

import (
	"fmt"
)

// Get resolves p inside values. Flattened dotted keys (for example
// "cta.headline" stored at the top level) take precedence over nested lookups.
func Get(values map[string]any, p Path) (any, bool) {
	if values == nil || len(p) == 0 {
		return nil, false
	}
	if len(p) > 1 {
		if v, ok := values[p.String()]; ok {
			return v, true
		}
	}

	var current any = values
	for _, segment := range p {
		switch seg := segment.(type) {
		case Key:
			switch node := current.(type) {
			case map[string]any:
				next, ok := node[string(seg)]
				if !ok {
					return nil, false
				}
				current = next
			case map[string]string:
				next, ok := node[string(seg)]
				if !ok {
					return nil, false
				}
				current = next
			default:
				return nil, false
			}
		case Index:
			idx := int(seg)
			switch node := current.(type) {
			case []any:
				if idx < 0 || idx >= len(node) {
					return nil, false
				}
				current = node[idx]
			case []map[string]any:
				if idx < 0 || idx >= len(node) {
					return nil, false
				}
				current = node[idx]
			default:
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return current, true
}

// Has reports whether p resolves inside values.
func Has(values map[string]any, p Path) bool {
	_, ok := Get(values, p)
	return ok
}

// Set writes value at p, creating intermediate maps and slices as needed.
// values is modified in place.
func Set(values map[string]any, p Path, value any) error {
	if values == nil {
		return fmt.Errorf("fieldpath: set %q: values map is nil", p)
	}
	if len(p) == 0 {
		return fmt.Errorf("fieldpath: set: root path is not writable")
	}
	if _, ok := p[0].(Key); !ok {
		return fmt.Errorf("fieldpath: set %q: first segment must be a key", p)
	}
	_, err := setIn(values, p, value)
	return err
}

// setIn writes value at p below container and returns the (possibly grown)
// container so callers can re-attach resized slices. Typed containers are
// replaced by their generic form before writing.
func setIn(container any, p Path, value any) (any, error) {
	head, rest := p[0], p[1:]
	container = canonical(container)
	switch seg := head.(type) {
	case Key:
		node, ok := container.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fieldpath: expected object at %q, got %T", seg, container)
		}
		if len(rest) == 0 {
			node[string(seg)] = value
			return node, nil
		}
		child := node[string(seg)]
		if child == nil {
			child = emptyContainer(rest[0])
		}
		updated, err := setIn(child, rest, value)
		if err != nil {
			return nil, err
		}
		node[string(seg)] = updated
		return node, nil
	case Index:
		idx := int(seg)
		if idx < 0 {
			return nil, fmt.Errorf("fieldpath: negative index %d", idx)
		}
		node, ok := container.([]any)
		if !ok {
			return nil, fmt.Errorf("fieldpath: expected array at index %d, got %T", idx, container)
		}
		if len(node) <= idx {
			node = append(node, make([]any, idx+1-len(node))...)
		}
		if len(rest) == 0 {
			node[idx] = value
			return node, nil
		}
		child := node[idx]
		if child == nil {
			child = emptyContainer(rest[0])
		}
		updated, err := setIn(child, rest, value)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil
	default:
		return nil, fmt.Errorf("fieldpath: unsupported segment %T", head)
	}
}

// canonical converts the typed containers Get understands into the generic
// map[string]any and []any shapes. Nested values are shared.
func canonical(container any) any {
	switch typed := container.(type) {
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out
	default:
		return container
	}
}

func emptyContainer(next Segment) any {
	if _, ok := next.(Index); ok {
		return []any{}
	}
	return map[string]any{}
}

// Delete removes the value at p and reports whether anything was removed.
// Keys are deleted from their parent object; a trailing index is cleared to
// nil so sibling indexes keep their positions. A flattened dotted key that
// matches p is removed as well.
func Delete(values map[string]any, p Path) bool {
	if values == nil || len(p) == 0 {
		return false
	}
	removed := false
	if len(p) > 1 {
		if _, ok := values[p.String()]; ok {
			delete(values, p.String())
			removed = true
		}
	}

	parent, ok := Get(values, p.Parent())
	if len(p) == 1 {
		parent, ok = values, true
	}
	if !ok {
		return removed
	}

	switch seg := p.Last().(type) {
	case Key:
		switch node := parent.(type) {
		case map[string]any:
			if _, exists := node[string(seg)]; exists {
				delete(node, string(seg))
				removed = true
			}
		case map[string]string:
			if _, exists := node[string(seg)]; exists {
				delete(node, string(seg))
				removed = true
			}
		}
	case Index:
		switch node := parent.(type) {
		case []any:
			if int(seg) < len(node) {
				removed = removed || node[seg] != nil
				node[seg] = nil
			}
		case []map[string]any:
			if int(seg) < len(node) {
				removed = removed || node[seg] != nil
				node[seg] = nil
			}
		}
	}
	return removed
}

// Clone returns a deep copy of values. Maps and slices produced by JSON/YAML
// decoding are copied recursively; other values are shared. Typed containers
// (map[string]string, []map[string]any) come back as map[string]any and []any.
func Clone(values map[string]any) map[string]any {
	if values == nil {
		return make(map[string]any)
	}
	return CloneValue(values).(map[string]any)
}

// CloneValue deep copies a single decoded value.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case map[string]string:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = v
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	case []map[string]any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	default:
		return typed
	}
}
