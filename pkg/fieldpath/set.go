package fieldpath

import "sort"

// PathSet is an unordered set of paths keyed by their dotted form.
type PathSet map[string]Path

// NewPathSet returns a set seeded with paths.
func NewPathSet(paths ...Path) PathSet {
	set := make(PathSet, len(paths))
	for _, p := range paths {
		set.Add(p)
	}
	return set
}

// Add inserts p into the set.
func (s PathSet) Add(p Path) {
	if s == nil {
		return
	}
	s[p.String()] = p
}

// Remove deletes p from the set.
func (s PathSet) Remove(p Path) {
	delete(s, p.String())
}

// Has reports whether p is a member of the set.
func (s PathSet) Has(p Path) bool {
	_, ok := s[p.String()]
	return ok
}

// Covers reports whether p or one of its ancestors is a member of the set.
func (s PathSet) Covers(p Path) bool {
	for i := len(p); i > 0; i-- {
		if _, ok := s[p[:i].String()]; ok {
			return true
		}
	}
	return false
}

// Strings returns the dotted members in lexical order.
func (s PathSet) Strings() []string {
	out := make([]string, 0, len(s))
	for key := range s {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Paths returns the members ordered by their dotted form.
func (s PathSet) Paths() []Path {
	keys := s.Strings()
	out := make([]Path, 0, len(keys))
	for _, key := range keys {
		out = append(out, s[key])
	}
	return out
}

// Equal reports whether both sets contain the same members.
func (s PathSet) Equal(other PathSet) bool {
	if len(s) != len(other) {
		return false
	}
	for key := range s {
		if _, ok := other[key]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of the set.
func (s PathSet) Clone() PathSet {
	out := make(PathSet, len(s))
	for key, p := range s {
		out[key] = p
	}
	return out
}
