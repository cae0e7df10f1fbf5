package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path string cannot be parsed into segments.
var ErrInvalidPath = errors.New("fieldpath: invalid path")

// Segment is a single step inside a Path. It is either a Key (object property)
// or an Index (array element).
type Segment interface {
	fmt.Stringer
	segment()
}

// Key addresses an object property.
type Key string

func (Key) segment() {}

func (k Key) String() string { return string(k) }

// Index addresses an array element.
type Index int

func (Index) segment() {}

func (i Index) String() string { return strconv.Itoa(int(i)) }

// Path is an ordered sequence of segments locating a value inside form values.
// The zero value is the root path.
type Path []Segment

// New builds a path from raw segments. Strings become keys and ints become
// indexes; anything else is rejected. Keys may not contain '.', '[' or ']'
// so the dotted form stays unambiguous.
func New(parts ...any) (Path, error) {
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		switch typed := part.(type) {
		case Key:
			if err := checkKey(string(typed)); err != nil {
				return nil, err
			}
			out = append(out, typed)
		case Index:
			if typed < 0 {
				return nil, fmt.Errorf("%w: negative index %d", ErrInvalidPath, typed)
			}
			out = append(out, typed)
		case string:
			if err := checkKey(typed); err != nil {
				return nil, err
			}
			out = append(out, Key(typed))
		case int:
			if typed < 0 {
				return nil, fmt.Errorf("%w: negative index %d", ErrInvalidPath, typed)
			}
			out = append(out, Index(typed))
		default:
			return nil, fmt.Errorf("%w: unsupported segment %T", ErrInvalidPath, part)
		}
	}
	return out, nil
}

// Parse converts dotted (`a.b.0`), bracketed (`a.b[0]`) and JSON pointer
// (`/a/b/0`) notations into a Path. Purely numeric segments become indexes.
func Parse(raw string) (Path, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	pointer := false
	switch {
	case strings.HasPrefix(clean, "#/"):
		clean, pointer = clean[2:], true
	case strings.HasPrefix(clean, "/"):
		clean, pointer = clean[1:], true
	case strings.HasPrefix(clean, "$."):
		clean = clean[2:]
	}
	if clean == "" {
		return nil, fmt.Errorf("%w: %q has no segments", ErrInvalidPath, raw)
	}

	var parts []string
	if pointer {
		parts = strings.Split(clean, "/")
		for i, part := range parts {
			part = strings.ReplaceAll(part, "~1", "/")
			parts[i] = strings.ReplaceAll(part, "~0", "~")
			if strings.ContainsAny(parts[i], ".[]") {
				return nil, fmt.Errorf("%w: %q: key %q contains a path separator", ErrInvalidPath, raw, parts[i])
			}
		}
	} else {
		normalized, err := expandBrackets(clean)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
		}
		parts = strings.Split(normalized, ".")
	}

	out := make(Path, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			return nil, fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPath, raw)
		}
		if isDigits(segment) {
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
			}
			out = append(out, Index(idx))
			continue
		}
		out = append(out, Key(segment))
	}
	return out, nil
}

// MustParse is like Parse but panics on error. Intended for static rule tables.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key segment", ErrInvalidPath)
	}
	if strings.ContainsAny(key, ".[]") {
		return fmt.Errorf("%w: key %q contains a path separator", ErrInvalidPath, key)
	}
	return nil
}

func expandBrackets(input string) (string, error) {
	if !strings.ContainsAny(input, "[]") {
		return input, nil
	}
	var b strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '[':
			if depth > 0 {
				return "", errors.New("nested brackets")
			}
			depth++
			b.WriteByte('.')
		case ']':
			if depth == 0 {
				return "", errors.New("unbalanced ']'")
			}
			depth--
		default:
			b.WriteRune(r)
		}
	}
	if depth != 0 {
		return "", errors.New("unterminated '['")
	}
	return strings.TrimPrefix(b.String(), "."), nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the dotted form (`a.b.0`). The root path renders as "".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, segment := range p {
		parts[i] = segment.String()
	}
	return strings.Join(parts, ".")
}

// Pointer renders the path as a JSON pointer (`/a/b/0`).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, segment := range p {
		b.WriteByte('/')
		value := strings.ReplaceAll(segment.String(), "~", "~0")
		b.WriteString(strings.ReplaceAll(value, "/", "~1"))
	}
	return b.String()
}

// IsRoot reports whether p has no segments.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Append returns a new path with segments added to the end of p.
func (p Path) Append(segments ...Segment) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Join returns p followed by other.
func (p Path) Join(other Path) Path {
	return p.Append(other...)
}

// Parent returns p without its last segment. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// Last returns the final segment, or nil for the root path.
func (p Path) Last() Segment {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Equal reports whether both paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is p itself or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// Overlaps reports whether one path contains the other. Writing to either
// path may change the value observed at the other.
func (p Path) Overlaps(other Path) bool {
	return p.HasPrefix(other) || other.HasPrefix(p)
}

// Mount maps a path expressed relative to a nested form into the parent's
// path space, e.g. Mount("names", "firstName") == "names.firstName".
func Mount(prefix, child Path) Path {
	return prefix.Join(child)
}

// Unmount is the inverse of Mount. It reports false when p is not located
// under prefix.
func Unmount(prefix, p Path) (Path, bool) {
	if !p.HasPrefix(prefix) {
		return nil, false
	}
	return append(Path(nil), p[len(prefix):]...), true
}
