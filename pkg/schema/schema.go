package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// ErrUnknownPath is returned when a path does not exist in the schema.
var ErrUnknownPath = errors.New("schema: unknown path")

// Schema is an immutable view over a root object schema.
type Schema struct {
	root *openapi3.Schema
}

// New wraps root. A nil root yields a free-form schema that accepts any path.
func New(root *openapi3.Schema) *Schema {
	if root == nil {
		root = &openapi3.Schema{}
	}
	return &Schema{root: root}
}

// Parse decodes a JSON or YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("schema: document is empty")
	}
	return FromValue(raw)
}

// FromValue converts an already decoded document (for example a nested YAML
// node) into a Schema.
func FromValue(raw any) (*Schema, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	root := &openapi3.Schema{}
	if err := json.Unmarshal(payload, root); err != nil {
		return nil, fmt.Errorf("schema: unmarshal: %w", err)
	}
	return New(root), nil
}

// Root exposes the underlying kin-openapi schema.
func (s *Schema) Root() *openapi3.Schema {
	if s == nil {
		return nil
	}
	return s.root
}

// Resolve returns the schema that governs p. Composition keywords (allOf,
// oneOf, anyOf) are searched branch by branch; the path exists when any branch
// declares it. Free-form objects accept every path below them, and so does a
// nil Schema, which resolves every path to a nil node.
func (s *Schema) Resolve(p fieldpath.Path) (*openapi3.Schema, error) {
	if s == nil {
		return nil, nil
	}
	candidates := []*openapi3.Schema{s.root}
	for i, segment := range p {
		var next []*openapi3.Schema
		for _, candidate := range expand(candidates) {
			if isFreeForm(candidate) {
				return candidate, nil
			}
			next = append(next, step(candidate, segment)...)
		}
		if len(next) == 0 {
			return nil, fmt.Errorf("%w: %q (no schema for segment %q)", ErrUnknownPath, p[:i+1].String(), segment.String())
		}
		candidates = next
	}
	return candidates[0], nil
}

// Has reports whether p resolves.
func (s *Schema) Has(p fieldpath.Path) bool {
	_, err := s.Resolve(p)
	return err == nil
}

// CheckPath implements the path checker used by dependency rule sets.
func (s *Schema) CheckPath(p fieldpath.Path) error {
	_, err := s.Resolve(p)
	return err
}

// Fields lists the leaf property paths reachable through objects, sorted.
// Arrays are reported as a single leaf.
func (s *Schema) Fields() []fieldpath.Path {
	if s == nil {
		return nil
	}
	var out []fieldpath.Path
	collectFields(s.root, nil, &out, map[*openapi3.Schema]bool{})
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return dedupe(out)
}

func collectFields(node *openapi3.Schema, prefix fieldpath.Path, out *[]fieldpath.Path, seen map[*openapi3.Schema]bool) {
	if node == nil || seen[node] {
		return
	}
	seen[node] = true
	defer delete(seen, node)

	properties := map[string]*openapi3.Schema{}
	for _, branch := range expand([]*openapi3.Schema{node}) {
		for name, ref := range branch.Properties {
			if ref != nil && ref.Value != nil {
				properties[name] = ref.Value
			}
		}
	}
	if len(properties) == 0 {
		if len(prefix) > 0 {
			*out = append(*out, prefix)
		}
		return
	}
	for name, child := range properties {
		collectFields(child, prefix.Append(fieldpath.Key(name)), out, seen)
	}
}

func dedupe(paths []fieldpath.Path) []fieldpath.Path {
	if len(paths) == 0 {
		return nil
	}
	out := paths[:1]
	for _, p := range paths[1:] {
		if !p.Equal(out[len(out)-1]) {
			out = append(out, p)
		}
	}
	return out
}

// expand flattens composition keywords into the list of schemas that may
// contribute properties.
func expand(schemas []*openapi3.Schema) []*openapi3.Schema {
	var out []*openapi3.Schema
	var walk func(*openapi3.Schema, int)
	walk = func(node *openapi3.Schema, depth int) {
		if node == nil || depth > 32 {
			return
		}
		out = append(out, node)
		for _, group := range []openapi3.SchemaRefs{node.AllOf, node.OneOf, node.AnyOf} {
			for _, ref := range group {
				if ref != nil {
					walk(ref.Value, depth+1)
				}
			}
		}
	}
	for _, node := range schemas {
		walk(node, 0)
	}
	return out
}

func step(node *openapi3.Schema, segment fieldpath.Segment) []*openapi3.Schema {
	switch seg := segment.(type) {
	case fieldpath.Key:
		if ref, ok := node.Properties[string(seg)]; ok && ref != nil && ref.Value != nil {
			return []*openapi3.Schema{ref.Value}
		}
		if extra := node.AdditionalProperties.Schema; extra != nil && extra.Value != nil {
			return []*openapi3.Schema{extra.Value}
		}
		if has := node.AdditionalProperties.Has; has != nil && *has {
			return []*openapi3.Schema{{}}
		}
	case fieldpath.Index:
		if node.Items != nil && node.Items.Value != nil {
			return []*openapi3.Schema{node.Items.Value}
		}
	}
	return nil
}

func isFreeForm(node *openapi3.Schema) bool {
	if node == nil {
		return false
	}
	if node.Type != nil && len(node.Type.Slice()) > 0 {
		return false
	}
	return len(node.Properties) == 0 &&
		node.Items == nil &&
		node.AdditionalProperties.Schema == nil &&
		node.AdditionalProperties.Has == nil &&
		len(node.AllOf) == 0 && len(node.OneOf) == 0 && len(node.AnyOf) == 0 &&
		len(node.Enum) == 0
}
