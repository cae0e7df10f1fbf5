package schema

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Object builds an object schema from named properties.
func Object(properties map[string]*openapi3.Schema, required ...string) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	for name, property := range properties {
		out.WithProperty(name, property)
	}
	if len(required) > 0 {
		out.Required = append([]string(nil), required...)
	}
	return out
}

// Mount returns a new schema with child nested under name. The receiver is
// left untouched; the parent must describe an object. A reusable form part
// can own its schema while the parent still validates it in place.
func (s *Schema) Mount(name string, child *Schema, required bool) (*Schema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("schema: mount: property name is required")
	}
	if s == nil || child == nil || child.root == nil {
		return nil, fmt.Errorf("schema: mount %q: parent and child schemas are required", name)
	}
	if s.root.Type != nil && !s.root.Type.Is(openapi3.TypeObject) {
		return nil, fmt.Errorf("schema: mount %q: parent is not an object schema", name)
	}

	root := *s.root
	root.Properties = make(openapi3.Schemas, len(s.root.Properties)+1)
	for key, ref := range s.root.Properties {
		root.Properties[key] = ref
	}
	if _, exists := root.Properties[name]; exists {
		return nil, fmt.Errorf("schema: mount %q: property already defined", name)
	}
	root.Properties[name] = openapi3.NewSchemaRef("", child.root)
	if root.Type == nil {
		root.Type = &openapi3.Types{openapi3.TypeObject}
	}

	root.Required = append([]string(nil), s.root.Required...)
	if required {
		root.Required = append(root.Required, name)
	}
	return New(&root), nil
}
