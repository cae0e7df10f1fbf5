package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// Store holds definitions keyed by id.
type Store struct {
	definitions map[string]Definition
}

type definitionFile struct {
	ID           string         `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	ValidateMode string         `json:"validateMode" yaml:"validateMode"`
	Schema       any            `json:"schema" yaml:"schema"`
	Defaults     map[string]any `json:"defaults" yaml:"defaults"`
	Fields       []Field        `json:"fields" yaml:"fields"`
	Rules        []RuleConfig   `json:"rules" yaml:"rules"`
}

// LoadFS walks fsys and parses every JSON/YAML definition it finds. Ids
// default to the file name without extension. Duplicate ids, malformed
// schemas and rules referencing unknown paths fail the load.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{definitions: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		def, err := Parse(data, path)
		if err != nil {
			return err
		}
		if _, exists := store.definitions[def.ID]; exists {
			return fmt.Errorf("definition: duplicate form %q (file %s)", def.ID, path)
		}
		store.definitions[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes a single definition. source names the file in errors and
// provides the default id.
func Parse(data []byte, source string) (Definition, error) {
	raw, err := parseDocument(data, source)
	if err != nil {
		return Definition{}, err
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		base := filepath.Base(source)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if id == "" || id == "." {
		return Definition{}, fmt.Errorf("definition: file %s has no id", source)
	}

	def := Definition{
		ID:           id,
		Title:        strings.TrimSpace(raw.Title),
		Source:       source,
		ValidateMode: form.ParseValidateMode(strings.TrimSpace(raw.ValidateMode)),
		Defaults:     fieldpath.Clone(raw.Defaults),
		Fields:       append([]Field(nil), raw.Fields...),
		Rules:        append([]RuleConfig(nil), raw.Rules...),
	}

	if raw.Schema != nil {
		s, err := schema.FromValue(raw.Schema)
		if err != nil {
			return Definition{}, fmt.Errorf("definition: form %q (file %s): %w", id, source, err)
		}
		def.Schema = s
	} else {
		def.Schema = schema.New(nil)
	}

	if err := def.normaliseFields(); err != nil {
		return Definition{}, err
	}
	if err := def.checkRules(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Definition returns the definition registered under id.
func (s *Store) Definition(id string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.definitions[id]
	return def, ok
}

// IDs lists the loaded definitions in lexical order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.definitions))
	for id := range s.definitions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the store holds any definitions.
func (s *Store) Empty() bool {
	return s == nil || len(s.definitions) == 0
}

func parseDocument(data []byte, source string) (definitionFile, error) {
	var doc definitionFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return definitionFile{}, fmt.Errorf("definition: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = definitionFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return definitionFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

func (d *Definition) normaliseFields() error {
	seen := make(map[string]bool, len(d.Fields))
	for i, field := range d.Fields {
		p, err := fieldpath.Parse(field.Path)
		if err != nil {
			return fmt.Errorf("definition: form %q (file %s) field %d: %w", d.ID, d.Source, i, err)
		}
		if err := d.Schema.CheckPath(p); err != nil {
			return fmt.Errorf("definition: form %q (file %s) field %q: %w", d.ID, d.Source, field.Path, err)
		}
		key := p.String()
		if seen[key] {
			return fmt.Errorf("definition: form %q (file %s) lists field %q twice", d.ID, d.Source, key)
		}
		seen[key] = true
		d.Fields[i].Path = key
		d.Fields[i].Kind = strings.ToLower(strings.TrimSpace(field.Kind))
	}
	return nil
}

func (d *Definition) checkRules() error {
	for i, rule := range d.Rules {
		if !rule.hasCondition() {
			return fmt.Errorf("definition: form %q (file %s) rule %d has no condition", d.ID, d.Source, i)
		}
		for _, raw := range []string{rule.Watch, rule.Field} {
			p, err := fieldpath.Parse(raw)
			if err == nil {
				err = d.Schema.CheckPath(p)
			}
			if err != nil {
				return fmt.Errorf("definition: form %q (file %s) rule %d: %w", d.ID, d.Source, i, err)
			}
		}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
