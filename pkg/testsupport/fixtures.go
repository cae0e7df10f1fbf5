package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdeps/pkg/definition"
	"github.com/goliatone/go-formdeps/pkg/dependency"
)

// LoadDefinition reads a definition fixture. Testing helpers fail the test on
// error to keep table tests concise.
func LoadDefinition(t *testing.T, path string) definition.Definition {
	t.Helper()

	def, err := LoadDefinitionFromPath(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// LoadDefinitionFromPath returns a Definition without requiring testing.T, so
// fixtures can be wired in setup functions.
func LoadDefinitionFromPath(path string) (definition.Definition, error) {
	if path == "" {
		return definition.Definition{}, errors.New("testsupport: definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return definition.Definition{}, fmt.Errorf("testsupport: read definition: %w", err)
	}
	def, err := definition.Parse(data, path)
	if err != nil {
		return definition.Definition{}, fmt.Errorf("testsupport: parse definition: %w", err)
	}
	return def, nil
}

// MustLoadValues loads a JSON values snapshot.
func MustLoadValues(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load values: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal values: %v", err)
	}
	return out
}

// Snapshot converts an evaluation result into the JSON shape stored in
// goldens.
func Snapshot(result dependency.Result) map[string]any {
	return map[string]any{
		"active":   result.Active.Strings(),
		"inactive": result.Inactive.Strings(),
		"values":   result.Values,
	}
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden decodes the golden at path and returns a diff against got
// after round-tripping got through JSON, so numeric types line up.
func CompareGolden(t *testing.T, path string, got any) string {
	t.Helper()

	var want any
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
	payload, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var normalized any
	if err := json.Unmarshal(payload, &normalized); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return cmp.Diff(want, normalized)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
