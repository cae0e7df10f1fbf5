package schema

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// Issue is a single validation failure located at a field.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result captures the outcome of validating a value snapshot.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// ByField groups issue messages by dotted field path. Form-level issues are
// stored under the empty key.
func (r Result) ByField() map[string][]string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range r.Issues {
		out[issue.Field] = append(out[issue.Field], issue.Message)
	}
	return out
}

// Filter returns a copy of r keeping only the issues accepted by keep.
func (r Result) Filter(keep func(Issue) bool) Result {
	out := Result{Valid: true}
	for _, issue := range r.Issues {
		if keep(issue) {
			out.Issues = append(out.Issues, issue)
		}
	}
	out.Valid = len(out.Issues) == 0
	return out
}

// Validate checks values against the schema and reports every failure.
func (s *Schema) Validate(values map[string]any) Result {
	result := Result{Valid: true}
	if s == nil || s.root == nil {
		return result
	}

	normalized, err := normalize(values)
	if err != nil {
		return Result{Issues: []Issue{{Message: err.Error()}}}
	}

	err = s.root.VisitJSON(normalized, openapi3.MultiErrors())
	if err == nil {
		return result
	}
	result.Valid = false
	result.Issues = collectIssues(err, nil)
	if len(result.Issues) == 0 {
		result.Issues = []Issue{{Message: strings.TrimSpace(err.Error())}}
	}
	return result
}

// normalize round-trips values through JSON so numbers and containers use the
// types kin-openapi expects.
func normalize(values map[string]any) (any, error) {
	if values == nil {
		return map[string]any{}, nil
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, errors.New("schema: values are not JSON encodable: " + err.Error())
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, errors.New("schema: values are not JSON decodable: " + err.Error())
	}
	return out, nil
}

func collectIssues(err error, out []Issue) []Issue {
	switch typed := err.(type) {
	case openapi3.MultiError:
		for _, inner := range typed {
			out = collectIssues(inner, out)
		}
		return out
	case *openapi3.SchemaError:
		return append(out, issueFromSchemaError(typed))
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return append(out, issueFromSchemaError(schemaErr))
	}
	return append(out, Issue{Message: strings.TrimSpace(err.Error())})
}

func issueFromSchemaError(err *openapi3.SchemaError) Issue {
	segments := err.JSONPointer()
	issue := Issue{Message: strings.TrimSpace(err.Reason)}
	if issue.Message == "" {
		issue.Message = strings.TrimSpace(err.Error())
	}
	if len(segments) == 0 {
		return issue
	}

	parts := make([]any, 0, len(segments))
	for _, segment := range segments {
		parts = append(parts, segment)
	}
	p, perr := fieldpath.New(parts...)
	if perr != nil {
		return issue
	}
	// JSON pointers from kin-openapi report array indexes as strings.
	if parsed, perr := fieldpath.Parse(p.Pointer()); perr == nil {
		p = parsed
	}
	issue.Path = p.Pointer()
	issue.Field = p.String()
	return issue
}
