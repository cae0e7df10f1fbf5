package form

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
)

// Sanitizer cleans user supplied strings. *bluemonday.Policy implements it,
// although its output is HTML-escaped; see TextSanitizer.
type Sanitizer interface {
	Sanitize(string) string
}

// TextSanitizer runs a bluemonday policy and unescapes the result, so markup
// is removed while literal text such as `Smith & Co` is stored as typed.
type TextSanitizer struct {
	Policy *bluemonday.Policy
}

// Sanitize implements Sanitizer.
func (s TextSanitizer) Sanitize(value string) string {
	if s.Policy == nil {
		return value
	}
	return html.UnescapeString(s.Policy.Sanitize(value))
}

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// StrictSanitizer strips all markup from input values and keeps plain text.
func StrictSanitizer() Sanitizer {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return TextSanitizer{Policy: strictPolicy}
}

func sanitizeValues(s Sanitizer, values map[string]any) map[string]any {
	if s == nil || values == nil {
		return values
	}
	return sanitizeValue(s, values).(map[string]any)
}

func sanitizeValue(s Sanitizer, value any) any {
	if s == nil {
		return value
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(s.Sanitize(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = sanitizeValue(s, item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(s, item)
		}
		return out
	case map[string]string, []map[string]any:
		return sanitizeValue(s, fieldpath.CloneValue(v))
	default:
		return value
	}
}
