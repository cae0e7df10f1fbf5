package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdeps/pkg/schema"
)

var (
	// ErrInactiveField is returned when writing to a field that is not
	// currently part of the form.
	ErrInactiveField = errors.New("form: field is inactive")
	// ErrValidation is returned by submit handlers when values are invalid.
	ErrValidation = errors.New("form: validation failed")
)

// ValidationError carries the issues that blocked a submit.
type ValidationError struct {
	Result schema.Result
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Result.Issues))
	for _, issue := range e.Result.Issues {
		if issue.Field == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "form: validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
