// Package prompt fills a form interactively, one field at a time, asking
// only for fields that are active given the answers so far.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdeps/pkg/definition"
	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

// Field kinds understood by Session.
const (
	KindText    = "text"
	KindSelect  = "select"
	KindConfirm = "confirm"
	KindNumber  = "number"
	KindInteger = "integer"
)

// Session drives a Driver over a form.
type Session struct {
	driver Driver
	schema *schema.Schema
	kinds  *KindRegistry
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithKindRegistry replaces the built-in kind matchers.
func WithKindRegistry(kinds *KindRegistry) SessionOption {
	return func(s *Session) {
		if kinds != nil {
			s.kinds = kinds
		}
	}
}

// NewSession builds a session. The schema, when set, supplies field kinds and
// enum options that the field list leaves out.
func NewSession(driver Driver, s *schema.Schema, opts ...SessionOption) *Session {
	session := &Session{driver: driver, schema: s, kinds: NewKindRegistry()}
	for _, opt := range opts {
		if opt != nil {
			opt(session)
		}
	}
	return session
}

// Fill prompts every active field in order. Answering a field re-evaluates
// the form, so fields activated by an answer are asked next and fields that
// became inactive are skipped. Answers that fail validation are asked again.
func (s *Session) Fill(ctx context.Context, f *form.Form, fields []definition.Field) error {
	if s == nil || s.driver == nil {
		return fmt.Errorf("prompt: driver is nil")
	}
	answered := make(map[string]bool, len(fields))

	for {
		field, ok := nextField(f, fields, answered)
		if !ok {
			return nil
		}
		if err := s.ask(ctx, f, field); err != nil {
			return err
		}
		answered[field.Path] = true
	}
}

func nextField(f *form.Form, fields []definition.Field, answered map[string]bool) (definition.Field, bool) {
	for _, field := range fields {
		if !answered[field.Path] && f.IsActive(field.Path) {
			return field, true
		}
	}
	return definition.Field{}, false
}

func (s *Session) ask(ctx context.Context, f *form.Form, field definition.Field) error {
	kind, options := s.describe(field)
	label := field.Label
	if label == "" {
		label = field.Path
	}
	current, _ := f.Get(field.Path)

	for {
		value, skip, err := s.read(ctx, kind, label, field.Help, options, current)
		if err != nil {
			var invalid invalidAnswer
			if errors.As(err, &invalid) {
				if err := s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", field.Path, invalid.err)); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if skip {
			return nil
		}

		if err := f.Set(field.Path, value); err != nil {
			return fmt.Errorf("prompt: %s: %w", field.Path, err)
		}
		messages := f.Validate().ByField()[field.Path]
		if len(messages) == 0 {
			return nil
		}
		if err := s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", field.Path, strings.Join(messages, "; "))); err != nil {
			return err
		}
		current = value
	}
}

type invalidAnswer struct{ err error }

func (e invalidAnswer) Error() string { return e.err.Error() }

// read asks once. skip is set for blank answers that should leave the field
// untouched.
func (s *Session) read(ctx context.Context, kind, label, help string, options []string, current any) (any, bool, error) {
	switch kind {
	case KindConfirm:
		def, _ := current.(bool)
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: help})
		return answer, false, err

	case KindSelect:
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, fmt.Sprint(current)),
			Help:         help,
		})
		if err != nil {
			return nil, false, err
		}
		if idx < 0 || idx >= len(options) {
			return nil, false, invalidAnswer{fmt.Errorf("selection out of range")}
		}
		return options[idx], false, nil

	case KindNumber, KindInteger:
		input, err := s.driver.Input(ctx, InputConfig{Message: label, Default: stringDefault(current), Help: help})
		if err != nil {
			return nil, false, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return nil, true, nil
		}
		if kind == KindInteger {
			n, err := strconv.ParseInt(input, 10, 64)
			if err != nil {
				return nil, false, invalidAnswer{err}
			}
			return n, false, nil
		}
		n, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return nil, false, invalidAnswer{err}
		}
		return n, false, nil

	default:
		input, err := s.driver.Input(ctx, InputConfig{Message: label, Default: stringDefault(current), Help: help})
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(input) == "" && current == nil {
			return nil, true, nil
		}
		return input, false, nil
	}
}

// describe resolves the prompt kind and options for field.
func (s *Session) describe(field definition.Field) (string, []string) {
	info := FieldInfo{Field: field}
	if s.schema != nil {
		if p, err := fieldpath.Parse(field.Path); err == nil {
			info.Schema, _ = s.schema.Resolve(p)
		}
	}
	kind := s.kinds.Resolve(info)
	if kind != KindSelect {
		return kind, nil
	}
	return kind, info.Options()
}

func stringDefault(current any) string {
	if current == nil {
		return ""
	}
	return fmt.Sprint(current)
}
