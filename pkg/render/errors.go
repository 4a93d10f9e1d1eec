package render

import (
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// ErrorMapping splits validation errors into field-level messages and
// form-level messages for failures that do not belong to a rendered field.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// FieldErrors returns the messages for name.
func (m ErrorMapping) FieldErrors(name string) []string {
	return m.Fields[name]
}

// MapErrors assigns each error to its field when the form declares it.
// Unknown fields become form-level messages so nothing is lost. Messages are
// trimmed and de-duplicated while preserving order.
func MapErrors(form model.FormModel, errs validation.Errors) ErrorMapping {
	var mapping ErrorMapping
	if len(errs) == 0 {
		return mapping
	}

	known := make(map[string]struct{}, len(form.Fields))
	for _, field := range form.Fields {
		known[field.Name] = struct{}{}
	}

	for _, item := range errs {
		if _, ok := known[item.Field]; !ok {
			mapping.Form = append(mapping.Form, item.Message)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[item.Field] = append(mapping.Fields[item.Field], item.Message)
	}

	for name, messages := range mapping.Fields {
		mapping.Fields[name] = normalizeMessages(messages)
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
