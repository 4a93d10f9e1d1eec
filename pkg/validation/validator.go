package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	playground "github.com/go-playground/validator/v10"

	"github.com/goliatone/go-contactform/pkg/model"
)

// Values exposes the current value of a named field. Missing fields read as
// the empty string.
type Values interface {
	Value(field string) string
}

// Map adapts a plain map to Values.
type Map map[string]string

// Value implements Values.
func (m Map) Value(field string) string {
	return m[field]
}

// Validator evaluates the rules declared on a form model. It is stateless
// and safe for concurrent use.
type Validator struct {
	form   model.FormModel
	format *playground.Validate
}

// New returns a Validator for the rules declared on form.
func New(form model.FormModel) *Validator {
	return &Validator{
		form:   form,
		format: playground.New(),
	}
}

// Validate runs every field's rules against values and returns the failures
// in field declaration order. Each field reports at most one message: the
// first of its rules that fails. A nil result means the values are valid.
func (v *Validator) Validate(values Values) Errors {
	var out Errors
	for _, field := range v.form.Fields {
		if msg, failed := v.check(field, values.Value(field.Name)); failed {
			out = append(out, Error{Field: field.Name, Message: msg})
		}
	}
	return out
}

// ValidateField runs the rules of a single field. Unknown fields never fail.
func (v *Validator) ValidateField(name, value string) (Error, bool) {
	field, ok := v.form.Field(name)
	if !ok {
		return Error{}, false
	}
	msg, failed := v.check(field, value)
	if !failed {
		return Error{}, false
	}
	return Error{Field: name, Message: msg}, true
}

func (v *Validator) check(field model.Field, value string) (string, bool) {
	for _, rule := range field.Validations {
		switch rule.Kind {
		case model.ValidationRuleMinLength:
			min, err := strconv.Atoi(rule.Params["value"])
			if err != nil || min <= 0 {
				continue
			}
			if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
				return fmt.Sprintf("%s must have at least %d characters", field.Name, min), true
			}
		case model.ValidationRuleRequired:
			if value == "" {
				return fmt.Sprintf("%s is a required field", field.Name), true
			}
		case model.ValidationRuleEmail:
			// Empty and malformed addresses share one message.
			if err := v.format.Var(value, "required,email"); err != nil {
				return fmt.Sprintf("%s must be a valid email address", field.Name), true
			}
		}
	}
	return "", false
}
