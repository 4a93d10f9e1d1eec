package contact

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-contactform/pkg/model"
)

// Field names used on the wire and in validation messages.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldMessage   = "message"
)

// ErrUnknownField is returned when an edit targets a field the form does not
// declare.
var ErrUnknownField = errors.New("contact: unknown field")

// Values is the live, editable state of the four input fields.
type Values struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message,omitempty"`
}

// Value implements validation.Values.
func (v Values) Value(field string) string {
	switch field {
	case FieldFirstName:
		return v.FirstName
	case FieldLastName:
		return v.LastName
	case FieldEmail:
		return v.Email
	case FieldMessage:
		return v.Message
	}
	return ""
}

// With returns a copy of v with field set to value.
func (v Values) With(field, value string) (Values, error) {
	switch field {
	case FieldFirstName:
		v.FirstName = value
	case FieldLastName:
		v.LastName = value
	case FieldEmail:
		v.Email = value
	case FieldMessage:
		v.Message = value
	default:
		return v, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return v, nil
}

// Map returns the values keyed by field name. Empty fields are omitted.
func (v Values) Map() map[string]any {
	out := make(map[string]any, 4)
	for _, name := range []string{FieldFirstName, FieldLastName, FieldEmail, FieldMessage} {
		if value := v.Value(name); value != "" {
			out[name] = value
		}
	}
	return out
}

// ValuesFromMap builds Values from a name keyed map, ignoring unknown keys.
func ValuesFromMap(in map[string]string) Values {
	return Values{
		FirstName: in[FieldFirstName],
		LastName:  in[FieldLastName],
		Email:     in[FieldEmail],
		Message:   in[FieldMessage],
	}
}

// Supports reports whether definition declares only fields Values can hold.
// The error names the first unsupported field and wraps ErrUnknownField.
func Supports(definition model.FormModel) error {
	for _, field := range definition.Fields {
		switch field.Name {
		case FieldFirstName, FieldLastName, FieldEmail, FieldMessage:
		default:
			return fmt.Errorf("%w: form %q declares %q", ErrUnknownField, definition.OperationID, field.Name)
		}
	}
	return nil
}
