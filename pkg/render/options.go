package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// RenderOptions describe per-request data renderers use to draw the current
// form state without touching the form model.
type RenderOptions struct {
	// State is the form's position in its edit/submit cycle.
	State contact.State
	// Values pre-populates inputs keyed by field name.
	Values map[string]string
	// Errors lists the validation failures to display, in order.
	Errors validation.Errors
	// Snapshot is the last successful submission. Renderers draw the
	// submitted values only when it is set.
	Snapshot *contact.Snapshot
	// HiddenFields are emitted as hidden inputs (CSRF tokens and similar).
	HiddenFields map[string]string
	// Theme carries resolved theme tokens and CSS variables.
	Theme *theme.RendererConfig
}

// OptionsFromView copies a form view into render options.
func OptionsFromView(view contact.View) RenderOptions {
	values := make(map[string]string, 4)
	for _, name := range []string{contact.FieldFirstName, contact.FieldLastName, contact.FieldEmail, contact.FieldMessage} {
		values[name] = view.Values.Value(name)
	}
	return RenderOptions{
		State:    view.State,
		Values:   values,
		Errors:   view.Errors,
		Snapshot: view.Snapshot,
	}
}
