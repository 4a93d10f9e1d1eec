package contactform

import (
	"context"

	"github.com/goliatone/go-contactform/internal/openapi/parser"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// OperationID identifies the contact form operation in the embedded schema.
const OperationID = "contact:submit"

// RenderOptions describes per-request data renderers draw; alias exported via
// the root package for convenience.
type RenderOptions = render.RenderOptions

// Values are the editable contact form fields.
type Values = contact.Values

// LoadForm parses an OpenAPI document and returns the form for operationID.
// Forms declaring fields other than the four contact fields are rejected.
func LoadForm(ctx context.Context, raw []byte, operationID string) (model.FormModel, error) {
	definition, err := parser.New(parser.Options{}).Form(ctx, raw, operationID)
	if err != nil {
		return model.FormModel{}, err
	}
	if err := contact.Supports(definition); err != nil {
		return model.FormModel{}, err
	}
	return definition, nil
}

// DefaultForm returns the contact form declared by the embedded schema.
func DefaultForm(ctx context.Context) (model.FormModel, error) {
	return LoadForm(ctx, ContactSchema(), OperationID)
}

// NewForm returns a pristine form validated against definition.
func NewForm(definition model.FormModel, options ...contact.Option) *contact.Form {
	return contact.NewForm(validation.New(definition), options...)
}

// GenerateHTML renders definition with the built-in vanilla renderer. Pass
// zero RenderOptions for the pristine form.
func GenerateHTML(ctx context.Context, definition model.FormModel, opts RenderOptions, options ...vanilla.Option) ([]byte, error) {
	renderer, err := vanilla.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, definition, opts)
}
