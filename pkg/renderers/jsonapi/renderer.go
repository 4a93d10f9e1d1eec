package jsonapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// Payload is the document the renderer emits.
type Payload struct {
	OperationID string            `json:"operationId"`
	State       string            `json:"state"`
	Fields      []model.Field     `json:"fields,omitempty"`
	Values      map[string]string `json:"values,omitempty"`
	Errors      validation.Errors `json:"errors,omitempty"`
	Submitted   *contact.Snapshot `json:"submitted,omitempty"`
}

// Option configures the renderer.
type Option func(*Renderer)

// WithFields includes the form's field definitions in the payload.
func WithFields(enabled bool) Option {
	return func(r *Renderer) {
		r.includeFields = enabled
	}
}

// WithIndent pretty prints the payload.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer serialises the form state as JSON for API clients.
type Renderer struct {
	includeFields bool
	indent        string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the JSON renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "json"
}

func (r *Renderer) ContentType() string {
	return "application/json"
}

func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := Payload{
		OperationID: form.OperationID,
		State:       opts.State.String(),
		Values:      nonEmpty(opts.Values),
		Errors:      opts.Errors,
		Submitted:   opts.Snapshot,
	}
	if r.includeFields {
		payload.Fields = form.Fields
	}

	var (
		out []byte
		err error
	)
	if r.indent != "" {
		out, err = json.MarshalIndent(payload, "", r.indent)
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("json renderer: encode: %w", err)
	}
	return out, nil
}

func nonEmpty(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		if value != "" {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
