package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// Renderer runs the contact form as an interactive terminal session. Render
// blocks until the user submits valid values, aborts, or runs out of
// attempts, and returns the submitted values in the configured format.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	maxAttempts  int
	inline       bool
	formOptions  []contact.Option
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver()
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every field, then submits. Failed submits print every
// error and re-prompt only the failing fields.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if len(form.Fields) == 0 {
		return nil, errors.New("tui: form has no fields")
	}
	if err := contact.Supports(form); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	validator := validation.New(form)
	session := contact.NewForm(validator, r.formOptions...)
	for name, value := range opts.Values {
		if value == "" {
			continue
		}
		if err := session.Set(name, value); err != nil {
			return nil, fmt.Errorf("tui: prefill: %w", err)
		}
	}

	if form.Title != "" {
		if err := r.driver.Info(ctx, r.theme.InfoPrefix+form.Title); err != nil {
			return nil, err
		}
	}

	pending := form.FieldNames()
	for attempt := 1; ; attempt++ {
		for _, name := range pending {
			field, _ := form.Field(name)
			value, err := r.prompt(ctx, validator, field, session.Values().Value(name))
			if err != nil {
				return nil, err
			}
			if err := session.Set(name, value); err != nil {
				return nil, fmt.Errorf("tui: %w", err)
			}
		}

		result := session.Submit()
		if result.OK() {
			if err := r.printSnapshot(ctx, form, *result.Snapshot); err != nil {
				return nil, err
			}
			return r.serialize(*result.Snapshot)
		}

		for _, item := range result.Errors {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+item.Display()); err != nil {
				return nil, err
			}
		}
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return nil, ErrTooManyAttempts
		}
		retry, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: "Fix the fields above and submit again?",
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !retry {
			return nil, ErrAborted
		}

		pending = pending[:0]
		for _, item := range result.Errors {
			pending = append(pending, item.Field)
		}
	}
}

func (r *Renderer) prompt(ctx context.Context, validator *validation.Validator, field model.Field, current string) (string, error) {
	help := ""
	if field.Placeholder != "" {
		help = "e.g. " + field.Placeholder
	}

	if field.Type == model.FieldTypeText {
		return r.driver.TextArea(ctx, TextAreaConfig{
			Message: field.Label,
			Default: current,
			Help:    help,
		})
	}

	cfg := InputConfig{
		Message: field.Label,
		Default: current,
		Help:    help,
	}
	if r.inline {
		name := field.Name
		cfg.Validator = func(value string) error {
			if failure, failed := validator.ValidateField(name, value); failed {
				return errors.New(failure.Message)
			}
			return nil
		}
	}
	return r.driver.Input(ctx, cfg)
}

func (r *Renderer) printSnapshot(ctx context.Context, form model.FormModel, snapshot contact.Snapshot) error {
	if err := r.driver.Info(ctx, r.theme.InfoPrefix+"You Submitted:"); err != nil {
		return err
	}
	for _, line := range summaryLines(form, snapshot) {
		if err := r.driver.Info(ctx, r.theme.InfoPrefix+line); err != nil {
			return err
		}
	}
	return nil
}

func summaryLines(form model.FormModel, snapshot contact.Snapshot) []string {
	var lines []string
	for _, field := range form.Fields {
		value := snapshot.Values.Value(field.Name)
		if value == "" {
			continue
		}
		label := strings.TrimSpace(strings.TrimSuffix(field.Label, "*"))
		lines = append(lines, label+": "+value)
	}
	return lines
}

func (r *Renderer) serialize(snapshot contact.Snapshot) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		for name, value := range snapshot.Values.Map() {
			values.Set(name, fmt.Sprint(value))
		}
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		for _, name := range []string{contact.FieldFirstName, contact.FieldLastName, contact.FieldEmail, contact.FieldMessage} {
			if value := snapshot.Values.Value(name); value != "" {
				fmt.Fprintf(&b, "%s: %s\n", name, value)
			}
		}
		return []byte(b.String()), nil
	default:
		out, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("tui: encode: %w", err)
		}
		return out, nil
	}
}
