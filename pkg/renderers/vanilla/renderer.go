package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	rendertemplate "github.com/goliatone/go-contactform/pkg/render/template"
	gotemplate "github.com/goliatone/go-contactform/pkg/render/template/gotemplate"
)

const formTemplate = "templates/form.tmpl"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer draws the contact form as server-side HTML.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the form, its current errors and, once a submit succeeded, the
// submitted values.
func (r *Renderer) Render(_ context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	result, err := r.templates.RenderTemplate(formTemplate, buildContext(form, opts))
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func buildContext(form model.FormModel, opts render.RenderOptions) map[string]any {
	mapping := render.MapErrors(form, opts.Errors)

	fields := make([]map[string]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		messages := mapping.FieldErrors(field.Name)
		_, required := field.Rule(model.ValidationRuleRequired)
		minLength := ""
		if rule, ok := field.Rule(model.ValidationRuleMinLength); ok {
			minLength = rule.Params["value"]
		}
		fields = append(fields, map[string]any{
			"id":          "contact-" + field.Name,
			"name":        field.Name,
			"label":       field.Label,
			"placeholder": field.Placeholder,
			"input_type":  inputType(field),
			"textarea":    field.Type == model.FieldTypeText,
			"value":       opts.Values[field.Name],
			"errors":      messages,
			"invalid":     len(messages) > 0,
			"required":    required,
			"min_length":  minLength,
		})
	}

	hidden := make([]map[string]any, 0, len(opts.HiddenFields))
	for _, item := range render.SortedHiddenFields(opts.HiddenFields) {
		hidden = append(hidden, map[string]any{"name": item.Name, "value": item.Value})
	}

	method := strings.ToLower(form.Method)
	if method == "" {
		method = "post"
	}

	ctx := map[string]any{
		"form": map[string]any{
			"title":        form.Title,
			"description":  sanitizeIntro(form.Description),
			"submit_label": form.SubmitLabel,
			"method":       method,
			"action":       form.Endpoint,
		},
		"state":       opts.State.String(),
		"fields":      fields,
		"form_errors": mapping.Form,
		"hidden":      hidden,
		"theme":       themeContext(opts),
	}
	if snapshot := snapshotContext(form, opts); snapshot != nil {
		ctx["snapshot"] = snapshot
	}
	return ctx
}

func inputType(field model.Field) string {
	if field.Format == "email" {
		return "email"
	}
	return "text"
}

func snapshotContext(form model.FormModel, opts render.RenderOptions) map[string]any {
	if opts.Snapshot == nil {
		return nil
	}
	entries := make([]map[string]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		value := opts.Snapshot.Values.Value(field.Name)
		if value == "" || field.TestID == "" {
			continue
		}
		entries = append(entries, map[string]any{
			"test_id": field.TestID,
			"label":   displayLabel(field),
			"value":   value,
		})
	}
	return map[string]any{
		"id":      opts.Snapshot.ID.String(),
		"entries": entries,
	}
}

func displayLabel(field model.Field) string {
	return strings.TrimSpace(strings.TrimSuffix(field.Label, "*"))
}

func themeContext(opts render.RenderOptions) map[string]any {
	if opts.Theme == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":    opts.Theme.Theme,
		"variant": opts.Theme.Variant,
		"style":   cssVarsStyle(opts.Theme.CSSVars),
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		if strings.HasPrefix(key, "--") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
