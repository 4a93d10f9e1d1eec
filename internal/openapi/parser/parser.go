package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-contactform/pkg/model"
)

const extensionNamespace = "x-formgen"

// ErrOperationNotFound is returned when the document lacks the requested
// operation id.
var ErrOperationNotFound = errors.New("openapi parser: operation not found")

// Options tweak how form models are derived from the document.
type Options struct {
	// Labeler produces a label when a property carries no x-formgen label.
	Labeler func(string) string
}

// Parser converts OpenAPI operations into contact form models using
// kin-openapi.
type Parser struct {
	labeler func(string) string
}

// New constructs a Parser with the given options.
func New(options Options) *Parser {
	labeler := options.Labeler
	if labeler == nil {
		labeler = model.DefaultLabeler
	}
	return &Parser{labeler: labeler}
}

// Forms converts every operation with a request body into a FormModel keyed
// by operationId.
func (p *Parser) Forms(ctx context.Context, raw []byte) (map[string]model.FormModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi parser: validate: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi parser: document does not contain any paths")
	}

	forms := make(map[string]model.FormModel)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			form, ok, err := p.buildForm(method, path, operation)
			if err != nil {
				return nil, err
			}
			if ok {
				forms[form.OperationID] = form
			}
		}
	}

	if len(forms) == 0 {
		return nil, errors.New("openapi parser: no forms extracted")
	}
	return forms, nil
}

// Form returns the single form for operationID.
func (p *Parser) Form(ctx context.Context, raw []byte, operationID string) (model.FormModel, error) {
	forms, err := p.Forms(ctx, raw)
	if err != nil {
		return model.FormModel{}, err
	}
	form, ok := forms[operationID]
	if !ok {
		return model.FormModel{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	return form, nil
}

func (p *Parser) buildForm(method, path string, operation *openapi3.Operation) (model.FormModel, bool, error) {
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return model.FormModel{}, false, nil
	}
	schema := requestSchema(operation.RequestBody.Value)
	if schema == nil {
		return model.FormModel{}, false, nil
	}

	opID := operation.OperationID
	if opID == "" {
		opID = strings.ToLower(method) + ":" + path
	}

	ext := extensionMap(operation.Extensions)
	form := model.FormModel{
		OperationID: opID,
		Endpoint:    path,
		Method:      strings.ToUpper(method),
		Title:       operation.Summary,
		Description: operation.Description,
		SubmitLabel: stringValue(ext["submitLabel"]),
	}
	if form.SubmitLabel == "" {
		form.SubmitLabel = "Submit"
	}

	fields, err := p.fields(schema)
	if err != nil {
		return model.FormModel{}, false, fmt.Errorf("openapi parser: operation %q: %w", opID, err)
	}
	form.Fields = fields
	return form, true, nil
}

func requestSchema(body *openapi3.RequestBody) *openapi3.Schema {
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "application/json", "multipart/form-data"} {
		if mt, ok := body.Content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type orderedField struct {
	order int
	field model.Field
}

func (p *Parser) fields(schema *openapi3.Schema) ([]model.Field, error) {
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	collected := make([]orderedField, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		if !isStringSchema(prop.Type) {
			return nil, fmt.Errorf("property %q: only string properties are supported", name)
		}

		ext := extensionMap(prop.Extensions)
		_, isRequired := required[name]
		field := model.Field{
			Name:        name,
			Type:        model.FieldTypeString,
			Format:      prop.Format,
			Required:    isRequired,
			Label:       stringValue(ext["label"]),
			Placeholder: stringValue(ext["placeholder"]),
			Description: prop.Description,
			TestID:      stringValue(ext["testId"]),
		}
		if field.Label == "" {
			field.Label = p.labeler(name)
		}
		if stringValue(ext["widget"]) == "textarea" {
			field.Type = model.FieldTypeText
		}
		field.Validations = validationsFor(prop, isRequired)

		collected = append(collected, orderedField{order: intValue(ext["order"]), field: field})
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].order != collected[j].order {
			return collected[i].order < collected[j].order
		}
		return collected[i].field.Name < collected[j].field.Name
	})

	out := make([]model.Field, 0, len(collected))
	for _, entry := range collected {
		out = append(out, entry.field)
	}
	return out, nil
}

func validationsFor(prop *openapi3.Schema, required bool) []model.ValidationRule {
	var rules []model.ValidationRule
	if prop.MinLength != 0 {
		rules = append(rules, model.ValidationRule{
			Kind:   model.ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.FormatUint(prop.MinLength, 10)},
		})
	}
	if required {
		rules = append(rules, model.ValidationRule{Kind: model.ValidationRuleRequired})
	}
	if prop.Format == "email" {
		rules = append(rules, model.ValidationRule{Kind: model.ValidationRuleEmail})
	}
	return rules
}

func isStringSchema(types *openapi3.Types) bool {
	if types == nil {
		return true
	}
	values := types.Slice()
	return len(values) == 0 || (len(values) == 1 && values[0] == "string")
}

func extensionMap(raw map[string]any) map[string]any {
	value, ok := raw[extensionNamespace]
	if !ok {
		return nil
	}
	switch typed := value.(type) {
	case map[string]any:
		return typed
	case json.RawMessage:
		var out map[string]any
		if err := json.Unmarshal(typed, &out); err != nil {
			return nil
		}
		return out
	}
	return nil
}

func stringValue(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}

func intValue(value any) int {
	switch typed := value.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case json.Number:
		n, _ := typed.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(typed))
		return n
	}
	return 0
}
