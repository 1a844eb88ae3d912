package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// ErrOperationNotFound is returned when no operation carries the requested
// operationId.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Options tweaks document loading.
type Options struct {
	// ResolveReferences allows external $ref resolution and validates the
	// document before extracting schemas.
	ResolveReferences bool
}

// Load parses an OpenAPI document (JSON or YAML).
func Load(ctx context.Context, raw []byte, opts Options) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.ResolveReferences,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if opts.ResolveReferences {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, nil
}

// RuleSetFromOperation builds a compiled rule set from the request body of
// operationID. Only string properties become fields; required properties
// get a required rule, `format: email` an email rule, and pattern and
// minLength map to their rule types.
func RuleSetFromOperation(doc *openapi3.T, operationID string) (*validation.RuleSet, error) {
	if doc == nil {
		return nil, errors.New("openapi: document is nil")
	}
	operation := findOperation(doc, operationID)
	if operation == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	schema := requestSchema(operation.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return nil, fmt.Errorf("openapi: operation %q has no request body properties", operationID)
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	rs := &validation.RuleSet{Fields: make(map[string]validation.FieldRules)}
	for _, name := range propertyNames(schema.Properties) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil || firstSchemaType(ref.Value.Type) != openapi3.TypeString {
			continue
		}
		_, isRequired := required[name]
		rs.Fields[name] = fieldRules(ref.Value, isRequired)
	}

	if err := rs.Compile(); err != nil {
		return nil, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}
	return rs, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldRules(schema *openapi3.Schema, required bool) validation.FieldRules {
	field := validation.FieldRules{}
	if schema.Default != nil {
		field.Default = fmt.Sprint(schema.Default)
	}
	if required {
		field.Rules = append(field.Rules, validation.Rule{Type: validation.RuleRequired})
	}
	if strings.EqualFold(schema.Format, "email") {
		field.Rules = append(field.Rules, validation.Rule{Type: validation.RuleEmail})
	}
	if schema.MinLength > 0 {
		field.Rules = append(field.Rules, validation.Rule{Type: validation.RuleMinLength, Min: int(schema.MinLength)})
	}
	if schema.Pattern != "" {
		field.Rules = append(field.Rules, validation.Rule{Type: validation.RulePattern, Pattern: schema.Pattern})
	}
	return field
}

func propertyNames(properties openapi3.Schemas) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
