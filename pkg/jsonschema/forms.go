package jsonschema

import (
	"github.com/goliatone/go-journey360/pkg/schema"
)

// Draft2020 is the dialect emitted by FromForm.
const Draft2020 = "https://json-schema.org/draft/2020-12/schema"

const (
	phonePattern = `^\+?[0-9][0-9 ()-]{6,19}$`
	timePattern  = `^[0-9]{2}:[0-9]{2}(:[0-9]{2})?$`
)

// FromForm converts a form into a Draft 2020-12 object schema describing a
// valid submission payload. Values use JSON-compatible Go types so the result
// can be marshalled or handed to the compiler directly.
func FromForm(form schema.FormSchema) map[string]any {
	properties := make(map[string]any, len(form.Fields))
	required := make([]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		properties[field.Name] = fieldSchema(field)
		if field.Required() {
			required = append(required, field.Name)
		}
	}

	doc := map[string]any{
		"$schema":    Draft2020,
		"title":      form.Title,
		"type":       "object",
		"properties": properties,
	}
	if form.Description != "" {
		doc["description"] = form.Description
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func fieldSchema(field schema.Field) map[string]any {
	prop := map[string]any{"title": field.Label}
	if field.Description != "" {
		prop["description"] = field.Description
	}

	switch field.Type {
	case schema.FieldTypeNumber:
		prop["type"] = "number"
	case schema.FieldTypeCheckbox:
		prop["type"] = "boolean"
		if field.Required() {
			prop["const"] = true
		}
	default:
		prop["type"] = "string"
	}

	switch {
	case field.Type == schema.FieldTypeEmail || field.HasValidation(schema.ValidationEmail):
		prop["format"] = "email"
	case field.Type == schema.FieldTypeURL || field.HasValidation(schema.ValidationURL):
		prop["format"] = "uri"
	case field.Type == schema.FieldTypeDate:
		prop["format"] = "date"
	case field.Type == schema.FieldTypeTime:
		prop["pattern"] = timePattern
	case field.Type == schema.FieldTypePhone || field.HasValidation(schema.ValidationPhone):
		prop["pattern"] = phonePattern
	}

	if field.Type.HasOptions() && len(field.Options) > 0 {
		values := make([]any, 0, len(field.Options))
		for _, opt := range field.Options {
			values = append(values, opt.Value)
		}
		prop["enum"] = values
	}

	for _, rule := range field.Validations {
		switch rule.Type {
		case schema.ValidationMin:
			if n, ok := rule.NumberValue(); ok {
				prop["minimum"] = n
			}
		case schema.ValidationMax:
			if n, ok := rule.NumberValue(); ok {
				prop["maximum"] = n
			}
		case schema.ValidationMinLength:
			if n, ok := rule.NumberValue(); ok {
				prop["minLength"] = n
			}
		case schema.ValidationMaxLength:
			if n, ok := rule.NumberValue(); ok {
				prop["maxLength"] = n
			}
		case schema.ValidationPattern:
			prop["pattern"] = rule.StringValue()
		}
	}

	if field.Required() && prop["type"] == "string" {
		if _, ok := prop["minLength"]; !ok {
			prop["minLength"] = float64(1)
		}
	}
	return prop
}
