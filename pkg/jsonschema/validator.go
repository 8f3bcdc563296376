package jsonschema

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-journey360/pkg/schema"
)

const resourceBase = "https://journey360.dev/schemas/"

// FieldError is a validation problem attributed to a single field. Field is
// empty for payload-level problems.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Validator checks submission payloads against a compiled form schema.
type Validator struct {
	form    schema.FormSchema
	schema  *santhosh.Schema
	printer *message.Printer
}

// Compile builds a Validator for form.
func Compile(form schema.FormSchema) (*Validator, error) {
	location := resourceBase + url.PathEscape(form.ID) + ".json"

	compiler := santhosh.NewCompiler()
	compiler.DefaultDraft(santhosh.Draft2020)
	compiler.AssertFormat()
	if err := compiler.AddResource(location, FromForm(form)); err != nil {
		return nil, fmt.Errorf("jsonschema: add resource: %w", err)
	}
	compiled, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile %s: %w", form.ID, err)
	}
	return &Validator{
		form:    form,
		schema:  compiled,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Validate returns the problems found in payload, sorted by field. A nil slice
// means the payload is valid.
func (v *Validator) Validate(payload any) []FieldError {
	if payload == nil {
		payload = map[string]any{}
	}
	err := v.schema.Validate(payload)
	if err == nil {
		return nil
	}

	var verr *santhosh.ValidationError
	if !errors.As(err, &verr) {
		return []FieldError{{Message: err.Error()}}
	}

	var out []FieldError
	v.collect(verr, &out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Message < out[j].Message
	})
	return dedupe(out)
}

func (v *Validator) collect(verr *santhosh.ValidationError, out *[]FieldError) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			v.collect(cause, out)
		}
		return
	}

	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, name := range required.Missing {
			*out = append(*out, FieldError{Field: name, Message: v.ruleMessage(name, schema.ValidationRequired)})
		}
		return
	}

	var name string
	if len(verr.InstanceLocation) > 0 {
		name = verr.InstanceLocation[0]
	}
	*out = append(*out, FieldError{Field: name, Message: v.message(name, verr)})
}

func (v *Validator) message(name string, verr *santhosh.ValidationError) string {
	var rule schema.ValidationType
	switch k := verr.ErrorKind.(type) {
	case *kind.Format:
		switch k.Want {
		case "email":
			rule = schema.ValidationEmail
		case "uri":
			rule = schema.ValidationURL
		}
	case *kind.Pattern:
		rule = schema.ValidationPattern
		if field, ok := v.form.Field(name); ok && !field.HasValidation(schema.ValidationPattern) && field.HasValidation(schema.ValidationPhone) {
			rule = schema.ValidationPhone
		}
	case *kind.Minimum:
		rule = schema.ValidationMin
	case *kind.Maximum:
		rule = schema.ValidationMax
	case *kind.MinLength:
		rule = schema.ValidationMinLength
		if field, ok := v.form.Field(name); ok && !field.HasValidation(schema.ValidationMinLength) {
			rule = schema.ValidationRequired
		}
	case *kind.MaxLength:
		rule = schema.ValidationMaxLength
	case *kind.Const:
		rule = schema.ValidationRequired
	}

	if rule != "" {
		if field, ok := v.form.Field(name); ok {
			if r, ok := field.Rule(rule); ok && r.Message != "" {
				return r.Message
			}
			if rule == schema.ValidationRequired {
				return field.Label + " is required"
			}
		}
	}
	return verr.ErrorKind.LocalizedString(v.printer)
}

func (v *Validator) ruleMessage(name string, rule schema.ValidationType) string {
	field, ok := v.form.Field(name)
	if !ok {
		return name + " is required"
	}
	if r, ok := field.Rule(rule); ok && r.Message != "" {
		return r.Message
	}
	return field.Label + " is required"
}

func dedupe(in []FieldError) []FieldError {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, fe := range in[1:] {
		if fe != out[len(out)-1] {
			out = append(out, fe)
		}
	}
	return out
}

// Errors groups field errors by field name, the shape the renderers consume.
func Errors(problems []FieldError) map[string][]string {
	if len(problems) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, problem := range problems {
		key := problem.Field
		if key == "" {
			key = "_form"
		}
		out[key] = append(out[key], problem.Message)
	}
	return out
}
