package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// Transformer mutates a parsed schema before tests and endpoints are derived.
// Implementations can rename fields, relabel them or change the layout.
type Transformer interface {
	Transform(ctx context.Context, form *schema.FormSchema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *schema.FormSchema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *schema.FormSchema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// Chain runs transformers in order and stops at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, form *schema.FormSchema) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, form); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file.
// The document shape supports form-level settings and per-field patches:
//
//	{
//	  "title": "Trip Cover",
//	  "layout": "wizard",
//	  "successMessage": "Thanks!",
//	  "fields": {
//	    "destination": {"label": "Where to?", "placeholder": "Country"},
//	    "email": {"rename": "contactEmail", "required": true}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	Layout         string                    `json:"layout"`
	SuccessMessage string                    `json:"successMessage"`
	ErrorMessage   string                    `json:"errorMessage"`
	Fields         map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Placeholder string               `json:"placeholder"`
	Rename      string               `json:"rename"`
	Type        schema.FieldType     `json:"type"`
	Step        *int                 `json:"step"`
	Required    *bool                `json:"required"`
	Options     []schema.FieldOption `json:"options"`
	APIConfig   *schema.APIConfig    `json:"apiConfig"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	if document.Layout != "" {
		if _, err := schema.ParseLayout(document.Layout); err != nil {
			return nil, fmt.Errorf("json preset transformer: %w", err)
		}
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied schema. Patches
// for fields the schema does not have are skipped, since the parser decides
// which fields exist.
func (t *JSONPresetTransformer) Transform(ctx context.Context, form *schema.FormSchema) error {
	if form == nil {
		return errors.New("json preset transformer: form schema is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := t.document
	if doc.Title != "" {
		form.Title = doc.Title
	}
	if doc.Description != "" {
		form.Description = doc.Description
	}
	if doc.Layout != "" {
		layout, _ := schema.ParseLayout(doc.Layout)
		form.Layout = layout
	}
	if doc.SuccessMessage != "" {
		form.SuccessMessage = doc.SuccessMessage
	}
	if doc.ErrorMessage != "" {
		form.ErrorMessage = doc.ErrorMessage
	}

	for name, patch := range doc.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := findField(form.Fields, name)
		if field == nil {
			continue
		}
		applyFieldPatch(field, patch)
	}
	return nil
}

func applyFieldPatch(field *schema.Field, patch jsonFieldPatch) {
	if field == nil {
		return
	}
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Description != "" {
		field.Description = patch.Description
	}
	if patch.Placeholder != "" {
		field.Placeholder = patch.Placeholder
	}
	if patch.Type != "" {
		field.Type = patch.Type
	}
	if patch.Step != nil {
		field.Step = *patch.Step
	}
	if len(patch.Options) > 0 {
		field.Options = append([]schema.FieldOption(nil), patch.Options...)
	}
	if patch.APIConfig != nil {
		cfg := *patch.APIConfig
		field.APIConfig = &cfg
	}
	if patch.Required != nil {
		setRequired(field, *patch.Required)
	}
	if rename := strings.TrimSpace(patch.Rename); rename != "" {
		field.Name = rename
	}
}

func setRequired(field *schema.Field, required bool) {
	if field.Required() == required {
		return
	}
	if required {
		rule := schema.Validation{Type: schema.ValidationRequired, Message: field.Label + " is required"}
		field.Validations = append([]schema.Validation{rule}, field.Validations...)
		return
	}
	kept := field.Validations[:0]
	for _, rule := range field.Validations {
		if rule.Type != schema.ValidationRequired {
			kept = append(kept, rule)
		}
	}
	field.Validations = kept
}

func findField(fields []schema.Field, name string) *schema.Field {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}
