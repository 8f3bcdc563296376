package jsonschema_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/jsonschema"
	"github.com/goliatone/go-journey360/pkg/schema"
)

func signupForm() schema.FormSchema {
	return schema.FormSchema{
		ID:     "form-signup",
		Title:  "Signup",
		Layout: schema.LayoutSimple,
		Fields: []schema.Field{
			{
				ID: "email", Name: "email", Label: "Email Address", Type: schema.FieldTypeEmail,
				Validations: []schema.Validation{
					{Type: schema.ValidationRequired, Message: "Email is required"},
					{Type: schema.ValidationEmail, Message: "Invalid email format"},
				},
			},
			{
				ID: "age", Name: "age", Label: "Age", Type: schema.FieldTypeNumber,
				Validations: []schema.Validation{{Type: schema.ValidationMin, Value: float64(18)}},
			},
			{
				ID: "plan", Name: "plan", Label: "Plan", Type: schema.FieldTypeRadio,
				Options: []schema.FieldOption{{Label: "Basic", Value: "basic"}, {Label: "Pro", Value: "pro"}},
			},
			{
				ID: "terms", Name: "terms", Label: "Accept terms", Type: schema.FieldTypeCheckbox,
				Validations: []schema.Validation{{Type: schema.ValidationRequired}},
			},
		},
	}
}

func TestFromForm_Shape(t *testing.T) {
	doc := jsonschema.FromForm(signupForm())
	if doc["$schema"] != jsonschema.Draft2020 {
		t.Fatalf("unexpected dialect %v", doc["$schema"])
	}
	if diff := cmp.Diff([]any{"email", "terms"}, doc["required"]); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	props := doc["properties"].(map[string]any)
	email := props["email"].(map[string]any)
	if email["format"] != "email" || email["minLength"] != float64(1) {
		t.Fatalf("unexpected email schema %#v", email)
	}
	plan := props["plan"].(map[string]any)
	if diff := cmp.Diff([]any{"basic", "pro"}, plan["enum"]); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if _, err := json.Marshal(doc); err != nil {
		t.Fatalf("document should marshal: %v", err)
	}
}

func TestValidator_AcceptsValidPayload(t *testing.T) {
	validator, err := jsonschema.Compile(signupForm())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	payload := map[string]any{"email": "jane@example.com", "age": float64(30), "plan": "pro", "terms": true}
	if problems := validator.Validate(payload); problems != nil {
		t.Fatalf("unexpected problems %+v", problems)
	}
}

func TestValidator_ReportsFieldErrors(t *testing.T) {
	validator, err := jsonschema.Compile(signupForm())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name    string
		payload map[string]any
		want    []jsonschema.FieldError
	}{
		{
			name:    "missing required",
			payload: map[string]any{"terms": true},
			want:    []jsonschema.FieldError{{Field: "email", Message: "Email is required"}},
		},
		{
			name:    "bad email",
			payload: map[string]any{"email": "nope", "terms": true},
			want:    []jsonschema.FieldError{{Field: "email", Message: "Invalid email format"}},
		},
		{
			name:    "terms unchecked",
			payload: map[string]any{"email": "jane@example.com", "terms": false},
			want:    []jsonschema.FieldError{{Field: "terms", Message: "Accept terms is required"}},
		},
		{
			name:    "empty required string",
			payload: map[string]any{"email": "", "terms": true},
			want: []jsonschema.FieldError{
				{Field: "email", Message: "Email is required"},
				{Field: "email", Message: "Invalid email format"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validator.Validate(tt.payload)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("problems mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidator_RangeAndEnumUseLibraryMessages(t *testing.T) {
	validator, err := jsonschema.Compile(signupForm())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	problems := validator.Validate(map[string]any{
		"email": "jane@example.com", "terms": true, "age": float64(12), "plan": "gold",
	})
	if len(problems) != 2 || problems[0].Field != "age" || problems[1].Field != "plan" {
		t.Fatalf("unexpected problems %+v", problems)
	}
	for _, problem := range problems {
		if problem.Message == "" {
			t.Fatalf("empty message for %s", problem.Field)
		}
	}
}

func TestErrors_GroupsByField(t *testing.T) {
	got := jsonschema.Errors([]jsonschema.FieldError{
		{Field: "email", Message: "a"},
		{Field: "email", Message: "b"},
		{Message: "c"},
	})
	want := map[string][]string{"email": {"a", "b"}, "_form": {"c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("grouping mismatch (-want +got):\n%s", diff)
	}
}
