package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSchema wraps every structural problem reported by Validate.
	ErrInvalidSchema = errors.New("schema: invalid form schema")

	machineNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)
)

// MaxLengthLimit caps minLength and maxLength thresholds.
const MaxLengthLimit = 10000

// Validate checks the invariants every generated or edited schema must hold:
// at least one field, unique machine names distinct from labels, known field
// types and layouts, and option sources for choice fields.
func (s FormSchema) Validate() error {
	var problems []string
	if strings.TrimSpace(s.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, "title is required")
	}
	if _, err := ParseLayout(string(s.Layout)); err != nil || s.Layout == "" {
		problems = append(problems, fmt.Sprintf("layout %q is not supported", s.Layout))
	}
	if len(s.Fields) == 0 {
		problems = append(problems, "at least one field is required")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, field := range s.Fields {
		problems = append(problems, validateField(i, field, seen)...)
	}
	if s.Layout == LayoutWizard && len(s.Steps) > 0 {
		for _, field := range s.Fields {
			if field.Step < 0 || field.Step >= len(s.Steps) {
				problems = append(problems, fmt.Sprintf("field %q references missing step %d", field.Name, field.Step))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(problems, "; "))
}

func validateField(index int, field Field, seen map[string]struct{}) []string {
	var problems []string
	ref := field.Name
	if ref == "" {
		ref = fmt.Sprintf("#%d", index)
	}
	switch {
	case field.Name == "":
		problems = append(problems, fmt.Sprintf("field %s: name is required", ref))
	case !machineNamePattern.MatchString(field.Name):
		problems = append(problems, fmt.Sprintf("field %s: name must be a machine key", ref))
	}
	if field.Name != "" {
		if _, dup := seen[field.Name]; dup {
			problems = append(problems, fmt.Sprintf("field %s: duplicate name", ref))
		}
		seen[field.Name] = struct{}{}
	}
	if field.Label == "" {
		problems = append(problems, fmt.Sprintf("field %s: label is required", ref))
	} else if field.Label == field.Name {
		problems = append(problems, fmt.Sprintf("field %s: label must differ from name", ref))
	}
	if !field.Type.Known() {
		problems = append(problems, fmt.Sprintf("field %s: unknown type %q", ref, field.Type))
	}
	if field.Type.HasOptions() && len(field.Options) == 0 && field.APIConfig == nil {
		problems = append(problems, fmt.Sprintf("field %s: %s requires options or apiConfig", ref, field.Type))
	}
	for _, rule := range field.Validations {
		switch rule.Type {
		case ValidationPattern:
			if _, err := regexp.Compile(rule.StringValue()); err != nil {
				problems = append(problems, fmt.Sprintf("field %s: invalid pattern: %v", ref, err))
			}
		case ValidationMinLength, ValidationMaxLength:
			n, ok := rule.NumberValue()
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("field %s: %s must be a number", ref, rule.Type))
			case n < 0 || n != math.Trunc(n):
				problems = append(problems, fmt.Sprintf("field %s: %s must be a non-negative integer", ref, rule.Type))
			case n > MaxLengthLimit:
				problems = append(problems, fmt.Sprintf("field %s: %s exceeds %d", ref, rule.Type, MaxLengthLimit))
			}
		case ValidationMin, ValidationMax:
			if n, ok := rule.NumberValue(); !ok || math.IsNaN(n) || math.IsInf(n, 0) {
				problems = append(problems, fmt.Sprintf("field %s: %s must be a finite number", ref, rule.Type))
			}
		}
	}
	if lo, hi, ok := bounds(field, ValidationMinLength, ValidationMaxLength); ok && lo > hi {
		problems = append(problems, fmt.Sprintf("field %s: minLength %v is above maxLength %v", ref, lo, hi))
	}
	if lo, hi, ok := bounds(field, ValidationMin, ValidationMax); ok && lo > hi {
		problems = append(problems, fmt.Sprintf("field %s: min %v is above max %v", ref, lo, hi))
	}
	return problems
}

func bounds(field Field, lower, upper ValidationType) (float64, float64, bool) {
	lo, ok := field.Rule(lower)
	if !ok {
		return 0, 0, false
	}
	hi, ok := field.Rule(upper)
	if !ok {
		return 0, 0, false
	}
	l, lok := lo.NumberValue()
	h, hok := hi.NumberValue()
	return l, h, lok && hok
}

// Marshal encodes the schema as indented JSON, matching the download and
// clipboard exports.
func Marshal(s FormSchema) ([]byte, error) {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}
	return payload, nil
}

// Unmarshal decodes a schema document. Numeric validation values decode as
// float64 and an empty kind is upgraded from the title.
func Unmarshal(data []byte) (FormSchema, error) {
	var out FormSchema
	if err := json.Unmarshal(data, &out); err != nil {
		return FormSchema{}, fmt.Errorf("schema: unmarshal: %w", err)
	}
	if out.Kind == "" {
		out.Kind = KindFromTitle(out.Title)
	}
	return out, nil
}
