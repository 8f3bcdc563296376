package testgen

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// patternCandidates are tried in order when a field carries a pattern rule.
var patternCandidates = []string{
	"ABC12345",
	"12345678",
	"4111111111111111",
	"sample",
	"Sample Value",
	"AB-1234",
	"sample@example.com",
	"https://example.com",
}

var invalidPatternCandidates = []string{"!!invalid!!", "", "a", "#"}

// typedCandidates replace patternCandidates for fields whose type or format
// rule already constrains the value.
var typedCandidates = map[schema.FieldType][]string{
	schema.FieldTypeEmail: {"jane.doe@example.com", "sample@example.com", "test@example.org"},
	schema.FieldTypePhone: {"+1-555-0100", "+15550100", "555-0100", "5550100", "0123456789", "555 555 0100"},
	schema.FieldTypeURL:   {"https://example.com", "https://www.example.com", "http://example.com"},
}

// ValidValue returns a deterministic value that satisfies every rule on field.
func ValidValue(field schema.Field) any {
	if value, ok := patternValue(field); ok {
		return value
	}
	switch field.Type {
	case schema.FieldTypeEmail:
		return "jane.doe@example.com"
	case schema.FieldTypePhone:
		return "+1-555-0100"
	case schema.FieldTypeURL:
		return "https://example.com"
	case schema.FieldTypeNumber:
		return validNumber(field)
	case schema.FieldTypeDate:
		return "2026-01-15"
	case schema.FieldTypeTime:
		return "09:30"
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		if len(field.Options) > 0 {
			return field.Options[0].Value
		}
		return "option_1"
	case schema.FieldTypeCheckbox:
		return true
	case schema.FieldTypeFile:
		return "document.pdf"
	case schema.FieldTypePassword:
		return fitLength(field, "Str0ngPassw0rd!")
	case schema.FieldTypeTextarea:
		return fitLength(field, "This is a sample response used for testing.")
	}

	switch {
	case field.HasValidation(schema.ValidationEmail):
		return "jane.doe@example.com"
	case field.HasValidation(schema.ValidationPhone):
		return "+1-555-0100"
	case field.HasValidation(schema.ValidationURL):
		return "https://example.com"
	}
	return fitLength(field, "Sample "+field.Name)
}

// patternValue picks the first candidate matching the field's pattern rule.
// Email, phone and url fields only try candidates of their own format.
func patternValue(field schema.Field) (string, bool) {
	rule, ok := field.Rule(schema.ValidationPattern)
	if !ok {
		return "", false
	}
	re, err := regexp.Compile(rule.StringValue())
	if err != nil {
		return "", false
	}
	candidates := append([]string(nil), typedCandidates[field.Type]...)
	switch {
	case field.HasValidation(schema.ValidationEmail):
		candidates = append(candidates, typedCandidates[schema.FieldTypeEmail]...)
	case field.HasValidation(schema.ValidationPhone):
		candidates = append(candidates, typedCandidates[schema.FieldTypePhone]...)
	case field.HasValidation(schema.ValidationURL):
		candidates = append(candidates, typedCandidates[schema.FieldTypeURL]...)
	}
	if len(candidates) == 0 {
		candidates = patternCandidates
	}
	for _, candidate := range candidates {
		if re.MatchString(candidate) && lengthOK(field, candidate) {
			return candidate, true
		}
	}
	return "", false
}

// InvalidValue returns a value that violates rule. The boolean is false when
// no violating value exists for the rule (for example minLength 0).
func InvalidValue(field schema.Field, rule schema.Validation) (any, bool) {
	switch rule.Type {
	case schema.ValidationRequired:
		return nil, true
	case schema.ValidationEmail:
		return "not-an-email", true
	case schema.ValidationPhone:
		return "abc", true
	case schema.ValidationURL:
		return "not a url", true
	case schema.ValidationMin:
		if n, ok := rule.NumberValue(); ok {
			return n - 1, true
		}
	case schema.ValidationMax:
		if n, ok := rule.NumberValue(); ok {
			return n + 1, true
		}
	case schema.ValidationMinLength:
		if n, ok := lengthThreshold(rule); ok && n >= 1 {
			return strings.Repeat("a", n-1), true
		}
	case schema.ValidationMaxLength:
		if n, ok := lengthThreshold(rule); ok && n < schema.MaxLengthLimit {
			return strings.Repeat("a", n+1), true
		}
	case schema.ValidationPattern:
		re, err := regexp.Compile(rule.StringValue())
		if err != nil {
			return nil, false
		}
		for _, candidate := range invalidPatternCandidates {
			if !re.MatchString(candidate) {
				return candidate, true
			}
		}
	}
	return nil, false
}

// ValidPayload builds a submission body where every field holds ValidValue.
func ValidPayload(form schema.FormSchema) map[string]any {
	payload := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		payload[field.Name] = ValidValue(field)
	}
	return payload
}

func validNumber(field schema.Field) float64 {
	value := 1.0
	if rule, ok := field.Rule(schema.ValidationMin); ok {
		if n, ok := rule.NumberValue(); ok {
			value = n
		}
	}
	if rule, ok := field.Rule(schema.ValidationMax); ok {
		if n, ok := rule.NumberValue(); ok && value > n {
			value = n
		}
	}
	return value
}

func fitLength(field schema.Field, value string) string {
	if rule, ok := field.Rule(schema.ValidationMinLength); ok {
		if n, ok := lengthThreshold(rule); ok && len(value) < n {
			value += strings.Repeat("x", n-len(value))
		}
	}
	if rule, ok := field.Rule(schema.ValidationMaxLength); ok {
		if n, ok := lengthThreshold(rule); ok && len(value) > n {
			value = value[:n]
		}
	}
	return value
}

// lengthThreshold reads a minLength or maxLength value, ignoring thresholds
// outside 0..MaxLengthLimit.
func lengthThreshold(rule schema.Validation) (int, bool) {
	n, ok := rule.NumberValue()
	if !ok || n < 0 || n > schema.MaxLengthLimit {
		return 0, false
	}
	return int(n), true
}

func lengthOK(field schema.Field, value string) bool {
	return fitLength(field, value) == value
}
