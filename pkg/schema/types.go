package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout selects the presentation template used to render a form.
type Layout string

const (
	LayoutSimple    Layout = "simple"
	LayoutTwoColumn Layout = "two-column"
	LayoutWizard    Layout = "wizard"
	LayoutCarded    Layout = "carded"
)

// Layouts lists the supported layouts in display order.
func Layouts() []Layout {
	return []Layout{LayoutSimple, LayoutTwoColumn, LayoutWizard, LayoutCarded}
}

// ParseLayout normalises raw into a known Layout.
func ParseLayout(raw string) (Layout, error) {
	candidate := Layout(strings.ToLower(strings.TrimSpace(raw)))
	if candidate == "" {
		return LayoutSimple, nil
	}
	for _, layout := range Layouts() {
		if layout == candidate {
			return layout, nil
		}
	}
	return "", fmt.Errorf("schema: unknown layout %q", raw)
}

// Kind tags the domain template a schema was generated from. Downstream
// components branch on Kind instead of inspecting the title.
type Kind string

const (
	KindGeneric         Kind = "generic"
	KindTravelInsurance Kind = "travel-insurance"
	KindDeathClaim      Kind = "death-claim"
	KindLifeInsurance   Kind = "life-insurance"
	KindClaim           Kind = "claim"
	KindHomeInsurance   Kind = "home-insurance"
	KindMotorInsurance  Kind = "motor-insurance"
	KindHealthInsurance Kind = "health-insurance"
)

// titleKinds maps title phrases to kinds. Order matters: more specific
// phrases first.
var titleKinds = []struct {
	phrase string
	kind   Kind
}{
	{"travel insurance", KindTravelInsurance},
	{"death claim", KindDeathClaim},
	{"life insurance", KindLifeInsurance},
	{"home insurance", KindHomeInsurance},
	{"motor insurance", KindMotorInsurance},
	{"health insurance", KindHealthInsurance},
	{"claim", KindClaim},
}

// KindFromTitle derives a Kind from a title using a case-insensitive substring
// match. The title is authoritative: SyncKind keeps the tag in step with it.
func KindFromTitle(title string) Kind {
	lower := strings.ToLower(title)
	for _, entry := range titleKinds {
		if strings.Contains(lower, entry.phrase) {
			return entry.kind
		}
	}
	return KindGeneric
}

// FieldType enumerates the input controls a field can render as.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeTime     FieldType = "time"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeURL      FieldType = "url"
	FieldTypeFile     FieldType = "file"
	FieldTypePassword FieldType = "password"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText: {}, FieldTypeEmail: {}, FieldTypePhone: {}, FieldTypeNumber: {},
	FieldTypeDate: {}, FieldTypeTime: {}, FieldTypeSelect: {}, FieldTypeRadio: {},
	FieldTypeCheckbox: {}, FieldTypeTextarea: {}, FieldTypeURL: {}, FieldTypeFile: {},
	FieldTypePassword: {},
}

// Known reports whether t is part of the supported vocabulary.
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// HasOptions reports whether the control presents a fixed choice list.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// ValidationType enumerates the validation rule vocabulary.
type ValidationType string

const (
	ValidationRequired  ValidationType = "required"
	ValidationEmail     ValidationType = "email"
	ValidationPhone     ValidationType = "phone"
	ValidationURL       ValidationType = "url"
	ValidationMin       ValidationType = "min"
	ValidationMax       ValidationType = "max"
	ValidationMinLength ValidationType = "minLength"
	ValidationMaxLength ValidationType = "maxLength"
	ValidationPattern   ValidationType = "pattern"
)

// IsFormat reports whether the rule constrains the shape or range of a value
// rather than its presence.
func (v ValidationType) IsFormat() bool {
	switch v {
	case ValidationEmail, ValidationPhone, ValidationURL, ValidationMin, ValidationMax,
		ValidationMinLength, ValidationMaxLength, ValidationPattern:
		return true
	default:
		return false
	}
}

// Validation is a single rule attached to a field. Rules on the same field are
// independent of each other.
type Validation struct {
	Type    ValidationType `json:"type"`
	Value   any            `json:"value,omitempty"`
	Message string         `json:"message,omitempty"`
}

// NumberValue returns the rule threshold as a float when it is numeric.
func (v Validation) NumberValue() (float64, bool) {
	switch n := v.Value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// StringValue returns the rule value as a string (pattern expressions).
func (v Validation) StringValue() string {
	if s, ok := v.Value.(string); ok {
		return s
	}
	if v.Value == nil {
		return ""
	}
	return fmt.Sprint(v.Value)
}

// FieldOption is a label/value pair for enumerable fields.
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// APIConfig describes how option lists are fetched at render time.
type APIConfig struct {
	URL      string            `json:"url"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	DataPath string            `json:"dataPath,omitempty"`
	LabelKey string            `json:"labelKey,omitempty"`
	ValueKey string            `json:"valueKey,omitempty"`
}

// Field models an individual input inside a generated form. Name is the stable
// machine key; Label is the human readable caption.
type Field struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Type        FieldType     `json:"type"`
	Placeholder string        `json:"placeholder,omitempty"`
	Description string        `json:"description,omitempty"`
	Step        int           `json:"step,omitempty"`
	Validations []Validation  `json:"validations,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	APIConfig   *APIConfig    `json:"apiConfig,omitempty"`
}

// Rule returns the first validation of the given type.
func (f Field) Rule(kind ValidationType) (Validation, bool) {
	for _, rule := range f.Validations {
		if rule.Type == kind {
			return rule, true
		}
	}
	return Validation{}, false
}

// HasValidation reports whether the field carries a rule of the given type.
func (f Field) HasValidation(kind ValidationType) bool {
	_, ok := f.Rule(kind)
	return ok
}

// Required reports whether the field carries a required rule.
func (f Field) Required() bool {
	return f.HasValidation(ValidationRequired)
}

// Step groups wizard fields under a heading.
type Step struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Metadata records provenance for a generated schema.
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	UserStory string    `json:"userStory,omitempty"`
	Source    string    `json:"source,omitempty"`
	Version   int       `json:"version,omitempty"`
}

// FormSchema is the form description every other component consumes. A schema
// is replaced wholesale on regeneration; it is never patched in place.
type FormSchema struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Kind           Kind     `json:"kind"`
	Layout         Layout   `json:"layout"`
	Fields         []Field  `json:"fields"`
	Steps          []Step   `json:"steps,omitempty"`
	SubmitURL      string   `json:"submitUrl,omitempty"`
	SuccessMessage string   `json:"successMessage,omitempty"`
	ErrorMessage   string   `json:"errorMessage,omitempty"`
	Metadata       Metadata `json:"metadata"`
}

// Field returns the field with the given name.
func (s FormSchema) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// ResolvedKind returns Kind, falling back to the legacy title lookup.
func (s FormSchema) ResolvedKind() Kind {
	if s.Kind != "" {
		return s.Kind
	}
	return KindFromTitle(s.Title)
}

// SyncKind sets Kind from the title so the two never disagree. It reports
// whether Kind changed.
func (s *FormSchema) SyncKind() bool {
	kind := KindFromTitle(s.Title)
	if s.Kind == kind {
		return false
	}
	s.Kind = kind
	return true
}

// Slug returns the kebab-cased title used in mock API paths.
func (s FormSchema) Slug() string {
	return Slug(s.Title)
}

// FieldsForStep returns the fields assigned to the given wizard step.
func (s FormSchema) FieldsForStep(step int) []Field {
	var out []Field
	for _, field := range s.Fields {
		if field.Step == step {
			out = append(out, field)
		}
	}
	return out
}

// Clone returns a deep copy so callers can edit without aliasing.
func (s FormSchema) Clone() FormSchema {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, field := range s.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	if s.Steps != nil {
		out.Steps = append([]Step(nil), s.Steps...)
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Validations != nil {
		out.Validations = append([]Validation(nil), f.Validations...)
	}
	if f.Options != nil {
		out.Options = append([]FieldOption(nil), f.Options...)
	}
	if f.APIConfig != nil {
		cfg := *f.APIConfig
		cfg.Headers = cloneStrings(f.APIConfig.Headers)
		cfg.Params = cloneStrings(f.APIConfig.Params)
		out.APIConfig = &cfg
	}
	return out
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
