package testgen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// Category groups generated cases by what they exercise.
type Category string

const (
	CategoryRender     Category = "render"
	CategoryRequired   Category = "required"
	CategoryFormat     Category = "format"
	CategorySubmission Category = "submission"
)

// Status tracks the outcome of a case once it has been run.
type Status string

const (
	StatusPending Status = "pending"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Probe is a single input value fed to a field. A nil Value means the field is
// left out of the payload.
type Probe struct {
	Value any  `json:"value"`
	Valid bool `json:"valid"`
}

// TestCase describes one generated check. Cases are derived artifacts and are
// never edited after generation; runners return updated copies.
type TestCase struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Category    Category              `json:"category"`
	Field       string                `json:"field,omitempty"`
	Rule        schema.ValidationType `json:"rule,omitempty"`
	Description string                `json:"description"`
	Steps       []string              `json:"steps"`
	Inputs      []Probe               `json:"inputs,omitempty"`
	Expected    string                `json:"expectedResult"`
	Status      Status                `json:"status"`
}

// Option customises a Generator.
type Option func(*Generator)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSubmitPath overrides the submission target used when the schema does
// not declare a SubmitURL.
func WithSubmitPath(path string) Option {
	return func(g *Generator) {
		g.submitPath = path
	}
}

// Generator derives a fixed battery of test cases from a schema.
type Generator struct {
	logger     *zap.Logger
	submitPath string
}

// NewGenerator constructs a Generator.
func NewGenerator(options ...Option) *Generator {
	g := &Generator{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Generate is shorthand for NewGenerator().Generate(form).
func Generate(form schema.FormSchema) []TestCase {
	return NewGenerator().Generate(form)
}

// Generate emits one render case per field, one case per validation rule and
// a final submission case. The battery length is always
// sum(1 + len(field.Validations)) + 1.
func (g *Generator) Generate(form schema.FormSchema) []TestCase {
	cases := make([]TestCase, 0, Count(form))
	for _, field := range form.Fields {
		cases = append(cases, renderCase(len(cases), field))
		for _, rule := range field.Validations {
			if rule.Type == schema.ValidationRequired {
				cases = append(cases, requiredCase(len(cases), field))
				continue
			}
			cases = append(cases, formatCase(len(cases), field, rule))
		}
	}
	cases = append(cases, submissionCase(len(cases), form, g.submitTarget(form)))

	g.logger.Debug("test battery generated",
		zap.String("form_id", form.ID),
		zap.Int("cases", len(cases)),
	)
	return cases
}

// Count returns the battery length Generate produces for form.
func Count(form schema.FormSchema) int {
	total := 1
	for _, field := range form.Fields {
		total += 1 + len(field.Validations)
	}
	return total
}

func (g *Generator) submitTarget(form schema.FormSchema) string {
	switch {
	case form.SubmitURL != "":
		return form.SubmitURL
	case g.submitPath != "":
		return g.submitPath
	default:
		return SubmitPath(form)
	}
}

// SubmitPath is the mock API submission route for form.
func SubmitPath(form schema.FormSchema) string {
	return "/api/" + form.Slug() + "/submit"
}

func caseID(index int, category Category, field string) string {
	if field == "" {
		return fmt.Sprintf("tc-%03d-%s", index+1, category)
	}
	return fmt.Sprintf("tc-%03d-%s-%s", index+1, category, field)
}

func renderCase(index int, field schema.Field) TestCase {
	return TestCase{
		ID:          caseID(index, CategoryRender, field.Name),
		Name:        fmt.Sprintf("%s renders correctly", field.Label),
		Category:    CategoryRender,
		Field:       field.Name,
		Description: fmt.Sprintf("Verify the %s field is displayed as a %s input with its label.", field.Label, field.Type),
		Steps: []string{
			"Open the generated form",
			fmt.Sprintf("Locate the %q field", field.Label),
			fmt.Sprintf("Check the control type is %s", field.Type),
		},
		Expected: fmt.Sprintf("The %s field is visible and named %q", field.Label, field.Name),
		Status:   StatusPending,
	}
}

func requiredCase(index int, field schema.Field) TestCase {
	message := field.Label + " is required"
	if rule, ok := field.Rule(schema.ValidationRequired); ok && rule.Message != "" {
		message = rule.Message
	}
	return TestCase{
		ID:          caseID(index, CategoryRequired, field.Name),
		Name:        fmt.Sprintf("%s is required", field.Label),
		Category:    CategoryRequired,
		Field:       field.Name,
		Rule:        schema.ValidationRequired,
		Description: fmt.Sprintf("Submitting without %s must be rejected.", field.Label),
		Steps: []string{
			"Fill every other field with valid data",
			fmt.Sprintf("Leave %q empty", field.Label),
			"Submit the form",
		},
		Inputs:   []Probe{{Value: nil, Valid: false}},
		Expected: fmt.Sprintf("Submission is blocked with %q", message),
		Status:   StatusPending,
	}
}

func formatCase(index int, field schema.Field, rule schema.Validation) TestCase {
	valid := ValidValue(field)
	inputs := []Probe{{Value: valid, Valid: true}}
	if invalid, ok := InvalidValue(field, rule); ok {
		inputs = append(inputs, Probe{Value: invalid, Valid: false})
	}

	expected := fmt.Sprintf("Values violating the %s rule are rejected", rule.Type)
	if rule.Message != "" {
		expected = fmt.Sprintf("Invalid values show %q; valid values are accepted", rule.Message)
	}
	return TestCase{
		ID:          caseID(index, CategoryFormat, field.Name),
		Name:        fmt.Sprintf("%s %s validation", field.Label, rule.Type),
		Category:    CategoryFormat,
		Field:       field.Name,
		Rule:        rule.Type,
		Description: describeRule(field, rule),
		Steps: []string{
			fmt.Sprintf("Enter a valid value in %q and submit", field.Label),
			fmt.Sprintf("Enter an invalid value in %q and submit", field.Label),
		},
		Inputs:   inputs,
		Expected: expected,
		Status:   StatusPending,
	}
}

func describeRule(field schema.Field, rule schema.Validation) string {
	switch rule.Type {
	case schema.ValidationEmail:
		return fmt.Sprintf("%s only accepts well-formed email addresses.", field.Label)
	case schema.ValidationPhone:
		return fmt.Sprintf("%s only accepts phone numbers.", field.Label)
	case schema.ValidationURL:
		return fmt.Sprintf("%s only accepts absolute URLs.", field.Label)
	case schema.ValidationMin:
		return fmt.Sprintf("%s must be at least %v.", field.Label, rule.Value)
	case schema.ValidationMax:
		return fmt.Sprintf("%s must be at most %v.", field.Label, rule.Value)
	case schema.ValidationMinLength:
		return fmt.Sprintf("%s must be at least %v characters.", field.Label, rule.Value)
	case schema.ValidationMaxLength:
		return fmt.Sprintf("%s must be at most %v characters.", field.Label, rule.Value)
	case schema.ValidationPattern:
		return fmt.Sprintf("%s must match %s.", field.Label, rule.StringValue())
	default:
		return fmt.Sprintf("%s enforces the %s rule.", field.Label, rule.Type)
	}
}

func submissionCase(index int, form schema.FormSchema, target string) TestCase {
	success := form.SuccessMessage
	if success == "" {
		success = "a success message"
	}
	return TestCase{
		ID:          caseID(index, CategorySubmission, ""),
		Name:        "Submit a fully valid form",
		Category:    CategorySubmission,
		Description: fmt.Sprintf("A complete, valid payload reaches POST %s.", target),
		Steps: []string{
			"Fill every field with valid data",
			"Submit the form",
			"Observe the confirmation",
		},
		Inputs:   []Probe{{Value: ValidPayload(form), Valid: true}},
		Expected: fmt.Sprintf("POST %s succeeds and the user sees %q", target, success),
		Status:   StatusPending,
	}
}
