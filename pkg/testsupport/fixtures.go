package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// Sample user stories shared by package tests.
const (
	TravelStory = "As a traveller I want to buy travel insurance for my upcoming trip so I can compare plans and get a policy."

	RegistrationStory = "Create a customer registration form with full name, email, phone number and date of birth."

	ContactStory = "Build a contact form with name, email address and a message. Preferred contact (Email / Phone / SMS / Post)."
)

// FixedTime is the instant returned by Clock.
var FixedTime = time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

// Clock returns a clock that always reports FixedTime.
func Clock() func() time.Time {
	return func() time.Time { return FixedTime }
}

// Rand returns a deterministic random source.
func Rand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// ContactForm returns a small hand-built schema with email, range and
// checkbox fields.
func ContactForm() schema.FormSchema {
	return schema.FormSchema{
		ID:             "form-contact",
		Title:          "Contact Form",
		Kind:           schema.KindGeneric,
		Layout:         schema.LayoutSimple,
		SubmitURL:      "/api/contact-form/submit",
		SuccessMessage: "Thanks!",
		Fields: []schema.Field{
			{
				ID: "fullName", Name: "fullName", Label: "Full Name", Type: schema.FieldTypeText,
				Validations: []schema.Validation{
					{Type: schema.ValidationRequired, Message: "Full Name is required"},
					{Type: schema.ValidationMinLength, Value: float64(2)},
				},
			},
			{
				ID: "email", Name: "email", Label: "Email Address", Type: schema.FieldTypeEmail,
				Validations: []schema.Validation{
					{Type: schema.ValidationRequired, Message: "Email is required"},
					{Type: schema.ValidationEmail, Message: "Invalid email format"},
				},
			},
			{
				ID: "age", Name: "age", Label: "Age", Type: schema.FieldTypeNumber,
				Validations: []schema.Validation{
					{Type: schema.ValidationMin, Value: float64(18)},
					{Type: schema.ValidationMax, Value: float64(99)},
				},
			},
			{
				ID: "contactMethod", Name: "contactMethod", Label: "Contact Method", Type: schema.FieldTypeRadio,
				Options: []schema.FieldOption{
					{Label: "Email", Value: "email"},
					{Label: "Phone", Value: "phone"},
				},
			},
			{ID: "newsletter", Name: "newsletter", Label: "Newsletter", Type: schema.FieldTypeCheckbox},
		},
		Metadata: schema.Metadata{CreatedAt: FixedTime, Source: "fixture", Version: 1},
	}
}

// MustLoadForm loads a JSON schema fixture.
func MustLoadForm(t *testing.T, path string) schema.FormSchema {
	t.Helper()

	form, err := LoadForm(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// LoadForm reads a JSON fixture into a FormSchema, returning an error for
// callers managing setup outside of *testing.T.
func LoadForm(path string) (schema.FormSchema, error) {
	if path == "" {
		return schema.FormSchema{}, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("testsupport: read form: %w", err)
	}
	form, err := schema.Unmarshal(data)
	if err != nil {
		return schema.FormSchema{}, fmt.Errorf("testsupport: unmarshal form: %w", err)
	}
	return form, nil
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs render against a buffer and returns both the returned
// string and what was written.
func CaptureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out, buf.String()
}

// NoSleep is a mock latency implementation that records requested delays.
type NoSleep struct {
	Calls []time.Duration
}

// Sleep records d and returns ctx's error, if any.
func (n *NoSleep) Sleep(ctx context.Context, d time.Duration) error {
	n.Calls = append(n.Calls, d)
	return ctx.Err()
}
