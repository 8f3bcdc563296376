package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/store"
	"github.com/goliatone/go-journey360/pkg/testgen"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

const feedbackStory = "Build a feedback form. Include Gender (Male / Female / Other) and Preferred Contact (Email / Phone / SMS / Post)."

func newOrchestrator(t *testing.T, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	ids := 0
	base := []orchestrator.Option{
		orchestrator.WithParser(parser.New(parser.WithClock(testsupport.Clock()))),
		orchestrator.WithEndpointGenerator(mockapi.NewGenerator(mockapi.WithSeed(7), mockapi.WithClock(testsupport.Clock()))),
		orchestrator.WithClock(testsupport.Clock()),
		orchestrator.WithIDGenerator(func() string {
			ids++
			return "project-" + string(rune('0'+ids))
		}),
	}
	return orchestrator.New(append(base, opts...)...)
}

func TestGenerate_DerivesTriple(t *testing.T) {
	orch := newOrchestrator(t)

	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{Requirements: testsupport.RegistrationStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.ProjectID != "project-1" {
		t.Fatalf("project id = %q", result.ProjectID)
	}
	if result.Mode != input.ModeText {
		t.Fatalf("mode = %q", result.Mode)
	}
	if got, want := len(result.Tests), testgen.Count(result.Schema); got != want {
		t.Fatalf("tests = %d, want %d", got, want)
	}
	if len(result.Endpoints) != 5 {
		t.Fatalf("endpoints = %d, want the five CRUD endpoints", len(result.Endpoints))
	}
	if !result.GeneratedAt.Equal(testsupport.FixedTime) {
		t.Fatalf("generated at = %v", result.GeneratedAt)
	}
}

func TestGenerate_BlankRequirements(t *testing.T) {
	_, err := newOrchestrator(t).Generate(testsupport.Context(), orchestrator.Request{Requirements: "  "})
	if !errors.Is(err, parser.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newOrchestrator(t).Generate(ctx, orchestrator.Request{Requirements: testsupport.ContactStory}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGenerate_RegenerationReplacesProject(t *testing.T) {
	s := store.NewMemory(store.WithClock(testsupport.Clock()))
	orch := newOrchestrator(t, orchestrator.WithStore(s))
	ctx := testsupport.Context()

	first, err := orch.Generate(ctx, orchestrator.Request{Requirements: testsupport.RegistrationStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := orch.SetPreferences(ctx, first.ProjectID, store.Preferences{Theme: "journey360", Variant: "dark"}); err != nil {
		t.Fatalf("set preferences: %v", err)
	}

	second, err := orch.Generate(ctx, orchestrator.Request{
		Requirements: feedbackStory,
		Mode:         input.ModeSpeech,
		ProjectID:    first.ProjectID,
	})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if second.ProjectID != first.ProjectID {
		t.Fatalf("project id changed: %q -> %q", first.ProjectID, second.ProjectID)
	}
	if second.Preferences.Variant != "dark" {
		t.Fatalf("preferences lost on regeneration: %+v", second.Preferences)
	}

	stored, err := orch.Project(ctx, first.ProjectID)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if stored.Schema.ID != second.Schema.ID || stored.Schema.ID == first.Schema.ID {
		t.Fatalf("stored schema %q, first %q, second %q", stored.Schema.ID, first.Schema.ID, second.Schema.ID)
	}
	if stored.Mode != input.ModeSpeech || stored.Requirements != feedbackStory {
		t.Fatalf("stored project not replaced: %+v", stored)
	}

	projects, err := orch.Projects(ctx)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(projects))
	}
}

func TestUpdateSchema_RederivesAndBumpsVersion(t *testing.T) {
	orch := newOrchestrator(t, orchestrator.WithStore(store.NewMemory()))
	ctx := testsupport.Context()

	generated, err := orch.Generate(ctx, orchestrator.Request{Requirements: testsupport.RegistrationStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	edited := generated.Schema.Clone()
	edited.Title = "Member Sign Up"
	edited.Fields = edited.Fields[:2]

	updated, err := orch.UpdateSchema(ctx, generated.ProjectID, edited)
	if err != nil {
		t.Fatalf("update schema: %v", err)
	}
	if updated.Schema.Metadata.Version != generated.Schema.Metadata.Version+1 {
		t.Fatalf("version = %d", updated.Schema.Metadata.Version)
	}
	if updated.Schema.Metadata.Source != "edited" {
		t.Fatalf("source = %q", updated.Schema.Metadata.Source)
	}
	if got, want := len(updated.Tests), testgen.Count(edited); got != want {
		t.Fatalf("tests = %d, want %d", got, want)
	}
	if !strings.HasPrefix(updated.Endpoints[0].Path, "/api/member-sign-up") {
		t.Fatalf("endpoints not re-derived: %s", updated.Endpoints[0].Path)
	}
}

func TestUpdateSchema_Errors(t *testing.T) {
	ctx := testsupport.Context()
	form := testsupport.ContactForm()

	if _, err := newOrchestrator(t).UpdateSchema(ctx, "p1", form); !errors.Is(err, orchestrator.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}

	orch := newOrchestrator(t, orchestrator.WithStore(store.NewMemory()))
	if _, err := orch.UpdateSchema(ctx, "missing", form); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := orch.UpdateSchema(ctx, "", form); !errors.Is(err, orchestrator.ErrNoProjectID) {
		t.Fatalf("expected ErrNoProjectID, got %v", err)
	}

	broken := form.Clone()
	broken.Fields = nil
	if _, err := orch.UpdateSchema(ctx, "p1", broken); !errors.Is(err, schema.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	orch := newOrchestrator(t, orchestrator.WithStore(store.NewMemory()))
	ctx := testsupport.Context()

	result, err := orch.Generate(ctx, orchestrator.Request{Requirements: testsupport.ContactStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := orch.DeleteProject(ctx, result.ProjectID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := orch.Project(ctx, result.ProjectID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRender_DefaultsToHTML(t *testing.T) {
	orch := newOrchestrator(t)
	form := testsupport.ContactForm()

	output, contentType, err := orch.Render(testsupport.Context(), "", form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/html") {
		t.Fatalf("content type = %q", contentType)
	}
	if !strings.Contains(string(output), `name="email"`) {
		t.Fatalf("rendered form missing email input")
	}

	if _, _, err := orch.Render(testsupport.Context(), "pdf", form, render.RenderOptions{}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
	if diff := cmp.Diff([]string{"html"}, orch.Renderers()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaTransformer(t *testing.T) {
	preset, err := orchestrator.NewJSONPresetTransformerFromFS(fstest.MapFS{
		"preset.json": {Data: []byte(`{
			"title": "Member Sign Up",
			"successMessage": "Welcome aboard",
			"fields": {
				"phone": {"label": "Mobile", "required": false},
				"dateOfBirth": {"rename": "birthDate"},
				"unknown": {"label": "Ignored"}
			}
		}`)},
	}, "preset.json")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	var calls int
	counter := orchestrator.TransformerFunc(func(_ context.Context, form *schema.FormSchema) error {
		calls++
		return nil
	})

	orch := newOrchestrator(t, orchestrator.WithSchemaTransformer(orchestrator.Chain(preset, counter)))
	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{Requirements: testsupport.RegistrationStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("transformer calls = %d", calls)
	}
	form := result.Schema
	if form.Title != "Member Sign Up" || form.SuccessMessage != "Welcome aboard" {
		t.Fatalf("form-level patch not applied: %q / %q", form.Title, form.SuccessMessage)
	}
	phone, _ := form.Field("phone")
	if phone.Label != "Mobile" || phone.Required() {
		t.Fatalf("phone patch not applied: %+v", phone)
	}
	if _, ok := form.Field("birthDate"); !ok {
		t.Fatalf("rename not applied")
	}
	if !strings.HasPrefix(result.Endpoints[0].Path, "/api/member-sign-up") {
		t.Fatalf("endpoints derived before transform: %s", result.Endpoints[0].Path)
	}
}

func TestSchemaTransformer_Failure(t *testing.T) {
	boom := errors.New("boom")
	orch := newOrchestrator(t, orchestrator.WithSchemaTransformer(orchestrator.TransformerFunc(
		func(context.Context, *schema.FormSchema) error { return boom },
	)))
	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{Requirements: testsupport.ContactStory}); !errors.Is(err, boom) {
		t.Fatalf("expected transformer error, got %v", err)
	}
}

func TestJSONPresetTransformer_RejectsBadDocuments(t *testing.T) {
	for _, doc := range []string{"", "{", `{"layout":"masonry"}`} {
		if _, err := orchestrator.NewJSONPresetTransformer([]byte(doc)); err == nil {
			t.Fatalf("expected error for %q", doc)
		}
	}
}

func TestEndpointOverrides(t *testing.T) {
	source := schema.APIConfig{URL: "https://example.com/channels", Method: "get", DataPath: "data"}

	orch := newOrchestrator(t, orchestrator.WithEndpointOverrides(
		orchestrator.EndpointOverride{Field: "preferredContact", Endpoint: source, Replace: true},
		orchestrator.EndpointOverride{Field: "gender", Endpoint: source},
		orchestrator.EndpointOverride{Field: "message", Endpoint: source},
	))
	result, err := orch.Generate(testsupport.Context(), orchestrator.Request{Requirements: feedbackStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	contact, _ := result.Schema.Field("preferredContact")
	if contact.APIConfig == nil || contact.APIConfig.Method != "GET" || len(contact.Options) != 0 {
		t.Fatalf("replace override not applied: %+v", contact)
	}
	gender, _ := result.Schema.Field("gender")
	if gender.APIConfig != nil || len(gender.Options) != 3 {
		t.Fatalf("static options should win without Replace: %+v", gender)
	}
	message, _ := result.Schema.Field("message")
	if message.APIConfig != nil {
		t.Fatalf("text field should not receive an option source")
	}
}

func TestEndpointOverrides_Invalid(t *testing.T) {
	orch := newOrchestrator(t, orchestrator.WithEndpointOverrides(
		orchestrator.EndpointOverride{Field: "preferredContact"},
		orchestrator.EndpointOverride{Field: "gender", Endpoint: schema.APIConfig{URL: "/x", Method: "DELETE"}},
	))
	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{Requirements: feedbackStory})
	if err == nil || !strings.Contains(err.Error(), "missing url") || !strings.Contains(err.Error(), "unsupported method") {
		t.Fatalf("expected both override errors, got %v", err)
	}
}

func TestUpdateSchema_TravelEndpointsFollowTitle(t *testing.T) {
	orch := newOrchestrator(t, orchestrator.WithStore(store.NewMemory()))
	ctx := testsupport.Context()

	generated, err := orch.Generate(ctx, orchestrator.Request{Requirements: testsupport.TravelStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated.Schema.Kind != schema.KindTravelInsurance || len(generated.Endpoints) != 9 {
		t.Fatalf("travel story: kind %q, %d endpoints", generated.Schema.Kind, len(generated.Endpoints))
	}

	retitled := generated.Schema.Clone()
	retitled.Title = "My Form"
	updated, err := orch.UpdateSchema(ctx, generated.ProjectID, retitled)
	if err != nil {
		t.Fatalf("retitle: %v", err)
	}
	if updated.Schema.Kind != schema.KindGeneric || len(updated.Endpoints) != 5 {
		t.Fatalf("retitled: kind %q, %d endpoints", updated.Schema.Kind, len(updated.Endpoints))
	}

	feedback := testsupport.ContactForm()
	feedback.Title = "Travel Insurance Feedback"
	feedback.Kind = schema.KindGeneric
	updated, err = orch.UpdateSchema(ctx, generated.ProjectID, feedback)
	if err != nil {
		t.Fatalf("travel title: %v", err)
	}
	if updated.Schema.Kind != schema.KindTravelInsurance || len(updated.Endpoints) != 9 {
		t.Fatalf("travel title: kind %q, %d endpoints", updated.Schema.Kind, len(updated.Endpoints))
	}
}

func TestUpdateSchema_RejectsUnusableLengthRules(t *testing.T) {
	orch := newOrchestrator(t, orchestrator.WithStore(store.NewMemory()))
	ctx := testsupport.Context()

	generated, err := orch.Generate(ctx, orchestrator.Request{Requirements: testsupport.ContactStory})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rules := map[string][]schema.Validation{
		"negative maxLength": {{Type: schema.ValidationMaxLength, Value: float64(-1)}},
		"huge minLength":     {{Type: schema.ValidationMinLength, Value: float64(1e10)}},
		"fractional length":  {{Type: schema.ValidationMinLength, Value: 2.5}},
		"min above max": {
			{Type: schema.ValidationMinLength, Value: float64(10)},
			{Type: schema.ValidationMaxLength, Value: float64(3)},
		},
	}
	for name, validations := range rules {
		edited := generated.Schema.Clone()
		edited.Fields[0] = schema.Field{
			ID: "nickname", Name: "nickname", Label: "Nickname", Type: schema.FieldTypeText,
			Validations: validations,
		}
		if _, err := orch.UpdateSchema(ctx, generated.ProjectID, edited); !errors.Is(err, schema.ErrInvalidSchema) {
			t.Errorf("%s: expected ErrInvalidSchema, got %v", name, err)
		}
	}

	stored, err := orch.Project(ctx, generated.ProjectID)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if stored.Schema.Metadata.Version != generated.Schema.Metadata.Version {
		t.Fatalf("rejected edits changed the stored version to %d", stored.Schema.Metadata.Version)
	}
}

type plainRenderer struct{}

func (plainRenderer) Name() string        { return "plain" }
func (plainRenderer) ContentType() string { return "text/plain" }
func (plainRenderer) Render(_ context.Context, form schema.FormSchema, _ render.RenderOptions) ([]byte, error) {
	return []byte(form.Title), nil
}

func TestRender_MissingDefaultFallsBackToFirstRegistered(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(plainRenderer{})
	orch := newOrchestrator(t, orchestrator.WithRegistry(registry), orchestrator.WithDefaultRenderer("html"))
	form := testsupport.ContactForm()

	output, contentType, err := orch.Render(testsupport.Context(), "", form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if contentType != "text/plain" || string(output) != form.Title {
		t.Fatalf("render = %q (%s), want the plain renderer", output, contentType)
	}
	if _, _, err := orch.Render(testsupport.Context(), "html", form, render.RenderOptions{}); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("explicit html err = %v", err)
	}
}
