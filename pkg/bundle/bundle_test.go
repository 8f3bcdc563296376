package bundle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/bundle"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/testgen"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func sampleResult() orchestrator.Result {
	form := testsupport.ContactForm()
	g := mockapi.NewGenerator(mockapi.WithSeed(3), mockapi.WithClock(testsupport.Clock()))
	return orchestrator.Result{
		ProjectID: "p1",
		Schema:    form,
		Tests:     testgen.Generate(form),
		Endpoints: g.GenerateEndpoints(form),
	}
}

// canonical compares bundles through their JSON form, since probe values
// and mock bodies come back as generic JSON values.
func canonical(t *testing.T, b bundle.Bundle) map[string]any {
	t.Helper()
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	b, err := bundle.New(sampleResult(), testsupport.Clock())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if b.Deployment.Environment != bundle.EnvDevelopment || b.Deployment.Status != bundle.StatusDraft {
		t.Fatalf("deployment = %+v", b.Deployment)
	}
	if b.Deployment.URL != "" || b.Deployment.Timestamp != nil {
		t.Fatalf("draft bundle should not carry a url: %+v", b.Deployment)
	}
	if !b.GeneratedAt.Equal(testsupport.FixedTime) {
		t.Fatalf("generated at = %v", b.GeneratedAt)
	}
}

func TestNew_Deployed(t *testing.T) {
	b, err := bundle.New(sampleResult(), testsupport.Clock(),
		bundle.WithEnvironment("Staging"),
		bundle.WithDeploymentURL("http://localhost:8080/mock/p1/"),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if b.Deployment.Environment != bundle.EnvStaging || b.Deployment.Status != bundle.StatusDeployed {
		t.Fatalf("deployment = %+v", b.Deployment)
	}
	if b.Deployment.URL != "http://localhost:8080/mock/p1" {
		t.Fatalf("url = %q", b.Deployment.URL)
	}
	if b.Deployment.Timestamp == nil || !b.Deployment.Timestamp.Equal(testsupport.FixedTime) {
		t.Fatalf("timestamp = %v", b.Deployment.Timestamp)
	}

	if _, err := bundle.New(sampleResult(), nil, bundle.WithEnvironment("qa")); !errors.Is(err, bundle.ErrUnknownEnvironment) {
		t.Fatalf("expected ErrUnknownEnvironment, got %v", err)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want, err := bundle.New(sampleResult(), testsupport.Clock(), bundle.WithDeploymentURL("https://forms.example.com"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, format := range []bundle.Format{bundle.FormatJSON, bundle.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := bundle.Encode(&buf, want, format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := bundle.Decode(&buf, format)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(canonical(t, want), canonical(t, got)); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
			if got.MockAPI[0].Delay != want.MockAPI[0].Delay {
				t.Fatalf("delay = %v, want %v", got.MockAPI[0].Delay, want.MockAPI[0].Delay)
			}
		})
	}
}

func TestEncode_KeyNames(t *testing.T) {
	b, err := bundle.New(sampleResult(), testsupport.Clock())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var js bytes.Buffer
	if err := bundle.Encode(&js, b, bundle.FormatJSON); err != nil {
		t.Fatalf("encode json: %v", err)
	}
	for _, key := range []string{`"schema"`, `"mockApi"`, `"deployment"`, `"generatedAt"`, `"status": "draft"`} {
		if !strings.Contains(js.String(), key) {
			t.Fatalf("json bundle missing %s", key)
		}
	}

	var ym bytes.Buffer
	if err := bundle.Encode(&ym, b, bundle.FormatYAML); err != nil {
		t.Fatalf("encode yaml: %v", err)
	}
	if !strings.Contains(ym.String(), "mockApi:") || !strings.Contains(ym.String(), "submitUrl: /api/contact-form/submit") {
		t.Fatalf("yaml bundle should keep json key names:\n%s", ym.String())
	}
}

func TestFormats(t *testing.T) {
	for raw, want := range map[string]bundle.Format{"": bundle.FormatJSON, "JSON": bundle.FormatJSON, "yml": bundle.FormatYAML} {
		got, err := bundle.ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := bundle.ParseFormat("xml"); !errors.Is(err, bundle.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if err := bundle.Encode(&bytes.Buffer{}, bundle.Bundle{}, "xml"); !errors.Is(err, bundle.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}

	form := testsupport.ContactForm()
	if got := bundle.Filename(form); got != "form-contact-deployment-bundle.json" {
		t.Fatalf("filename = %q", got)
	}
	if got := bundle.FilenameFor(form, bundle.FormatYAML); got != "form-contact-deployment-bundle.yaml" {
		t.Fatalf("yaml filename = %q", got)
	}
}

func TestWriteFiles(t *testing.T) {
	b, err := bundle.New(sampleResult(), testsupport.Clock())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := bundle.WriteFiles(context.Background(), dir, b, bundle.FormatJSON, bundle.FormatYAML)
	if err != nil {
		t.Fatalf("write files: %v", err)
	}
	want := []string{
		filepath.Join(dir, "form-contact-deployment-bundle.json"),
		filepath.Join(dir, "form-contact-deployment-bundle.yaml"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	f, err := os.Open(paths[1])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := bundle.Decode(f, bundle.FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Schema.ID != "form-contact" {
		t.Fatalf("schema id = %q", decoded.Schema.ID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := bundle.WriteFiles(ctx, dir, b); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
