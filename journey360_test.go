package journey360

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func TestThemeAssetsFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(ThemeAssetsFS(), "theme.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), ".j360-form") {
		t.Fatalf("expected stylesheet to style forms")
	}
}

func TestEmbeddedTemplatesIncludesPage(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "page.html"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}

func TestGenerateHTML(t *testing.T) {
	page, err := GenerateHTML(context.Background(), testsupport.RegistrationStory, orchestrator.WithClock(testsupport.Clock()))
	if err != nil {
		t.Fatalf("generate html: %v", err)
	}
	for _, want := range []string{"<form", "Customer Registration Form", `name="email"`} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestGenerateServesMockAPI(t *testing.T) {
	result, err := Generate(context.Background(), testsupport.RegistrationStory,
		WithEndpointOverrides(EndpointOverride{
			Field:    "fullName",
			Endpoint: schema.APIConfig{URL: "/api/people"},
		}),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Tests) == 0 {
		t.Fatalf("expected generated test cases")
	}

	srv, err := NewMockServer(result, mockapi.WithDelayScale(0))
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/customer-registration-form", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK && rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	source, err := GoTests("regtest", result)
	if err != nil {
		t.Fatalf("go tests: %v", err)
	}
	if !strings.Contains(string(source), "package regtest") {
		t.Fatalf("expected package clause")
	}
}

func TestNewMockServerRequiresEndpoints(t *testing.T) {
	if _, err := NewMockServer(Result{ProjectID: "empty"}); err == nil {
		t.Fatalf("expected error for a result without endpoints")
	}
}
