// Package journey360 is the quick-start surface of the module. It re-exports
// the orchestrator and the types most callers touch so a form, its tests and
// its mock API can be produced with a single import.
package journey360

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/renderers/html"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

// FormSchema aliases schema.FormSchema.
type FormSchema = schema.FormSchema

// Result holds a generated schema together with its tests and endpoints.
type Result = orchestrator.Result

// Request describes one generation run.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides such as prefilled values and
// the active wizard step.
type RenderOptions = render.RenderOptions

// EndpointOverride points a generated field at a caller-owned options API.
type EndpointOverride = orchestrator.EndpointOverride

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewParser returns the requirements parser used by default.
func NewParser(options ...parser.Option) *parser.Parser {
	return parser.New(options...)
}

// Generate runs the full pipeline once without a store.
func Generate(ctx context.Context, requirements string, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{Requirements: requirements})
}

// GenerateHTML parses requirements and renders the resulting form as a
// standalone HTML page. It is the simplest entry point for callers that only
// want markup.
func GenerateHTML(ctx context.Context, requirements string, options ...orchestrator.Option) ([]byte, error) {
	orch := orchestrator.New(options...)
	result, err := orch.Generate(ctx, orchestrator.Request{Requirements: requirements})
	if err != nil {
		return nil, err
	}
	page, _, err := orch.Render(ctx, "", result.Schema, render.RenderOptions{})
	return page, err
}

// NewMockServer builds an http.Handler serving the result's mock API.
func NewMockServer(result Result, options ...mockapi.ServerOption) (*mockapi.Server, error) {
	if len(result.Endpoints) == 0 {
		return nil, fmt.Errorf("journey360: project %q has no endpoints", result.ProjectID)
	}
	return mockapi.NewServer(result.Schema, result.Endpoints, options...)
}

// GoTests renders the result's test cases as a Go test file.
func GoTests(pkg string, result Result, options ...testgen.SourceOption) ([]byte, error) {
	return testgen.GoSource(pkg, result.Schema, result.Tests, options...)
}

// WithEndpointOverrides registers endpoint overrides that run after parsing.
func WithEndpointOverrides(overrides ...EndpointOverride) orchestrator.Option {
	return orchestrator.WithEndpointOverrides(overrides...)
}

// ThemeAssetsFS exposes the stylesheet linked by rendered pages so
// applications can serve it themselves.
//
// Typical mount:
//
//	mux.Handle("/assets/themes/journey360/",
//	  http.StripPrefix("/assets/themes/journey360/",
//	    http.FileServerFS(journey360.ThemeAssetsFS()),
//	  ),
//	)
func ThemeAssetsFS() fs.FS {
	return html.AssetsFS()
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
