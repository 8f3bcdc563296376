package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, schema.FormSchema, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry_LookupAndFallback(t *testing.T) {
	registry := render.NewRegistry()
	if _, err := registry.Lookup(""); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("empty registry lookup err = %v", err)
	}

	registry.MustRegister(namedRenderer("tui"), namedRenderer("HTML"))

	got, err := registry.Lookup("")
	if err != nil || got.Name() != "tui" {
		t.Fatalf("fallback = %v, %v; want first registered", got, err)
	}
	got, err = registry.Lookup(" html ")
	if err != nil || got.Name() != "HTML" {
		t.Fatalf("lookup html = %v, %v", got, err)
	}
	if _, err := registry.Lookup("pdf"); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("lookup pdf err = %v", err)
	}
	if diff := cmp.Diff([]string{"html", "tui"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	registry := render.NewRegistry()
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
	if err := registry.Register(namedRenderer("  ")); err == nil {
		t.Fatalf("expected error for blank name")
	}
	err := registry.Register(namedRenderer("html"), namedRenderer("Html"), namedRenderer("tui"))
	if !errors.Is(err, render.ErrDuplicateRenderer) {
		t.Fatalf("expected ErrDuplicateRenderer, got %v", err)
	}
	if diff := cmp.Diff([]string{"html"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
