package themes_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-journey360/pkg/render/themes"
)

func TestSelector_Defaults(t *testing.T) {
	selector, err := themes.NewSelector("", "")
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	cfg, err := selector.Resolve("", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Theme != themes.DefaultTheme || cfg.Variant != themes.VariantLight {
		t.Fatalf("resolved %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.CSSVars["--color-bg"] != "#ffffff" {
		t.Fatalf("light background = %q", cfg.CSSVars["--color-bg"])
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/journey360/theme.css" {
		t.Fatalf("stylesheet url = %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("missing asset url = %q", got)
	}
}

func TestSelector_DarkOverridesColoursOnly(t *testing.T) {
	selector, err := themes.NewSelector("", "")
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	cfg, err := selector.Resolve(themes.DefaultTheme, "DARK")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Variant != themes.VariantDark {
		t.Fatalf("variant = %q", cfg.Variant)
	}
	if cfg.Tokens["color-bg"] != "#0b1120" {
		t.Fatalf("dark background = %q", cfg.Tokens["color-bg"])
	}
	if cfg.Tokens["radius"] != "0.5rem" {
		t.Fatalf("base token lost: %q", cfg.Tokens["radius"])
	}
	if base := themes.Journey360().Tokens["color-bg"]; base != "#ffffff" {
		t.Fatalf("resolving dark mutated the manifest: %q", base)
	}
}

func TestSelector_Errors(t *testing.T) {
	selector, err := themes.NewSelector("", "")
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	if _, err := selector.Select("nope", ""); !errors.Is(err, themes.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := selector.Select("", "sepia"); !errors.Is(err, themes.ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	if err := selector.Register(themes.Journey360()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, err := themes.NewSelector("missing", ""); !errors.Is(err, themes.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme for default, got %v", err)
	}
}

func TestSelector_CustomManifest(t *testing.T) {
	acme := &theme.Manifest{
		Name:    "acme",
		Version: "0.1.0",
		Tokens:  map[string]string{"color.primary": "#123456"},
		Variants: map[string]theme.Variant{
			"contrast": {Tokens: map[string]string{"color.primary": "#000000"}},
		},
	}
	selector, err := themes.NewSelector("acme", "", acme)
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}
	if diff := cmp.Diff([]string{"acme", "journey360"}, selector.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"light", "contrast"}, selector.Variants("acme")); diff != "" {
		t.Fatalf("variants mismatch (-want +got):\n%s", diff)
	}
	cfg, err := selector.Resolve("", "contrast")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"--color-primary": "#000000"}, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
}
