// Package themes ships the built-in journey360 theme and resolves theme and
// variant choices into renderer configuration. It replaces a browser-side
// dark mode toggle with an explicit per-request choice.
package themes

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// Built-in names.
const (
	DefaultTheme   = "journey360"
	VariantLight   = "light"
	VariantDark    = "dark"
	DefaultVariant = VariantLight
)

var (
	// ErrUnknownTheme is returned when no manifest is registered under a name.
	ErrUnknownTheme = errors.New("themes: unknown theme")
	// ErrUnknownVariant is returned when a theme has no such variant.
	ErrUnknownVariant = errors.New("themes: unknown variant")
)

// Journey360 returns the built-in manifest. Base tokens describe the light
// variant; the dark variant overrides colours only.
func Journey360() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-bg":               "#ffffff",
			"color-surface":          "#f8fafc",
			"color-text":             "#0f172a",
			"color-muted":            "#64748b",
			"color-border":           "#e2e8f0",
			"color-primary":          "#2563eb",
			"color-primary-contrast": "#ffffff",
			"color-error":            "#dc2626",
			"color-success":          "#16a34a",
			"radius":                 "0.5rem",
			"font-family":            "system-ui, -apple-system, sans-serif",
		},
		Templates: map[string]string{
			"forms.field": "field.html",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/journey360",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {
				Tokens: map[string]string{
					"color-bg":               "#0b1120",
					"color-surface":          "#111827",
					"color-text":             "#e5e7eb",
					"color-muted":            "#9ca3af",
					"color-border":           "#1f2937",
					"color-primary":          "#60a5fa",
					"color-primary-contrast": "#0b1120",
					"color-error":            "#f87171",
					"color-success":          "#4ade80",
				},
			},
		},
	}
}

type registrar interface {
	Register(manifest *theme.Manifest) error
}

// Selector resolves (theme, variant) pairs against registered manifests. It
// implements theme.ThemeSelector and is safe for concurrent use.
type Selector struct {
	mu             sync.RWMutex
	registry       registrar
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// NewSelector builds a Selector with the built-in manifest plus any extras.
// Empty defaults fall back to DefaultTheme and DefaultVariant.
func NewSelector(defaultTheme, defaultVariant string, extra ...*theme.Manifest) (*Selector, error) {
	if strings.TrimSpace(defaultTheme) == "" {
		defaultTheme = DefaultTheme
	}
	if strings.TrimSpace(defaultVariant) == "" {
		defaultVariant = DefaultVariant
	}
	s := &Selector{
		registry:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
	for _, manifest := range append([]*theme.Manifest{Journey360()}, extra...) {
		if err := s.Register(manifest); err != nil {
			return nil, err
		}
	}
	if _, ok := s.manifests[defaultTheme]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownTheme, defaultTheme)
	}
	return s, nil
}

// Register adds a manifest. Names must be unique.
func (s *Selector) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("themes: manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[manifest.Name]; exists {
		return fmt.Errorf("themes: theme %q already registered", manifest.Name)
	}
	if err := s.registry.Register(manifest); err != nil {
		return fmt.Errorf("themes: register %q: %w", manifest.Name, err)
	}
	s.manifests[manifest.Name] = manifest
	return nil
}

// Select implements theme.ThemeSelector. The light variant is the manifest
// base and is always available.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name, variant = s.defaults(name, variant)

	s.mu.RLock()
	manifest, ok := s.manifests[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != VariantLight {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q for theme %q", ErrUnknownVariant, variant, name)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Resolve selects a theme and flattens it into renderer configuration.
func (s *Selector) Resolve(name, variant string) (*theme.RendererConfig, error) {
	selection, err := s.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return RendererConfig(selection), nil
}

// Names lists registered themes, sorted.
func (s *Selector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variants lists the variants of a theme, light first.
func (s *Selector) Variants(name string) []string {
	s.mu.RLock()
	manifest, ok := s.manifests[name]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	out := []string{VariantLight}
	extra := make([]string, 0, len(manifest.Variants))
	for variant := range manifest.Variants {
		if variant != VariantLight {
			extra = append(extra, variant)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (s *Selector) defaults(name, variant string) (string, string) {
	name = strings.TrimSpace(name)
	variant = strings.ToLower(strings.TrimSpace(variant))
	if name == "" {
		name = s.defaultTheme
	}
	if variant == "" {
		variant = s.defaultVariant
	}
	return name, variant
}

// RendererConfig merges a selection's base and variant values. Variant tokens,
// templates and asset files win over the base.
func RendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	tokens := maps.Clone(manifest.Tokens)
	partials := maps.Clone(manifest.Templates)
	files := maps.Clone(manifest.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		tokens = merge(tokens, variant.Tokens)
		partials = merge(partials, variant.Templates)
		files = merge(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   tokens,
		CSSVars:  CSSVars(tokens),
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

// CSSVars maps token names to custom property names ("color.bg" becomes
// "--color-bg").
func CSSVars(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(strings.TrimSpace(key))
		out["--"+strings.TrimLeft(name, "-")] = value
	}
	return out
}

func merge(base, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(overrides))
	}
	maps.Copy(base, overrides)
	return base
}
