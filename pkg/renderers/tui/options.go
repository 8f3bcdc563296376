package tui

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/apiclient"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(raw string) (OutputFormat, bool) {
	switch OutputFormat(raw) {
	case OutputFormatJSON, "":
		return OutputFormatJSON, true
	case OutputFormatFormURLEncoded:
		return OutputFormatFormURLEncoded, true
	case OutputFormatPrettyText:
		return OutputFormatPrettyText, true
	}
	return "", false
}

// Theme captures message prefixes the renderer applies to info lines.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used when WithTheme is not supplied.
var DefaultTheme = Theme{StepPrefix: "==>", InfoPrefix: "-", ErrorPrefix: "!"}

// SubmitTransformer mutates collected values before serialization.
type SubmitTransformer func(map[string]any) (map[string]any, error)

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithAPIClient enables fetching options for fields with an apiConfig. When
// omitted, the renderer stays offline.
func WithAPIClient(client *apiclient.Client) Option {
	return func(r *Renderer) {
		r.client = client
	}
}

// WithSampleOptions falls back to canned option lists for well-known field
// names when options cannot be fetched.
func WithSampleOptions(enabled bool) Option {
	return func(r *Renderer) {
		r.sampleOptions = enabled
	}
}

// WithSubmitTransformer allows callers to mutate collected values prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) {
		r.submitTransformer = fn
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithMaxAttempts bounds how often a single prompt is repeated after invalid
// answers. Zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
