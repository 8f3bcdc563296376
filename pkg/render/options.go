package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the schema.
type RenderOptions struct {
	// Action overrides the form's SubmitURL.
	Action string
	// Values pre-populates rendered controls keyed by field name.
	Values map[string]any
	// Errors surfaces server-side validation feedback keyed by field name.
	// Messages under unknown keys are shown at the top of the form.
	Errors map[string][]string
	// Hidden adds hidden inputs to the rendered form.
	Hidden map[string]string
	// Theme carries the resolved theme tokens. Nil renders the unstyled
	// defaults.
	Theme *theme.RendererConfig
	// Step selects the active wizard step. Ignored by other layouts.
	Step int
	// Subset limits the rendered fields.
	Subset FieldSubset
}
