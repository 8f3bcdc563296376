package render

import (
	"slices"
	"strings"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// FieldSubset restricts which fields are rendered. A field is kept when it
// matches any configured filter. The zero value keeps every field.
type FieldSubset struct {
	Names []string
	Steps []int
}

// Empty reports whether the subset filters nothing.
func (s FieldSubset) Empty() bool {
	return len(s.Names) == 0 && len(s.Steps) == 0
}

// ApplySubset removes fields that do not match subset. Steps are kept so
// wizard headers still show the whole journey.
func ApplySubset(form *schema.FormSchema, subset FieldSubset) {
	if form == nil || subset.Empty() {
		return
	}

	names := make(map[string]struct{}, len(subset.Names))
	for _, name := range subset.Names {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = struct{}{}
		}
	}

	filtered := make([]schema.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		if _, ok := names[field.Name]; ok || slices.Contains(subset.Steps, field.Step) {
			filtered = append(filtered, field)
		}
	}
	form.Fields = filtered
}
