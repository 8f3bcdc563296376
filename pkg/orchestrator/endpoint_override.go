package orchestrator

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// EndpointOverride attaches a remote option source to a generated field. It
// lets callers point choice fields at their own APIs without editing the
// parser catalogue.
type EndpointOverride struct {
	// Field names the target field.
	Field string
	// Endpoint describes where options are fetched from.
	Endpoint schema.APIConfig
	// Replace discards static options and an existing apiConfig. By default
	// an override only fills fields that have neither.
	Replace bool
}

// WithEndpointOverrides registers endpoint overrides that run after parsing.
// Invalid overrides surface as an error from Generate.
func WithEndpointOverrides(overrides ...EndpointOverride) Option {
	cloned := cloneEndpointOverrides(overrides)
	return func(o *Orchestrator) {
		if len(cloned) == 0 || o == nil {
			return
		}
		if o.endpointOverrides == nil {
			o.endpointOverrides = make(map[string]EndpointOverride)
		}
		for _, override := range cloned {
			if err := validateEndpointOverride(override); err != nil {
				o.initialiseErr = appendInitialiseError(o.initialiseErr, err)
				continue
			}
			o.endpointOverrides[override.Field] = override
		}
	}
}

func cloneEndpointOverrides(overrides []EndpointOverride) []EndpointOverride {
	if len(overrides) == 0 {
		return nil
	}
	cloned := make([]EndpointOverride, 0, len(overrides))
	for _, override := range overrides {
		copied := override
		copied.Field = strings.TrimSpace(override.Field)
		copied.Endpoint.Headers = maps.Clone(override.Endpoint.Headers)
		copied.Endpoint.Params = maps.Clone(override.Endpoint.Params)
		if copied.Endpoint.Method != "" {
			copied.Endpoint.Method = strings.ToUpper(strings.TrimSpace(copied.Endpoint.Method))
		}
		cloned = append(cloned, copied)
	}
	return cloned
}

func validateEndpointOverride(override EndpointOverride) error {
	if override.Field == "" {
		return errors.New("orchestrator: endpoint override missing field name")
	}
	if strings.TrimSpace(override.Endpoint.URL) == "" {
		return fmt.Errorf("orchestrator: endpoint override for %s missing url", override.Field)
	}
	switch override.Endpoint.Method {
	case "", "GET", "POST":
		return nil
	default:
		return fmt.Errorf("orchestrator: endpoint override for %s: unsupported method %q", override.Field, override.Endpoint.Method)
	}
}

func appendInitialiseError(existing, next error) error {
	if existing == nil {
		return next
	}
	return fmt.Errorf("%v; %w", existing, next)
}

// applyEndpointOverrides only touches choice fields. A text field named in an
// override is left alone since it has nowhere to show options.
func (o *Orchestrator) applyEndpointOverrides(form *schema.FormSchema) {
	if form == nil || len(o.endpointOverrides) == 0 {
		return
	}
	for i := range form.Fields {
		field := &form.Fields[i]
		override, ok := o.endpointOverrides[field.Name]
		if !ok || !field.Type.HasOptions() {
			continue
		}
		if !override.Replace && (len(field.Options) > 0 || field.APIConfig != nil) {
			continue
		}
		cfg := override.Endpoint
		cfg.Headers = maps.Clone(cfg.Headers)
		cfg.Params = maps.Clone(cfg.Params)
		field.APIConfig = &cfg
		if override.Replace {
			field.Options = nil
		}
	}
}
