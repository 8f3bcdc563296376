package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/apiclient"
	"github.com/goliatone/go-journey360/pkg/jsonschema"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
)

// Name is the registry key for this renderer.
const Name = "tui"

const skipLabel = "(skip)"

// Renderer implements render.Renderer for terminal sessions. It walks the
// form's fields, checks every answer against the field's rules and returns
// the collected payload.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	client            *apiclient.Client
	sampleOptions     bool
	submitTransformer SubmitTransformer
	theme             Theme
	maxAttempts       int
	logger            *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       NewSurveyDriver(nil),
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		return nil, ErrNoDriver
	}
	if _, ok := ParseOutputFormat(string(r.outputFormat)); !ok {
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field and serializes the answers. Values prefill
// defaults and Errors are shown next to the fields they belong to. For
// wizard layouts prompting starts at options.Step.
func (r *Renderer) Render(ctx context.Context, form schema.FormSchema, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrNoDriver
	}
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	working := form.Clone()
	render.ApplySubset(&working, options.Subset)
	validator, err := jsonschema.Compile(working)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	mapping := render.MapErrors(working, options.Errors)

	s := &session{
		Renderer:  r,
		form:      working,
		state:     NewState(options.Values, mapping.Fields),
		validator: validator,
		options:   make(map[string][]schema.FieldOption),
	}

	r.info(ctx, working.Title)
	for _, message := range mapping.Form {
		r.info(ctx, r.theme.ErrorPrefix+" "+message)
	}

	wizard := working.Layout == schema.LayoutWizard
	currentStep := -1
	for _, field := range working.Fields {
		if wizard {
			if field.Step < options.Step {
				continue
			}
			if field.Step != currentStep {
				currentStep = field.Step
				r.info(ctx, s.stepHeader(currentStep))
			}
		}
		if err := s.promptField(ctx, field); err != nil {
			return nil, err
		}
	}

	values := s.state.Values()
	if r.submitTransformer != nil {
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	r.logger.Debug("collected answers", zap.String("form", working.ID), zap.Int("values", len(values)))
	return r.serialize(working, values)
}

func (r *Renderer) info(ctx context.Context, msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	_ = r.driver.Info(ctx, msg)
}

type session struct {
	*Renderer
	form      schema.FormSchema
	state     *State
	validator *jsonschema.Validator
	options   map[string][]schema.FieldOption
}

func (s *session) stepHeader(step int) string {
	total := max(len(s.form.Steps), step+1)
	title := fmt.Sprintf("Step %d", step+1)
	if step < len(s.form.Steps) && s.form.Steps[step].Title != "" {
		title = s.form.Steps[step].Title
	}
	return fmt.Sprintf("%s Step %d of %d: %s", s.theme.StepPrefix, step+1, total, title)
}

func (s *session) promptField(ctx context.Context, field schema.Field) error {
	for _, message := range s.state.ErrorsFor(field.Name) {
		s.info(ctx, fmt.Sprintf("%s %s: %s", s.theme.ErrorPrefix, field.Label, message))
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, skip, err := s.ask(ctx, field)
		if err != nil {
			return err
		}
		if skip {
			s.state.Clear(field.Name)
			return nil
		}

		problems := s.check(field, value)
		if len(problems) == 0 {
			s.state.Set(field.Name, value)
			return nil
		}
		for _, problem := range problems {
			s.info(ctx, fmt.Sprintf("%s Invalid %s: %s", s.theme.ErrorPrefix, field.Label, problem))
		}
		attempts++
		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Name)
		}
	}
}

// ask runs one prompt. skip is true when an optional field was left blank.
func (s *session) ask(ctx context.Context, field schema.Field) (any, bool, error) {
	label := field.Label
	if field.Required() {
		label += " *"
	}
	help := field.Description
	current, _ := s.state.Value(field.Name)

	switch field.Type {
	case schema.FieldTypeCheckbox:
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: truthy(current), Help: help})
		return answer, false, err

	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		options := s.optionsFor(ctx, field)
		if len(options) > 0 {
			return s.choose(ctx, field, label, help, options, stringValue(current))
		}
	}

	cfg := InputConfig{Message: label, Default: stringValue(current), Help: help, Placeholder: field.Placeholder}
	var (
		raw string
		err error
	)
	switch field.Type {
	case schema.FieldTypePassword:
		raw, err = s.driver.Password(ctx, cfg)
	case schema.FieldTypeTextarea:
		raw, err = s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: cfg.Default, Help: help})
	default:
		raw, err = s.driver.Input(ctx, cfg)
	}
	if err != nil {
		return nil, false, err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" && !field.Required() {
		return nil, true, nil
	}
	if field.Type == schema.FieldTypeNumber && raw != "" {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// The string fails the number type check and yields a message.
			return raw, false, nil
		}
		return n, false, nil
	}
	return raw, false, nil
}

func (s *session) choose(ctx context.Context, field schema.Field, label, help string, options []schema.FieldOption, current string) (any, bool, error) {
	labels := make([]string, 0, len(options)+1)
	if !field.Required() {
		labels = append(labels, skipLabel)
	}
	offset := len(labels)
	defaultIdx := -1
	for i, option := range options {
		labels = append(labels, option.Label)
		if current != "" && option.Value == current {
			defaultIdx = i + offset
		}
	}

	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		DefaultIndex: defaultIdx,
		Help:         help,
	})
	if err != nil {
		return nil, false, err
	}
	if idx < offset {
		if idx < 0 {
			return "", false, nil
		}
		return nil, true, nil
	}
	if idx >= len(labels) {
		return "", false, nil
	}
	return options[idx-offset].Value, false, nil
}

// check validates a single answer with the same rules the mock API applies
// on submission.
func (s *session) check(field schema.Field, value any) []string {
	if field.Required() && stringValue(value) == "" {
		return []string{requiredMessage(field)}
	}
	var out []string
	for _, problem := range s.validator.Validate(map[string]any{field.Name: value}) {
		if problem.Field == field.Name {
			out = append(out, problem.Message)
		}
	}
	return out
}

func requiredMessage(field schema.Field) string {
	if rule, ok := field.Rule(schema.ValidationRequired); ok && rule.Message != "" {
		return rule.Message
	}
	return field.Label + " is required"
}

func (s *session) optionsFor(ctx context.Context, field schema.Field) []schema.FieldOption {
	if len(field.Options) > 0 {
		return field.Options
	}
	cfg := field.APIConfig
	if cfg == nil {
		return nil
	}
	key := cacheKeyFor(*cfg)
	if cached, ok := s.options[key]; ok {
		return cached
	}

	var options []schema.FieldOption
	if s.client != nil {
		fetched, err := s.client.FetchOptions(ctx, *cfg)
		if err != nil {
			s.logger.Warn("option fetch failed", zap.String("field", field.Name), zap.Error(err))
			s.info(ctx, fmt.Sprintf("%s Could not load %s options (%v)", s.theme.InfoPrefix, field.Label, err))
		}
		options = fetched
	}
	if len(options) == 0 && s.sampleOptions {
		options, _ = apiclient.SampleOptions(field.Name)
	}
	s.options[key] = options
	return options
}

func cacheKeyFor(cfg schema.APIConfig) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(cfg.Method))
	b.WriteString(" ")
	b.WriteString(cfg.URL)
	if len(cfg.Params) > 0 {
		keys := make([]string, 0, len(cfg.Params))
		for k := range cfg.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(";")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(cfg.Params[k])
		}
	}
	return b.String()
}

func (r *Renderer) serialize(form schema.FormSchema, values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for key, value := range values {
			encoded.Set(key, stringValue(value))
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(form, values)), nil
	default:
		return json.Marshal(values)
	}
}

// prettyPrint lists answers in form order, then any extra keys sorted.
func prettyPrint(form schema.FormSchema, values map[string]any) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(values))
	for _, field := range form.Fields {
		value, ok := values[field.Name]
		if !ok {
			continue
		}
		seen[field.Name] = struct{}{}
		fmt.Fprintf(&b, "%s: %s\n", field.Label, displayValue(field, value))
	}
	extra := make([]string, 0)
	for key := range values {
		if _, ok := seen[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		fmt.Fprintf(&b, "%s: %s\n", key, stringValue(values[key]))
	}
	return b.String()
}

func displayValue(field schema.Field, value any) string {
	raw := stringValue(value)
	for _, option := range field.Options {
		if option.Value == raw {
			return option.Label
		}
	}
	if field.Type == schema.FieldTypePassword {
		return strings.Repeat("*", len(raw))
	}
	if b, ok := value.(bool); ok {
		if b {
			return "yes"
		}
		return "no"
	}
	return raw
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
