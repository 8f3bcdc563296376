// Package html renders a FormSchema as a standalone HTML preview page. The
// page carries inline theme variables, so it can be written to disk or served
// as is.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/render"
	rendertemplate "github.com/goliatone/go-journey360/pkg/render/template"
	gotemplate "github.com/goliatone/go-journey360/pkg/render/template/gotemplate"
	"github.com/goliatone/go-journey360/pkg/render/themes"
	"github.com/goliatone/go-journey360/pkg/schema"
)

// Name is the registry key for this renderer.
const Name = "html"

const pageTemplate = "page"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	linkStylesheet   bool
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme sets the theme used when RenderOptions.Theme is nil.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		if cfg != nil {
			c.theme = cfg
		}
	}
}

// WithLinkedStylesheet emits a <link> to the theme stylesheet asset instead
// of inlining the base CSS. The caller must serve AssetsFS under the theme's
// asset prefix.
func WithLinkedStylesheet(enabled bool) Option {
	return func(cfg *config) {
		cfg.linkStylesheet = enabled
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer renders HTML previews.
type Renderer struct {
	templates      rendertemplate.TemplateRenderer
	theme          *theme.RendererConfig
	linkStylesheet bool
	stylesheet     string
	logger         *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithName("journey360-html"),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".html"),
			gotemplate.WithFilters(map[string]pongo2.FilterFunction{
				"richtext": filterRichText,
			}),
			gotemplate.WithHooks(gotemplatepkg.WithPostHooksChain(tidyDocument)),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	if cfg.theme == nil {
		selector, err := themes.NewSelector(themes.DefaultTheme, themes.DefaultVariant)
		if err != nil {
			return nil, fmt.Errorf("html renderer: default theme: %w", err)
		}
		resolved, err := selector.Resolve("", "")
		if err != nil {
			return nil, fmt.Errorf("html renderer: default theme: %w", err)
		}
		cfg.theme = resolved
	}

	return &Renderer{
		templates:      renderer,
		theme:          cfg.theme,
		linkStylesheet: cfg.linkStylesheet,
		stylesheet:     defaultStylesheet(),
		logger:         cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces a complete HTML document for form.
func (r *Renderer) Render(ctx context.Context, form schema.FormSchema, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}

	view := r.buildPage(form, options)
	out, err := r.templates.RenderTemplate(pageTemplate, view)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render page: %w", err)
	}
	r.logger.Debug("rendered form preview",
		zap.String("form", form.ID),
		zap.String("layout", string(view.Form.Layout)),
		zap.Int("fields", len(view.Fields)),
	)
	return []byte(out), nil
}

// tidyDocument drops the whitespace the template tags leave around the
// document and ends it with one newline.
func tidyDocument(hook *gotemplatepkg.HookContext) (string, error) {
	return strings.TrimSpace(hook.Output) + "\n", nil
}

// RenderForm renders with default options. It lets the test runner check the
// markup the preview serves.
func (r *Renderer) RenderForm(ctx context.Context, form schema.FormSchema) ([]byte, error) {
	return r.Render(ctx, form, render.RenderOptions{})
}

type pageView struct {
	Form       formView       `json:"form"`
	Fields     []fieldView    `json:"fields"`
	Steps      []stepView     `json:"steps,omitempty"`
	FormErrors []string       `json:"form_errors,omitempty"`
	Hidden     []hiddenView   `json:"hidden,omitempty"`
	Theme      themeView      `json:"theme"`
	Nav        navigationView `json:"nav"`
}

// Description-like fields hold raw text; templates pass them through the
// richtext filter.
type formView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Layout         schema.Layout `json:"layout"`
	Action         string        `json:"action"`
	SuccessMessage string        `json:"success_message,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	UserStory      string        `json:"user_story,omitempty"`
}

type fieldView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Control     string       `json:"control"`
	InputType   string       `json:"input_type,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Attrs       []attrView   `json:"attrs,omitempty"`
	Options     []optionView `json:"options,omitempty"`
	Value       string       `json:"value,omitempty"`
	Checked     bool         `json:"checked"`
	Errors      []string     `json:"errors,omitempty"`
	Step        int          `json:"step"`
	API         *apiView     `json:"api,omitempty"`
}

type attrView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type optionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type apiView struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	DataPath string `json:"data_path,omitempty"`
	LabelKey string `json:"label_key"`
	ValueKey string `json:"value_key"`
}

type stepView struct {
	Index       int         `json:"index"`
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
	Fields      []fieldView `json:"fields"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type themeView struct {
	Name       string `json:"name"`
	Variant    string `json:"variant"`
	Variables  string `json:"variables"`
	Stylesheet string `json:"stylesheet,omitempty"`
	InlineCSS  string `json:"inline_css,omitempty"`
}

type navigationView struct {
	Active int  `json:"active"`
	Last   int  `json:"last"`
	First  bool `json:"first"`
	Final  bool `json:"final"`
}

func (r *Renderer) buildPage(form schema.FormSchema, options render.RenderOptions) pageView {
	working := form.Clone()
	render.ApplySubset(&working, options.Subset)

	mapping := render.MapErrors(form, options.Errors)

	action := strings.TrimSpace(options.Action)
	if action == "" {
		action = working.SubmitURL
	}

	layout := working.Layout
	if layout == "" {
		layout = schema.LayoutSimple
	}

	view := pageView{
		Form: formView{
			ID:             working.ID,
			Title:          plainText(working.Title),
			Description:    strings.TrimSpace(working.Description),
			Layout:         layout,
			Action:         action,
			SuccessMessage: plainText(working.SuccessMessage),
			ErrorMessage:   plainText(working.ErrorMessage),
			UserStory:      strings.TrimSpace(working.Metadata.UserStory),
		},
		FormErrors: mapping.Form,
		Theme:      r.themeView(options.Theme),
	}

	view.Fields = make([]fieldView, 0, len(working.Fields))
	for _, field := range working.Fields {
		view.Fields = append(view.Fields, buildField(field, options.Values[field.Name], mapping.Fields[field.Name]))
	}

	hidden := []render.HiddenField{render.Hidden(render.HiddenFormID, working.ID)}
	if layout == schema.LayoutWizard {
		view.Steps, view.Nav = buildSteps(working, view.Fields, options.Step)
		hidden = append(hidden, render.StepField(view.Nav.Active))
	}
	for _, field := range render.SortedHiddenFields(render.MergeHiddenFields(options.Hidden, hidden...)) {
		view.Hidden = append(view.Hidden, hiddenView{Name: field.Name, Value: field.Value})
	}
	return view
}

func buildField(field schema.Field, value any, errs []string) fieldView {
	view := fieldView{
		ID:          field.ID,
		Name:        field.Name,
		Label:       plainText(field.Label),
		Placeholder: plainText(field.Placeholder),
		Description: strings.TrimSpace(field.Description),
		Required:    field.Required(),
		Errors:      errs,
		Step:        field.Step,
	}
	if view.ID == "" {
		view.ID = "field-" + field.Name
	}
	current := stringValue(value)

	switch field.Type {
	case schema.FieldTypeSelect:
		view.Control = "select"
	case schema.FieldTypeRadio:
		view.Control = "radio"
	case schema.FieldTypeCheckbox:
		view.Control = "checkbox"
		view.Checked = truthy(value)
	case schema.FieldTypeTextarea:
		view.Control = "textarea"
		view.Value = current
	default:
		view.Control = "input"
		view.InputType = inputType(field.Type)
		if field.Type != schema.FieldTypeFile && field.Type != schema.FieldTypePassword {
			view.Value = current
		}
	}

	for _, option := range field.Options {
		view.Options = append(view.Options, optionView{
			Label:    plainText(option.Label),
			Value:    option.Value,
			Selected: current != "" && current == option.Value,
		})
	}
	if api := field.APIConfig; api != nil && field.Type.HasOptions() {
		method := strings.ToUpper(strings.TrimSpace(api.Method))
		if method == "" {
			method = "GET"
		}
		view.API = &apiView{
			URL:      api.URL,
			Method:   method,
			DataPath: api.DataPath,
			LabelKey: firstNonEmpty(api.LabelKey, "label"),
			ValueKey: firstNonEmpty(api.ValueKey, "value"),
		}
	}
	view.Attrs = validationAttrs(field)
	return view
}

// validationAttrs mirrors field rules as native constraint attributes.
func validationAttrs(field schema.Field) []attrView {
	var attrs []attrView
	for _, rule := range field.Validations {
		switch rule.Type {
		case schema.ValidationMin, schema.ValidationMax:
			if n, ok := rule.NumberValue(); ok {
				attrs = append(attrs, attrView{Name: string(rule.Type), Value: formatNumber(n)})
			}
		case schema.ValidationMinLength, schema.ValidationMaxLength:
			if n, ok := rule.NumberValue(); ok {
				attrs = append(attrs, attrView{Name: strings.ToLower(string(rule.Type)), Value: formatNumber(n)})
			}
		case schema.ValidationPattern:
			if pattern := rule.StringValue(); pattern != "" {
				attrs = append(attrs, attrView{Name: "pattern", Value: pattern})
			}
		}
	}
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

func buildSteps(form schema.FormSchema, fields []fieldView, requested int) ([]stepView, navigationView) {
	count := len(form.Steps)
	for _, field := range fields {
		if field.Step+1 > count {
			count = field.Step + 1
		}
	}
	if count == 0 {
		count = 1
	}
	active := min(max(requested, 0), count-1)

	steps := make([]stepView, count)
	for i := range steps {
		steps[i] = stepView{
			Index:  i,
			Number: i + 1,
			Title:  "Step " + strconv.Itoa(i+1),
			Active: i == active,
		}
		if i < len(form.Steps) {
			if title := plainText(form.Steps[i].Title); title != "" {
				steps[i].Title = title
			}
			steps[i].Description = strings.TrimSpace(form.Steps[i].Description)
		}
	}
	for _, field := range fields {
		idx := min(max(field.Step, 0), count-1)
		steps[idx].Fields = append(steps[idx].Fields, field)
	}
	return steps, navigationView{
		Active: active,
		Last:   count - 1,
		First:  active == 0,
		Final:  active == count-1,
	}
}

func (r *Renderer) themeView(override *theme.RendererConfig) themeView {
	cfg := override
	if cfg == nil {
		cfg = r.theme
	}
	view := themeView{}
	if cfg == nil {
		view.InlineCSS = r.stylesheet
		return view
	}
	view.Name = cfg.Theme
	view.Variant = cfg.Variant
	view.Variables = cssVariables(cfg.CSSVars)
	if r.linkStylesheet && cfg.AssetURL != nil {
		view.Stylesheet = cfg.AssetURL("stylesheet")
	}
	if view.Stylesheet == "" {
		view.InlineCSS = r.stylesheet
	}
	return view
}

// cssVariables renders a :root block. Values able to break out of the
// declaration are dropped.
func cssVariables(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root{")
	for _, name := range names {
		value := strings.TrimSpace(vars[name])
		if value == "" || strings.ContainsAny(value, "<>{};") || strings.ContainsAny(name, "<>{};: ") {
			continue
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}

func inputType(t schema.FieldType) string {
	switch t {
	case schema.FieldTypeEmail:
		return "email"
	case schema.FieldTypePhone:
		return "tel"
	case schema.FieldTypeNumber:
		return "number"
	case schema.FieldTypeDate:
		return "date"
	case schema.FieldTypeTime:
		return "time"
	case schema.FieldTypeURL:
		return "url"
	case schema.FieldTypeFile:
		return "file"
	case schema.FieldTypePassword:
		return "password"
	default:
		return "text"
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
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
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true
		}
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
