package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/renderers/html"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/store"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

const defaultRendererName = html.Name

var (
	// ErrNoStore is returned by operations that need persisted projects when
	// the orchestrator runs without a store.
	ErrNoStore = errors.New("orchestrator: no project store configured")
	// ErrNoProjectID is returned when an operation needs a project id.
	ErrNoProjectID = errors.New("orchestrator: project id is required")
)

// SchemaParser turns requirement text into a form schema.
type SchemaParser interface {
	Parse(ctx context.Context, text string) (schema.FormSchema, error)
}

// TestGenerator derives test cases from a schema.
type TestGenerator interface {
	Generate(form schema.FormSchema) []testgen.TestCase
}

// EndpointGenerator derives mock API endpoints from a schema.
type EndpointGenerator interface {
	GenerateEndpoints(form schema.FormSchema) []mockapi.Endpoint
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithParser injects a custom requirement parser.
func WithParser(p SchemaParser) Option {
	return func(o *Orchestrator) {
		o.parser = p
	}
}

// WithTestGenerator injects a custom test generator.
func WithTestGenerator(g TestGenerator) Option {
	return func(o *Orchestrator) {
		o.tests = g
	}
}

// WithEndpointGenerator injects a custom mock endpoint generator.
func WithEndpointGenerator(g EndpointGenerator) Option {
	return func(o *Orchestrator) {
		o.endpoints = g
	}
}

// WithStore persists every generated project.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a render request omits
// an explicit name.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = strings.TrimSpace(name)
	}
}

// WithSchemaTransformer registers a Transformer that runs after parsing and
// before tests and endpoints are derived.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithIDGenerator overrides how new project ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock overrides the time source used for Result.GeneratedAt.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the generation pipeline and the optional project
// store. It is safe for concurrent use when its collaborators are.
type Orchestrator struct {
	parser            SchemaParser
	tests             TestGenerator
	endpoints         EndpointGenerator
	store             store.Store
	registry          *render.Registry
	defaultRenderer   string
	transformer       Transformer
	endpointOverrides map[string]EndpointOverride
	initialiseErr     error
	newID             func() string
	clock             func() time.Time
	logger            *zap.Logger
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		newID:           uuid.NewString,
		clock:           time.Now,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes a generation run.
type Request struct {
	// Requirements is the free text the schema is derived from.
	Requirements string
	// Mode records how the requirements were captured. Defaults to text.
	Mode input.Mode
	// ProjectID regenerates an existing project when set. A new id is minted
	// otherwise.
	ProjectID string
}

// Result is one generated (schema, tests, endpoints) triple. The triple is
// always replaced as a whole.
type Result struct {
	ProjectID    string             `json:"projectId"`
	Requirements string             `json:"requirements"`
	Mode         input.Mode         `json:"mode"`
	Schema       schema.FormSchema  `json:"schema"`
	Tests        []testgen.TestCase `json:"tests"`
	Endpoints    []mockapi.Endpoint `json:"endpoints"`
	Preferences  store.Preferences  `json:"preferences"`
	GeneratedAt  time.Time          `json:"generatedAt"`
}

// Project converts the result into its stored form.
func (r Result) Project() store.Project {
	return store.Project{
		ID:           r.ProjectID,
		Requirements: r.Requirements,
		Mode:         r.Mode,
		Schema:       r.Schema,
		Tests:        r.Tests,
		Endpoints:    r.Endpoints,
		Preferences:  r.Preferences,
	}
}

// ResultFromProject rebuilds a Result from a stored project.
func ResultFromProject(p store.Project) Result {
	return Result{
		ProjectID:    p.ID,
		Requirements: p.Requirements,
		Mode:         p.Mode,
		Schema:       p.Schema,
		Tests:        p.Tests,
		Endpoints:    p.Endpoints,
		Preferences:  p.Preferences,
		GeneratedAt:  p.UpdatedAt,
	}
}

// Generate parses the requirements and derives tests and endpoints from the
// resulting schema. When a store is configured the result is saved, replacing
// any previous generation for the same project.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	mode := req.Mode
	if mode == "" {
		mode = input.ModeText
	}

	form, err := o.parser.Parse(ctx, req.Requirements)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: parse requirements: %w", err)
	}
	o.applyEndpointOverrides(&form)
	if err := o.applyTransformer(ctx, &form); err != nil {
		return Result{}, err
	}
	form.SyncKind()
	if err := form.Validate(); err != nil {
		return Result{}, fmt.Errorf("orchestrator: transformed schema: %w", err)
	}

	result := Result{
		ProjectID:    strings.TrimSpace(req.ProjectID),
		Requirements: strings.TrimSpace(req.Requirements),
		Mode:         mode,
		Schema:       form,
	}
	if result.ProjectID == "" {
		result.ProjectID = o.newID()
	} else if prev, err := o.lookup(ctx, result.ProjectID); err == nil {
		result.Preferences = prev.Preferences
	} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, ErrNoStore) {
		return Result{}, err
	}

	if err := o.derive(ctx, &result); err != nil {
		return Result{}, err
	}
	if err := o.persist(ctx, &result); err != nil {
		return Result{}, err
	}

	o.logger.Info("project generated",
		zap.String("project_id", result.ProjectID),
		zap.String("form_id", form.ID),
		zap.String("mode", string(mode)),
		zap.Int("fields", len(form.Fields)),
		zap.Int("tests", len(result.Tests)),
		zap.Int("endpoints", len(result.Endpoints)),
	)
	return result, nil
}

// UpdateSchema replaces a stored project's schema with a user-edited one and
// re-derives its tests and endpoints. The schema version is bumped and Kind is
// re-derived from the title.
func (o *Orchestrator) UpdateSchema(ctx context.Context, id string, form schema.FormSchema) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Result{}, ErrNoProjectID
	}
	form = form.Clone()
	if form.SyncKind() {
		o.logger.Debug("schema kind follows title",
			zap.String("project_id", id),
			zap.String("kind", string(form.Kind)),
		)
	}
	if err := form.Validate(); err != nil {
		return Result{}, fmt.Errorf("orchestrator: update schema: %w", err)
	}

	prev, err := o.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}

	form.Metadata.Version = max(form.Metadata.Version, prev.Schema.Metadata.Version) + 1
	form.Metadata.Source = "edited"
	if form.Metadata.UserStory == "" {
		form.Metadata.UserStory = prev.Requirements
	}

	result := ResultFromProject(prev)
	result.Schema = form
	if err := o.derive(ctx, &result); err != nil {
		return Result{}, err
	}
	if err := o.persist(ctx, &result); err != nil {
		return Result{}, err
	}
	o.logger.Info("project schema updated",
		zap.String("project_id", id),
		zap.Int("version", form.Metadata.Version),
	)
	return result, nil
}

// SetPreferences stores the theme choice for a project.
func (o *Orchestrator) SetPreferences(ctx context.Context, id string, prefs store.Preferences) (Result, error) {
	prev, err := o.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}
	prev.Preferences = prefs
	saved, err := o.store.Save(ctx, prev)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: save preferences: %w", err)
	}
	return ResultFromProject(saved), nil
}

// Project loads a stored project.
func (o *Orchestrator) Project(ctx context.Context, id string) (Result, error) {
	p, err := o.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return ResultFromProject(p), nil
}

// Projects lists stored projects, most recently updated first.
func (o *Orchestrator) Projects(ctx context.Context) ([]Result, error) {
	if o.store == nil {
		return nil, ErrNoStore
	}
	projects, err := o.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(projects))
	for _, p := range projects {
		out = append(out, ResultFromProject(p))
	}
	return out, nil
}

// DeleteProject removes a stored project.
func (o *Orchestrator) DeleteProject(ctx context.Context, id string) error {
	if o.store == nil {
		return ErrNoStore
	}
	if strings.TrimSpace(id) == "" {
		return ErrNoProjectID
	}
	return o.store.Delete(ctx, id)
}

// Render renders a schema with the named renderer, or the default one when
// name is empty.
func (o *Orchestrator) Render(ctx context.Context, name string, form schema.FormSchema, options render.RenderOptions) ([]byte, string, error) {
	if err := o.initialiseErr; err != nil {
		return nil, "", err
	}
	renderer, err := o.rendererFor(name)
	if err != nil {
		return nil, "", err
	}
	output, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, "", fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, renderer.ContentType(), nil
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.Names()
}

// derive fills Tests and Endpoints concurrently.
func (o *Orchestrator) derive(ctx context.Context, result *Result) error {
	form := result.Schema
	var (
		tests     []testgen.TestCase
		endpoints []mockapi.Endpoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tests = o.tests.Generate(form.Clone())
		return gctx.Err()
	})
	g.Go(func() error {
		endpoints = o.endpoints.GenerateEndpoints(form.Clone())
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return err
	}
	result.Tests = tests
	result.Endpoints = endpoints
	result.GeneratedAt = o.clock().UTC()
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, result *Result) error {
	if o.store == nil {
		return nil
	}
	saved, err := o.store.Save(ctx, result.Project())
	if err != nil {
		return fmt.Errorf("orchestrator: save project: %w", err)
	}
	result.GeneratedAt = saved.UpdatedAt
	return nil
}

func (o *Orchestrator) lookup(ctx context.Context, id string) (store.Project, error) {
	if o.store == nil {
		return store.Project{}, ErrNoStore
	}
	if strings.TrimSpace(id) == "" {
		return store.Project{}, ErrNoProjectID
	}
	p, err := o.store.Get(ctx, id)
	if err != nil {
		return store.Project{}, fmt.Errorf("orchestrator: project %q: %w", id, err)
	}
	return p, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := strings.TrimSpace(name)
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Lookup(target)
	if err == nil {
		return renderer, nil
	}
	if name != "" {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
	}
	// The configured default is missing; fall back to the first registered.
	renderer, err = o.registry.Lookup("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *schema.FormSchema) error {
	if o.transformer == nil || form == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform schema: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.parser == nil {
		o.parser = parser.New(parser.WithLogger(o.logger))
	}
	if o.tests == nil {
		o.tests = testgen.NewGenerator(testgen.WithLogger(o.logger))
	}
	if o.endpoints == nil {
		o.endpoints = mockapi.NewGenerator(mockapi.WithLogger(o.logger))
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New(html.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = appendInitialiseError(o.initialiseErr, fmt.Errorf("orchestrator: default renderer: %w", err))
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
