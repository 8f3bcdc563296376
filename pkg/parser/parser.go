package parser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// ErrEmptyInput is returned when the requirement text is blank.
var ErrEmptyInput = errors.New("parser: requirements are empty")

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/goliatone/go-journey360/forms"))

const (
	defaultErrorMessage   = "Something went wrong. Please try again."
	defaultSuccessMessage = "Form submitted successfully"
	schemaVersion         = 1
)

// Option customises the parser.
type Option func(*Parser)

// WithCatalogue replaces the built-in journey templates.
func WithCatalogue(templates []Template) Option {
	return func(p *Parser) {
		p.catalogue = templates
	}
}

// WithVocabulary replaces the generic noun lookup table.
func WithVocabulary(terms []Term) Option {
	return func(p *Parser) {
		p.vocabulary = terms
	}
}

// WithClock injects the time source used for Metadata.CreatedAt.
func WithClock(clock func() time.Time) Option {
	return func(p *Parser) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDefaultLayout sets the layout used when neither a template nor the text
// picks one.
func WithDefaultLayout(layout schema.Layout) Option {
	return func(p *Parser) {
		if layout != "" {
			p.defaultLayout = layout
		}
	}
}

// Parser converts free-form requirement text into a FormSchema using a
// rule-based transducer: scored journey templates, a generic vocabulary and
// explicit enumerations found in the text.
type Parser struct {
	catalogue     []Template
	vocabulary    []Term
	clock         func() time.Time
	logger        *zap.Logger
	defaultLayout schema.Layout

	templates []compiledTemplate
	terms     []compiledTerm
}

type compiledTemplate struct {
	Template
	synonyms []*regexp.Regexp
}

type compiledTerm struct {
	field    schema.Field
	synonyms []phrase
}

type phrase struct {
	text string
	re   *regexp.Regexp
}

// New constructs a Parser with the built-in catalogue and vocabulary unless
// overridden.
func New(options ...Option) *Parser {
	p := &Parser{
		clock:         time.Now,
		logger:        zap.NewNop(),
		defaultLayout: schema.LayoutSimple,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.catalogue == nil {
		p.catalogue = DefaultCatalogue()
	}
	if p.vocabulary == nil {
		p.vocabulary = DefaultVocabulary()
	}
	p.compile()
	return p
}

func (p *Parser) compile() {
	p.templates = make([]compiledTemplate, 0, len(p.catalogue))
	for _, tmpl := range p.catalogue {
		compiled := compiledTemplate{Template: tmpl}
		for _, syn := range tmpl.Synonyms {
			compiled.synonyms = append(compiled.synonyms, phraseRegexp(syn))
		}
		p.templates = append(p.templates, compiled)
	}

	p.terms = make([]compiledTerm, 0, len(p.vocabulary))
	for _, term := range p.vocabulary {
		compiled := compiledTerm{field: term.Field}
		for _, syn := range term.Synonyms {
			syn = strings.ToLower(strings.TrimSpace(syn))
			if syn == "" {
				continue
			}
			compiled.synonyms = append(compiled.synonyms, phrase{text: syn, re: phraseRegexp(syn)})
		}
		p.terms = append(p.terms, compiled)
	}
}

func phraseRegexp(text string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(text))) + `\b`)
}

// Parse derives a FormSchema from requirement text. The result is fully
// determined by the text and the injected clock.
func (p *Parser) Parse(ctx context.Context, text string) (schema.FormSchema, error) {
	if err := ctx.Err(); err != nil {
		return schema.FormSchema{}, err
	}
	story := strings.TrimSpace(text)
	if story == "" {
		return schema.FormSchema{}, ErrEmptyInput
	}
	lower := strings.ToLower(story)

	form := schema.FormSchema{
		ID:             formID(lower),
		Kind:           schema.KindGeneric,
		SuccessMessage: defaultSuccessMessage,
		ErrorMessage:   defaultErrorMessage,
		Metadata: schema.Metadata{
			CreatedAt: p.clock().UTC(),
			UserStory: story,
			Source:    "parser",
			Version:   schemaVersion,
		},
	}

	fields := newFieldSet()
	var reserved []string
	tmpl, score, matched := p.bestTemplate(lower)
	if matched {
		form.Kind = tmpl.Kind
		form.Title = tmpl.Title
		form.Description = tmpl.Description
		form.Layout = tmpl.Layout
		form.Steps = append([]schema.Step(nil), tmpl.Steps...)
		if tmpl.SuccessMessage != "" {
			form.SuccessMessage = tmpl.SuccessMessage
		}
		for _, field := range tmpl.Fields {
			fields.add(field.Clone())
			reserved = append(reserved, field.Label)
		}
		if layout, ok := explicitLayout(lower); ok {
			form.Layout = layout
		}
	} else {
		form.Title = inferTitle(story)
		form.Description = firstSentence(story)
		form.Layout = inferLayout(lower, p.defaultLayout)
	}

	lastStep := 0
	if form.Layout == schema.LayoutWizard && len(form.Steps) > 0 {
		lastStep = len(form.Steps) - 1
	}
	for _, field := range p.scanVocabulary(maskEnumerations(lower), reserved...) {
		if fields.has(field.Name) {
			continue
		}
		field.Step = lastStep
		fields.add(field)
	}
	applyEnumerations(story, fields, lastStep)

	if fields.empty() {
		for _, field := range fallbackFields() {
			fields.add(field)
		}
	}
	form.Fields = fields.list()

	if form.Layout == schema.LayoutWizard && len(form.Steps) == 0 {
		form.Steps = planSteps(story, form.Fields)
	}
	form.SyncKind()
	form.SubmitURL = "/api/" + form.Slug() + "/submit"

	if err := form.Validate(); err != nil {
		return schema.FormSchema{}, fmt.Errorf("parser: generated schema: %w", err)
	}

	p.logger.Debug("requirements parsed",
		zap.String("form_id", form.ID),
		zap.String("kind", string(form.Kind)),
		zap.String("layout", string(form.Layout)),
		zap.Int("fields", len(form.Fields)),
		zap.Bool("template", matched),
		zap.Float64("score", score),
	)
	return form, nil
}

// bestTemplate scores every template against the lowercased text. Pattern hits
// outrank synonym hits; ties break on priority and then catalogue order.
func (p *Parser) bestTemplate(lower string) (Template, float64, bool) {
	var (
		best      Template
		bestScore float64
		found     bool
	)
	for _, tmpl := range p.templates {
		score := tmpl.score(lower)
		if score == 0 {
			continue
		}
		if !found || score > bestScore || (score == bestScore && tmpl.Priority > best.Priority) {
			best, bestScore, found = tmpl.Template, score, true
		}
	}
	return best, bestScore, found
}

func (t compiledTemplate) score(lower string) float64 {
	var score float64
	for _, pattern := range t.Patterns {
		if pattern.MatchString(lower) {
			score = max(score, 50+float64(t.Priority)/10)
		}
	}
	if score > 0 {
		return score
	}
	for i, re := range t.synonyms {
		if re.MatchString(lower) {
			score = max(score, 20+float64(len(t.Synonyms[i]))/2+float64(t.Priority)/20)
		}
	}
	return score
}

func formID(lower string) string {
	normalized := strings.Join(strings.Fields(lower), " ")
	return "form-" + uuid.NewSHA1(idNamespace, []byte(normalized)).String()
}

// fieldSet keeps fields in insertion order with unique machine names.
type fieldSet struct {
	fields []schema.Field
	index  map[string]int
}

func newFieldSet() *fieldSet {
	return &fieldSet{index: make(map[string]int)}
}

func (s *fieldSet) has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *fieldSet) get(name string) (*schema.Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.fields[i], true
}

func (s *fieldSet) add(field schema.Field) {
	name := field.Name
	for n := 2; s.has(name); n++ {
		name = fmt.Sprintf("%s%d", field.Name, n)
	}
	if name != field.Name {
		field.Name = name
		field.ID = name
	}
	s.index[field.Name] = len(s.fields)
	s.fields = append(s.fields, field)
}

func (s *fieldSet) empty() bool {
	return len(s.fields) == 0
}

func (s *fieldSet) list() []schema.Field {
	return s.fields
}

func (s *fieldSet) each(fn func(*schema.Field) bool) {
	for i := range s.fields {
		if fn(&s.fields[i]) {
			return
		}
	}
}
