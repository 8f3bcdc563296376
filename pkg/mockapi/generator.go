package mockapi

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/schema"
)

const (
	// DefaultErrorRate is the share of simulated calls that fail with 500.
	DefaultErrorRate = 0.05
	// DefaultDelay applies to endpoints without a configured delay.
	DefaultDelay = 500 * time.Millisecond

	listSize    = 5
	listPerPage = 10

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
	dateOnly  = "2006-01-02"
	base36    = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option customises a Generator.
type Option func(*Generator)

// WithRand injects the random source used for mock values, tokens and error
// injection.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithSeed seeds a deterministic random source.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	}
}

// WithClock injects the time source used for timestamps and identifiers.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithErrorRate sets the probability of a synthetic 500, clamped to [0, 1].
func WithErrorRate(rate float64) Option {
	return func(g *Generator) {
		g.errorRate = min(max(rate, 0), 1)
	}
}

// WithSleeper replaces the latency implementation.
func WithSleeper(sleeper Sleeper) Option {
	return func(g *Generator) {
		if sleeper != nil {
			g.sleep = sleeper
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator derives mock endpoints from a schema and simulates calls against
// them. It is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	clock     func() time.Time
	errorRate float64
	sleep     Sleeper
	logger    *zap.Logger
}

// NewGenerator constructs a Generator. Without WithRand or WithSeed the random
// source is seeded from the clock.
func NewGenerator(options ...Option) *Generator {
	g := &Generator{
		clock:     time.Now,
		errorRate: DefaultErrorRate,
		sleep:     contextSleep,
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	if g.rng == nil {
		seed := uint64(g.clock().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return g
}

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GenerateEndpoints returns the five CRUD endpoints for the schema resource
// and, for travel insurance journeys, the four domain endpoints.
func (g *Generator) GenerateEndpoints(form schema.FormSchema) []Endpoint {
	slug := form.Slug()
	base := "/api/" + slug
	travel := form.ResolvedKind() == schema.KindTravelInsurance
	now := g.now()

	var submitBody map[string]any
	if travel {
		submitBody = map[string]any{
			"success": true,
			"message": "Policy issued successfully!",
			"data": map[string]any{
				"policyNumber":       g.policyNumber(now),
				"policyId":           fmt.Sprintf("policy-%d", now.UnixMilli()),
				"submittedAt":        now.Format(isoMillis),
				"status":             "issued",
				"policyPdf":          "https://example.com/policy-documents/TRV-policy.pdf",
				"premiumAmount":      150.00,
				"currency":           "USD",
				"coverageStartDate":  now.Format(dateOnly),
				"assistanceHelpline": "+1-800-TRAVEL-HELP",
			},
		}
	} else {
		message := form.SuccessMessage
		if message == "" {
			message = "Form submitted successfully"
		}
		submitBody = map[string]any{
			"success": true,
			"message": message,
			"data": map[string]any{
				"id":          fmt.Sprintf("%s-%d", slug, now.UnixMilli()),
				"submittedAt": now.Format(isoMillis),
				"status":      "received",
			},
		}
	}

	records := make([]map[string]any, listSize)
	for i := range records {
		records[i] = g.MockRecord(form)
	}

	endpoints := []Endpoint{
		{
			Method:       http.MethodPost,
			Path:         base + "/submit",
			Summary:      "Submit " + form.Title,
			ResponseBody: submitBody,
			StatusCode:   http.StatusOK,
			Delay:        1000 * time.Millisecond,
		},
		{
			Method:       http.MethodGet,
			Path:         base + "/:id",
			Summary:      "Retrieve a submission",
			ResponseBody: map[string]any{"success": true, "data": g.MockRecord(form)},
			StatusCode:   http.StatusOK,
			Delay:        500 * time.Millisecond,
		},
		{
			Method:  http.MethodGet,
			Path:    base,
			Summary: "List submissions",
			ResponseBody: map[string]any{
				"success": true,
				"data":    records,
				"total":   listSize,
				"page":    1,
				"perPage": listPerPage,
			},
			StatusCode: http.StatusOK,
			Delay:      500 * time.Millisecond,
		},
		{
			Method:  http.MethodPut,
			Path:    base + "/:id",
			Summary: "Update a submission",
			ResponseBody: map[string]any{
				"success": true,
				"message": "Submission updated successfully",
				"data":    g.MockRecord(form),
			},
			StatusCode: http.StatusOK,
			Delay:      800 * time.Millisecond,
		},
		{
			Method:       http.MethodDelete,
			Path:         base + "/:id",
			Summary:      "Delete a submission",
			ResponseBody: map[string]any{"success": true, "message": "Submission deleted successfully"},
			StatusCode:   http.StatusOK,
			Delay:        600 * time.Millisecond,
		},
	}
	if travel {
		endpoints = append(endpoints, g.travelEndpoints(now)...)
	}

	g.logger.Debug("mock endpoints generated",
		zap.String("form_id", form.ID),
		zap.String("slug", slug),
		zap.Int("endpoints", len(endpoints)),
	)
	return endpoints
}

// MockRecord synthesises a stored submission for form.
func (g *Generator) MockRecord(form schema.FormSchema) map[string]any {
	now := g.now()
	record := map[string]any{
		"id":        fmt.Sprintf("mock-%d-%s", now.UnixMilli(), g.token(9)),
		"createdAt": now.Format(isoMillis),
		"updatedAt": now.Format(isoMillis),
	}
	for _, field := range form.Fields {
		record[field.Name] = g.MockValue(field)
	}
	return record
}

// MockValue returns a representative value for field based on its type.
func (g *Generator) MockValue(field schema.Field) any {
	name := field.Name
	switch field.Type {
	case schema.FieldTypeEmail:
		return strings.ToLower(name) + "@example.com"
	case schema.FieldTypePhone:
		return fmt.Sprintf("+1-555-%d", 1000+g.intN(9000))
	case schema.FieldTypeNumber:
		return g.intN(100)
	case schema.FieldTypeDate:
		return g.now().Format(dateOnly)
	case schema.FieldTypeTime:
		return g.now().Format("15:04")
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		if len(field.Options) == 0 {
			return "option_1"
		}
		return field.Options[g.intN(len(field.Options))].Value
	case schema.FieldTypeCheckbox:
		return g.float() > 0.5
	case schema.FieldTypeTextarea:
		return fmt.Sprintf("This is a sample %s with multiple lines of text content.", name)
	case schema.FieldTypeURL:
		return "https://example.com/" + strings.ToLower(name)
	case schema.FieldTypeFile:
		return map[string]any{
			"name": name + "-file.pdf",
			"size": 1024 * g.intN(100),
			"type": "application/pdf",
			"url":  "https://example.com/files/" + name + ".pdf",
		}
	default:
		return "Sample " + name
	}
}

func (g *Generator) policyNumber(now time.Time) string {
	return fmt.Sprintf("TRV-%d-%s", now.UnixMilli(), strings.ToUpper(g.token(6)))
}

func (g *Generator) now() time.Time {
	return g.clock().UTC()
}

func (g *Generator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) token(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(base36[g.rng.IntN(len(base36))])
	}
	return b.String()
}
