package testgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// ErrNoHandler is returned when a Runner is built without an API handler.
var ErrNoHandler = errors.New("testgen: runner requires an http handler")

// FormRenderer produces the markup checked by render cases.
type FormRenderer interface {
	RenderForm(ctx context.Context, form schema.FormSchema) ([]byte, error)
}

// FormRendererFunc adapts a function to FormRenderer.
type FormRendererFunc func(ctx context.Context, form schema.FormSchema) ([]byte, error)

// RenderForm implements FormRenderer.
func (fn FormRendererFunc) RenderForm(ctx context.Context, form schema.FormSchema) ([]byte, error) {
	return fn(ctx, form)
}

// Result records the outcome of a single case.
type Result struct {
	CaseID     string        `json:"caseId"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"statusCode,omitempty"`
	Message    string        `json:"message,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Report summarises a run. Cases holds copies of the input cases carrying
// their final status.
type Report struct {
	Passed  int        `json:"passed"`
	Failed  int        `json:"failed"`
	Results []Result   `json:"results"`
	Cases   []TestCase `json:"cases"`
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithRenderer enables render cases.
func WithRenderer(renderer FormRenderer) RunnerOption {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

// WithRunnerLogger attaches a structured logger.
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes a battery in-process against an http.Handler serving the
// mock API.
type Runner struct {
	handler  http.Handler
	renderer FormRenderer
	logger   *zap.Logger
}

// NewRunner constructs a Runner for handler.
func NewRunner(handler http.Handler, options ...RunnerOption) (*Runner, error) {
	if handler == nil {
		return nil, ErrNoHandler
	}
	r := &Runner{handler: handler, logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// Run executes every case in order. It stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, form schema.FormSchema, cases []TestCase) (Report, error) {
	report := Report{
		Results: make([]Result, 0, len(cases)),
		Cases:   make([]TestCase, 0, len(cases)),
	}
	target := submitRequestPath(form)

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		started := time.Now()
		result := r.runCase(ctx, form, target, tc)
		result.CaseID = tc.ID
		result.Duration = time.Since(started)

		tc.Status = result.Status
		if result.Status == StatusPassed {
			report.Passed++
		} else {
			report.Failed++
			r.logger.Info("test case failed",
				zap.String("case", tc.ID),
				zap.String("message", result.Message),
				zap.Int("status_code", result.StatusCode),
			)
		}
		report.Results = append(report.Results, result)
		report.Cases = append(report.Cases, tc)
	}
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, form schema.FormSchema, target string, tc TestCase) Result {
	switch tc.Category {
	case CategoryRender:
		return r.runRender(ctx, form, tc)
	case CategoryRequired:
		payload := ValidPayload(form)
		delete(payload, tc.Field)
		return r.expect(ctx, target, payload, false)
	case CategoryFormat:
		var last Result
		for _, probe := range tc.Inputs {
			payload := ValidPayload(form)
			if probe.Value == nil {
				delete(payload, tc.Field)
			} else {
				payload[tc.Field] = probe.Value
			}
			last = r.expect(ctx, target, payload, probe.Valid)
			if last.Status == StatusFailed {
				last.Message = fmt.Sprintf("probe %v: %s", probe.Value, last.Message)
				return last
			}
		}
		return last
	case CategorySubmission:
		payload := ValidPayload(form)
		if len(tc.Inputs) > 0 {
			if supplied, ok := tc.Inputs[0].Value.(map[string]any); ok {
				payload = maps.Clone(supplied)
			}
		}
		return r.expect(ctx, target, payload, true)
	default:
		return Result{Status: StatusFailed, Message: fmt.Sprintf("unknown category %q", tc.Category)}
	}
}

func (r *Runner) runRender(ctx context.Context, form schema.FormSchema, tc TestCase) Result {
	if r.renderer == nil {
		return Result{Status: StatusFailed, Message: "no form renderer configured"}
	}
	markup, err := r.renderer.RenderForm(ctx, form)
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}
	}
	needle := fmt.Sprintf(`name="%s"`, tc.Field)
	if !bytes.Contains(markup, []byte(needle)) {
		return Result{Status: StatusFailed, Message: fmt.Sprintf("markup does not contain %s", needle)}
	}
	return Result{Status: StatusPassed}
}

func (r *Runner) expect(ctx context.Context, target string, payload map[string]any, valid bool) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusFailed, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)

	result := Result{StatusCode: rec.Code, Status: StatusPassed}
	switch {
	case valid && (rec.Code < 200 || rec.Code > 299):
		result.Status = StatusFailed
		result.Message = fmt.Sprintf("expected 2xx, got %d: %s", rec.Code, strings.TrimSpace(rec.Body.String()))
	case !valid && rec.Code != http.StatusBadRequest:
		result.Status = StatusFailed
		result.Message = fmt.Sprintf("expected 400, got %d", rec.Code)
	}
	return result
}

func submitRequestPath(form schema.FormSchema) string {
	target := form.SubmitURL
	if target == "" {
		return SubmitPath(form)
	}
	if parsed, err := url.Parse(target); err == nil && parsed.IsAbs() {
		return parsed.RequestURI()
	}
	return target
}
