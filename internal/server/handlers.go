package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/bundle"
	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/jsonschema"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/store"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

const maxJSONBytes = 1 << 20

type generateRequest struct {
	Requirements string `json:"requirements"`
	Mode         string `json:"mode"`
	ProjectID    string `json:"projectId"`
}

type themeInfo struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

func (s *Server) handleThemes(w http.ResponseWriter, _ *http.Request) {
	names := s.selector.Names()
	out := make([]themeInfo, 0, len(names))
	for _, name := range names {
		out = append(out, themeInfo{Name: name, Variants: s.selector.Variants(name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": out})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.readGenerateRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.orch.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dropMock(result.ProjectID)
	writeJSON(w, http.StatusCreated, result)
}

// readGenerateRequest accepts either a JSON body or a multipart upload with a
// "file" part and optional "projectId" field.
func (s *Server) readGenerateRequest(w http.ResponseWriter, r *http.Request) (orchestrator.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return orchestrator.Request{}, input.ErrTooLarge
			}
			return orchestrator.Request{}, badRequest("missing upload: %v", err)
		}
		defer file.Close()
		if header.Size > s.maxUpload {
			return orchestrator.Request{}, input.ErrTooLarge
		}
		req, err := input.FromReader(header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			return orchestrator.Request{}, err
		}
		return orchestrator.Request{
			Requirements: req.Text,
			Mode:         req.Mode,
			ProjectID:    strings.TrimSpace(r.FormValue("projectId")),
		}, nil
	}

	var body generateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		return orchestrator.Request{}, err
	}
	mode, err := input.ParseMode(body.Mode)
	if err != nil {
		return orchestrator.Request{}, err
	}
	var req input.Requirement
	if mode == input.ModeSpeech {
		req, err = input.FromTranscript(body.Requirements)
	} else {
		req, err = input.FromText(body.Requirements)
	}
	if err != nil {
		return orchestrator.Request{}, err
	}
	if mode == input.ModeUpload {
		req.Mode = input.ModeUpload
	}
	return orchestrator.Request{
		Requirements: req.Text,
		Mode:         req.Mode,
		ProjectID:    strings.TrimSpace(body.ProjectID),
	}, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	results, err := s.orch.Projects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []orchestrator.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": results})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.orch.DeleteProject(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dropMock(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	var form schema.FormSchema
	if err := decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.orch.UpdateSchema(r.Context(), r.PathValue("id"), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dropMock(result.ProjectID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs store.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.selector.Resolve(prefs.Theme, prefs.Variant); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.orch.SetPreferences(r.Context(), r.PathValue("id"), prefs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePreview renders the project's form. Theme and variant default to the
// project preferences; the form posts to the project's mock API.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query()

	rendererName := query.Get("renderer")
	if rendererName != "" && !slices.Contains(s.orch.Renderers(), rendererName) {
		s.writeError(w, r, badRequest("unknown renderer %q", rendererName))
		return
	}

	themeName := firstNonEmpty(query.Get("theme"), result.Preferences.Theme)
	variant := firstNonEmpty(query.Get("variant"), result.Preferences.Variant)
	cfg, err := s.selector.Resolve(themeName, variant)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	step := 0
	if raw := query.Get("step"); raw != "" {
		step, err = strconv.Atoi(raw)
		if err != nil || step < 0 {
			s.writeError(w, r, badRequest("step must be a non-negative integer"))
			return
		}
	}

	form := scopeToMock(result.Schema, mockBase(result.ProjectID))
	output, contentType, err := s.orch.Render(r.Context(), rendererName, form, render.RenderOptions{
		Theme: cfg,
		Step:  step,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	format, err := bundle.ParseFormat(query.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := bundle.New(result, s.clock,
		bundle.WithEnvironment(query.Get("environment")),
		bundle.WithDeploymentURL(baseURL(r)+mockBase(result.ProjectID)),
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := bundle.Encode(&buf, b, format); err != nil {
		s.writeError(w, r, err)
		return
	}
	contentType := "application/json"
	if format == bundle.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.FilenameFor(result.Schema, format)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := mockapi.OpenAPIJSON(r.Context(), result.Schema, result.Endpoints)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

func (s *Server) handleJSONSchema(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	writeJSON(w, http.StatusOK, jsonschema.FromForm(result.Schema))
}

// handleDocs serves markdown endpoint docs followed by cURL examples aimed at
// this server's mock API.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var b strings.Builder
	b.WriteString(mockapi.Docs(result.Endpoints))
	b.WriteString("## cURL Examples\n\n")
	sample := testgen.ValidPayload(result.Schema)
	for _, example := range mockapi.CurlExamples(baseURL(r)+mockBase(result.ProjectID), result.Endpoints, sample) {
		b.WriteString("```bash\n")
		b.WriteString(example)
		b.WriteString("\n```\n\n")
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

func (s *Server) handleGoTests(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pkg := firstNonEmpty(r.URL.Query().Get("package"), "formtest")
	src, err := testgen.GoSource(pkg, result.Schema, result.Tests,
		testgen.WithPreviewPath("/api/projects/"+result.ProjectID+"/preview"),
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-go; charset=utf-8")
	_, _ = w.Write(src)
}

// handleRunTests executes the project's cases against a quiet mock server:
// no injected failures and no delay.
func (s *Server) handleRunTests(w http.ResponseWriter, r *http.Request) {
	result, err := s.orch.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := mockapi.NewServer(result.Schema, result.Endpoints,
		mockapi.WithGenerator(mockapi.NewGenerator(mockapi.WithErrorRate(0), mockapi.WithLogger(s.logger))),
		mockapi.WithDelayScale(0),
		mockapi.WithServerLogger(s.logger),
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runner, err := testgen.NewRunner(target,
		testgen.WithRenderer(testgen.FormRendererFunc(func(ctx context.Context, form schema.FormSchema) ([]byte, error) {
			out, _, err := s.orch.Render(ctx, "", form, render.RenderOptions{})
			return out, err
		})),
		testgen.WithRunnerLogger(s.logger),
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := runner.Run(r.Context(), result.Schema, result.Tests)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("project tests run",
		zap.String("project_id", result.ProjectID),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
	)
	writeJSON(w, http.StatusOK, report)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return input.ErrTooLarge
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
