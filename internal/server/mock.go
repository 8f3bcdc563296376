package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/schema"
)

// handleMock serves /mock/{id}/api/... from the project's endpoints. Servers
// are cached per project and rebuilt when the project changes.
func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.orch.Project(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.mockFor(result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.StripPrefix(mockBase(id), target).ServeHTTP(w, r)
}

func (s *Server) mockFor(result orchestrator.Result) (*mockapi.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.mocks[result.ProjectID]; ok && cached.version.Equal(result.GeneratedAt) {
		return cached.server, nil
	}
	options := append([]mockapi.ServerOption{mockapi.WithServerLogger(s.logger)}, s.mockOptions...)
	target, err := mockapi.NewServer(result.Schema, result.Endpoints, options...)
	if err != nil {
		return nil, err
	}
	s.mocks[result.ProjectID] = cachedMock{version: result.GeneratedAt, server: target}
	s.logger.Debug("mock api built",
		zap.String("project_id", result.ProjectID),
		zap.Int("endpoints", len(result.Endpoints)),
	)
	return target, nil
}

func (s *Server) dropMock(id string) {
	s.mu.Lock()
	delete(s.mocks, id)
	s.mu.Unlock()
}

func mockBase(id string) string {
	return strings.TrimSuffix(MockPrefix, "/") + "/" + id
}

// scopeToMock points the submit URL and relative option sources of form at
// the project's mock API under base.
func scopeToMock(form schema.FormSchema, base string) schema.FormSchema {
	form = form.Clone()
	submit := form.SubmitURL
	if submit == "" {
		submit = "/api/" + form.Slug() + "/submit"
	}
	if strings.HasPrefix(submit, "/api/") {
		form.SubmitURL = base + submit
	}
	for i := range form.Fields {
		cfg := form.Fields[i].APIConfig
		if cfg != nil && strings.HasPrefix(cfg.URL, "/api/") {
			cfg.URL = base + cfg.URL
		}
	}
	return form
}

// baseURL reconstructs the scheme and host the client used.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + r.Host
}
