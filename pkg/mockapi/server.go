package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/jsonschema"
	"github.com/goliatone/go-journey360/pkg/schema"
)

const maxBodyBytes = 1 << 20

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithGenerator sets the generator used for latency and error injection.
func WithGenerator(g *Generator) ServerOption {
	return func(s *Server) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithDelayScale multiplies every endpoint delay. Zero disables latency.
func WithDelayScale(scale float64) ServerOption {
	return func(s *Server) {
		s.delayScale = max(scale, 0)
	}
}

// WithServerLogger attaches a structured logger.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type route struct {
	endpoint Endpoint
	segments []string
	validate bool
}

// Server serves a set of mock endpoints over HTTP. Submit and update bodies
// are validated against the form before the canned response is produced.
type Server struct {
	form       schema.FormSchema
	routes     []route
	validator  *jsonschema.Validator
	generator  *Generator
	delayScale float64
	logger     *zap.Logger
}

// NewServer builds a Server for form. Endpoints usually come from
// GenerateEndpoints on the same form.
func NewServer(form schema.FormSchema, endpoints []Endpoint, options ...ServerOption) (*Server, error) {
	validator, err := jsonschema.Compile(form)
	if err != nil {
		return nil, fmt.Errorf("mockapi: server: %w", err)
	}
	s := &Server{
		form:       form,
		validator:  validator,
		delayScale: 1,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.generator == nil {
		s.generator = NewGenerator(WithLogger(s.logger))
	}

	base := "/api/" + form.Slug()
	for _, endpoint := range endpoints {
		s.routes = append(s.routes, route{
			endpoint: endpoint,
			segments: splitPath(endpoint.Path),
			validate: endpoint.Path == base+"/submit" ||
				(endpoint.Method == http.MethodPut && strings.HasPrefix(endpoint.Path, base+"/")),
		})
	}
	return s, nil
}

// Endpoints returns the served endpoints in registration order.
func (s *Server) Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r.endpoint)
	}
	return out
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	matched, params, pathFound := s.match(r.Method, r.URL.Path)
	if matched == nil {
		if pathFound {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
				"success": false,
				"message": fmt.Sprintf("method %s not allowed", r.Method),
			})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "endpoint not found",
		})
		return
	}

	var request map[string]any
	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		var err error
		request, err = decodeBody(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": err.Error(),
			})
			return
		}
	}

	if matched.validate {
		if problems := s.validator.Validate(request); len(problems) > 0 {
			s.logger.Debug("mock submission rejected",
				zap.String("endpoint", matched.endpoint.Key()),
				zap.Int("problems", len(problems)),
			)
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"message": "Validation failed",
				"errors":  problems,
			})
			return
		}
	}

	if delay := s.scaledDelay(matched.endpoint); delay > 0 {
		if err := s.generator.sleep(r.Context(), delay); err != nil {
			return
		}
	}

	response := s.generator.respond(matched.endpoint, request)
	if id, ok := params["id"]; ok && response.StatusCode < http.StatusBadRequest {
		if data, ok := response.Body["data"].(map[string]any); ok {
			data = maps.Clone(data)
			data["id"] = id
			response.Body["data"] = data
		}
	}
	writeJSON(w, response.StatusCode, response.Body)
}

func (s *Server) scaledDelay(endpoint Endpoint) time.Duration {
	delay := endpoint.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	return time.Duration(float64(delay) * s.delayScale)
}

// match finds the route for method and path. pathFound reports whether any
// route matched the path under a different method.
func (s *Server) match(method, path string) (*route, map[string]string, bool) {
	segments := splitPath(path)
	pathFound := false
	for i := range s.routes {
		candidate := &s.routes[i]
		params, ok := matchSegments(candidate.segments, segments)
		if !ok {
			continue
		}
		if candidate.endpoint.Method != method {
			pathFound = true
			continue
		}
		return candidate, params, true
	}
	return nil, nil, pathFound
}

func matchSegments(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[part[1:]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func decodeBody(body io.Reader) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	var payload map[string]any
	err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&payload)
	switch {
	case errors.Is(err, io.EOF):
		return map[string]any{}, nil
	case err != nil:
		return nil, fmt.Errorf("invalid JSON body: %v", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
