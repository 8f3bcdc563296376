package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/apiclient"
	"github.com/goliatone/go-journey360/pkg/bundle"
	"github.com/goliatone/go-journey360/pkg/input"
	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/render/themes"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/store"
)

// errBadRequest marks request problems detected by the handlers themselves.
var errBadRequest = errors.New("server: bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

var badRequestErrors = []error{
	errBadRequest,
	parser.ErrEmptyInput,
	input.ErrBlank,
	input.ErrUnknownMode,
	schema.ErrInvalidSchema,
	themes.ErrUnknownTheme,
	themes.ErrUnknownVariant,
	bundle.ErrUnknownFormat,
	bundle.ErrUnknownEnvironment,
	orchestrator.ErrNoProjectID,
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, input.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiclient.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			message = http.StatusText(status)
		}
	}
	writeJSON(w, status, map[string]string{"error": message})
}
