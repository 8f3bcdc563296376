package mockapi

import (
	"context"
	"maps"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Simulate waits for the endpoint delay, then returns either a synthetic 500
// (with probability ErrorRate) or the canned response. POST request fields are
// merged over the response data. The only error returned is ctx's.
func (g *Generator) Simulate(ctx context.Context, endpoint Endpoint, request map[string]any) (Response, error) {
	delay := endpoint.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	if err := g.sleep(ctx, delay); err != nil {
		return Response{}, err
	}
	return g.respond(endpoint, request), nil
}

// respond builds the response without waiting. Callers own the latency.
func (g *Generator) respond(endpoint Endpoint, request map[string]any) Response {
	if g.errorRate > 0 && g.float() < g.errorRate {
		g.logger.Debug("injected mock failure",
			zap.String("endpoint", endpoint.Key()),
		)
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body: map[string]any{
				"success": false,
				"message": "Internal server error",
			},
		}
	}

	body := maps.Clone(endpoint.ResponseBody)
	if body == nil {
		body = map[string]any{}
	}
	if endpoint.Method == http.MethodPost && len(request) > 0 {
		data := map[string]any{}
		if existing, ok := body["data"].(map[string]any); ok {
			maps.Copy(data, existing)
		}
		maps.Copy(data, request)
		body["data"] = data
	}
	return Response{StatusCode: endpoint.StatusCode, Body: body}
}

// ErrorRate reports the configured failure probability.
func (g *Generator) ErrorRate() float64 {
	return g.errorRate
}

// Now exposes the generator clock for callers that stamp responses.
func (g *Generator) Now() time.Time {
	return g.now()
}
