package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// SubmitOptions tunes a submission.
type SubmitOptions struct {
	// Method is POST or PUT. Empty means POST.
	Method  string
	Headers map[string]string
	// Transform reshapes the payload before encoding.
	Transform func(map[string]any) (any, error)
}

// Submit sends payload as JSON and decodes the JSON response. Non-2xx
// responses return a *StatusError whose message comes from the response body
// when present.
func (c *Client) Submit(ctx context.Context, rawURL string, payload map[string]any, options SubmitOptions) (map[string]any, error) {
	target, err := c.resolve(rawURL)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(strings.TrimSpace(options.Method))
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost, http.MethodPut:
	default:
		return nil, fmt.Errorf("apiclient: unsupported submit method %q", options.Method)
	}

	var data any = payload
	if options.Transform != nil {
		data, err = options.Transform(payload)
		if err != nil {
			return nil, fmt.Errorf("apiclient: transform payload: %w", err)
		}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := statusError(resp)
		c.logger.Warn("submission rejected", zap.String("url", target.String()), zap.Int("status", resp.StatusCode))
		return nil, err
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("apiclient: decode response: %w", err)
	}
	c.logger.Info("submitted form data", zap.String("url", target.String()), zap.String("method", method))
	return out, nil
}

// Healthy reports whether a HEAD request to rawURL succeeds.
func (c *Client) Healthy(ctx context.Context, rawURL string) bool {
	target, err := c.resolve(rawURL)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("health check failed", zap.String("url", target.String()), zap.Error(err))
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
