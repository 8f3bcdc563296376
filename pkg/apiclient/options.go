package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// FetchOptions loads an option list described by cfg. GET requests carry
// params in the query string; POST requests send them as a JSON body.
// Labels and values fall back to the label/name and value/id keys, then to
// the item itself.
func (c *Client) FetchOptions(ctx context.Context, cfg schema.APIConfig) ([]schema.FieldOption, error) {
	target, err := c.resolve(cfg.URL)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(cfg.Params) > 0 {
		switch method {
		case http.MethodGet:
			query := target.Query()
			for key, value := range cfg.Params {
				query.Set(key, value)
			}
			target.RawQuery = query.Encode()
		case http.MethodPost:
			encoded, err := json.Marshal(cfg.Params)
			if err != nil {
				return nil, fmt.Errorf("apiclient: encode params: %w", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: fetch options: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("apiclient: decode options: %w", err)
	}

	items, ok := extractList(payload, cfg.DataPath)
	if !ok {
		c.logger.Warn("options response is not a list",
			zap.String("url", target.String()),
			zap.String("data_path", cfg.DataPath),
		)
		return nil, ErrNotList
	}

	labelKey := firstNonEmpty(cfg.LabelKey, "label")
	valueKey := firstNonEmpty(cfg.ValueKey, "value")
	out := make([]schema.FieldOption, 0, len(items))
	for _, item := range items {
		out = append(out, schema.FieldOption{
			Label: pickFirst(item, labelKey, "label", "name"),
			Value: pickFirst(item, valueKey, "value", "id"),
		})
	}
	c.logger.Debug("fetched options", zap.String("url", target.String()), zap.Int("count", len(out)))
	return out, nil
}

func extractList(payload any, path string) ([]any, bool) {
	current := payload
	if path = strings.TrimSpace(path); path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current = node[segment]
		}
	}
	list, ok := current.([]any)
	return list, ok
}

// pickFirst returns the first non-empty value among keys. Keys may be dotted
// paths into nested objects. Scalars stringify as themselves.
func pickFirst(item any, keys ...string) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return stringify(item)
	}
	for _, key := range keys {
		if value := lookup(obj, key); value != "" {
			return value
		}
	}
	encoded, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func lookup(obj map[string]any, path string) string {
	var current any = obj
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = node[segment]
	}
	return stringify(current)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	case bool:
		if !v {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(v)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func statusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body map[string]any
	if json.Unmarshal(data, &body) == nil {
		statusErr.Body = body
		if message, ok := body["message"].(string); ok {
			statusErr.Message = message
		} else if message, ok := body["error"].(string); ok {
			statusErr.Message = message
		}
	}
	return statusErr
}
