package mockapi

import (
	"encoding/json"
	"time"
)

// Endpoint is one mocked REST route with its canned response.
type Endpoint struct {
	Method       string
	Path         string
	Summary      string
	ResponseBody map[string]any
	StatusCode   int
	Delay        time.Duration
}

type endpointJSON struct {
	Method       string         `json:"method"`
	Path         string         `json:"path"`
	Summary      string         `json:"summary,omitempty"`
	ResponseBody map[string]any `json:"responseBody"`
	StatusCode   int            `json:"statusCode"`
	Delay        int64          `json:"delay"`
}

// MarshalJSON encodes Delay as milliseconds.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(endpointJSON{
		Method:       e.Method,
		Path:         e.Path,
		Summary:      e.Summary,
		ResponseBody: e.ResponseBody,
		StatusCode:   e.StatusCode,
		Delay:        e.Delay.Milliseconds(),
	})
}

// UnmarshalJSON decodes a millisecond delay.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	var raw endpointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Endpoint{
		Method:       raw.Method,
		Path:         raw.Path,
		Summary:      raw.Summary,
		ResponseBody: raw.ResponseBody,
		StatusCode:   raw.StatusCode,
		Delay:        time.Duration(raw.Delay) * time.Millisecond,
	}
	return nil
}

// Key identifies an endpoint by method and path.
func (e Endpoint) Key() string {
	return e.Method + " " + e.Path
}

// Response is the outcome of a simulated call.
type Response struct {
	StatusCode int            `json:"status"`
	Body       map[string]any `json:"data"`
}
