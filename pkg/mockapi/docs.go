package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultBaseURL is the host used in cURL examples.
const DefaultBaseURL = "https://api.example.com"

// CurlExamples renders one cURL command per endpoint. POST and PUT commands
// carry sample as their body, falling back to {"sample": "data"}.
func CurlExamples(baseURL string, endpoints []Endpoint, sample map[string]any) []string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if sample == nil {
		sample = map[string]any{"sample": "data"}
	}

	body := "{}"
	if encoded, err := json.MarshalIndent(sample, "", "  "); err == nil {
		body = strings.ReplaceAll(string(encoded), "\n", "\n    ")
	}

	out := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		var b strings.Builder
		fmt.Fprintf(&b, "curl -X %s \"%s%s\"", endpoint.Method, baseURL, endpoint.Path)
		b.WriteString(" \\\n  -H \"Content-Type: application/json\"")
		b.WriteString(" \\\n  -H \"Authorization: Bearer YOUR_API_KEY\"")
		if endpoint.Method == http.MethodPost || endpoint.Method == http.MethodPut {
			fmt.Fprintf(&b, " \\\n  -d '%s'", body)
		}
		out = append(out, b.String())
	}
	return out
}

// Docs renders markdown documentation for endpoints.
func Docs(endpoints []Endpoint) string {
	var b strings.Builder
	b.WriteString("# API Documentation\n\n")
	for _, endpoint := range endpoints {
		fmt.Fprintf(&b, "## %s %s\n\n", endpoint.Method, endpoint.Path)
		if endpoint.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", endpoint.Summary)
		}
		fmt.Fprintf(&b, "**Status Code:** %d\n\n", endpoint.StatusCode)

		delay := endpoint.Delay
		if delay <= 0 {
			delay = DefaultDelay
		}
		fmt.Fprintf(&b, "**Response Delay:** %dms\n\n", delay.Milliseconds())

		b.WriteString("**Response Body:**\n```json\n")
		encoded, err := json.MarshalIndent(endpoint.ResponseBody, "", "  ")
		if err != nil {
			encoded = []byte("{}")
		}
		b.Write(encoded)
		b.WriteString("\n```\n\n")
	}
	return b.String()
}
