package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/jinzhu/inflection"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// OpenAPI describes the mock endpoints as an OpenAPI 3.0 document. Submit and
// update operations carry the form's request body schema; every response
// embeds the canned body as its example.
func OpenAPI(ctx context.Context, form schema.FormSchema, endpoints []Endpoint) (*openapi3.T, error) {
	resource := resourceName(form)
	base := "/api/" + form.Slug()

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       form.Title + " Mock API",
			Description: form.Description,
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{&openapi3.Server{URL: DefaultBaseURL}},
		Paths:   openapi3.NewPaths(),
	}

	seen := make(map[string]int)
	for _, endpoint := range endpoints {
		path, params := openAPIPath(endpoint.Path)
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}

		op := openapi3.NewOperation()
		op.OperationID = uniqueID(seen, operationID(endpoint, base, resource))
		op.Summary = endpoint.Summary
		if strings.HasPrefix(endpoint.Path, base) {
			op.Tags = []string{form.Title}
		} else {
			op.Tags = []string{strings.TrimPrefix(TravelBasePath, "/api/")}
		}
		for _, name := range params {
			op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
		}

		accepts := endpoint.Path == base+"/submit" || (endpoint.Method == http.MethodPut && strings.HasPrefix(endpoint.Path, base))
		if accepts {
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().
					WithRequired(true).
					WithJSONSchema(requestSchema(form)),
			}
			op.AddResponse(http.StatusBadRequest, openapi3.NewResponse().
				WithDescription("Validation failed").
				WithJSONSchema(errorSchema(true)))
		}

		ok := openapi3.NewResponse().
			WithDescription(responseDescription(endpoint)).
			WithJSONSchema(inferSchema(endpoint.ResponseBody))
		if media := ok.Content.Get("application/json"); media != nil {
			media.Example = endpoint.ResponseBody
		}
		op.AddResponse(endpoint.StatusCode, ok)
		op.AddResponse(http.StatusInternalServerError, openapi3.NewResponse().
			WithDescription("Simulated server failure").
			WithJSONSchema(errorSchema(false)))

		item.SetOperation(endpoint.Method, op)
	}

	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("mockapi: openapi: validate: %w", err)
	}
	return doc, nil
}

// OpenAPIJSON renders OpenAPI as indented JSON.
func OpenAPIJSON(ctx context.Context, form schema.FormSchema, endpoints []Endpoint) ([]byte, error) {
	doc, err := OpenAPI(ctx, form, endpoints)
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mockapi: openapi: marshal: %w", err)
	}
	return payload, nil
}

// openAPIPath rewrites ":id" segments to "{id}" and returns the parameter
// names in order.
func openAPIPath(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") {
			name := segment[1:]
			params = append(params, name)
			segments[i] = "{" + name + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

func resourceName(form schema.FormSchema) string {
	name := pascal(form.Slug())
	if name == "" {
		name = "Submission"
	}
	return inflection.Singular(name)
}

func operationID(endpoint Endpoint, base, resource string) string {
	if strings.HasPrefix(endpoint.Path, base) {
		hasID := strings.Contains(endpoint.Path, "/:")
		switch {
		case endpoint.Path == base+"/submit":
			return "submit" + resource
		case endpoint.Method == http.MethodGet && hasID:
			return "get" + resource
		case endpoint.Method == http.MethodGet:
			return "list" + inflection.Plural(resource)
		case endpoint.Method == http.MethodPut:
			return "update" + resource
		case endpoint.Method == http.MethodDelete:
			return "delete" + resource
		}
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(endpoint.Method))
	for _, segment := range strings.Split(strings.TrimPrefix(endpoint.Path, "/api/"), "/") {
		if segment == "" || strings.HasPrefix(segment, ":") {
			continue
		}
		b.WriteString(pascal(segment))
	}
	return b.String()
}

func uniqueID(seen map[string]int, id string) string {
	seen[id]++
	if seen[id] == 1 {
		return id
	}
	return fmt.Sprintf("%s%d", id, seen[id])
}

func pascal(kebab string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(kebab, func(r rune) bool { return r == '-' || r == '_' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func responseDescription(endpoint Endpoint) string {
	if endpoint.Summary != "" {
		return endpoint.Summary
	}
	return http.StatusText(endpoint.StatusCode)
}

func requestSchema(form schema.FormSchema) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = form.Title
	for _, field := range form.Fields {
		out.WithProperty(field.Name, fieldSchema(field))
		if field.Required() {
			out.Required = append(out.Required, field.Name)
		}
	}
	return out
}

func fieldSchema(field schema.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type {
	case schema.FieldTypeNumber:
		s = openapi3.NewFloat64Schema()
	case schema.FieldTypeCheckbox:
		s = openapi3.NewBoolSchema()
	case schema.FieldTypeEmail:
		s = openapi3.NewStringSchema().WithFormat("email")
	case schema.FieldTypeURL:
		s = openapi3.NewStringSchema().WithFormat("uri")
	case schema.FieldTypeDate:
		s = openapi3.NewStringSchema().WithFormat("date")
	default:
		s = openapi3.NewStringSchema()
	}
	s.Title = field.Label
	s.Description = field.Description

	if field.Type.HasOptions() && len(field.Options) > 0 {
		values := make([]any, 0, len(field.Options))
		for _, opt := range field.Options {
			values = append(values, opt.Value)
		}
		s.WithEnum(values...)
	}
	for _, rule := range field.Validations {
		n, numeric := rule.NumberValue()
		switch rule.Type {
		case schema.ValidationMin:
			if numeric {
				s.WithMin(n)
			}
		case schema.ValidationMax:
			if numeric {
				s.WithMax(n)
			}
		case schema.ValidationMinLength:
			if numeric {
				s.WithMinLength(int64(n))
			}
		case schema.ValidationMaxLength:
			if numeric {
				s.WithMaxLength(int64(n))
			}
		case schema.ValidationPattern:
			s.WithPattern(rule.StringValue())
		}
	}
	return s
}

func errorSchema(withFields bool) *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	if withFields {
		item := openapi3.NewObjectSchema().
			WithProperty("field", openapi3.NewStringSchema()).
			WithProperty("message", openapi3.NewStringSchema())
		s.WithProperty("errors", openapi3.NewArraySchema().WithItems(item))
	}
	return s
}

// inferSchema derives a structural schema from a canned response value.
func inferSchema(value any) *openapi3.Schema {
	switch v := value.(type) {
	case map[string]any:
		s := openapi3.NewObjectSchema()
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			s.WithProperty(key, inferSchema(v[key]))
		}
		return s
	case []map[string]any:
		var item any
		if len(v) > 0 {
			item = v[0]
		}
		return openapi3.NewArraySchema().WithItems(inferSchema(item))
	case []any:
		var item any
		if len(v) > 0 {
			item = v[0]
		}
		return openapi3.NewArraySchema().WithItems(inferSchema(item))
	case []string:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	case string:
		return openapi3.NewStringSchema()
	case bool:
		return openapi3.NewBoolSchema()
	case int, int64:
		return openapi3.NewIntegerSchema()
	case float64, float32:
		return openapi3.NewFloat64Schema()
	default:
		return &openapi3.Schema{}
	}
}
