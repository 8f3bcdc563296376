package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-journey360/pkg/apiclient"
	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func jsonHandler(t *testing.T, status int, body any, inspect func(*http.Request)) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func TestFetchOptions_GetWithParamsAndDataPath(t *testing.T) {
	var seen *http.Request
	server := httptest.NewServer(jsonHandler(t, http.StatusOK, map[string]any{
		"data": map[string]any{
			"countries": []any{
				map[string]any{"meta": map[string]any{"title": "Canada"}, "code": "ca"},
				map[string]any{"meta": map[string]any{"title": "Japan"}, "code": "jp"},
			},
		},
	}, func(r *http.Request) { seen = r }))
	defer server.Close()

	client := apiclient.New(apiclient.WithBaseURL(server.URL))
	options, err := client.FetchOptions(context.Background(), schema.APIConfig{
		URL:      "/countries?active=1",
		Headers:  map[string]string{"X-Api-Key": "secret"},
		Params:   map[string]string{"region": "all"},
		DataPath: "data.countries",
		LabelKey: "meta.title",
		ValueKey: "code",
	})
	require.NoError(t, err)
	assert.Equal(t, []schema.FieldOption{
		{Label: "Canada", Value: "ca"},
		{Label: "Japan", Value: "jp"},
	}, options)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Equal(t, "all", seen.URL.Query().Get("region"))
	assert.Equal(t, "1", seen.URL.Query().Get("active"))
	assert.Equal(t, "secret", seen.Header.Get("X-Api-Key"))
}

func TestFetchOptions_PostSendsParamsAsBody(t *testing.T) {
	var body map[string]string
	handler := jsonHandler(t, http.StatusOK, []any{"gold", "silver"}, func(r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
	})

	client := apiclient.New(apiclient.WithHandler(handler))
	options, err := client.FetchOptions(context.Background(), schema.APIConfig{
		URL:    "/plans",
		Method: "post",
		Params: map[string]string{"tier": "premium"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tier": "premium"}, body)
	assert.Equal(t, []schema.FieldOption{
		{Label: "gold", Value: "gold"},
		{Label: "silver", Value: "silver"},
	}, options)
}

func TestFetchOptions_FallbackKeys(t *testing.T) {
	handler := jsonHandler(t, http.StatusOK, []any{
		map[string]any{"name": "Alpha", "id": float64(1)},
		map[string]any{"label": "Beta", "value": "b"},
	}, nil)

	options, err := apiclient.New(apiclient.WithHandler(handler)).
		FetchOptions(context.Background(), schema.APIConfig{URL: "/items"})
	require.NoError(t, err)
	assert.Equal(t, []schema.FieldOption{
		{Label: "Alpha", Value: "1"},
		{Label: "Beta", Value: "b"},
	}, options)
}

func TestFetchOptions_Errors(t *testing.T) {
	ctx := context.Background()

	notList := apiclient.New(apiclient.WithHandler(jsonHandler(t, http.StatusOK, map[string]any{"data": "x"}, nil)))
	_, err := notList.FetchOptions(ctx, schema.APIConfig{URL: "/x", DataPath: "data"})
	assert.ErrorIs(t, err, apiclient.ErrNotList)

	failing := apiclient.New(apiclient.WithHandler(jsonHandler(t, http.StatusServiceUnavailable, map[string]any{"message": "down"}, nil)))
	_, err = failing.FetchOptions(ctx, schema.APIConfig{URL: "/x"})
	require.ErrorIs(t, err, apiclient.ErrUpstream)
	var statusErr *apiclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "down", statusErr.Message)

	_, err = apiclient.New().FetchOptions(ctx, schema.APIConfig{URL: "/relative"})
	assert.Error(t, err)

	_, err = apiclient.New().FetchOptions(ctx, schema.APIConfig{})
	assert.ErrorIs(t, err, apiclient.ErrNoURL)
}

func mockClient(t *testing.T) (*apiclient.Client, schema.FormSchema) {
	t.Helper()
	form := testsupport.ContactForm()
	g := mockapi.NewGenerator(mockapi.WithSeed(1), mockapi.WithErrorRate(0), mockapi.WithClock(testsupport.Clock()))
	server, err := mockapi.NewServer(form, g.GenerateEndpoints(form), mockapi.WithGenerator(g), mockapi.WithDelayScale(0))
	require.NoError(t, err)
	return apiclient.New(apiclient.WithHandler(server)), form
}

func TestSubmit_AgainstMockServer(t *testing.T) {
	client, form := mockClient(t)

	resp, err := client.Submit(context.Background(), form.SubmitURL, map[string]any{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"age":      36,
	}, apiclient.SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])

	_, err = client.Submit(context.Background(), form.SubmitURL, map[string]any{"email": "nope"}, apiclient.SubmitOptions{})
	var statusErr *apiclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Validation failed", statusErr.Message)
	assert.Contains(t, statusErr.Body, "errors")
}

func TestSubmit_TransformAndMethod(t *testing.T) {
	var method string
	var received map[string]any
	handler := jsonHandler(t, http.StatusOK, map[string]any{"ok": true}, func(r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&received)
	})
	client := apiclient.New(apiclient.WithHandler(handler))

	_, err := client.Submit(context.Background(), "/records/1", map[string]any{"a": 1}, apiclient.SubmitOptions{
		Method: "put",
		Transform: func(in map[string]any) (any, error) {
			return map[string]any{"payload": in}, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, map[string]any{"payload": map[string]any{"a": float64(1)}}, received)

	_, err = client.Submit(context.Background(), "/records/1", nil, apiclient.SubmitOptions{Method: "DELETE"})
	assert.Error(t, err)
}

func TestHealthy(t *testing.T) {
	ok := apiclient.New(apiclient.WithHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	assert.True(t, ok.Healthy(context.Background(), "/healthz"))

	down := apiclient.New(apiclient.WithHandler(http.NotFoundHandler()))
	assert.False(t, down.Healthy(context.Background(), "/healthz"))
}

func TestSampleOptions(t *testing.T) {
	options, ok := apiclient.SampleOptions("Destination")
	require.True(t, ok)
	assert.Equal(t, schema.FieldOption{Label: "Worldwide", Value: "worldwide"}, options[0])

	_, ok = apiclient.SampleOptions("unknown")
	assert.False(t, ok)
}
