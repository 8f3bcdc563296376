package mockapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/parser"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func newGenerator(options ...mockapi.Option) *mockapi.Generator {
	base := []mockapi.Option{
		mockapi.WithSeed(42),
		mockapi.WithClock(testsupport.Clock()),
	}
	return mockapi.NewGenerator(append(base, options...)...)
}

func travelForm(t *testing.T) schema.FormSchema {
	t.Helper()
	form, err := parser.New(parser.WithClock(testsupport.Clock())).Parse(context.Background(), testsupport.TravelStory)
	if err != nil {
		t.Fatalf("parse travel story: %v", err)
	}
	if form.Kind != schema.KindTravelInsurance {
		t.Fatalf("travel story parsed as %q", form.Kind)
	}
	return form
}

func keys(endpoints []mockapi.Endpoint) []string {
	out := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		out = append(out, endpoint.Key())
	}
	return out
}

func TestGenerateEndpoints_CRUD(t *testing.T) {
	endpoints := newGenerator().GenerateEndpoints(testsupport.ContactForm())

	want := []string{
		"POST /api/contact-form/submit",
		"GET /api/contact-form/:id",
		"GET /api/contact-form",
		"PUT /api/contact-form/:id",
		"DELETE /api/contact-form/:id",
	}
	if diff := cmp.Diff(want, keys(endpoints)); diff != "" {
		t.Fatalf("endpoints mismatch (-want +got):\n%s", diff)
	}

	delays := []time.Duration{1000, 500, 500, 800, 600}
	for i, endpoint := range endpoints {
		if endpoint.Delay != delays[i]*time.Millisecond {
			t.Fatalf("%s delay = %s", endpoint.Key(), endpoint.Delay)
		}
		if endpoint.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", endpoint.Key(), endpoint.StatusCode)
		}
	}

	submit := endpoints[0].ResponseBody
	if submit["message"] != "Thanks!" {
		t.Fatalf("submit message = %v", submit["message"])
	}

	list := endpoints[2].ResponseBody
	records, ok := list["data"].([]map[string]any)
	if !ok || len(records) != 5 {
		t.Fatalf("list data = %#v", list["data"])
	}
	if list["total"] != 5 || list["page"] != 1 || list["perPage"] != 10 {
		t.Fatalf("unexpected pagination %v/%v/%v", list["total"], list["page"], list["perPage"])
	}
	for _, record := range records {
		for _, name := range []string{"id", "createdAt", "fullName", "email", "age", "contactMethod", "newsletter"} {
			if _, ok := record[name]; !ok {
				t.Fatalf("record missing %q: %v", name, record)
			}
		}
	}
}

func TestGenerateEndpoints_TravelInsurance(t *testing.T) {
	form := travelForm(t)
	endpoints := newGenerator().GenerateEndpoints(form)
	if len(endpoints) != 9 {
		t.Fatalf("expected 9 endpoints, got %d: %v", len(endpoints), keys(endpoints))
	}

	got := keys(endpoints[5:])
	want := []string{
		"GET /api/travel-insurance/plans",
		"POST /api/travel-insurance/calculate-premium",
		"POST /api/travel-insurance/issue-policy",
		"POST /api/travel-insurance/process-payment",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("travel endpoints mismatch (-want +got):\n%s", diff)
	}

	plans, ok := endpoints[5].ResponseBody["data"].([]map[string]any)
	if !ok {
		t.Fatalf("plans data = %#v", endpoints[5].ResponseBody["data"])
	}
	var ids []string
	for _, plan := range plans {
		ids = append(ids, plan["id"].(string))
	}
	if diff := cmp.Diff([]string{"bronze", "silver", "gold"}, ids); diff != "" {
		t.Fatalf("plans mismatch (-want +got):\n%s", diff)
	}

	data := endpoints[0].ResponseBody["data"].(map[string]any)
	if !regexp.MustCompile(`^TRV-\d+-[A-Z0-9]{6}$`).MatchString(data["policyNumber"].(string)) {
		t.Fatalf("policy number = %v", data["policyNumber"])
	}
	if data["coverageStartDate"] != "2026-01-15" {
		t.Fatalf("coverage start = %v", data["coverageStartDate"])
	}
}

func TestGenerateEndpoints_TravelEndpointsFollowTitle(t *testing.T) {
	titles := map[string]int{
		"Travel Insurance Feedback":   9,
		"Annual travel insurance":     9,
		"Contact Form":                5,
		"Travel Booking":              5,
		"Insurance for travel abroad": 5,
	}
	for title, want := range titles {
		form := testsupport.ContactForm()
		form.Title = title
		form.SyncKind()
		if got := len(newGenerator().GenerateEndpoints(form)); got != want {
			t.Errorf("%q produced %d endpoints, want %d", title, got, want)
		}
	}
}

func TestGenerateEndpoints_Deterministic(t *testing.T) {
	form := testsupport.ContactForm()
	first := newGenerator().GenerateEndpoints(form)
	second := newGenerator().GenerateEndpoints(form)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same seed produced different endpoints:\n%s", diff)
	}
}

func TestMockValue(t *testing.T) {
	g := newGenerator()
	field := func(name string, kind schema.FieldType) schema.Field {
		return schema.Field{Name: name, Type: kind}
	}

	if got := g.MockValue(field("workEmail", schema.FieldTypeEmail)); got != "workemail@example.com" {
		t.Fatalf("email = %v", got)
	}
	if got := g.MockValue(field("phone", schema.FieldTypePhone)).(string); !regexp.MustCompile(`^\+1-555-\d{4}$`).MatchString(got) {
		t.Fatalf("phone = %v", got)
	}
	if got := g.MockValue(field("age", schema.FieldTypeNumber)).(int); got < 0 || got > 99 {
		t.Fatalf("number = %v", got)
	}
	if got := g.MockValue(field("dob", schema.FieldTypeDate)); got != "2026-01-15" {
		t.Fatalf("date = %v", got)
	}
	if got := g.MockValue(field("plan", schema.FieldTypeSelect)); got != "option_1" {
		t.Fatalf("select without options = %v", got)
	}
	if got := g.MockValue(field("site", schema.FieldTypeURL)); got != "https://example.com/site" {
		t.Fatalf("url = %v", got)
	}
	if got := g.MockValue(field("company", schema.FieldTypeText)); got != "Sample company" {
		t.Fatalf("text = %v", got)
	}
	file := g.MockValue(field("upload", schema.FieldTypeFile)).(map[string]any)
	if file["name"] != "upload-file.pdf" || file["type"] != "application/pdf" {
		t.Fatalf("file = %v", file)
	}

	radio := schema.Field{Name: "size", Type: schema.FieldTypeRadio, Options: []schema.FieldOption{
		{Label: "S", Value: "s"}, {Label: "M", Value: "m"},
	}}
	for range 20 {
		if got := g.MockValue(radio); got != "s" && got != "m" {
			t.Fatalf("radio = %v", got)
		}
	}
}

func TestSimulate_ErrorRate(t *testing.T) {
	sleeper := &testsupport.NoSleep{}
	g := newGenerator(mockapi.WithSleeper(sleeper.Sleep))
	endpoint := g.GenerateEndpoints(testsupport.ContactForm())[1]

	const calls = 10000
	failures := 0
	for range calls {
		resp, err := g.Simulate(context.Background(), endpoint, nil)
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		if resp.StatusCode == http.StatusInternalServerError {
			failures++
			if resp.Body["success"] != false || resp.Body["message"] != "Internal server error" {
				t.Fatalf("unexpected failure body %v", resp.Body)
			}
		}
	}
	rate := float64(failures) / calls
	if rate < 0.03 || rate > 0.07 {
		t.Fatalf("failure rate %.3f outside expected band around %.2f", rate, mockapi.DefaultErrorRate)
	}
	if len(sleeper.Calls) != calls || sleeper.Calls[0] != endpoint.Delay {
		t.Fatalf("sleeper calls = %d, first = %v", len(sleeper.Calls), sleeper.Calls[0])
	}
}

func TestSimulate_LatencyAtLeastDelay(t *testing.T) {
	g := newGenerator(mockapi.WithErrorRate(0))
	endpoint := mockapi.Endpoint{
		Method:       http.MethodGet,
		Path:         "/api/thing",
		ResponseBody: map[string]any{"success": true},
		StatusCode:   http.StatusOK,
		Delay:        25 * time.Millisecond,
	}

	started := time.Now()
	resp, err := g.Simulate(context.Background(), endpoint, nil)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if elapsed := time.Since(started); elapsed < endpoint.Delay {
		t.Fatalf("returned after %s, want at least %s", elapsed, endpoint.Delay)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSimulate_ContextCancelled(t *testing.T) {
	g := newGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	endpoint := mockapi.Endpoint{Method: http.MethodGet, Path: "/x", StatusCode: http.StatusOK, Delay: time.Second}
	if _, err := g.Simulate(ctx, endpoint, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSimulate_PostMergesRequest(t *testing.T) {
	sleeper := &testsupport.NoSleep{}
	g := newGenerator(mockapi.WithErrorRate(0), mockapi.WithSleeper(sleeper.Sleep))
	endpoint := g.GenerateEndpoints(testsupport.ContactForm())[0]

	resp, err := g.Simulate(context.Background(), endpoint, map[string]any{"email": "a@b.co"})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	data := resp.Body["data"].(map[string]any)
	if data["email"] != "a@b.co" || data["status"] != "received" {
		t.Fatalf("merged data = %v", data)
	}
	original := endpoint.ResponseBody["data"].(map[string]any)
	if _, leaked := original["email"]; leaked {
		t.Fatalf("simulate mutated the endpoint body")
	}

	get := g.GenerateEndpoints(testsupport.ContactForm())[1]
	resp, err = g.Simulate(context.Background(), get, map[string]any{"email": "a@b.co"})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if resp.Body["data"].(map[string]any)["email"] == "a@b.co" {
		t.Fatalf("GET must not merge the request")
	}
}

func TestEndpoint_JSONDelayMillis(t *testing.T) {
	endpoint := mockapi.Endpoint{Method: http.MethodGet, Path: "/p", StatusCode: 200, Delay: 800 * time.Millisecond}
	payload, err := json.Marshal(endpoint)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(payload), `"delay":800`) {
		t.Fatalf("payload = %s", payload)
	}
	var decoded mockapi.Endpoint
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Delay != endpoint.Delay {
		t.Fatalf("delay = %s", decoded.Delay)
	}
}

func TestCurlExamples(t *testing.T) {
	endpoints := newGenerator().GenerateEndpoints(testsupport.ContactForm())
	examples := mockapi.CurlExamples("", endpoints, nil)
	if len(examples) != len(endpoints) {
		t.Fatalf("got %d examples", len(examples))
	}

	submit := examples[0]
	for _, want := range []string{
		`curl -X POST "https://api.example.com/api/contact-form/submit"`,
		`-H "Content-Type: application/json"`,
		`-H "Authorization: Bearer YOUR_API_KEY"`,
		`"sample": "data"`,
	} {
		if !strings.Contains(submit, want) {
			t.Fatalf("submit example missing %q:\n%s", want, submit)
		}
	}
	if strings.Contains(examples[1], "-d '") {
		t.Fatalf("GET example must not carry a body:\n%s", examples[1])
	}

	custom := mockapi.CurlExamples("http://localhost:8080/", endpoints[:1], map[string]any{"email": "x@y.z"})
	if !strings.Contains(custom[0], `"http://localhost:8080/api/contact-form/submit"`) || !strings.Contains(custom[0], `"email": "x@y.z"`) {
		t.Fatalf("custom example:\n%s", custom[0])
	}
}

func TestDocs(t *testing.T) {
	endpoints := newGenerator().GenerateEndpoints(testsupport.ContactForm())
	docs := mockapi.Docs(endpoints)
	for _, want := range []string{
		"# API Documentation",
		"## POST /api/contact-form/submit",
		"**Status Code:** 200",
		"**Response Delay:** 1000ms",
		"## DELETE /api/contact-form/:id",
		"```json",
	} {
		if !strings.Contains(docs, want) {
			t.Fatalf("docs missing %q", want)
		}
	}
}

func TestOpenAPI(t *testing.T) {
	form := travelForm(t)
	endpoints := newGenerator().GenerateEndpoints(form)

	doc, err := mockapi.OpenAPI(context.Background(), form, endpoints)
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}

	item := doc.Paths.Value("/api/travel-insurance-quote-buy/{id}")
	if item == nil || item.Get == nil || item.Put == nil || item.Delete == nil {
		t.Fatalf("missing {id} operations")
	}
	if item.Get.OperationID != "getTravelInsuranceQuoteBuy" {
		t.Fatalf("get operation id = %q", item.Get.OperationID)
	}
	if item.Put.RequestBody == nil {
		t.Fatalf("update must carry a request body")
	}

	submit := doc.Paths.Value("/api/travel-insurance-quote-buy/submit")
	if submit == nil || submit.Post == nil {
		t.Fatalf("missing submit operation")
	}
	body := submit.Post.RequestBody.Value.Content.Get("application/json").Schema.Value
	if !contains(body.Required, "passportNumber") {
		t.Fatalf("required = %v", body.Required)
	}
	if body.Properties["email"].Value.Format != "email" {
		t.Fatalf("email format = %q", body.Properties["email"].Value.Format)
	}

	premium := doc.Paths.Value("/api/travel-insurance/calculate-premium")
	if premium == nil || premium.Post.OperationID != "postTravelInsuranceCalculatePremium" {
		t.Fatalf("calculate premium operation missing")
	}

	payload, err := mockapi.OpenAPIJSON(context.Background(), form, endpoints)
	if err != nil {
		t.Fatalf("openapi json: %v", err)
	}
	if !strings.Contains(string(payload), `"openapi": "3.0.3"`) {
		t.Fatalf("unexpected json header: %.80s", payload)
	}
}

func TestOpenAPI_ListOperationPlural(t *testing.T) {
	form := testsupport.ContactForm()
	doc, err := mockapi.OpenAPI(context.Background(), form, newGenerator().GenerateEndpoints(form))
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	if id := doc.Paths.Value("/api/contact-form").Get.OperationID; id != "listContactForms" {
		t.Fatalf("list operation id = %q", id)
	}
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
