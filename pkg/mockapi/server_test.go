package mockapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-journey360/pkg/mockapi"
	"github.com/goliatone/go-journey360/pkg/testgen"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func newServer(t *testing.T) *mockapi.Server {
	t.Helper()
	g := newGenerator(mockapi.WithErrorRate(0))
	form := testsupport.ContactForm()
	server, err := mockapi.NewServer(form, g.GenerateEndpoints(form),
		mockapi.WithGenerator(g),
		mockapi.WithDelayScale(0),
	)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func call(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, decoded
}

func TestServer_SubmitValidPayload(t *testing.T) {
	server := newServer(t)
	payload := testgen.ValidPayload(testsupport.ContactForm())

	code, body := call(t, server, http.MethodPost, "/api/contact-form/submit", payload)
	if code != http.StatusOK {
		t.Fatalf("status = %d body = %v", code, body)
	}
	data := body["data"].(map[string]any)
	if data["email"] != payload["email"] {
		t.Fatalf("submitted email not echoed: %v", data)
	}
}

func TestServer_SubmitInvalidPayload(t *testing.T) {
	server := newServer(t)
	payload := testgen.ValidPayload(testsupport.ContactForm())
	delete(payload, "fullName")
	payload["age"] = 12

	code, body := call(t, server, http.MethodPost, "/api/contact-form/submit", payload)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	if body["success"] != false || body["message"] != "Validation failed" {
		t.Fatalf("body = %v", body)
	}

	fields := map[string]bool{}
	for _, raw := range body["errors"].([]any) {
		fields[raw.(map[string]any)["field"].(string)] = true
	}
	if !fields["fullName"] || !fields["age"] {
		t.Fatalf("expected fullName and age errors, got %v", body["errors"])
	}
}

func TestServer_MalformedJSON(t *testing.T) {
	server := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/contact-form/submit", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestServer_PathParameter(t *testing.T) {
	server := newServer(t)
	code, body := call(t, server, http.MethodGet, "/api/contact-form/abc-123", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if id := body["data"].(map[string]any)["id"]; id != "abc-123" {
		t.Fatalf("id = %v", id)
	}

	code, body = call(t, server, http.MethodDelete, "/api/contact-form/abc-123", nil)
	if code != http.StatusOK || body["message"] != "Submission deleted successfully" {
		t.Fatalf("delete status = %d body = %v", code, body)
	}
}

func TestServer_UpdateIsValidated(t *testing.T) {
	server := newServer(t)
	code, _ := call(t, server, http.MethodPut, "/api/contact-form/abc", map[string]any{"email": "nope"})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	code, _ = call(t, server, http.MethodPut, "/api/contact-form/abc", testgen.ValidPayload(testsupport.ContactForm()))
	if code != http.StatusOK {
		t.Fatalf("valid update status = %d", code)
	}
}

func TestServer_NotFoundAndMethodNotAllowed(t *testing.T) {
	server := newServer(t)
	if code, _ := call(t, server, http.MethodGet, "/api/unknown", nil); code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", code)
	}
	if code, _ := call(t, server, http.MethodPatch, "/api/contact-form", nil); code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method status = %d", code)
	}
}

func TestServer_InjectedFailure(t *testing.T) {
	g := newGenerator(mockapi.WithErrorRate(1))
	form := testsupport.ContactForm()
	server, err := mockapi.NewServer(form, g.GenerateEndpoints(form), mockapi.WithGenerator(g), mockapi.WithDelayScale(0))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	code, body := call(t, server, http.MethodGet, "/api/contact-form", nil)
	if code != http.StatusInternalServerError || body["message"] != "Internal server error" {
		t.Fatalf("status = %d body = %v", code, body)
	}
}
