package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func TestMapErrors(t *testing.T) {
	form := testsupport.ContactForm()
	payload := map[string][]string{
		"email":            {"Email is required", " Email is required "},
		"/age":             {"Age must be at least 18"},
		"body.fullName":    {"Full Name is required"},
		"_form":            {"Something went wrong"},
		"request/unknown":  {"Unknown field problem"},
		"contactMethod[0]": {"Pick one"},
		"newsletter":       {"  "},
	}

	mapped := render.MapErrors(form, payload)

	wantFields := map[string][]string{
		"email":         {"Email is required"},
		"age":           {"Age must be at least 18"},
		"fullName":      {"Full Name is required"},
		"contactMethod": {"Pick one"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Something went wrong", "Unknown field problem"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrors_Empty(t *testing.T) {
	mapped := render.MapErrors(testsupport.ContactForm(), nil)
	if mapped.Fields != nil || mapped.Form != nil {
		t.Fatalf("expected empty mapping, got %+v", mapped)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
