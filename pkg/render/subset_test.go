package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-journey360/pkg/render"
	"github.com/goliatone/go-journey360/pkg/schema"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

func TestApplySubset(t *testing.T) {
	form := testsupport.ContactForm()
	form.Layout = schema.LayoutWizard
	form.Steps = []schema.Step{{Title: "One"}, {Title: "Two"}}
	form.Fields[3].Step = 1
	form.Fields[4].Step = 1

	tests := []struct {
		name   string
		subset render.FieldSubset
		want   []string
	}{
		{name: "empty keeps all", want: []string{"fullName", "email", "age", "contactMethod", "newsletter"}},
		{name: "by step", subset: render.FieldSubset{Steps: []int{1}}, want: []string{"contactMethod", "newsletter"}},
		{name: "by name", subset: render.FieldSubset{Names: []string{" email "}}, want: []string{"email"}},
		{name: "union", subset: render.FieldSubset{Names: []string{"age"}, Steps: []int{1}}, want: []string{"age", "contactMethod", "newsletter"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clone := form.Clone()
			render.ApplySubset(&clone, tc.subset)
			var got []string
			for _, field := range clone.Fields {
				got = append(got, field.Name)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
			if len(clone.Steps) != 2 {
				t.Fatalf("steps pruned: %v", clone.Steps)
			}
		})
	}
}
