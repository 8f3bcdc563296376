package template_test

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-journey360/pkg/render/template/gotemplate"
	"github.com/goliatone/go-journey360/pkg/testsupport"
)

var templatesFS = fstest.MapFS{
	"hello.html":      {Data: []byte("Hello {{ name|trim }}!")},
	"use-global.html": {Data: []byte("env={{ settings.env }}")},
	"use-filter.html": {Data: []byte("{{ name|shout }}")},
	"form.html":       {Data: []byte(`{% for field in fields %}<input name="{{ field.name }}">{% endfor %}`)},
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "  Ada "}, w)
	})
	if result != "Hello Ada!" || written != result {
		t.Fatalf("result = %q, written = %q", result, written)
	}
}

func TestEngine_StructDataUsesJSONTags(t *testing.T) {
	type field struct {
		Name string `json:"name"`
	}
	data := struct {
		Fields []field `json:"fields"`
	}{Fields: []field{{Name: "email"}, {Name: "phone"}}}

	result, err := newEngine(t).RenderTemplate("form.html", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != `<input name="email"><input name="phone">` {
		t.Fatalf("result = %q", result)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngine_RenderString(t *testing.T) {
	result, err := newEngine(t).Render("{{ a }}-{{ b }}", map[string]any{"a": 1, "b": "two"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "1-two" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngine_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without templates")
	}
}

func TestEngine_StructNumbersStayWhole(t *testing.T) {
	data := struct {
		Step  int     `json:"step"`
		Ratio float64 `json:"ratio"`
	}{Step: 3, Ratio: 0.5}

	result, err := newEngine(t).RenderString("{{ step }}/{{ ratio }}", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "3/0.500000" {
		t.Fatalf("result = %q", result)
	}
}

func TestEngine_HooksWrapRenderTemplate(t *testing.T) {
	engine, err := gotemplate.New(
		gotemplate.WithFS(templatesFS),
		gotemplate.WithHooks(
			gotemplatepkg.WithPreHooksChain(func(hook *gotemplatepkg.HookContext) error {
				if hook.TemplateName == "greeting" {
					hook.TemplateName = "hello"
				}
				return nil
			}),
			gotemplatepkg.WithPostHooksChain(func(hook *gotemplatepkg.HookContext) (string, error) {
				return strings.ToUpper(hook.Output), nil
			}),
		),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.RenderTemplate("greeting", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "HELLO ADA!" {
		t.Fatalf("result = %q", result)
	}

	inline, err := engine.RenderString("Hi {{ name }}", map[string]any{"name": "Ada"})
	if err != nil || inline != "Hi Ada" {
		t.Fatalf("inline = %q, %v", inline, err)
	}

	failing, err := gotemplate.New(
		gotemplate.WithFS(templatesFS),
		gotemplate.WithHooks(gotemplatepkg.WithPreHooksChain(func(*gotemplatepkg.HookContext) error {
			return fmt.Errorf("blocked")
		})),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := failing.RenderTemplate("hello", nil); err == nil || !strings.Contains(err.Error(), "pre hook") {
		t.Fatalf("expected pre hook error, got %v", err)
	}
}
