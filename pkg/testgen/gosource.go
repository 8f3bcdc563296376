package testgen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/goliatone/go-journey360/pkg/schema"
)

// BaseURLEnv names the environment variable generated tests read the target
// server from.
const BaseURLEnv = "JOURNEY360_BASE_URL"

// SourceOption customises GoSource output.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	previewPath string
}

// WithPreviewPath sets the server path that serves the rendered form. Render
// cases are emitted as skipped tests when it is empty.
func WithPreviewPath(path string) SourceOption {
	return func(cfg *sourceConfig) {
		cfg.previewPath = path
	}
}

// GoSource renders cases as a Go test file that replays the battery over HTTP
// against the server named by JOURNEY360_BASE_URL.
func GoSource(pkgName string, form schema.FormSchema, cases []TestCase, options ...SourceOption) ([]byte, error) {
	cfg := sourceConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if strings.TrimSpace(pkgName) == "" {
		pkgName = "journey_test"
	}

	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by journey360. DO NOT EDIT.")
	f.Comment(fmt.Sprintf("Battery for %q (%s).", form.Title, form.ID))

	target := submitRequestPath(form)
	f.Const().Id("submitPath").Op("=").Lit(target)
	f.Line()

	emitHelpers(f)
	emitPayload(f, form)

	for i, tc := range cases {
		body := caseBody(tc, cfg)
		f.Commentf("%s: %s", tc.ID, tc.Name)
		f.Func().Id(testFuncName(i, tc)).Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(body...)
		f.Line()
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("testgen: render go source: %w", err)
	}
	return buf.Bytes(), nil
}

func emitHelpers(f *jen.File) {
	t := jen.Id("t").Op("*").Qual("testing", "T")

	f.Func().Id("baseURL").Params(t.Clone()).String().Block(
		jen.Id("t").Dot("Helper").Call(),
		jen.Id("base").Op(":=").Qual("os", "Getenv").Call(jen.Lit(BaseURLEnv)),
		jen.If(jen.Id("base").Op("==").Lit("")).Block(
			jen.Id("t").Dot("Skip").Call(jen.Lit(BaseURLEnv+" is not set")),
		),
		jen.Return(jen.Qual("strings", "TrimRight").Call(jen.Id("base"), jen.Lit("/"))),
	)
	f.Line()

	f.Func().Id("post").Params(
		t.Clone(),
		jen.Id("payload").Map(jen.String()).Interface(),
	).Int().Block(
		jen.Id("t").Dot("Helper").Call(),
		jen.List(jen.Id("body"), jen.Err()).Op(":=").Qual("encoding/json", "Marshal").Call(jen.Id("payload")),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatalf").Call(jen.Lit("marshal payload: %v"), jen.Err()),
		),
		jen.List(jen.Id("resp"), jen.Err()).Op(":=").Qual("net/http", "Post").Call(
			jen.Id("baseURL").Call(jen.Id("t")).Op("+").Id("submitPath"),
			jen.Lit("application/json"),
			jen.Qual("bytes", "NewReader").Call(jen.Id("body")),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatalf").Call(jen.Lit("post: %v"), jen.Err()),
		),
		jen.Defer().Id("resp").Dot("Body").Dot("Close").Call(),
		jen.Return(jen.Id("resp").Dot("StatusCode")),
	)
	f.Line()

	f.Func().Id("fetch").Params(t.Clone(), jen.Id("path").String()).String().Block(
		jen.Id("t").Dot("Helper").Call(),
		jen.List(jen.Id("resp"), jen.Err()).Op(":=").Qual("net/http", "Get").Call(
			jen.Id("baseURL").Call(jen.Id("t")).Op("+").Id("path"),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatalf").Call(jen.Lit("get: %v"), jen.Err()),
		),
		jen.Defer().Id("resp").Dot("Body").Dot("Close").Call(),
		jen.List(jen.Id("body"), jen.Err()).Op(":=").Qual("io", "ReadAll").Call(jen.Id("resp").Dot("Body")),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatalf").Call(jen.Lit("read body: %v"), jen.Err()),
		),
		jen.Return(jen.String().Call(jen.Id("body"))),
	)
	f.Line()
}

func emitPayload(f *jen.File, form schema.FormSchema) {
	payload := ValidPayload(form)
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	f.Func().Id("validPayload").Params().Map(jen.String()).Interface().Block(
		jen.Return(jen.Map(jen.String()).Interface().Values(jen.DictFunc(func(d jen.Dict) {
			for _, key := range keys {
				d[jen.Lit(key)] = jen.Lit(payload[key])
			}
		}))),
	)
	f.Line()
}

func caseBody(tc TestCase, cfg sourceConfig) []jen.Code {
	switch tc.Category {
	case CategoryRender:
		if cfg.previewPath == "" {
			return []jen.Code{jen.Id("t").Dot("Skip").Call(jen.Lit("no preview path configured"))}
		}
		needle := fmt.Sprintf(`name="%s"`, tc.Field)
		return []jen.Code{
			jen.If(jen.Op("!").Qual("strings", "Contains").Call(
				jen.Id("fetch").Call(jen.Id("t"), jen.Lit(cfg.previewPath)),
				jen.Lit(needle),
			)).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit("form markup is missing "+needle)),
			),
		}
	case CategoryRequired:
		return []jen.Code{
			jen.Id("payload").Op(":=").Id("validPayload").Call(),
			jen.Delete(jen.Id("payload"), jen.Lit(tc.Field)),
			expectStatus(false),
		}
	case CategoryFormat:
		var body []jen.Code
		for _, probe := range tc.Inputs {
			block := []jen.Code{jen.Id("payload").Op(":=").Id("validPayload").Call()}
			if probe.Value == nil {
				block = append(block, jen.Delete(jen.Id("payload"), jen.Lit(tc.Field)))
			} else {
				block = append(block, jen.Id("payload").Index(jen.Lit(tc.Field)).Op("=").Lit(probe.Value))
			}
			block = append(block, expectStatus(probe.Valid))
			body = append(body, jen.Block(block...))
		}
		return body
	default:
		return []jen.Code{
			jen.Id("payload").Op(":=").Id("validPayload").Call(),
			expectStatus(true),
		}
	}
}

func expectStatus(valid bool) jen.Code {
	if valid {
		return jen.If(
			jen.Id("code").Op(":=").Id("post").Call(jen.Id("t"), jen.Id("payload")),
			jen.Id("code").Op("<").Lit(200).Op("||").Id("code").Op(">").Lit(299),
		).Block(
			jen.Id("t").Dot("Fatalf").Call(jen.Lit("expected 2xx, got %d"), jen.Id("code")),
		)
	}
	return jen.If(
		jen.Id("code").Op(":=").Id("post").Call(jen.Id("t"), jen.Id("payload")),
		jen.Id("code").Op("!=").Qual("net/http", "StatusBadRequest"),
	).Block(
		jen.Id("t").Dot("Fatalf").Call(jen.Lit("expected 400, got %d"), jen.Id("code")),
	)
}

func testFuncName(index int, tc TestCase) string {
	name := "Test" + exportName(string(tc.Category))
	if tc.Field != "" {
		name += exportName(tc.Field)
	}
	if tc.Rule != "" && tc.Rule != schema.ValidationRequired {
		name += exportName(string(tc.Rule))
	}
	return fmt.Sprintf("%s_%03d", name, index+1)
}

func exportName(value string) string {
	key := schema.MachineName(value)
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
