package html

import (
	stdhtml "html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicyOnce sync.Once
	richPolicy     *bluemonday.Policy

	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// richText keeps inline emphasis and links from descriptions and stories.
func richText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(richSanitizer().Sanitize(trimmed))
}

// plainText strips every tag and returns unescaped text; the template engine
// escapes it on output.
func plainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(stdhtml.UnescapeString(strictSanitizer().Sanitize(trimmed)))
}

func richSanitizer() *bluemonday.Policy {
	richPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "br", "code", "small")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		richPolicy = policy
	})
	return richPolicy
}

func strictSanitizer() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// filterRichText is registered as the "richtext" template filter.
func filterRichText(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in == nil || in.IsNil() {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(richText(in.String())), nil
}
