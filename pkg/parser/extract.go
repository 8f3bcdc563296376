package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-journey360/pkg/schema"
)

var (
	titlePattern = regexp.MustCompile(`(?i)\b(?:create|build|design|make|generate|need|want)\s+(?:an?\s+|the\s+)?([a-z0-9][a-z0-9 '&/-]{0,60}?)\s+(form|journey|page|flow|wizard|application|survey|questionnaire)\b`)
	enumPattern  = regexp.MustCompile(`([A-Za-z][A-Za-z0-9' ]{0,60}?)\s*\(([^()\n]*/[^()\n]*)\)`)
	stepsPattern = regexp.MustCompile(`(?i)\bsteps?\s*(?:are|:|-)\s*([^.\n]+)`)
	stepSplit    = regexp.MustCompile(`(?i)\s*(?:,|;|->|>|\band\b|\bthen\b)\s*`)

	wizardPattern    = regexp.MustCompile(`\b(multi[- ]?step|steps?|wizard|journey|stages?)\b`)
	explicitWizard   = regexp.MustCompile(`\bwizard\b|\bmulti[- ]?step\b`)
	explicitTwoCol   = regexp.MustCompile(`\b(two|2)[- ]columns?\b|\bside[- ]by[- ]side\b`)
	explicitCarded   = regexp.MustCompile(`\bcarded\b|\bcards?\b`)
	sentenceBoundary = regexp.MustCompile(`[.!?\n]`)
)

const (
	fieldsPerStep     = 4
	maxDescriptionLen = 160
	genericTitle      = "Generated Form"
)

var (
	labelConnectors = map[string]struct{}{"of": {}, "to": {}, "for": {}, "and": {}, "per": {}, "the": {}}
	labelVerbs      = map[string]struct{}{
		"select": {}, "choose": {}, "enter": {}, "provide": {}, "pick": {},
		"include": {}, "add": {}, "capture": {}, "with": {}, "ask": {},
	}
	titleStopwords = map[string]struct{}{"a": {}, "an": {}, "the": {}, "new": {}, "simple": {}}
)

type occurrence struct {
	term  int
	start int
	end   int
}

type span struct {
	start int
	end   int
}

// scanVocabulary returns the vocabulary fields mentioned in the text ordered
// by first mention. Longer phrases claim their span first so "email address"
// never also yields an address field. Reserved phrases are claimed up front.
func (p *Parser) scanVocabulary(lower string, reserved ...string) []schema.Field {
	var claimed []span
	for _, phrase := range reserved {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		for offset := 0; ; {
			idx := strings.Index(lower[offset:], phrase)
			if idx < 0 {
				break
			}
			start := offset + idx
			claimed = append(claimed, span{start: start, end: start + len(phrase)})
			offset = start + len(phrase)
		}
	}

	var found []occurrence
	for ti, term := range p.terms {
		for _, syn := range term.synonyms {
			for _, loc := range syn.re.FindAllStringIndex(lower, -1) {
				found = append(found, occurrence{term: ti, start: loc[0], end: loc[1]})
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		li, lj := found[i].end-found[i].start, found[j].end-found[j].start
		if li != lj {
			return li > lj
		}
		return found[i].start < found[j].start
	})

	first := make(map[int]int)
	for _, occ := range found {
		if overlapsAny(claimed, occ.start, occ.end) {
			continue
		}
		claimed = append(claimed, span{start: occ.start, end: occ.end})
		if current, ok := first[occ.term]; !ok || occ.start < current {
			first[occ.term] = occ.start
		}
	}

	order := make([]int, 0, len(first))
	for term := range first {
		order = append(order, term)
	}
	sort.Slice(order, func(i, j int) bool {
		if first[order[i]] != first[order[j]] {
			return first[order[i]] < first[order[j]]
		}
		return order[i] < order[j]
	})

	out := make([]schema.Field, 0, len(order))
	for _, term := range order {
		out = append(out, p.terms[term].field.Clone())
	}
	return out
}

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// maskEnumerations blanks the option lists of "Label (A / B)" mentions so the
// options themselves are not read as vocabulary. Offsets are preserved.
func maskEnumerations(lower string) string {
	matches := enumPattern.FindAllStringSubmatchIndex(lower, -1)
	if len(matches) == 0 {
		return lower
	}
	masked := []byte(lower)
	for _, loc := range matches {
		for i := loc[4]; i < loc[5]; i++ {
			masked[i] = ' '
		}
	}
	return string(masked)
}

// applyEnumerations turns "Label (A / B / C)" mentions into choice options.
// Existing fields matched by name or label receive the options; unknown
// labels become new choice fields on the given step.
func applyEnumerations(story string, fields *fieldSet, step int) {
	for _, match := range enumPattern.FindAllStringSubmatch(story, -1) {
		label := enumLabel(match[1])
		if label == "" {
			continue
		}
		opts := splitOptions(match[2])
		if len(opts) < 2 {
			continue
		}
		name := schema.MachineName(label)
		if name == "" {
			continue
		}

		if target := findField(fields, name); target != nil {
			target.Options = opts
			if !target.Type.HasOptions() {
				target.Type = choiceType(len(opts))
				target.Validations = presenceRules(target.Validations)
				target.Placeholder = ""
			}
			continue
		}

		if label == name {
			label = schema.DefaultLabeler(name)
		}
		fields.add(schema.Field{
			ID:      name,
			Name:    name,
			Label:   label,
			Type:    choiceType(len(opts)),
			Step:    step,
			Options: opts,
		})
	}
}

func findField(fields *fieldSet, name string) *schema.Field {
	if field, ok := fields.get(name); ok {
		return field
	}
	var found *schema.Field
	fields.each(func(field *schema.Field) bool {
		if schema.MachineName(field.Label) == name {
			found = field
			return true
		}
		return false
	})
	return found
}

// enumLabel keeps the trailing capitalised run of words ("Number of
// Travellers") and strips leading instruction verbs.
func enumLabel(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}

	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		word := words[i]
		if isCapitalised(word) {
			start = i
			continue
		}
		_, connector := labelConnectors[strings.ToLower(word)]
		if connector && start < len(words) && i > 0 && isCapitalised(words[i-1]) {
			continue
		}
		break
	}
	if start == len(words) {
		start = len(words) - 1
	}

	run := words[start:]
	for len(run) > 1 {
		lower := strings.ToLower(run[0])
		_, verb := labelVerbs[lower]
		_, connector := labelConnectors[lower]
		if !verb && !connector {
			break
		}
		run = run[1:]
	}
	return strings.Join(run, " ")
}

func isCapitalised(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}

func splitOptions(raw string) []schema.FieldOption {
	parts := strings.Split(raw, "/")
	out := make([]schema.FieldOption, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		label := strings.TrimRight(strings.TrimSpace(part), ".,;:")
		if label == "" {
			continue
		}
		value := optionValue(label)
		if value == "" {
			value = fmt.Sprintf("option_%d", len(out)+1)
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, schema.FieldOption{Label: label, Value: value})
	}
	return out
}

func optionValue(label string) string {
	return strings.ReplaceAll(schema.Slug(label), "-", "_")
}

func choiceType(options int) schema.FieldType {
	if options <= 3 {
		return schema.FieldTypeRadio
	}
	return schema.FieldTypeSelect
}

func presenceRules(rules []schema.Validation) []schema.Validation {
	var out []schema.Validation
	for _, rule := range rules {
		if rule.Type == schema.ValidationRequired {
			out = append(out, rule)
		}
	}
	return out
}

// inferTitle looks for "create a <thing> form" style phrasing.
func inferTitle(story string) string {
	match := titlePattern.FindStringSubmatch(story)
	if match == nil {
		return genericTitle
	}
	subject := strings.TrimSpace(match[1])
	if _, stop := titleStopwords[strings.ToLower(subject)]; stop || subject == "" {
		return genericTitle
	}
	return capitalizeWords(subject + " " + match[2])
}

func capitalizeWords(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

func firstSentence(story string) string {
	sentence := story
	if loc := sentenceBoundary.FindStringIndex(story); loc != nil {
		sentence = story[:loc[0]]
	}
	sentence = strings.TrimSpace(sentence)
	if utf8.RuneCountInString(sentence) > maxDescriptionLen {
		runes := []rune(sentence)
		sentence = strings.TrimSpace(string(runes[:maxDescriptionLen-3])) + "..."
	}
	return sentence
}

func explicitLayout(lower string) (schema.Layout, bool) {
	switch {
	case explicitTwoCol.MatchString(lower):
		return schema.LayoutTwoColumn, true
	case explicitCarded.MatchString(lower):
		return schema.LayoutCarded, true
	case explicitWizard.MatchString(lower):
		return schema.LayoutWizard, true
	default:
		return "", false
	}
}

func inferLayout(lower string, fallback schema.Layout) schema.Layout {
	if layout, ok := explicitLayout(lower); ok {
		return layout
	}
	if wizardPattern.MatchString(lower) {
		return schema.LayoutWizard
	}
	if fallback == "" {
		return schema.LayoutSimple
	}
	return fallback
}

// planSteps derives wizard steps for generic forms. A "steps: a, b, c" list in
// the text names the steps; otherwise fields are chunked in fours. Fields are
// assigned to steps in order.
func planSteps(story string, fields []schema.Field) []schema.Step {
	var titles []string
	if match := stepsPattern.FindStringSubmatch(story); match != nil {
		for _, part := range stepSplit.Split(match[1], -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				titles = append(titles, capitalizeWords(part))
			}
		}
	}
	if len(titles) < 2 {
		titles = nil
		for i := 0; i*fieldsPerStep < len(fields); i++ {
			titles = append(titles, fmt.Sprintf("Step %d", i+1))
		}
	}
	if len(titles) > len(fields) {
		titles = titles[:len(fields)]
	}

	perStep := (len(fields) + len(titles) - 1) / len(titles)
	for i := range fields {
		fields[i].Step = min(i/perStep, len(titles)-1)
	}

	steps := make([]schema.Step, len(titles))
	for i, title := range titles {
		steps[i] = schema.Step{Title: title}
	}
	return steps
}
