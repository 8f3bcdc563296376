package schema

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)
	nonAlnumPattern   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// DefaultLabeler converts a field name into a human-friendly label. It splits
// on underscores/dashes and camelCase boundaries.
func DefaultLabeler(name string) string {
	if name == "" {
		return ""
	}

	words := splitWordsPattern.Split(name, -1)
	var segments []string
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, titleCase(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

// MachineName converts a label into a camelCase key: "Date of Birth" becomes
// "dateOfBirth". Leading digits are prefixed so the key starts with a letter.
func MachineName(label string) string {
	words := strings.Fields(nonAlnumPattern.ReplaceAllString(label, " "))
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	for i, word := range words {
		lower := strings.ToLower(word)
		if i == 0 {
			b.WriteString(lower)
			continue
		}
		b.WriteString(strings.ToUpper(lower[:1]))
		b.WriteString(lower[1:])
	}
	key := b.String()
	if r := rune(key[0]); unicode.IsDigit(r) {
		key = "field" + strings.ToUpper(key[:1]) + key[1:]
	}
	return key
}

// Slug kebab-cases a title: whitespace runs become single dashes and the
// result is lowercased. Other punctuation is dropped.
func Slug(title string) string {
	words := strings.Fields(nonAlnumPattern.ReplaceAllString(strings.ToLower(title), " "))
	return strings.Join(words, "-")
}

func splitCamel(input string) string {
	var out strings.Builder
	for i, r := range input {
		if i > 0 && isBoundary(input, i, r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(input string, index int, r rune) bool {
	prev := rune(input[index-1])
	return (isLower(prev) && isUpper(r)) || (isLetter(prev) && isDigit(r)) || (isDigit(prev) && isLetter(r))
}

func isUpper(r rune) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return isUpper(r) || isLower(r) }

func titleCase(segment string) string {
	parts := strings.Fields(segment)
	for i, word := range parts {
		lower := strings.ToLower(word)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
