package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeLabel folds a column label into a comparison key:
// lowercased, trimmed, inner whitespace removed.
func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.Trim(label, " \n\t")
	label = whitespaceRegex.ReplaceAllString(label, "")
	return label
}

// CleanCell strips non-breaking spaces and collapses whitespace in
// raw cell text.
func CleanCell(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var numericRegex = regexp.MustCompile(`[\d,\.]+`)

// ExtractNumber pulls the first numeric substring out of decorated
// cell text ("1,234.5 mg" -> 1234.5). Thousands separators are
// stripped before parsing. The second return is false when the text
// carries no parseable number at all.
func ExtractNumber(text string) (float64, bool) {
	match := numericRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	match = strings.ReplaceAll(match, ",", "")
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
