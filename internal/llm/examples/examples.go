// Package examples holds the few-shot example bank used to steer the
// summary output format.
package examples

import (
	"regexp"
	"strings"
)

// DefaultCategory is used when only output formatting matters.
const DefaultCategory = "java"

// checkOrder is a fixed-priority tie-break: a label naming several
// languages resolves to whichever appears first here.
var checkOrder = []string{"python", "java", "c", "other"}

var edgeNonWord = regexp.MustCompile(`^[^\p{L}\p{N}_]+|[^\p{L}\p{N}_]+$`)

// Clean strips leading and trailing non-word characters.
func Clean(s string) string {
	return edgeNonWord.ReplaceAllString(s, "")
}

// Normalize maps a free-form language label onto a bank category.
func Normalize(label string) string {
	cleaned := strings.ToLower(Clean(label))
	for _, lang := range checkOrder {
		if strings.Contains(cleaned, lang) {
			return lang
		}
	}
	return "other"
}

// For returns the examples for a raw language label. The slice is a copy.
func For(label string) []string {
	return append([]string(nil), bank[Normalize(label)]...)
}

// Primary returns the first example for a label.
func Primary(label string) string {
	list := bank[Normalize(label)]
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
