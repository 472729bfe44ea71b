package services

import (
	"regexp"
	"strings"
)

var (
	reTOC          = regexp.MustCompile(`(?im)^.*table of contents.*$`)
	rePageNumber   = regexp.MustCompile(`(?im)^[ \t]*(page[ \t]*)?\d+([ \t]*(of|/)[ \t]*\d+)?[ \t]*$`)
	reSpecialLines = regexp.MustCompile(`(?m)^[^\p{L}\n]*$`)
	reMultiNewLine = regexp.MustCompile(`\n{2,}`)
)

// PreCleanText drops boilerplate lines from extracted document text. A line
// with no letters at all counts as boilerplate.
func PreCleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = reTOC.ReplaceAllString(cleaned, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = reSpecialLines.ReplaceAllString(cleaned, "")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}
