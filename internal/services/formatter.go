package services

import (
	"regexp"
	"strings"
)

// MaxCellLength is the formatter's cap. The destination sheet enforces a
// hard ~50,000-character per-cell ceiling; capping at 45,000 leaves headroom
// for the truncation marker.
const MaxCellLength = 45000

// TruncationMarker is appended whenever a summary exceeds MaxCellLength.
const TruncationMarker = "\n\n[Summary truncated due to length]"

var (
	blankLineRuns = regexp.MustCompile(`\n\s*\n`)
	horizontalWS  = regexp.MustCompile(`[ \t]+`)
	dashBullets   = regexp.MustCompile(`(?m)^\s*-\s*`)
)

// FormatForSheet converts a free-text summary into a cell-safe string:
// blank-line runs collapse to a single newline, horizontal whitespace runs
// collapse to a single space, leading-dash bullets become a bullet glyph,
// and the total length is capped. Empty input yields empty output.
func FormatForSheet(text string) string {
	if text == "" {
		return ""
	}

	text = blankLineRuns.ReplaceAllString(text, "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = dashBullets.ReplaceAllString(text, "• ")

	if runes := []rune(text); len(runes) > MaxCellLength {
		text = string(runes[:MaxCellLength]) + TruncationMarker
	}
	return strings.TrimSpace(text)
}
