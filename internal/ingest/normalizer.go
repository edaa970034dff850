// Package ingest provides text normalization, chunking, and document ingestion.
package ingest

import (
	"regexp"
	"strings"
)

// Extracted PDF prose is noisy: citation markers, stray page numbers, headers
// that survived extraction, and hard line wraps mid-sentence. The rules below
// run in a fixed order; the single-newline merge assumes earlier rules already
// removed stray short lines and collapsed blank-line runs.
var (
	reBracketCitation = regexp.MustCompile(`\[\d+(?:, *\d+)*\]`)
	reAuthorYear      = regexp.MustCompile(`\([A-Za-z\s]+, \d{4}\)`)
	reAuthorEtAl      = regexp.MustCompile(`\([A-Za-z\s]+ et al\., \d{4}\)`)
	reURL             = regexp.MustCompile(`(?i)https?://[\w./\-#?=;&%]+`)
	reDOI             = regexp.MustCompile(`(?i)doi:[\w./\-]+`)
	reNumberLine      = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$`)
	reHeadingLine     = regexp.MustCompile(`(?m)^[ \t]*\d+\.?[ \t]+[A-Za-z ]+$`)
	reSingleCharLine  = regexp.MustCompile(`(?m)^[ \t]*[a-zA-Z][ \t]*$`)
	reRuleRun         = regexp.MustCompile(`[-_]{3,}`)
	reBlankRun        = regexp.MustCompile(`\n{3,}`)
	reHyphenBreak     = regexp.MustCompile(`(\w+)-\n(\w+)`)
	reSpaceRun        = regexp.MustCompile(`[ \t]+`)
	reBlankLine       = regexp.MustCompile(`\n[ \t]*\n`)
)

// Normalize strips citation and layout noise from raw extracted text and
// re-flows line-wrapped prose into paragraphs. Pure and deterministic;
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	text := raw

	// Citation noise: [12], [3, 4, 5], (Smith, 1999), (Smith et al., 1999).
	text = reBracketCitation.ReplaceAllString(text, "")
	text = reAuthorYear.ReplaceAllString(text, "")
	text = reAuthorEtAl.ReplaceAllString(text, "")

	// Links and DOIs.
	text = reURL.ReplaceAllString(text, "")
	text = reDOI.ReplaceAllString(text, "")

	// Stray page numbers, leftover section headers, and one-letter line
	// fragments from broken extraction.
	text = reNumberLine.ReplaceAllString(text, "")
	text = reHeadingLine.ReplaceAllString(text, "")
	text = reSingleCharLine.ReplaceAllString(text, "")

	// Horizontal rules and excess blank lines.
	text = reRuleRun.ReplaceAllString(text, "")
	text = reBlankRun.ReplaceAllString(text, "\n\n")

	// Rejoin words hyphenated across a line break, then re-flow wrapped lines:
	// a lone newline becomes a space, a double newline stays a paragraph break.
	text = reHyphenBreak.ReplaceAllString(text, "${1}${2}")
	text = mergeSingleNewlines(text)

	// Whitespace canonical form.
	text = reSpaceRun.ReplaceAllString(text, " ")
	text = reBlankLine.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// mergeSingleNewlines replaces every newline not adjacent to another newline
// with a space. Go's regexp has no lookaround, so this is a manual scan;
// newline is ASCII, making a byte walk safe on UTF-8 input.
func mergeSingleNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			prevNL := i > 0 && s[i-1] == '\n'
			nextNL := i+1 < len(s) && s[i+1] == '\n'
			if !prevNL && !nextNL {
				out = append(out, ' ')
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}
