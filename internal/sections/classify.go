package sections

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// Header fragments are short; anything this long is body text even when it
// repeats the section title.
const maxHeaderRunes = 200

var tablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\|\s*`),
	regexp.MustCompile(`\s+\|\s+`),
	regexp.MustCompile(`Table\s+\d+`),
	regexp.MustCompile(`(?m)^\s*\d+\s+\d+\s+\d+`),
	regexp.MustCompile(`(?m)^\s*[A-Z]\s+[A-Z]\s+[A-Z]`),
}

var figurePattern = regexp.MustCompile(`(?i)(Figure\s+\d+|Fig\.\s+\d+|\[Figure|\[Image|\[Graph|\[Chart)`)

var leadingDigit = regexp.MustCompile(`^\s*\d`)

// HasHint reports whether a title hint is present. The literal "None" is
// what upstream extractors emit for a missing title.
func HasHint(hint string) bool {
	return hint != "" && hint != "None"
}

// Classify tags a fragment as header, paragraph, table or figure.
// The text is expected to be trimmed already.
func Classify(f doctree.Fragment) doctree.Kind {
	if HasHint(f.TitleHint) {
		if utf8.RuneCountInString(f.Text) < maxHeaderRunes &&
			strings.Contains(strings.ToLower(f.TitleHint), strings.ToLower(f.Text)) {
			return doctree.KindHeader
		}
		return doctree.KindParagraph
	}
	if IsTable(f.Text) {
		return doctree.KindTable
	}
	if IsFigure(f.Text) {
		return doctree.KindFigure
	}
	return doctree.KindParagraph
}

// IsTable reports whether text looks like table content.
func IsTable(text string) bool {
	for _, re := range tablePatterns {
		if re.MatchString(text) {
			return true
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 2 {
		piped := 0
		for _, line := range lines {
			if strings.Contains(line, "|") {
				piped++
			}
		}
		if float64(piped) > float64(len(lines))*0.3 {
			return true
		}
	}
	return false
}

// IsFigure reports whether text looks like a figure or image caption.
func IsFigure(text string) bool {
	return figurePattern.MatchString(text)
}

// IsPurelyTabular reports whether more than 70% of the non-blank lines are
// pipe-delimited or start with a digit. Text with no non-blank lines counts
// as tabular.
func IsPurelyTabular(text string) bool {
	total, tabular := 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if strings.Contains(line, "|") || leadingDigit.MatchString(line) {
			tabular++
		}
	}
	if total == 0 {
		return true
	}
	return float64(tabular)/float64(total) > 0.7
}

// CleanTitle trims a title hint and collapses internal whitespace. Similar
// titles are never merged.
func CleanTitle(raw string) string {
	if !HasHint(raw) {
		return UnknownTitle
	}
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		return UnknownTitle
	}
	return title
}
