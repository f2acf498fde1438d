package sections

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

var firstInt = regexp.MustCompile(`\d+`)

// PageNumber extracts a page number from whatever an extractor put in its
// "pages" field: "3", "('3', '4')", 3, [3, 4]. Anything unparseable is 0.
func PageNumber(v any) int {
	switch p := v.(type) {
	case nil:
		return 0
	case int:
		return max(p, 0)
	case float64:
		return wholeNumber(p)
	case string:
		m := firstInt.FindString(p)
		if m == "" {
			return 0
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0
		}
		return n
	case []any:
		if len(p) == 0 {
			return 0
		}
		return PageNumber(p[0])
	case []string:
		if len(p) == 0 {
			return 0
		}
		return PageNumber(p[0])
	default:
		return PageNumber(fmt.Sprint(p))
	}
}

// ParagraphIndex coerces a paragraph field to an integer, 0 when malformed.
// Unlike PageNumber it does not dig numbers out of surrounding text.
func ParagraphIndex(v any) int {
	switch p := v.(type) {
	case nil:
		return 0
	case int:
		return max(p, 0)
	case float64:
		return wholeNumber(p)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

func wholeNumber(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// FromRaw converts wire fragments into typed fragments.
func FromRaw(raw []doctree.RawFragment) []doctree.Fragment {
	out := make([]doctree.Fragment, 0, len(raw))
	for _, r := range raw {
		var hint string
		if r.SectionTitle != nil {
			hint = *r.SectionTitle
		}
		out = append(out, doctree.Fragment{
			Page:      PageNumber(r.Pages),
			Paragraph: ParagraphIndex(r.Para),
			TitleHint: hint,
			Text:      r.Text,
		})
	}
	return out
}

// ToRaw is the inverse of FromRaw: it renders fragments in the wire shape
// that DecodeRaw accepts. An absent title hint is omitted.
func ToRaw(frags []doctree.Fragment) []doctree.RawFragment {
	out := make([]doctree.RawFragment, 0, len(frags))
	for _, f := range frags {
		r := doctree.RawFragment{Pages: f.Page, Para: f.Paragraph, Text: f.Text}
		if HasHint(f.TitleHint) {
			hint := f.TitleHint
			r.SectionTitle = &hint
		}
		out = append(out, r)
	}
	return out
}
