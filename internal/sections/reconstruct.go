// Package sections rebuilds logical document sections from the flat,
// fragmented output of a document extractor such as GROBID.
package sections

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// UnknownTitle is used for sections whose fragments carry no title hint.
const UnknownTitle = "Unknown Section"

const (
	dedupPrefixRunes = 50
	minNoiseRunes    = 50
)

// Stats counts what happened to the input fragments in one pass.
type Stats struct {
	Input      int `json:"input"`
	Empty      int `json:"empty"`
	Duplicates int `json:"duplicates"`
	Noise      int `json:"noise"`  // tables and figures dropped as low-content
	Merged     int `json:"merged"` // fragments appended to an open paragraph
	Sections   int `json:"sections"`
}

// Reconstruct orders, deduplicates and merges fragments into sections.
// The input slice is not modified.
func Reconstruct(fragments []doctree.Fragment) []doctree.Section {
	out, _ := ReconstructWithStats(fragments)
	return out
}

// ReconstructWithStats is Reconstruct plus per-pass counters.
func ReconstructWithStats(fragments []doctree.Fragment) ([]doctree.Section, Stats) {
	stats := Stats{Input: len(fragments)}

	sorted := slices.Clone(fragments)
	slices.SortStableFunc(sorted, func(a, b doctree.Fragment) int {
		if a.Page != b.Page {
			return a.Page - b.Page
		}
		return a.Paragraph - b.Paragraph
	})

	var (
		out  []doctree.Section
		open *paragraph
		seen = make(map[fragmentKey]struct{})
	)

	flush := func() {
		if open == nil {
			return
		}
		out = append(out, open.section())
		open = nil
	}

	for _, f := range sorted {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			stats.Empty++
			continue
		}

		key := dedupKey(f)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		kind := Classify(f)
		if kind == doctree.KindParagraph {
			if Continues(f, open.last()) {
				open.add(f)
				stats.Merged++
				continue
			}
			flush()
			open = newParagraph(f)
			continue
		}

		flush()
		if !include(kind, f.Text) {
			stats.Noise++
			continue
		}
		out = append(out, doctree.Section{
			Title:     CleanTitle(f.TitleHint),
			Content:   f.Text,
			Page:      f.Page,
			Paragraph: f.Paragraph,
			Kind:      kind,
			Fragments: 1,
		})
	}
	flush()

	stats.Sections = len(out)
	return out, stats
}

// Continues reports whether f carries on the paragraph that ended with prev:
// the next paragraph on the same page, or the first paragraph of the next
// page. A nil prev means no paragraph is open.
func Continues(f doctree.Fragment, prev *doctree.Fragment) bool {
	if prev == nil {
		return false
	}
	if f.Page == prev.Page && f.Paragraph == prev.Paragraph+1 {
		return true
	}
	// Known false-merge source: an unrelated paragraph that opens a page is
	// glued onto whatever paragraph closed the previous one.
	return f.Page == prev.Page+1 && f.Paragraph == 1
}

func include(kind doctree.Kind, text string) bool {
	switch kind {
	case doctree.KindHeader, doctree.KindParagraph:
		return true
	case doctree.KindTable, doctree.KindFigure:
		return utf8.RuneCountInString(strings.TrimSpace(text)) > minNoiseRunes && !IsPurelyTabular(text)
	}
	return false
}

// fragmentKey identifies a re-extraction of the same location and content.
// Distinct fragments sharing a 50-rune prefix at one position collide.
type fragmentKey struct {
	page, paragraph int
	prefix          string
}

func dedupKey(f doctree.Fragment) fragmentKey {
	prefix := f.Text
	if utf8.RuneCountInString(prefix) > dedupPrefixRunes {
		prefix = string([]rune(prefix)[:dedupPrefixRunes])
	}
	return fragmentKey{page: f.Page, paragraph: f.Paragraph, prefix: prefix}
}

// paragraph is the open accumulation buffer.
type paragraph struct {
	first doctree.Fragment
	tail  doctree.Fragment
	parts []string
}

func newParagraph(f doctree.Fragment) *paragraph {
	return &paragraph{first: f, tail: f, parts: []string{f.Text}}
}

func (p *paragraph) last() *doctree.Fragment {
	if p == nil {
		return nil
	}
	return &p.tail
}

func (p *paragraph) add(f doctree.Fragment) {
	p.parts = append(p.parts, f.Text)
	p.tail = f
}

func (p *paragraph) section() doctree.Section {
	return doctree.Section{
		Title:     CleanTitle(p.first.TitleHint),
		Content:   strings.Join(p.parts, " "),
		Page:      p.first.Page,
		Paragraph: p.first.Paragraph,
		Kind:      doctree.KindParagraph,
		Fragments: len(p.parts),
	}
}
