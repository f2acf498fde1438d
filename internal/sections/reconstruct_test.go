package sections

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
)

func para(page, idx int, text string) doctree.Fragment {
	return doctree.Fragment{Page: page, Paragraph: idx, Text: text}
}

func TestReconstruct_SamePageContinuation(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(3, 1, "Hello"),
		para(3, 2, "world."),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(got), got)
	}
	if got[0].Content != "Hello world." {
		t.Errorf("expected content %q, got %q", "Hello world.", got[0].Content)
	}
	if got[0].Kind != doctree.KindParagraph {
		t.Errorf("expected kind %q, got %q", doctree.KindParagraph, got[0].Kind)
	}
	if got[0].Fragments != 2 {
		t.Errorf("expected 2 merged fragments, got %d", got[0].Fragments)
	}
}

func TestReconstruct_CrossPageContinuation(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(3, 5, "A"),
		para(4, 1, "B"),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if got[0].Content != "A B" {
		t.Errorf("expected content %q, got %q", "A B", got[0].Content)
	}
	if got[0].Page != 3 {
		t.Errorf("expected page of first fragment (3), got %d", got[0].Page)
	}
}

func TestReconstruct_ContinuationChainsThroughLastFragment(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(1, 1, "one"),
		para(1, 2, "two"),
		para(1, 3, "three"),
		para(1, 5, "gap"),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(got), got)
	}
	if got[0].Content != "one two three" {
		t.Errorf("expected chained content, got %q", got[0].Content)
	}
	if got[1].Content != "gap" || got[1].Paragraph != 5 {
		t.Errorf("expected separate section for paragraph 5, got %+v", got[1])
	}
}

func TestReconstruct_CrossPageFalseMerge(t *testing.T) {
	// The first paragraph of a page always continues the last open paragraph,
	// even when the two are unrelated.
	got := Reconstruct([]doctree.Fragment{
		{Page: 2, Paragraph: 9, TitleHint: "Dosing", Text: "Give 5 mg twice daily."},
		{Page: 3, Paragraph: 1, TitleHint: "Monitoring", Text: "Check renal function weekly."},
	})
	if len(got) != 1 {
		t.Fatalf("expected heuristic to merge into 1 section, got %d", len(got))
	}
	if got[0].Title != "Dosing" {
		t.Errorf("expected title of first fragment, got %q", got[0].Title)
	}
}

func TestReconstruct_HeaderIsolation(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		{Page: 1, Paragraph: 1, TitleHint: "Introduction", Text: "Introduction"},
		{Page: 1, Paragraph: 2, TitleHint: "Introduction", Text: "This guideline covers perioperative care."},
		{Page: 1, Paragraph: 3, TitleHint: "Introduction", Text: "It applies to adults."},
	})
	if len(got) != 2 {
		t.Fatalf("expected header + paragraph, got %d: %+v", len(got), got)
	}
	if got[0].Kind != doctree.KindHeader || got[0].Title != "Introduction" || got[0].Content != "Introduction" {
		t.Errorf("unexpected header section: %+v", got[0])
	}
	want := "This guideline covers perioperative care. It applies to adults."
	if got[1].Content != want {
		t.Errorf("expected %q, got %q", want, got[1].Content)
	}
}

func TestReconstruct_HeaderClosesOpenParagraph(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(1, 1, "Before"),
		{Page: 1, Paragraph: 2, TitleHint: "Methods", Text: "Methods"},
		para(1, 3, "After"),
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(got), got)
	}
	kinds := []doctree.Kind{got[0].Kind, got[1].Kind, got[2].Kind}
	want := []doctree.Kind{doctree.KindParagraph, doctree.KindHeader, doctree.KindParagraph}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("expected kinds %v, got %v", want, kinds)
	}
}

func TestReconstruct_TableSuppression(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(1, 1, "| A | B |\n| 1 | 2 |\n| 3 | 4 |"),
	})
	if len(got) != 0 {
		t.Errorf("expected short table to be dropped, got %+v", got)
	}
}

func TestReconstruct_TableInclusion(t *testing.T) {
	text := "Table 2 summarises the recommended perioperative dosing schedule for adults."
	got := Reconstruct([]doctree.Fragment{para(4, 2, text)})
	if len(got) != 1 {
		t.Fatalf("expected substantial table to be kept, got %d", len(got))
	}
	if got[0].Kind != doctree.KindTable {
		t.Errorf("expected kind %q, got %q", doctree.KindTable, got[0].Kind)
	}
	if got[0].Title != UnknownTitle {
		t.Errorf("expected title %q, got %q", UnknownTitle, got[0].Title)
	}
}

func TestReconstruct_PurelyTabularDropped(t *testing.T) {
	text := "| Drug | Dose | Route |\n| Morphine | 5 mg | IV |\n| Fentanyl | 50 mcg | IV |"
	_, stats := ReconstructWithStats([]doctree.Fragment{para(1, 1, text)})
	if stats.Sections != 0 || stats.Noise != 1 {
		t.Errorf("expected 1 noise drop and no sections, got %+v", stats)
	}
}

func TestReconstruct_FigureHandling(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		para(1, 1, "Figure 1"),
		para(1, 2, "Figure 2 shows the care pathway from admission through to discharge."),
	})
	if len(got) != 1 {
		t.Fatalf("expected only the long figure caption, got %d: %+v", len(got), got)
	}
	if got[0].Kind != doctree.KindFigure {
		t.Errorf("expected kind %q, got %q", doctree.KindFigure, got[0].Kind)
	}
}

func TestReconstruct_Deduplication(t *testing.T) {
	prefix := strings.Repeat("x", 50)
	_, stats := ReconstructWithStats([]doctree.Fragment{
		para(2, 4, prefix+" first tail"),
		para(2, 4, prefix+" second tail"),
	})
	if stats.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate, got %d", stats.Duplicates)
	}

	got := Reconstruct([]doctree.Fragment{
		para(2, 4, prefix+" first tail"),
		para(2, 4, prefix+" second tail"),
	})
	if len(got) != 1 || !strings.HasSuffix(got[0].Content, "first tail") {
		t.Errorf("expected only the first fragment to survive, got %+v", got)
	}
}

func TestReconstruct_DedupCountsRunes(t *testing.T) {
	// 50 multi-byte runes shared, differing afterwards.
	prefix := strings.Repeat("é", 50)
	got := Reconstruct([]doctree.Fragment{
		para(1, 1, prefix+"a"),
		para(1, 1, prefix+"b"),
	})
	if len(got) != 1 || got[0].Fragments != 1 {
		t.Errorf("expected rune-based prefix to dedup, got %+v", got)
	}
}

func TestReconstruct_TitleDefault(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{para(1, 1, "Plain text without a hint.")})
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if got[0].Title != UnknownTitle {
		t.Errorf("expected %q, got %q", UnknownTitle, got[0].Title)
	}
}

func TestReconstruct_EmptyTextSkipped(t *testing.T) {
	got, stats := ReconstructWithStats([]doctree.Fragment{
		para(1, 1, "   "),
		para(1, 1, ""),
		para(1, 2, "Kept."),
	})
	if len(got) != 1 || got[0].Content != "Kept." {
		t.Fatalf("expected only non-empty fragment, got %+v", got)
	}
	if stats.Empty != 2 {
		t.Errorf("expected 2 empty fragments, got %d", stats.Empty)
	}
}

func TestReconstruct_EmptyInput(t *testing.T) {
	got, stats := ReconstructWithStats(nil)
	if len(got) != 0 {
		t.Errorf("expected no sections, got %d", len(got))
	}
	if stats != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestReconstruct_SortsByPageThenParagraph(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		{Page: 5, Paragraph: 1, TitleHint: "Late", Text: "Late"},
		{Page: 1, Paragraph: 3, TitleHint: "Early", Text: "Early"},
		{Page: 1, Paragraph: 1, TitleHint: "First", Text: "First"},
	})
	var titles []string
	for _, s := range got {
		titles = append(titles, s.Title)
	}
	want := []string{"First", "Early", "Late"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("expected order %v, got %v", want, titles)
	}
}

func TestReconstruct_StableForTies(t *testing.T) {
	got := Reconstruct([]doctree.Fragment{
		{Page: 1, Paragraph: 1, TitleHint: "Alpha", Text: "Alpha"},
		{Page: 1, Paragraph: 1, TitleHint: "Beta", Text: "Beta"},
	})
	if len(got) != 2 || got[0].Title != "Alpha" || got[1].Title != "Beta" {
		t.Errorf("expected input order kept for ties, got %+v", got)
	}
}

func TestReconstruct_Deterministic(t *testing.T) {
	input := []doctree.Fragment{
		para(2, 1, "second page"),
		{Page: 1, Paragraph: 1, TitleHint: "Scope", Text: "Scope"},
		para(1, 2, "body"),
		para(1, 3, "more body"),
		para(3, 7, "| a | b |"),
	}
	a, sa := ReconstructWithStats(input)
	b, sb := ReconstructWithStats(input)
	if !reflect.DeepEqual(a, b) || sa != sb {
		t.Errorf("expected identical output for identical input")
	}
}

func TestReconstruct_DoesNotMutateInput(t *testing.T) {
	input := []doctree.Fragment{
		para(2, 1, "  padded  "),
		para(1, 1, "first"),
	}
	orig := append([]doctree.Fragment(nil), input...)
	Reconstruct(input)
	if !reflect.DeepEqual(input, orig) {
		t.Errorf("input was modified: %+v", input)
	}
}

func TestReconstruct_StatsAccountForEveryFragment(t *testing.T) {
	input := []doctree.Fragment{
		para(1, 1, "a"),
		para(1, 2, "b"),
		para(1, 2, "b"),
		para(1, 4, "| 1 | 2 |"),
		para(1, 5, ""),
		{Page: 2, Paragraph: 3, TitleHint: "Summary", Text: "Summary"},
	}
	got, stats := ReconstructWithStats(input)
	if stats.Input != len(input) {
		t.Errorf("expected input=%d, got %d", len(input), stats.Input)
	}
	// Every fragment is empty, duplicate, noise, merged, or opens a section.
	accounted := stats.Empty + stats.Duplicates + stats.Noise + stats.Merged + stats.Sections
	if accounted != stats.Input {
		t.Errorf("expected all fragments accounted for, got %+v", stats)
	}
	if stats.Sections != len(got) {
		t.Errorf("expected sections=%d, got %d", len(got), stats.Sections)
	}
}
