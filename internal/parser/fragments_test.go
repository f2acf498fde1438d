package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/dgallion1/guideparse/internal/sections"
)

func TestFragments_HeadingsAndParagraphs(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "guide",
		Children: []*doctree.DocNode{
			{Text: "Lead text.", Page: 1},
			{Title: "Recommendations", Page: 1, Text: "First para.\n\nSecond para.", Children: []*doctree.DocNode{
				{Title: "Adults", Page: 2, Text: "Adult dosing."},
			}},
		},
	}

	got := Fragments(tree)
	want := []doctree.Fragment{
		{Page: 1, Paragraph: 1, Text: "Lead text."},
		{Page: 1, Paragraph: 2, TitleHint: "Recommendations", Text: "Recommendations"},
		{Page: 1, Paragraph: 3, TitleHint: "Recommendations", Text: "First para."},
		{Page: 1, Paragraph: 4, TitleHint: "Recommendations", Text: "Second para."},
		{Page: 2, Paragraph: 1, TitleHint: "Adults", Text: "Adults"},
		{Page: 2, Paragraph: 2, TitleHint: "Adults", Text: "Adult dosing."},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFragments_NilTree(t *testing.T) {
	if got := Fragments(nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestFragments_MarkdownThroughReconstructor(t *testing.T) {
	input := `# Pain relief

Offer paracetamol to adults
with mild pain.

Review after two weeks.

## Table 1

| Drug | Dose |
| a | 1 |
`
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "pain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sections.Reconstruct(Fragments(tree))

	// Consecutive paragraphs on one page merge; headings close them.
	if len(got) != 4 {
		t.Fatalf("expected 4 sections, got %d: %+v", len(got), got)
	}
	if got[0].Kind != doctree.KindHeader || got[0].Content != "Pain relief" {
		t.Errorf("unexpected first section %+v", got[0])
	}
	wantBody := "Offer paracetamol to adults\nwith mild pain. Review after two weeks."
	if got[1].Content != wantBody || got[1].Fragments != 2 {
		t.Errorf("expected merged paragraph %q, got %+v", wantBody, got[1])
	}
	if got[2].Kind != doctree.KindHeader || got[2].Title != "Table 1" {
		t.Errorf("unexpected table header %+v", got[2])
	}
	if got[3].Title != "Table 1" || !strings.Contains(got[3].Content, "| a | 1 |") {
		t.Errorf("expected hinted table body under %q, got %+v", "Table 1", got[3])
	}
}
