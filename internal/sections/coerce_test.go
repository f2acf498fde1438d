package sections

import (
	"encoding/json"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
)

func TestPageNumber(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"3", 3},
		{"('3', '4')", 3},
		{"pp. 12-14", 12},
		{"no digits", 0},
		{"", 0},
		{7, 7},
		{float64(9), 9},
		{[]any{"5", "6"}, 5},
		{[]any{}, 0},
		{[]string{"8"}, 8},
		{true, 0},
	}
	for _, tt := range tests {
		if got := PageNumber(tt.in); got != tt.want {
			t.Errorf("PageNumber(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParagraphIndex(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"2", 2},
		{" 4 ", 4},
		{"3.0", 0},
		{"abc", 0},
		{"-1", 0},
		{float64(6), 6},
		{11, 11},
		{[]any{"1"}, 0},
	}
	for _, tt := range tests {
		if got := ParagraphIndex(tt.in); got != tt.want {
			t.Errorf("ParagraphIndex(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromRaw_JSON(t *testing.T) {
	input := `[
		{"pages": "('2', '3')", "para": "4", "section_title": "Scope", "text": "Covers adults."},
		{"pages": 5, "para": "x", "section_title": null, "text": "Orphan."},
		{"text": "Bare."}
	]`
	var raw []doctree.RawFragment
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := FromRaw(raw)
	want := []doctree.Fragment{
		{Page: 2, Paragraph: 4, TitleHint: "Scope", Text: "Covers adults."},
		{Page: 5, Paragraph: 0, Text: "Orphan."},
		{Page: 0, Paragraph: 0, Text: "Bare."},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
