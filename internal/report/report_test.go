package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
)

func TestWrite_GroupsConsecutiveTitles(t *testing.T) {
	secs := []doctree.Section{
		{Title: "Intro", Content: "Intro", Page: 1, Kind: doctree.KindHeader},
		{Title: "Intro", Content: "Delirium is common.", Page: 1},
		{Title: "Methods", Content: "We searched.", Page: 2},
		{Title: "Intro", Content: "Back again.", Page: 3},
	}

	var buf bytes.Buffer
	sum, err := Write(&buf, secs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := strings.Repeat("=", 80)
	want := "\n" + r + "\nSECTION 1: Intro\n" + r + "\nPage: 1\n" + r + "\n\n" +
		"Intro\n\n" +
		"Delirium is common.\n\n" +
		"\n" + r + "\nSECTION 2: Methods\n" + r + "\nPage: 2\n" + r + "\n\n" +
		"We searched.\n\n" +
		"\n" + r + "\nSECTION 3: Intro\n" + r + "\nPage: 3\n" + r + "\n\n" +
		"Back again.\n\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected report:\n got: %q\nwant: %q", got, want)
	}

	if sum.Blocks != 3 || sum.Sections != 4 {
		t.Errorf("expected 3 blocks and 4 sections, got %+v", sum)
	}
	if sum.Words != 8 {
		t.Errorf("expected 8 words, got %d", sum.Words)
	}
	if sum.Characters != len("Intro")+len("Delirium is common.")+len("We searched.")+len("Back again.") {
		t.Errorf("unexpected character count %d", sum.Characters)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	sum, err := Write(&buf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 || sum != (Summary{}) {
		t.Errorf("expected empty output, got %q %+v", buf.String(), sum)
	}
}

func TestWrite_FirstSectionWithEmptyTitleOpensBlock(t *testing.T) {
	got := String([]doctree.Section{{Title: "", Content: "x"}})
	if !strings.Contains(got, "SECTION 1: \n") {
		t.Errorf("expected a header block for the first section, got %q", got)
	}
}

func TestWrite_CountsRunes(t *testing.T) {
	sum, err := Write(&bytes.Buffer{}, []doctree.Section{{Title: "T", Content: "naïve café"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Characters != 10 {
		t.Errorf("expected 10 characters, got %d", sum.Characters)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterError(t *testing.T) {
	_, err := Write(failingWriter{}, []doctree.Section{{Title: "T", Content: "x"}})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestWriteRaw(t *testing.T) {
	var buf bytes.Buffer
	frags := []doctree.Fragment{{Page: 2, Paragraph: 1, TitleHint: "Scope", Text: "Adults only."}}
	if err := WriteRaw(&buf, frags); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FRAGMENT 1 of 1", "Adults only.", `"page": 2`, `"section_title": "Scope"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected raw report to contain %q, got %q", want, out)
		}
	}
}
