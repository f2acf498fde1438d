package sections

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/guideparse/internal/doctree"
)

func TestDecodeRaw_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []doctree.Fragment
	}{
		{
			name:  "bare array",
			input: `[{"pages": "3", "para": "1", "section_title": "Scope", "text": "Adults."}]`,
			want:  []doctree.Fragment{{Page: 3, Paragraph: 1, TitleHint: "Scope", Text: "Adults."}},
		},
		{
			name:  "envelope",
			input: `{"fragments": [{"text": "Bare."}, {"pages": [4, 5], "para": 2, "text": "Numbers."}]}`,
			want: []doctree.Fragment{
				{Text: "Bare."},
				{Page: 4, Paragraph: 2, Text: "Numbers."},
			},
		},
		{
			name: "langchain dump",
			input: `[{"page_content": "Delirium is common.",
				"metadata": {"text": "ignored", "para": "0", "pages": ["2", "2"], "section_title": "Intro", "bboxes": []}}]`,
			want: []doctree.Fragment{{Page: 2, Paragraph: 0, TitleHint: "Intro", Text: "Delirium is common."}},
		},
		{
			name:  "empty list",
			input: `[]`,
			want:  []doctree.Fragment{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRaw(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d fragments, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("fragment %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecodeRaw_Invalid(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"items": []}`,
		`[{"pages": 1}]`,
		`[{"text": 42}]`,
		`[{"text": "ok", "section_title": 7}]`,
		`"just a string"`,
	}
	for _, in := range inputs {
		_, err := DecodeRaw(strings.NewReader(in))
		if !errors.Is(err, ErrInvalidFragments) {
			t.Errorf("DecodeRaw(%s): expected ErrInvalidFragments, got %v", in, err)
		}
	}
}

func TestToRaw_AcceptedByDecodeRaw(t *testing.T) {
	frags := []doctree.Fragment{
		{Page: 2, Paragraph: 1, TitleHint: "Dosing", Text: "Dosing"},
		{Page: 2, Paragraph: 2, TitleHint: "None", Text: "Once daily."},
		{Text: "Unpaged."},
	}
	b, err := json.Marshal(ToRaw(frags))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DecodeRaw(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	want := []doctree.Fragment{
		{Page: 2, Paragraph: 1, TitleHint: "Dosing", Text: "Dosing"},
		{Page: 2, Paragraph: 2, Text: "Once daily."},
		{Text: "Unpaged."},
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
