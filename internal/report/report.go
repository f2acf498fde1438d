// Package report renders reconstructed sections as the plain-text section
// report consumed by downstream comparison tooling.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guideparse/internal/chunker"
	"github.com/dgallion1/guideparse/internal/doctree"
)

var rule = strings.Repeat("=", 80)

// Summary describes a written report.
type Summary struct {
	Blocks     int `json:"blocks"`     // Header blocks written
	Sections   int `json:"sections"`   // Sections written
	Characters int `json:"characters"` // Content characters, in runes
	Words      int `json:"words"`
	Tokens     int `json:"tokens"` // Estimated tokens
}

// Write emits one header block for each run of consecutive sections that
// share a title, followed by the content of every section in the run.
func Write(w io.Writer, secs []doctree.Section) (Summary, error) {
	bw := bufio.NewWriter(w)
	var sum Summary
	prev := ""
	for i, s := range secs {
		if i == 0 || s.Title != prev {
			sum.Blocks++
			fmt.Fprintf(bw, "\n%s\nSECTION %d: %s\n%s\nPage: %d\n%s\n\n",
				rule, sum.Blocks, s.Title, rule, s.Page, rule)
			prev = s.Title
		}
		bw.WriteString(s.Content)
		bw.WriteString("\n\n")

		sum.Sections++
		sum.Characters += utf8.RuneCountInString(s.Content)
		sum.Words += len(strings.Fields(s.Content))
		sum.Tokens += chunker.EstimateTokens(s.Content)
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("write report: %w", err)
	}
	return sum, nil
}

// String renders the report into memory.
func String(secs []doctree.Section) string {
	var sb strings.Builder
	Write(&sb, secs)
	return sb.String()
}

// WriteRaw dumps fragments as extracted, before reconstruction: one block
// per fragment with its text and its metadata as indented JSON.
func WriteRaw(w io.Writer, frags []doctree.Fragment) error {
	bw := bufio.NewWriter(w)
	thin := strings.Repeat("-", 80)
	fmt.Fprintf(bw, "%s\nRAW FRAGMENTS (no reconstruction)\n%s\n\n", rule, rule)
	for i, f := range frags {
		meta, err := json.MarshalIndent(struct {
			Page      int    `json:"page"`
			Paragraph int    `json:"paragraph_index"`
			Title     string `json:"section_title"`
		}{f.Page, f.Paragraph, f.TitleHint}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode fragment %d: %w", i+1, err)
		}
		fmt.Fprintf(bw, "\n%s\nFRAGMENT %d of %d\n%s\n\n", rule, i+1, len(frags), rule)
		fmt.Fprintf(bw, "CONTENT:\n%s\n%s\n\n", thin, f.Text)
		fmt.Fprintf(bw, "METADATA:\n%s\n%s\n\n", thin, meta)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write raw report: %w", err)
	}
	return nil
}
