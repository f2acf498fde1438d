package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files with go-docx. When PandocFallback is set
// and go-docx cannot read the file, the document is converted to Markdown by
// pandoc and parsed with MarkdownParser.
type DOCXParser struct {
	PandocFallback bool
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	path, cleanup, err := spool(r, "guideparse-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	title := trimExt(filename, ".docx")
	tree, err := parseDOCXFile(path, title)
	if err == nil || !p.PandocFallback {
		return tree, err
	}

	md, perr := pandocMarkdown(path)
	if perr != nil {
		return nil, fmt.Errorf("%w (fallback: %w)", err, perr)
	}
	tree, err = (&MarkdownParser{}).Parse(bytes.NewReader(md), title+".md")
	if err != nil {
		return nil, fmt.Errorf("parse pandoc output: %w", err)
	}
	return tree, nil
}

func parseDOCXFile(path, title string) (*doctree.DocTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	doc, err := docx.Parse(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	o := newOutline()
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if level := docxHeadingLevel(it); level > 0 {
				o.heading(level, text)
			} else {
				o.text(text)
			}
		case *docx.Table:
			o.text(docxTableText(it))
		}
	}
	return o.tree(title), nil
}

func pandocMarkdown(path string) ([]byte, error) {
	out, err := exec.Command("pandoc", "-f", "docx", "-t", "markdown", "--wrap=none", path).Output()
	if err != nil {
		return nil, fmt.Errorf("pandoc: %w", err)
	}
	return out, nil
}

// docxHeadingLevel reads "Heading1".."Heading6" (or "heading 1") styles.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	rest, ok := strings.CutPrefix(style, "heading")
	if !ok {
		if style == "title" {
			return 1
		}
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxTableText renders a table as pipe-separated rows so the reconstructor
// can recognize it.
func docxTableText(tbl *docx.Table) string {
	var lines []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}
