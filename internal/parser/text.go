package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// TextParser handles plain text files. Form feeds mark page breaks, as in
// pdftotext output; without them every paragraph has page 0.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := string(b)
	paged := strings.Contains(content, "\f")

	tree := &doctree.DocTree{Title: trimExt(filename, ".txt")}
	for i, page := range strings.Split(content, "\f") {
		num := 0
		if paged {
			num = i + 1
		}
		paras, err := splitParagraphs(page)
		if err != nil {
			return nil, err
		}
		for _, para := range paras {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: para, Page: num})
		}
	}
	return tree, nil
}

// splitParagraphs breaks text on blank (or whitespace-only) lines, keeping
// the line breaks inside each paragraph.
func splitParagraphs(text string) ([]string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = current[:0]
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}
	return paragraphs, scanner.Err()
}
