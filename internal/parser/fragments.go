package parser

import (
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// Fragments flattens a DocTree into reconstructor input in document order.
// A titled node yields a header fragment; its text yields one fragment per
// blank-line separated paragraph, hinted with the nearest heading above it.
// Paragraph numbers restart at 1 whenever the page changes.
func Fragments(tree *doctree.DocTree) []doctree.Fragment {
	if tree == nil {
		return nil
	}
	f := &flattener{page: -1}
	for _, n := range tree.Children {
		f.visit(n, "")
	}
	return f.out
}

type flattener struct {
	out  []doctree.Fragment
	page int
	para int
}

func (f *flattener) emit(page int, hint, text string) {
	if page != f.page {
		f.page, f.para = page, 0
	}
	f.para++
	f.out = append(f.out, doctree.Fragment{
		Page:      page,
		Paragraph: f.para,
		TitleHint: hint,
		Text:      text,
	})
}

func (f *flattener) visit(n *doctree.DocNode, hint string) {
	if n.Title != "" {
		hint = n.Title
		f.emit(n.Page, hint, n.Title)
	}
	for _, para := range strings.Split(n.Text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			f.emit(n.Page, hint, para)
		}
	}
	for _, c := range n.Children {
		f.visit(c, hint)
	}
}
