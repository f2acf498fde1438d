package parser

import (
	"strings"

	"github.com/dgallion1/guideparse/internal/doctree"
)

// outline builds a DocTree from a flat stream of headings and text blocks.
// Headings nest by level; text is attached to the innermost open heading.
type outline struct {
	root    *doctree.DocNode
	stack   []outlineEntry
	pending []string
	page    int
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []outlineEntry{{node: root}}}
}

// setPage records the page for nodes opened from now on.
func (o *outline) setPage(page int) {
	if page != o.page {
		o.flush()
	}
	o.page = page
}

func (o *outline) heading(level int, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	o.flush()
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	n := &doctree.DocNode{Title: title, Page: o.page}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, n)
	o.stack = append(o.stack, outlineEntry{node: n, level: level})
}

func (o *outline) text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		o.pending = append(o.pending, t)
	}
}

func (o *outline) flush() {
	if len(o.pending) == 0 {
		return
	}
	body := strings.Join(o.pending, "\n\n")
	o.pending = o.pending[:0]

	top := o.stack[len(o.stack)-1].node
	switch {
	case top.Text == "" && (top.Page == o.page || top == o.root):
		top.Text = body
		if top == o.root {
			top.Page = o.page
		}
	case top.Page == o.page:
		top.Text += "\n\n" + body
	default:
		// Text continuing a heading onto a later page gets its own leaf.
		top.Children = append(top.Children, &doctree.DocNode{Text: body, Page: o.page})
	}
}

func (o *outline) tree(title string) *doctree.DocTree {
	o.flush()
	t := &doctree.DocTree{Title: title, Children: o.root.Children}
	if o.root.Text != "" {
		lead := &doctree.DocNode{Text: o.root.Text, Page: o.root.Page}
		t.Children = append([]*doctree.DocNode{lead}, t.Children...)
	}
	return t
}
